package fits

import "strings"

func cardKeyword(card string) string {
	if len(card) > 8 {
		card = card[:8]
	}
	return strings.TrimRight(card, " ")
}

// Parses a header record
// FITS standard 3.3.1: The header of a primary HDU shall consist of one or
// more header blocks, each containing a series of 80-character keyword
// records containing only the restricted set of ASCII-text characters.
// Each 2880-byte header block contains 36 keyword records.
// The last header block must contain the END keyword, which marks the
// logical end of the header. Keyword records without information
// (e.g., following the END keyword) shall be filled with ASCII spaces.
//
// The second return value is false for commentary records (COMMENT,
// HISTORY, blank, CONTINUE) and END, which carry no value indicator.
func parseCard(card string) (*Header, bool) {
	header := &Header{Keyword: cardKeyword(card)}

	// Value indicator "= " in bytes 9 and 10.
	if len(card) < 10 || card[8:10] != "= " {
		return header, false
	}

	valueAndComment := strings.TrimLeft(card[10:], " ")

	if strings.HasPrefix(valueAndComment, "'") {
		value, rest := parseQuoted(valueAndComment[1:])
		header.Value = strings.TrimRight(value, " ")
		if slash := strings.IndexByte(rest, '/'); slash > -1 {
			header.Comment = strings.TrimSpace(rest[slash+1:])
		}
		return header, true
	}

	value := valueAndComment
	if slash := strings.IndexByte(valueAndComment, '/'); slash > -1 {
		value = valueAndComment[:slash]
		header.Comment = strings.TrimSpace(valueAndComment[slash+1:])
	}
	header.Value = strings.TrimSpace(value)

	return header, true
}

// parseQuoted reads a string value up to its closing quote. Two
// consecutive quotes stand for one literal quote.
func parseQuoted(s string) (value, rest string) {
	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return b.String(), s[i+1:]
	}

	// Unterminated string: keep what is there.
	return b.String(), ""
}
