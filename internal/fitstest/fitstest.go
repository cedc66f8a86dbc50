// Package fitstest builds small synthetic FITS files for tests.
package fitstest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// HDU describes one header-data unit to generate. Data defaults to a
// deterministic byte pattern derived from Name when nil.
type HDU struct {
	Primary  bool
	XTension string
	Name     string
	Bitpix   int
	Axes     []int
	Extra    []string
	Data     []byte
}

// Primary returns a primary HDU with no data.
func Primary(name string) HDU {
	return HDU{Primary: true, Name: name, Bitpix: 8}
}

// Image returns an IMAGE extension of 16-bit pixels with the given axes.
func Image(name string, axes ...int) HDU {
	return HDU{XTension: "IMAGE", Name: name, Bitpix: 16, Axes: axes}
}

// Card formats one 80-character keyword record.
func Card(keyword, value, comment string) string {
	card := fmt.Sprintf("%-8s= %20s", keyword, value)
	if comment != "" {
		card += " / " + comment
	}
	return pad(card)
}

// StringCard formats a keyword record with a quoted string value.
func StringCard(keyword, value string) string {
	quoted := "'" + strings.ReplaceAll(value, "'", "''")
	for len(quoted) < 9 {
		quoted += " "
	}
	return pad(fmt.Sprintf("%-8s= %s'", keyword, quoted))
}

func pad(card string) string {
	if len(card) > cardSize {
		return card[:cardSize]
	}
	return card + strings.Repeat(" ", cardSize-len(card))
}

// Header returns the padded header blocks for h.
func (h HDU) Header() []byte {
	var cards []string
	if h.Primary {
		cards = append(cards, Card("SIMPLE", "T", "conforms to FITS standard"))
	} else {
		cards = append(cards, StringCard("XTENSION", h.XTension))
	}
	cards = append(cards,
		Card("BITPIX", fmt.Sprint(h.Bitpix), ""),
		Card("NAXIS", fmt.Sprint(len(h.Axes)), ""),
	)
	for i, n := range h.Axes {
		cards = append(cards, Card(fmt.Sprintf("NAXIS%d", i+1), fmt.Sprint(n), ""))
	}
	if !h.Primary {
		cards = append(cards, Card("PCOUNT", "0", ""), Card("GCOUNT", "1", ""))
	}
	if h.Name != "" {
		cards = append(cards, StringCard("EXTNAME", h.Name))
	}
	cards = append(cards, h.Extra...)
	cards = append(cards, pad("END"))

	header := []byte(strings.Join(cards, ""))
	return padTo(header, ' ')
}

// DataBytes returns the unpadded payload for h.
func (h HDU) DataBytes() []byte {
	if h.Data != nil {
		return h.Data
	}
	if len(h.Axes) == 0 {
		return nil
	}

	size := abs(h.Bitpix) / 8
	for _, n := range h.Axes {
		size *= n
	}

	data := make([]byte, size)
	seed := byte(len(h.Name))
	for _, c := range []byte(h.Name) {
		seed = seed*31 + c
	}
	for i := range data {
		data[i] = seed + byte(i)
	}
	return data
}

// Bytes returns the full encoded HDU, header and padded data.
func (h HDU) Bytes() []byte {
	data := append([]byte(nil), h.DataBytes()...)
	return append(h.Header(), padTo(data, 0)...)
}

// Build encodes the HDUs back to back.
func Build(hdus ...HDU) []byte {
	var buf bytes.Buffer
	for _, h := range hdus {
		buf.Write(h.Bytes())
	}
	return buf.Bytes()
}

// WriteFile encodes the HDUs into dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, hdus ...HDU) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(hdus...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func padTo(b []byte, fill byte) []byte {
	if rem := len(b) % blockSize; rem != 0 {
		b = append(b, bytes.Repeat([]byte{fill}, blockSize-rem)...)
	}
	return b
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
