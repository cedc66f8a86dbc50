package fits

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/bits"
	"os"
	"strconv"
	"strings"
)

// The following reader is based on the FITS standard
// version 4.0

const (
	// BlockSize is the FITS logical record length. Each FITS structure
	// shall consist of an integral number of FITS blocks, which are each
	// 2880 bytes (23040 bits) in length.
	BlockSize = 2880
	// CardSize is the length of one header keyword record.
	CardSize = 80

	maxAxes = 999
)

type Header struct {
	Keyword string
	Value   string
	Comment string
}

// HeaderDataUnit is one header plus its data payload. The header bytes are
// held in memory; the data stays in the owning file and is streamed on demand.
type HeaderDataUnit struct {
	Headers   map[string]*Header
	fits      *File
	index     int
	cards     []string
	raw       []byte
	dataStart int64
	dataEnd   int64
}

// File is an ordered sequence of HDUs. Element 0 is the primary HDU.
type File struct {
	HeaderDataUnits []*HeaderDataUnit
	r               io.ReaderAt
	closer          io.Closer
	fileSize        int64
	filename        string
	closed          bool
}

// Open reads the header structure of a FITS file. The file stays open so
// HDU data can be streamed later; call Close when done.
func Open(filename string) (*File, error) {
	fitsFile, err := os.Open(filename)

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &PathError{Op: "open", Path: filename, Err: ErrNotFound}
		}
		return nil, &PathError{Op: "open", Path: filename, Err: err}
	}

	info, err := fitsFile.Stat()
	if err != nil {
		_ = fitsFile.Close()
		return nil, &PathError{Op: "stat", Path: filename, Err: err}
	}

	if info.IsDir() {
		_ = fitsFile.Close()
		return nil, &PathError{Op: "open", Path: filename, Err: formatErrorf("is a directory")}
	}

	f, err := Parse(fitsFile, info.Size())
	if err != nil {
		_ = fitsFile.Close()
		return nil, &PathError{Op: "parse", Path: filename, Err: err}
	}

	f.filename = filename
	f.closer = fitsFile

	return f, nil
}

// Parse reads the HDU structure from r, which holds size bytes. An empty
// input yields a File with no HDUs.
func Parse(r io.ReaderAt, size int64) (*File, error) {
	f := &File{
		HeaderDataUnits: make([]*HeaderDataUnit, 0),
		r:               r,
		fileSize:        size,
	}

	var offset int64
	for offset < f.fileSize {
		if len(f.HeaderDataUnits) > 0 {
			padding, err := f.isPadding(offset)
			if err != nil {
				return nil, err
			}
			if padding {
				break
			}
		}

		hdu, err := f.parseHeaders(offset)
		if err != nil {
			return nil, err
		}

		next := hdu.dataStart + paddedSize(hdu.DataSize())
		if next <= offset {
			return nil, formatErrorf("HDU %d does not advance past offset %d", hdu.index, offset)
		}
		offset = next
	}

	return f, nil
}

func (f *File) parseHeaders(offset int64) (*HeaderDataUnit, error) {
	hdu := &HeaderDataUnit{
		Headers: make(map[string]*Header),
		fits:    f,
		index:   len(f.HeaderDataUnits),
	}

	parsingHeaders := true

	for parsingHeaders {
		buffer := make([]byte, BlockSize)
		read, err := f.r.ReadAt(buffer, offset)

		if read < BlockSize {
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return nil, formatErrorf("HDU %d: header has no END card before byte %d", hdu.index, offset+int64(read))
		}

		offset += BlockSize
		hdu.raw = append(hdu.raw, buffer...)

		for start := 0; start < BlockSize; start += CardSize {
			card := string(buffer[start : start+CardSize])

			if len(hdu.cards) == 0 {
				if err := hdu.checkFirstCard(card); err != nil {
					return nil, err
				}
			}

			hdu.cards = append(hdu.cards, card)
			header, hasValue := parseCard(card)

			if header.Keyword == "END" {
				parsingHeaders = false
				break
			}

			if hasValue {
				hdu.Headers[header.Keyword] = header
			}
		}
	}

	hdu.dataStart = offset

	size, err := hdu.dataSize()
	if err != nil {
		return nil, fmt.Errorf("HDU %d: %w", hdu.index, err)
	}

	if size < 0 || size > f.fileSize-hdu.dataStart {
		return nil, formatErrorf("HDU %d: data needs %d bytes past offset %d but file is %d bytes",
			hdu.index, size, hdu.dataStart, f.fileSize)
	}

	hdu.dataEnd = hdu.dataStart + size

	f.HeaderDataUnits = append(f.HeaderDataUnits, hdu)

	return hdu, nil
}

// The primary header must begin with SIMPLE, every later one with XTENSION.
func (hdu *HeaderDataUnit) checkFirstCard(card string) error {
	want := "XTENSION"
	if hdu.index == 0 {
		want = "SIMPLE"
	}

	if keyword := cardKeyword(card); keyword != want {
		return formatErrorf("HDU %d starts with %q, expected %s", hdu.index, keyword, want)
	}

	return nil
}

// isPadding reports whether everything from offset to the end of the file
// is zero or blank fill, which some writers leave after the last HDU.
func (f *File) isPadding(offset int64) (bool, error) {
	buffer := make([]byte, BlockSize)

	for offset < f.fileSize {
		read, err := f.r.ReadAt(buffer, offset)
		for _, b := range buffer[:read] {
			if b != 0 && b != ' ' {
				return false, nil
			}
		}
		offset += int64(read)

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return false, err
		}
	}

	return true, nil
}

// Data size per FITS standard 4.0, eq. 2:
// |BITPIX|/8 * GCOUNT * (PCOUNT + NAXIS1 * ... * NAXISn)
func (hdu *HeaderDataUnit) dataSize() (int64, error) {
	bitpix, err := hdu.HeaderInt("BITPIX")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	elem, err := elementSize(bitpix)
	if err != nil {
		return 0, err
	}

	naxis, err := hdu.NaxisHeader(0)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if naxis < 0 || naxis > maxAxes {
		return 0, formatErrorf("NAXIS %d out of range", naxis)
	}

	if naxis == 0 {
		return 0, nil
	}

	// Random groups set NAXIS1 = 0 and leave it out of the product.
	groups := hdu.index == 0 && hdu.HeaderBool("GROUPS")

	elements := int64(1)
	ok := true
	for i := 1; i <= naxis; i++ {
		n, err := hdu.NaxisHeader(i)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if n < 0 {
			return 0, formatErrorf("NAXIS%d is negative", i)
		}
		if i == 1 && groups && n == 0 {
			continue
		}
		if elements, ok = mulSize(elements, int64(n)); !ok {
			return 0, formatErrorf("NAXIS%d = %d overflows the data size", i, n)
		}
	}

	pcount := hdu.headerIntOr("PCOUNT", 0)
	gcount := hdu.headerIntOr("GCOUNT", 1)

	if pcount < 0 || gcount < 0 {
		return 0, formatErrorf("negative PCOUNT or GCOUNT")
	}

	if int64(pcount) > math.MaxInt64-elements {
		return 0, formatErrorf("PCOUNT = %d overflows the data size", pcount)
	}

	size, ok := mulSize(int64(pcount)+elements, int64(gcount))
	if ok {
		size, ok = mulSize(size, int64(elem))
	}
	if !ok {
		return 0, formatErrorf("GCOUNT = %d overflows the data size", gcount)
	}

	return size, nil
}

// mulSize multiplies two non-negative sizes, reporting false if the product
// does not fit in an int64.
func mulSize(a, b int64) (int64, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func paddedSize(size int64) int64 {
	if rem := size % BlockSize; rem != 0 {
		return size + BlockSize - rem
	}
	return size
}

func (hdu *HeaderDataUnit) NaxisHeader(index int) (int, error) {
	naxisHeaderKey := "NAXIS"

	if index > 0 {
		naxisHeaderKey = fmt.Sprintf("NAXIS%d", index)
	}

	return hdu.HeaderInt(naxisHeaderKey)
}

func (hdu *HeaderDataUnit) HeaderInt(name string) (int, error) {

	header, hasHeader := hdu.Headers[name]

	if !hasHeader {
		return 0, errors.New("could not find " + name)
	}

	headerValue, err := strconv.Atoi(header.Value)

	if err != nil {
		return 0, fmt.Errorf("could not parse %s header: %w", name, err)
	}

	return headerValue, nil
}

func (hdu *HeaderDataUnit) headerIntOr(name string, fallback int) int {
	if v, err := hdu.HeaderInt(name); err == nil {
		return v
	}
	return fallback
}

// HeaderString returns the value of a keyword with quotes and trailing
// blanks removed, or "" if the keyword is absent.
func (hdu *HeaderDataUnit) HeaderString(name string) string {
	if header, ok := hdu.Headers[name]; ok {
		return header.Value
	}
	return ""
}

// HeaderBool reports whether a logical keyword is set to T.
func (hdu *HeaderDataUnit) HeaderBool(name string) bool {
	return hdu.HeaderString(name) == "T"
}

// Index is the position of the HDU in the file it was read from.
func (hdu *HeaderDataUnit) Index() int {
	return hdu.index
}

// File returns the container that owns the HDU's data.
func (hdu *HeaderDataUnit) File() *File {
	return hdu.fits
}

func (hdu *HeaderDataUnit) IsPrimary() bool {
	return len(hdu.cards) > 0 && cardKeyword(hdu.cards[0]) == "SIMPLE"
}

// Type is PRIMARY for a primary HDU, otherwise the XTENSION value
// (IMAGE, BINTABLE, TABLE, ...).
func (hdu *HeaderDataUnit) Type() string {
	if hdu.IsPrimary() {
		return "PRIMARY"
	}
	return hdu.HeaderString("XTENSION")
}

// Name returns EXTNAME, falling back to PRIMARY for a primary HDU.
func (hdu *HeaderDataUnit) Name() string {
	if name := hdu.HeaderString("EXTNAME"); name != "" {
		return name
	}
	if hdu.IsPrimary() {
		return "PRIMARY"
	}
	return ""
}

// Cards returns the raw 80-character header records up to and including END.
func (hdu *HeaderDataUnit) Cards() []string {
	return append([]string(nil), hdu.cards...)
}

// RawHeader returns the header blocks exactly as stored in the file.
func (hdu *HeaderDataUnit) RawHeader() []byte {
	return append([]byte(nil), hdu.raw...)
}

// DataSize is the unpadded length of the data payload in bytes.
func (hdu *HeaderDataUnit) DataSize() int64 {
	return hdu.dataEnd - hdu.dataStart
}

// DataReader returns a reader over the unpadded data payload. It fails with
// ErrClosed once the owning file has been closed.
func (hdu *HeaderDataUnit) DataReader() (*io.SectionReader, error) {
	if hdu.fits.closed {
		return nil, ErrClosed
	}
	return io.NewSectionReader(hdu.fits.r, hdu.dataStart, hdu.DataSize()), nil
}

// Name is the path the file was opened from.
func (f *File) Name() string {
	return f.filename
}

func (f *File) Len() int {
	return len(f.HeaderDataUnits)
}

func (f *File) HDU(index int) *HeaderDataUnit {
	return f.HeaderDataUnits[index]
}

// HeadersRaw returns every header card of every HDU, one per line.
func (f *File) HeadersRaw() string {
	var b strings.Builder
	for _, hdu := range f.HeaderDataUnits {
		for _, card := range hdu.cards {
			b.WriteString(card)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Close releases the underlying file handle. It is safe to call more than once.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
