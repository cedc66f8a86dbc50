package fits

import (
	"bytes"
	"fmt"
	"io"
)

// New returns an empty, writable container. HDUs appended to it are shared
// with the files they were read from, so those files must stay open until
// WriteTo returns.
func New() *File {
	return &File{
		HeaderDataUnits: make([]*HeaderDataUnit, 0),
	}
}

// Append adds hdu to the end of the container without copying it.
func (f *File) Append(hdu *HeaderDataUnit) {
	f.HeaderDataUnits = append(f.HeaderDataUnits, hdu)
}

// WriteTo writes every HDU in order: header blocks verbatim, then the data
// payload streamed from its source file and padded to a block boundary.
// Headers are not rewritten, so the first HDU must be a primary HDU and
// the rest must be extensions.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	if len(f.HeaderDataUnits) == 0 {
		return 0, ErrEmptyContainer
	}

	var written int64

	for i, hdu := range f.HeaderDataUnits {
		if (i == 0) != hdu.IsPrimary() {
			return written, formatErrorf("HDU %d (%s) cannot be written at position %d", hdu.index, hdu.Type(), i)
		}

		n, err := w.Write(hdu.raw)
		written += int64(n)
		if err != nil {
			return written, err
		}

		copied, err := hdu.writeData(w)
		written += copied
		if err != nil {
			return written, fmt.Errorf("HDU %d of %s: %w", hdu.index, hdu.fits.filename, err)
		}
	}

	return written, nil
}

func (hdu *HeaderDataUnit) writeData(w io.Writer) (int64, error) {
	data, err := hdu.DataReader()
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(w, data)
	if err != nil {
		return written, err
	}

	pad := paddedSize(written) - written
	if pad == 0 {
		return written, nil
	}

	// ASCII tables are padded with blanks, everything else with zeros.
	fill := byte(0)
	if hdu.Type() == "TABLE" {
		fill = ' '
	}

	n, err := w.Write(bytes.Repeat([]byte{fill}, int(pad)))
	return written + int64(n), err
}
