package concat

import (
	"fmt"
	"strings"

	"github.com/noamichael/fitsgroup/fits"
)

// Summary is a one-line description of an HDU.
type Summary struct {
	Index     int
	Name      string
	Type      string
	Bitpix    int
	Axes      []int
	DataBytes int64
}

func (s Summary) String() string {
	dims := make([]string, len(s.Axes))
	for i, n := range s.Axes {
		dims[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("%-4d %-12s %-10s %-8s (%s) %d bytes",
		s.Index, s.Name, s.Type, fits.BitpixType(s.Bitpix), strings.Join(dims, ", "), s.DataBytes)
}

// Describe lists the HDUs of one file.
func Describe(path string) ([]Summary, error) {
	f, err := fits.Open(path)
	if err != nil {
		return nil, &StepError{Step: "open", Path: path, Err: err}
	}
	defer f.Close()

	summaries := make([]Summary, 0, f.Len())
	for _, hdu := range f.HeaderDataUnits {
		summaries = append(summaries, summarize(hdu))
	}
	return summaries, nil
}

// Parse already rejected HDUs with a missing or malformed BITPIX or NAXISn,
// so the errors below cannot occur.
func summarize(hdu *fits.HeaderDataUnit) Summary {
	bitpix, _ := hdu.HeaderInt("BITPIX")
	naxis, _ := hdu.NaxisHeader(0)

	axes := make([]int, 0, naxis)
	for i := 1; i <= naxis; i++ {
		n, _ := hdu.NaxisHeader(i)
		axes = append(axes, n)
	}

	return Summary{
		Index:     hdu.Index(),
		Name:      hdu.Name(),
		Type:      hdu.Type(),
		Bitpix:    bitpix,
		Axes:      axes,
		DataBytes: hdu.DataSize(),
	}
}
