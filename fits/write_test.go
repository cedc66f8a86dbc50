package fits

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamichael/fitsgroup/internal/fitstest"
)

func TestWriteTo_RoundTripsByteForByte(t *testing.T) {
	data := fitstest.Build(
		fitstest.Primary(""),
		fitstest.Image("SCI", 33, 17),
		fitstest.HDU{XTension: "BINTABLE", Name: "CAT", Bitpix: 8, Axes: []int{12, 5}},
	)

	in, err := parseBytes(t, data)
	require.NoError(t, err)

	out := New()
	for _, hdu := range in.HeaderDataUnits {
		out.Append(hdu)
	}

	var buf bytes.Buffer
	n, err := out.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, buf.Bytes())
}

func TestWriteTo_PadsAsciiTablesWithBlanks(t *testing.T) {
	table := fitstest.HDU{XTension: "TABLE", Name: "ASC", Bitpix: 8, Axes: []int{10, 1}, Data: []byte("0123456789")}

	in, err := parseBytes(t, fitstest.Build(fitstest.Primary(""), table))
	require.NoError(t, err)

	out := New()
	out.Append(in.HDU(0))
	out.Append(in.HDU(1))

	var buf bytes.Buffer
	_, err = out.WriteTo(&buf)
	require.NoError(t, err)

	written := buf.Bytes()
	require.Equal(t, 0, len(written)%BlockSize)
	assert.Equal(t, byte(' '), written[len(written)-1])
}

func TestWriteTo_Empty(t *testing.T) {
	_, err := New().WriteTo(&bytes.Buffer{})
	require.ErrorIs(t, err, ErrEmptyContainer)
}

func TestWriteTo_RejectsMisplacedHDUs(t *testing.T) {
	in, err := parseBytes(t, fitstest.Build(fitstest.Primary(""), fitstest.Image("SCI", 2)))
	require.NoError(t, err)

	t.Run("extension first", func(t *testing.T) {
		out := New()
		out.Append(in.HDU(1))
		_, err := out.WriteTo(&bytes.Buffer{})
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("second primary", func(t *testing.T) {
		out := New()
		out.Append(in.HDU(0))
		out.Append(in.HDU(0))
		_, err := out.WriteTo(&bytes.Buffer{})
		require.ErrorIs(t, err, ErrFormat)
	})
}

// Data is streamed from the source, so its file must still be open.
func TestWriteTo_SourceClosed(t *testing.T) {
	path := fitstest.WriteFile(t, t.TempDir(), "a.fits", fitstest.Primary(""), fitstest.Image("SCI", 8))

	in, err := Open(path)
	require.NoError(t, err)

	out := New()
	out.Append(in.HDU(0))
	out.Append(in.HDU(1))
	require.NoError(t, in.Close())

	_, err = out.WriteTo(&bytes.Buffer{})
	require.ErrorIs(t, err, ErrClosed)
	assert.Contains(t, err.Error(), path)
}
