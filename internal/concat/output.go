package concat

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/noamichael/fitsgroup/fits"
)

// writeFile writes out to a temporary file next to path and publishes it
// only once it is complete. Without overwrite the publish is a hard link,
// which fails if path appeared in the meantime.
func writeFile(path string, out *fits.File, overwrite bool) (err error) {
	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return writeError(path, err)
	}
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
			err = writeError(path, rmErr)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if _, err := out.WriteTo(bw); err != nil {
		_ = tmp.Close()
		return writeError(path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return writeError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return writeError(path, err)
	}

	if overwrite {
		if err := os.Rename(tmpPath, path); err != nil {
			return writeError(path, err)
		}
		return nil
	}

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &StepError{Step: "publish", Path: path, Err: ErrAlreadyExists}
		}
		return writeError(path, err)
	}

	return nil
}

func writeError(path string, err error) error {
	return &StepError{Step: "write", Path: path, Err: fmt.Errorf("%w: %w", ErrWrite, err)}
}
