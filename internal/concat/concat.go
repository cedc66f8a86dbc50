// Package concat groups the HDUs of several FITS files into one file: the
// primary HDU of the first input followed by every extension HDU of every
// input, in input order.
package concat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/noamichael/fitsgroup/fits"
	"github.com/noamichael/fitsgroup/internal/config"
)

var (
	// ErrAlreadyExists is returned when the output exists and overwrite is off.
	ErrAlreadyExists = errors.New("output already exists")
	// ErrWrite is returned when the output cannot be written.
	ErrWrite = errors.New("write failed")
)

// StepError records which step failed and on which file.
type StepError struct {
	Step string
	Path string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Path, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Source identifies where an output HDU came from.
type Source struct {
	Path  string
	Index int
	Name  string
	Type  string
}

// Result describes a completed run.
type Result struct {
	Output  string
	Sources []Source
}

// HDUs is the number of HDUs written.
func (r *Result) HDUs() int {
	return len(r.Sources)
}

// Concatenate writes cfg.Output from cfg's three inputs. The inputs are
// closed on every path, after the output is fully written or has failed.
// On failure no output file is left behind.
func Concatenate(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.Overwrite {
		if err := checkAbsent(cfg.Output); err != nil {
			return nil, err
		}
	}

	files := make([]*fits.File, 0, len(cfg.Inputs()))
	defer func() {
		for _, f := range files {
			if err := f.Close(); err != nil {
				logger.Warn("close input", "path", f.Name(), "error", err)
			}
		}
	}()

	for _, path := range cfg.Inputs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, err := fits.Open(path)
		if err != nil {
			return nil, &StepError{Step: "open", Path: path, Err: err}
		}
		files = append(files, f)

		logger.Debug("opened input", "path", path, "hdus", f.Len())
	}

	if err := checkNotInput(cfg.Output, cfg.Inputs()); err != nil {
		return nil, err
	}

	out, err := Plan(files...)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("writing output", "path", cfg.Output, "hdus", out.Len())

	if err := writeFile(cfg.Output, out, cfg.Overwrite); err != nil {
		return nil, err
	}

	result := newResult(cfg.Output, out)
	logger.Info("grouped FITS files", "output", cfg.Output, "hdus", result.HDUs())

	return result, nil
}

// Plan assembles the output container from already open files: the primary
// HDU of the first file, then HDUs 1..end of each file in order. The
// result shares HDUs with the inputs.
func Plan(files ...*fits.File) (*fits.File, error) {
	if len(files) == 0 {
		return nil, fits.ErrEmptyContainer
	}

	for _, f := range files {
		if f.Len() == 0 {
			return nil, &StepError{Step: "plan", Path: f.Name(), Err: fits.ErrEmptyContainer}
		}
	}

	out := fits.New()
	out.Append(files[0].HDU(0))

	for _, f := range files {
		for i := 1; i < f.Len(); i++ {
			out.Append(f.HDU(i))
		}
	}

	return out, nil
}

func checkAbsent(path string) error {
	_, err := os.Lstat(path)
	if err == nil {
		return &StepError{Step: "check output", Path: path, Err: ErrAlreadyExists}
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return &StepError{Step: "check output", Path: path, Err: fmt.Errorf("%w: %w", ErrWrite, err)}
	}
	return nil
}

// checkNotInput rejects an output that resolves to one of the inputs through
// a symlink, a hard link or a different spelling of the same path.
func checkNotInput(output string, inputs []string) error {
	outInfo, err := os.Stat(output)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &StepError{Step: "check output", Path: output, Err: fmt.Errorf("%w: %w", ErrWrite, err)}
	}

	for i, in := range inputs {
		inInfo, err := os.Stat(in)
		if err != nil {
			return &StepError{Step: "check output", Path: in, Err: err}
		}
		if os.SameFile(outInfo, inInfo) {
			return &StepError{
				Step: "check output",
				Path: output,
				Err:  fmt.Errorf("%w: output is the same file as input%d %s", config.ErrInvalid, i+1, in),
			}
		}
	}
	return nil
}

func newResult(output string, out *fits.File) *Result {
	result := &Result{Output: output}
	for _, hdu := range out.HeaderDataUnits {
		result.Sources = append(result.Sources, Source{
			Path:  hdu.File().Name(),
			Index: hdu.Index(),
			Name:  hdu.Name(),
			Type:  hdu.Type(),
		})
	}
	return result
}
