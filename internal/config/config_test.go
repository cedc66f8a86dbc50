package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "group.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
input1: a.fits
input2: b.fits
input3: c.fits
output: out.fits
overwrite: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Input1:    "a.fits",
		Input2:    "b.fits",
		Input3:    "c.fits",
		Output:    "out.fits",
		Overwrite: true,
	}, cfg)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "output: grouped.fits\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultInput1, cfg.Input1)
	assert.Equal(t, "grouped.fits", cfg.Output)
	assert.False(t, cfg.Overwrite)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "input4: d.fits\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input4")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "missing input",
			mutate:  func(c *Config) { c.Input2 = "" },
			wantErr: "input2 is empty",
		},
		{
			name:    "missing output",
			mutate:  func(c *Config) { c.Output = "" },
			wantErr: "output is empty",
		},
		{
			name:    "output is an input",
			mutate:  func(c *Config) { c.Output = "./" + c.Input3 },
			wantErr: "is also input3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
