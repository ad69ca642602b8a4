package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/marksheet-sorter/internal/sorter"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--version"}, &out, &out))
	assert.Contains(t, out.String(), "marksort "+Version)
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-h"}, &out, &out))
	for _, want := range []string{"serve", "-settings", "-csv-encoding", "MARKSORT_LOG_LEVEL"} {
		assert.Contains(t, out.String(), want)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no flags", nil},
		{"missing input", []string{"-settings", "s.yaml"}},
		{"unknown flag", []string{"-bogus"}},
		{"extra arguments", []string{"-settings", "s.yaml", "-input", "in", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			assert.True(t, errors.Is(err, errUsage), "got %v", err)
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestRun_Sort(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "sheet.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte(`
sheet_coord_style: bbox
sheet:
  choice:
    A: [0, 0, 10, 10]
    B: [20, 0, 10, 10]
`), 0o644))

	input := filepath.Join(dir, "scans")
	require.NoError(t, os.MkdirAll(input, 0o755))
	img := image.NewGray(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			c := color.Gray{Y: 255}
			if x >= 20 && x < 30 && y < 10 {
				c = color.Gray{Y: 0}
			}
			img.SetGray(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(input, "sheet.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	var stdout, stderr bytes.Buffer
	err = run(context.Background(), []string{
		"-settings", settingsPath,
		"-input", input,
		"-workers", "1",
		"-csv", filepath.Join(dir, "log.csv"),
	}, &stdout, &stderr)
	require.NoError(t, err)

	var summary sorter.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 1, summary.Sorted)
	assert.Equal(t, map[string]int{"B": 1}, summary.PerFolder)
	assert.FileExists(t, filepath.Join(input+"_sorted", "B", "sheet.png"))

	logData, err := os.ReadFile(filepath.Join(dir, "log.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(logData), "path,choice\n"))
}

func TestRun_BadSettings(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-settings", filepath.Join(t.TempDir(), "missing.yaml"),
		"-input", t.TempDir(),
	}, &stdout, &stderr)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errUsage))
}
