package sorter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding names accepted for the CSV log.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

// csvEncoder returns the encoder for name, or nil for UTF-8.
func csvEncoder(name string) (*encoding.Encoder, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "", "utf_8", "utf8":
		return nil, nil
	case "shift_jis", "sjis", "cp932":
		return japanese.ShiftJIS.NewEncoder(), nil
	default:
		return nil, fmt.Errorf("unsupported csv encoding %q", name)
	}
}

// resultWriter writes the per-sheet CSV log.
type resultWriter struct {
	f   *os.File
	enc io.WriteCloser
	w   *csv.Writer
}

// newResultWriter creates path and writes the header row.
func newResultWriter(path, encodingName string, header []string) (*resultWriter, error) {
	encoder, err := csvEncoder(encodingName)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create csv log: %w", err)
	}

	rw := &resultWriter{f: f}
	var out io.Writer = f
	if encoder != nil {
		rw.enc = transform.NewWriter(f, encoder)
		out = rw.enc
	}
	rw.w = csv.NewWriter(out)

	if err := rw.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return rw, nil
}

// Write appends one row.
func (rw *resultWriter) Write(row []string) error {
	if err := rw.w.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (rw *resultWriter) Close() error {
	rw.w.Flush()
	err := rw.w.Error()
	if rw.enc != nil {
		if cerr := rw.enc.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := rw.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write csv log: %w", err)
	}
	return nil
}
