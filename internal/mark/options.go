package mark

import (
	"fmt"
	"strings"
)

// CoordStyle selects how region descriptors in a Layout are written.
type CoordStyle int

const (
	// StyleCircle describes a mark by center and radius. It is the zero value.
	StyleCircle CoordStyle = iota
	// StyleRect describes a mark by its top-left and bottom-right corners.
	StyleRect
	// StyleBBox describes a mark by its top-left corner, width and height.
	StyleBBox
)

// String returns the settings-file spelling of the style.
func (s CoordStyle) String() string {
	switch s {
	case StyleCircle:
		return "circle"
	case StyleRect:
		return "rect"
	case StyleBBox:
		return "bbox"
	default:
		return fmt.Sprintf("CoordStyle(%d)", int(s))
	}
}

// ParseCoordStyle parses "rect", "bbox" or "circle". An empty string yields
// the default circle style.
func ParseCoordStyle(s string) (CoordStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "circle", "":
		return StyleCircle, nil
	case "rect":
		return StyleRect, nil
	case "bbox":
		return StyleBBox, nil
	default:
		return 0, fmt.Errorf("%w: unknown coordinate style %q", ErrConfiguration, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CoordStyle) MarshalText() ([]byte, error) {
	switch s {
	case StyleCircle, StyleRect, StyleBBox:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("%w: unknown coordinate style %d", ErrConfiguration, int(s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CoordStyle) UnmarshalText(text []byte) error {
	parsed, err := ParseCoordStyle(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Options configures a Reader. It is copied at construction and never
// changed afterwards.
type Options struct {
	// CoordStyle is the style every region in the layout is written in.
	CoordStyle CoordStyle

	// GaussianKSize is the blur kernel size. It must be 0 or a positive odd
	// number. 0 derives the size from GaussianSigma.
	GaussianKSize int

	// GaussianSigma is the blur standard deviation. Values <= 0 derive it
	// from GaussianKSize. Both zero disables smoothing.
	GaussianSigma float64

	// ScoreThreshold is the corrected score a fitted reader requires before it
	// accepts a selection.
	ScoreThreshold float64
}

// DefaultOptions returns circle coordinates, no blur and a zero threshold.
func DefaultOptions() Options {
	return Options{
		CoordStyle:     StyleCircle,
		GaussianKSize:  0,
		GaussianSigma:  0,
		ScoreThreshold: 0,
	}
}

// WithStyle returns a copy using the given coordinate style.
func (o Options) WithStyle(style CoordStyle) Options {
	o.CoordStyle = style
	return o
}

// WithBlur returns a copy with the given Gaussian kernel size and sigma.
func (o Options) WithBlur(ksize int, sigma float64) Options {
	o.GaussianKSize = ksize
	o.GaussianSigma = sigma
	return o
}

// WithThreshold returns a copy with the given score threshold.
func (o Options) WithThreshold(threshold float64) Options {
	o.ScoreThreshold = threshold
	return o
}

// Validate checks the blur parameters.
func (o Options) Validate() error {
	if o.GaussianKSize < 0 || (o.GaussianKSize > 0 && o.GaussianKSize%2 == 0) {
		return fmt.Errorf("%w: gaussian kernel size must be 0 or a positive odd number, got %d",
			ErrConfiguration, o.GaussianKSize)
	}
	if _, err := o.CoordStyle.MarshalText(); err != nil {
		return err
	}
	return nil
}
