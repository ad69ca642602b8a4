package mark

import (
	"fmt"
	"sort"
)

// Region is a mark descriptor in one of the three coordinate styles:
// CornerPair, Box or Circle.
type Region interface {
	// Style reports the coordinate style the descriptor is written in.
	Style() CoordStyle

	// Box converts the descriptor to the canonical origin+size form.
	Box() Box
}

// CornerPair is a rectangle given by its top-left (X1,Y1) and
// bottom-right (X2,Y2) corners.
type CornerPair struct {
	X1, Y1, X2, Y2 int
}

// Box is a rectangle given by its top-left corner and size. It is the
// canonical form every other descriptor normalizes to.
type Box struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Circle is a round mark given by its center and radius.
type Circle struct {
	X, Y, R int
}

func (CornerPair) Style() CoordStyle { return StyleRect }
func (Box) Style() CoordStyle        { return StyleBBox }
func (Circle) Style() CoordStyle     { return StyleCircle }

// Box returns (x1, y1, x2-x1, y2-y1). Reversed corners give a negative size,
// which scores as an empty region.
func (c CornerPair) Box() Box {
	return Box{X: c.X1, Y: c.Y1, W: c.X2 - c.X1, H: c.Y2 - c.Y1}
}

// Box returns b unchanged.
func (b Box) Box() Box { return b }

// Box returns the circle's bounding square with the origin clamped at 0.
// A circle near the top or left edge therefore keeps its 2r size but is
// shifted inwards instead of cropped.
func (c Circle) Box() Box {
	return Box{X: max(c.X-c.R, 0), Y: max(c.Y-c.R, 0), W: 2 * c.R, H: 2 * c.R}
}

// Layout maps category -> value -> region descriptor.
type Layout map[string]map[string]Region

// BoxLayout is a Layout normalized to boxes.
type BoxLayout map[string]map[string]Box

// Normalize converts every descriptor in layout to a Box. All descriptors
// must be written in style; anything else is an ErrConfiguration.
func Normalize(style CoordStyle, layout Layout) (BoxLayout, error) {
	if _, err := style.MarshalText(); err != nil {
		return nil, err
	}

	out := make(BoxLayout, len(layout))
	for _, category := range sortedKeys(layout) {
		values := layout[category]
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: category %q has no values", ErrConfiguration, category)
		}
		boxes := make(map[string]Box, len(values))
		for value, region := range values {
			if value == "" {
				return nil, fmt.Errorf("%w: category %q has an empty value name", ErrConfiguration, category)
			}
			box, err := normalizeRegion(style, region)
			if err != nil {
				return nil, fmt.Errorf("%w (category %q, value %q)", err, category, value)
			}
			boxes[value] = box
		}
		out[category] = boxes
	}
	return out, nil
}

func normalizeRegion(style CoordStyle, region Region) (Box, error) {
	if region == nil {
		return Box{}, fmt.Errorf("%w: missing region descriptor", ErrConfiguration)
	}
	if region.Style() != style {
		return Box{}, fmt.Errorf("%w: %s descriptor in a %s layout", ErrConfiguration, region.Style(), style)
	}

	switch r := region.(type) {
	case CornerPair:
		return r.Box(), nil
	case Box:
		return r, nil
	case Circle:
		return r.Box(), nil
	default:
		return Box{}, fmt.Errorf("%w: unsupported region type %T", ErrConfiguration, region)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
