package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/marksheet-sorter/internal/mark"
)

// maxFileSize bounds settings and baseline files.
const maxFileSize = 1 * 1024 * 1024

// Settings is the parsed content of a settings file.
type Settings struct {
	// ResizeRatio shrinks sheets before reading. 0 means 1.
	ResizeRatio float64 `yaml:"resize_ratio"`

	CoordStyle     mark.CoordStyle `yaml:"sheet_coord_style"`
	GaussianKSize  int             `yaml:"sheet_gaussian_ksize"`
	GaussianSigma  float64         `yaml:"sheet_gaussian_std"`
	ScoreThreshold float64         `yaml:"sheet_score_threshold"`

	// Fit enables calibration against a blank reference sheet.
	Fit bool `yaml:"sheet_fit"`

	Sheet Sheet `yaml:"sheet"`
}

// Sheet is the ordered layout of a mark sheet.
type Sheet struct {
	Categories []Category
}

// Category is one question on the sheet.
type Category struct {
	Name   string
	Values []Value
}

// Value is one answer box of a category with its raw coordinates.
type Value struct {
	Name   string
	Coords []int
}

// UnmarshalYAML decodes the sheet mapping keeping the file order.
func (s *Sheet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: sheet must be a mapping of categories", mark.ErrConfiguration, node.Line)
	}

	seen := make(map[string]bool)
	s.Categories = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, body := node.Content[i], node.Content[i+1]
		if seen[key.Value] {
			return fmt.Errorf("%w: line %d: duplicate category %q", mark.ErrConfiguration, key.Line, key.Value)
		}
		seen[key.Value] = true

		category, err := decodeCategory(key.Value, body)
		if err != nil {
			return err
		}
		s.Categories = append(s.Categories, category)
	}
	return nil
}

func decodeCategory(name string, node *yaml.Node) (Category, error) {
	category := Category{Name: name}
	if node.ShortTag() == "!!null" {
		return category, nil
	}
	if node.Kind != yaml.MappingNode {
		return category, fmt.Errorf("%w: line %d: category %q must be a mapping of values",
			mark.ErrConfiguration, node.Line, name)
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, body := node.Content[i], node.Content[i+1]
		if seen[key.Value] {
			return category, fmt.Errorf("%w: line %d: duplicate value %q in category %q",
				mark.ErrConfiguration, key.Line, key.Value, name)
		}
		seen[key.Value] = true

		for _, item := range body.Content {
			if body.Kind == yaml.SequenceNode && item.ShortTag() != "!!int" {
				return category, fmt.Errorf("%w: line %d: %s.%s: coordinate %q is not an integer",
					mark.ErrConfiguration, item.Line, name, key.Value, item.Value)
			}
		}
		var coords []int
		if err := body.Decode(&coords); err != nil {
			return category, fmt.Errorf("%w: line %d: %s.%s: coordinates must be a list of integers",
				mark.ErrConfiguration, body.Line, name, key.Value)
		}
		category.Values = append(category.Values, Value{Name: key.Value, Coords: coords})
	}
	return category, nil
}

// MarshalYAML writes the sheet back as a mapping in its original order.
func (s Sheet) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, category := range s.Categories {
		values := &yaml.Node{Kind: yaml.MappingNode}
		for _, v := range category.Values {
			coords := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, c := range v.Coords {
				coords.Content = append(coords.Content, &yaml.Node{
					Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(c),
				})
			}
			values.Content = append(values.Content, stringNode(v.Name), coords)
		}
		root.Content = append(root.Content, stringNode(category.Name), values)
	}
	return root, nil
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Load reads and validates a settings file.
// The file must have a .yaml or .yml extension and be at most 1 MiB.
func Load(path string) (*Settings, error) {
	data, err := readBounded(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates settings from YAML data. Unknown keys are
// rejected. Every parse failure wraps mark.ErrConfiguration.
func Parse(data []byte) (*Settings, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	s := &Settings{}
	if err := dec.Decode(s); err != nil {
		if errors.Is(err, mark.ErrConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", mark.ErrConfiguration, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the settings to path as YAML.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the scalar parameters and the layout.
func (s *Settings) Validate() error {
	if s.ResizeRatio < 0 || s.ResizeRatio > 1 {
		return fmt.Errorf("%w: resize_ratio must be in (0, 1], got %v", mark.ErrConfiguration, s.ResizeRatio)
	}
	if err := s.Options().Validate(); err != nil {
		return err
	}
	layout, err := s.Layout()
	if err != nil {
		return err
	}
	_, err = mark.Normalize(s.CoordStyle, layout)
	return err
}

// Options returns the reader options the settings describe.
func (s *Settings) Options() mark.Options {
	return mark.DefaultOptions().
		WithStyle(s.CoordStyle).
		WithBlur(s.GaussianKSize, s.GaussianSigma).
		WithThreshold(s.ScoreThreshold)
}

// Layout converts the raw coordinates to typed regions of the configured
// style. A coordinate list of the wrong length wraps mark.ErrConfiguration.
func (s *Settings) Layout() (mark.Layout, error) {
	layout := make(mark.Layout, len(s.Sheet.Categories))
	for _, category := range s.Sheet.Categories {
		regions := make(map[string]mark.Region, len(category.Values))
		for _, v := range category.Values {
			region, err := toRegion(s.CoordStyle, v.Coords)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", mark.ErrConfiguration, category.Name, v.Name, err)
			}
			regions[v.Name] = region
		}
		layout[category.Name] = regions
	}
	return layout, nil
}

func toRegion(style mark.CoordStyle, c []int) (mark.Region, error) {
	want := 4
	if style == mark.StyleCircle {
		want = 3
	}
	if len(c) != want {
		return nil, fmt.Errorf("%s region needs %d coordinates, got %d", style, want, len(c))
	}

	switch style {
	case mark.StyleRect:
		return mark.CornerPair{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}, nil
	case mark.StyleBBox:
		return mark.Box{X: c[0], Y: c[1], W: c[2], H: c[3]}, nil
	default:
		return mark.Circle{X: c[0], Y: c[1], R: c[2]}, nil
	}
}

// CategoryNames returns the category names in file order.
func (s *Settings) CategoryNames() []string {
	names := make([]string, len(s.Sheet.Categories))
	for i, category := range s.Sheet.Categories {
		names[i] = category.Name
	}
	return names
}

// ValueOrder returns the value names of each category in file order.
func (s *Settings) ValueOrder() mark.ValueOrder {
	order := make(mark.ValueOrder, len(s.Sheet.Categories))
	for _, category := range s.Sheet.Categories {
		names := make([]string, len(category.Values))
		for i, v := range category.Values {
			names[i] = v.Name
		}
		order[category.Name] = names
	}
	return order
}

// Reader builds a mark reader for the settings' layout and options. Ties
// between equally scored values go to the one listed first in the file.
func (s *Settings) Reader() (*mark.Reader, error) {
	layout, err := s.Layout()
	if err != nil {
		return nil, err
	}
	return mark.NewOrderedReader(layout, s.ValueOrder(), s.Options())
}

// SaveBaseline writes a fitted baseline to a YAML file.
func SaveBaseline(path string, baseline mark.Baseline) error {
	if err := checkExt(path); err != nil {
		return err
	}
	data, err := yaml.Marshal(baseline)
	if err != nil {
		return fmt.Errorf("failed to encode baseline: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write baseline: %w", err)
	}
	return nil
}

// LoadBaseline reads a baseline written by SaveBaseline.
func LoadBaseline(path string) (mark.Baseline, error) {
	data, err := readBounded(path)
	if err != nil {
		return nil, err
	}
	var baseline mark.Baseline
	if err := yaml.Unmarshal(data, &baseline); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", mark.ErrConfiguration, path, err)
	}
	return baseline, nil
}

func checkExt(path string) error {
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("file must have .yaml or .yml extension, got %q", ext)
	}
}

func readBounded(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	if err := checkExt(cleanPath); err != nil {
		return nil, err
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", cleanPath, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%s too large: %d bytes (max %d)", cleanPath, info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cleanPath, err)
	}
	return data, nil
}
