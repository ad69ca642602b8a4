package mark

import (
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/marksheet-sorter/internal/logger"
)

// Baseline maps category -> value -> reference score captured by Fit.
type Baseline map[string]map[string]float64

// Clone returns a deep copy of the baseline.
func (b Baseline) Clone() Baseline {
	if b == nil {
		return nil
	}
	out := make(Baseline, len(b))
	for category, values := range b {
		copied := make(map[string]float64, len(values))
		for value, score := range values {
			copied[value] = score
		}
		out[category] = copied
	}
	return out
}

// Scores maps category -> value -> score.
type Scores map[string]map[string]float64

// Result maps each category to its selected value. An empty string means no
// mark was accepted for that category.
type Result map[string]string

// Selected returns the value chosen for category and whether there was one.
func (r Result) Selected(category string) (string, bool) {
	v := r[category]
	return v, v != ""
}

// Reader reads the marks of one sheet layout.
//
// Layout and Options are fixed at construction. The reader starts unfitted;
// Fit captures a baseline from a reference image, after which scores are
// baseline-corrected and the threshold applies.
//
// Read and Scores are safe for concurrent use, also while Fit runs: the
// baseline is replaced as a whole once a fit has completed.
type Reader struct {
	boxes      BoxLayout
	categories []string
	order      ValueOrder
	opts       Options
	log        *logrus.Entry

	mu       sync.RWMutex
	baseline Baseline
}

// ValueOrder lists the value names of each category in the order ties are
// broken, usually the order of the settings file.
type ValueOrder map[string][]string

// NewReader normalizes layout and validates opts. Ties between equally
// scored values go to the smallest value name.
//
// An empty layout is accepted: every Read then returns an empty Result and
// Fit does nothing. A warning is logged since that is rarely intended.
func NewReader(layout Layout, opts Options) (*Reader, error) {
	return NewOrderedReader(layout, nil, opts)
}

// NewOrderedReader is NewReader with ties broken by order. Categories or
// values order leaves out are ranked after the listed ones by name; names
// order lists that are not in layout are an ErrConfiguration.
func NewOrderedReader(layout Layout, order ValueOrder, opts Options) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	boxes, err := Normalize(opts.CoordStyle, layout)
	if err != nil {
		return nil, err
	}
	resolved, err := resolveOrder(boxes, order)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		boxes:      boxes,
		categories: sortedKeys(boxes),
		order:      resolved,
		opts:       opts,
		log:        logger.WithField("component", "mark_reader"),
	}
	if len(boxes) == 0 {
		r.log.Warn("layout has no mark categories; reads will return empty results")
	}
	r.log.WithFields(logrus.Fields{
		"style":      opts.CoordStyle.String(),
		"categories": len(boxes),
	}).Debug("reader created")
	return r, nil
}

// resolveOrder completes order so every category lists each of its values
// exactly once.
func resolveOrder(boxes BoxLayout, order ValueOrder) (ValueOrder, error) {
	for category := range order {
		if _, ok := boxes[category]; !ok {
			return nil, fmt.Errorf("%w: value order names unknown category %q", ErrConfiguration, category)
		}
	}

	out := make(ValueOrder, len(boxes))
	for category, values := range boxes {
		listed := make(map[string]bool, len(values))
		names := make([]string, 0, len(values))
		for _, value := range order[category] {
			if _, ok := values[value]; !ok {
				return nil, fmt.Errorf("%w: value order names unknown value %q in category %q",
					ErrConfiguration, value, category)
			}
			if listed[value] {
				return nil, fmt.Errorf("%w: value order lists %q twice in category %q",
					ErrConfiguration, value, category)
			}
			listed[value] = true
			names = append(names, value)
		}
		for _, value := range sortedKeys(values) {
			if !listed[value] {
				names = append(names, value)
			}
		}
		out[category] = names
	}
	return out, nil
}

// Options returns the options the reader was built with.
func (r *Reader) Options() Options { return r.opts }

// Categories returns the layout's category names in sorted order.
func (r *Reader) Categories() []string {
	return append([]string(nil), r.categories...)
}

// Boxes returns the normalized box of every region.
func (r *Reader) Boxes() BoxLayout {
	out := make(BoxLayout, len(r.boxes))
	for category, values := range r.boxes {
		copied := make(map[string]Box, len(values))
		for value, box := range values {
			copied[value] = box
		}
		out[category] = copied
	}
	return out
}

// Fitted reports whether a baseline is installed.
func (r *Reader) Fitted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseline != nil
}

// Baseline returns a copy of the current baseline, or nil when unfitted.
func (r *Reader) Baseline() Baseline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseline.Clone()
}

// Fit scores every region of a reference image and installs the result as
// the new baseline, replacing any earlier one. It does nothing for an empty
// layout. On error the previous baseline is kept.
func (r *Reader) Fit(img *image.Gray) error {
	if len(r.boxes) == 0 {
		r.log.Debug("fit skipped: no mark categories")
		return nil
	}

	prepared := r.preprocess(img)
	baseline := make(Baseline, len(r.boxes))
	for _, category := range r.categories {
		scores, err := ScoreRegions(prepared, r.boxes[category], nil)
		if err != nil {
			return fmt.Errorf("fit category %q: %w", category, err)
		}
		baseline[category] = scores
	}

	r.mu.Lock()
	r.baseline = baseline
	r.mu.Unlock()

	r.log.WithField("baseline", baseline).Debug("fit completed")
	return nil
}

// SetBaseline installs a baseline captured earlier, for example one loaded
// from disk. Entries are only checked when a read needs them.
func (r *Reader) SetBaseline(b Baseline) {
	if len(r.boxes) == 0 {
		return
	}
	b = b.Clone()
	r.mu.Lock()
	r.baseline = b
	r.mu.Unlock()
}

// Reset discards the baseline and returns the reader to the unfitted state.
func (r *Reader) Reset() {
	r.mu.Lock()
	r.baseline = nil
	r.mu.Unlock()
}

// Scores preprocesses img and returns the score of every region, baseline
// corrected when the reader is fitted.
func (r *Reader) Scores(img *image.Gray) (Scores, error) {
	scores, _, err := r.scores(img)
	return scores, err
}

// Read returns the selected value of every category in img.
func (r *Reader) Read(img *image.Gray) (Result, error) {
	if len(r.boxes) == 0 {
		r.log.Debug("read skipped: no mark categories")
		return Result{}, nil
	}

	scores, fitted, err := r.scores(img)
	if err != nil {
		return nil, err
	}

	result := make(Result, len(scores))
	for _, category := range r.categories {
		value, _ := SelectOrdered(scores[category], r.order[category], fitted, r.opts.ScoreThreshold)
		result[category] = value
		r.log.WithFields(logrus.Fields{
			"category": category,
			"scores":   scores[category],
			"value":    value,
		}).Debug("category read")
	}
	return result, nil
}

func (r *Reader) scores(img *image.Gray) (Scores, bool, error) {
	if len(r.boxes) == 0 {
		return Scores{}, false, nil
	}

	r.mu.RLock()
	baseline := r.baseline
	r.mu.RUnlock()
	fitted := baseline != nil

	prepared := r.preprocess(img)
	scores := make(Scores, len(r.boxes))
	for _, category := range r.categories {
		var base map[string]float64
		if fitted {
			var ok bool
			if base, ok = baseline[category]; !ok {
				return nil, fitted, fmt.Errorf("%w: no baseline for category %q", ErrCalibrationMismatch, category)
			}
			if base == nil {
				base = map[string]float64{}
			}
		}
		s, err := ScoreRegions(prepared, r.boxes[category], base)
		if err != nil {
			return nil, fitted, fmt.Errorf("category %q: %w", category, err)
		}
		scores[category] = s
	}
	return scores, fitted, nil
}

func (r *Reader) preprocess(img *image.Gray) *image.Gray {
	return Preprocess(img, r.opts.GaussianKSize, r.opts.GaussianSigma)
}
