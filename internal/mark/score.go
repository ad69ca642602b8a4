package mark

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/stat"
)

// Rect returns the box as an image rectangle relative to an image origin.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Clip returns the part of the box that lies inside an image of size w x h.
// The result is empty when the box has no pixels in the image.
func (b Box) Clip(w, h int) image.Rectangle {
	if b.W <= 0 || b.H <= 0 {
		return image.Rectangle{}
	}
	return b.Rect().Intersect(image.Rect(0, 0, w, h))
}

// MeanIntensity returns the mean pixel value of img inside box. Box
// coordinates are relative to the image origin and are clipped to the image
// bounds. A box with no pixels inside the image returns ErrOutOfBounds.
func MeanIntensity(img *image.Gray, box Box) (float64, error) {
	bounds := img.Bounds()
	r := box.Clip(bounds.Dx(), bounds.Dy())
	if r.Empty() {
		return 0, fmt.Errorf("%w: box (%d,%d,%d,%d) has no pixels in %dx%d image",
			ErrOutOfBounds, box.X, box.Y, box.W, box.H, bounds.Dx(), bounds.Dy())
	}

	// Every row of a rectangle has the same width, so the mean of the row
	// means is the mean of the region.
	row := make([]float64, r.Dx())
	rowMeans := make([]float64, 0, r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		pix := img.Pix[y*img.Stride+r.Min.X : y*img.Stride+r.Max.X]
		for i, v := range pix {
			row[i] = float64(v)
		}
		rowMeans = append(rowMeans, stat.Mean(row, nil))
	}
	return stat.Mean(rowMeans, nil), nil
}

// ScoreRegions computes the mean intensity of img inside every box.
//
// Parameters:
//   - img: A preprocessed image (marks are bright).
//   - boxes: Value name -> box for one category.
//   - baseline: Optional value name -> reference score. When non-nil every
//     score has its baseline subtracted; a value absent from baseline returns
//     ErrCalibrationMismatch.
//
// Returns the value name -> score mapping, or the first error encountered.
func ScoreRegions(img *image.Gray, boxes map[string]Box, baseline map[string]float64) (map[string]float64, error) {
	scores := make(map[string]float64, len(boxes))
	for _, value := range sortedKeys(boxes) {
		score, err := MeanIntensity(img, boxes[value])
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", value, err)
		}
		if baseline != nil {
			base, ok := baseline[value]
			if !ok {
				return nil, fmt.Errorf("%w: no baseline for value %q", ErrCalibrationMismatch, value)
			}
			score -= base
		}
		scores[value] = score
	}
	return scores, nil
}
