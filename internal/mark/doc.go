// Package mark detects which bubble of an answer sheet was filled in.
//
// A Layout groups candidate mark regions into categories (one question each)
// and names every region with the value it stands for. A Reader turns a
// grayscale sheet image into one selected value per category:
//
//  1. Preprocess: Gaussian blur, then invert so ink becomes bright.
//  2. Score: mean intensity inside every region box, clipped to the image.
//  3. Select: the highest score wins within each category.
//
// # Coordinate Styles
//
// Regions may be written as corner pairs (x1,y1,x2,y2), boxes (x,y,w,h) or
// circles (cx,cy,r). A layout uses one style throughout, chosen by
// Options.CoordStyle, and is normalized to boxes once in NewReader. Circles
// become their bounding square with the origin clamped at (0,0).
//
// # Calibration
//
// Fit scores a reference image (typically a blank sheet of the same print
// run) and keeps those scores as a baseline. Later reads subtract it, and a
// category whose best corrected score is not above Options.ScoreThreshold
// reads as no selection. Unfitted readers always report the best value.
//
// # Errors
//
// Failures wrap one of ErrConfiguration, ErrCalibrationMismatch or
// ErrOutOfBounds; use errors.Is to tell them apart. A region with no pixels
// inside the image is an error rather than a zero score.
//
// # Thread Safety
//
// Read and Scores may run concurrently on one Reader. Fit, SetBaseline and
// Reset swap the baseline atomically, so a concurrent read sees either the
// old or the new one.
package mark
