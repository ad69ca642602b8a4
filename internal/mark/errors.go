package mark

import "errors"

// Error kinds returned by this package. They are always wrapped with the
// category and value involved; test with errors.Is.
var (
	// ErrConfiguration reports a malformed layout or option set.
	ErrConfiguration = errors.New("mark: configuration error")

	// ErrCalibrationMismatch reports a region read that has no baseline entry.
	ErrCalibrationMismatch = errors.New("mark: calibration mismatch")

	// ErrOutOfBounds reports a region with no pixels inside the image.
	ErrOutOfBounds = errors.New("mark: region outside image")
)
