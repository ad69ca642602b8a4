package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/marksheet-sorter/internal/mark"
)

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropBox extracts a mark box plus pad pixels on every side, clipped to the
// image, and optionally scales it for inspection.
func CropBox(img image.Image, box mark.Box, pad int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	grown := mark.Box{X: box.X - pad, Y: box.Y - pad, W: box.W + 2*pad, H: box.H + 2*pad}
	r := grown.Clip(bounds.Dx(), bounds.Dy())
	if r.Empty() {
		return nil, fmt.Errorf("crop box (%d,%d,%d,%d) outside image bounds %dx%d",
			box.X, box.Y, box.W, box.H, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(img, r.Add(bounds.Min))

	if scale != 1.0 && scale > 0 {
		newWidth := max(int(float64(cropped.Bounds().Dx())*scale), 1)
		newHeight := max(int(float64(cropped.Bounds().Dy())*scale), 1)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.NearestNeighbor)
	}

	encoded, err := encodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
