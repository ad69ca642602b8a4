package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/marksheet-sorter/internal/mark"
)

// OverlayResult contains a sheet with its mark regions drawn on top.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Categories  int    `json:"categories"`
}

// MarkOverlay draws every region box of boxes onto a copy of img.
//
// Each category gets its own hue. Regions are
// outlined and labeled with their value name; the region selected in result
// (if any) is additionally filled with a translucent wash of that color.
// result may be nil to draw the layout alone.
func MarkOverlay(img image.Image, boxes mark.BoxLayout, result mark.Result) (*OverlayResult, error) {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	categories := sortedKeys(boxes)
	for i, category := range categories {
		r, g, b := categoryColor(i, len(categories)).RGB255()
		stroke := color.RGBA{r, g, b, 255}
		wash := color.RGBA{r / 2, g / 2, b / 2, 128} // premultiplied, 50% alpha

		selected := result[category]
		for _, value := range sortedKeys(boxes[category]) {
			box := boxes[category][value]
			rect := box.Rect().Intersect(canvas.Bounds())
			if rect.Empty() {
				continue
			}
			if value == selected {
				draw.Draw(canvas, rect, image.NewUniform(wash), image.Point{}, draw.Over)
			}
			drawOutline(canvas, rect, stroke)
			drawLabel(canvas, rect.Min.X, rect.Max.Y, value, stroke)
		}
	}

	encoded, err := encodePNG(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
		Categories:  len(categories),
	}, nil
}

// drawOutline draws a 1px rectangle border just inside r.
func drawOutline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

// drawLabel writes text with its top-left corner at (x, y). Glyphs the
// basic font lacks are drawn as boxes.
func drawLabel(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}

// categoryColor spreads n hues evenly around the color wheel so the same
// layout always renders in the same colors.
func categoryColor(i, n int) colorful.Color {
	return colorful.Hsv(360*float64(i)/float64(n), 0.85, 0.8)
}

// sortedKeys fixes the drawing order so overlapping regions render the same
// way every time.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
