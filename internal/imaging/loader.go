package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// ErrUnsupportedFormat is returned for files that cannot be decoded as an
// image. Directory walks skip such files.
var ErrUnsupportedFormat = errors.New("imaging: not a decodable image")

// Sheet is one decoded scan: its source path, 8-bit grayscale pixels and
// resolution.
type Sheet struct {
	Path       string
	Image      *image.Gray
	Resolution Resolution
}

// LoadGray reads an image file as 8-bit grayscale.
//
// Parameters:
//   - path: Image file path. PNG, JPEG, GIF, TIFF and BMP are supported.
//   - resizeRatio: Scale factor in (0, 1]. Values below 1 shrink the image
//     (Lanczos) and scale the resolution by the same factor. 0 means 1.
//
// Returns:
//   - *Sheet: The grayscale image with its resolution (zero when unknown).
//   - error: ErrUnsupportedFormat when the file does not decode, or the
//     underlying I/O error.
//
// Color images are converted with ITU-R 601 luma weights.
func LoadGray(path string, resizeRatio float64) (*Sheet, error) {
	if resizeRatio == 0 {
		resizeRatio = 1
	}
	if resizeRatio < 0 || resizeRatio > 1 {
		return nil, fmt.Errorf("resize ratio must be in (0, 1], got %v", resizeRatio)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, path, err)
	}

	gray := ToGray(img)
	res := ReadResolution(format, data)
	if resizeRatio < 1 {
		w := int(float64(gray.Bounds().Dx()) * resizeRatio)
		h := int(float64(gray.Bounds().Dy()) * resizeRatio)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("resize ratio %v leaves no pixels in %s", resizeRatio, path)
		}
		gray = ToGray(imaging.Resize(gray, w, h, imaging.Lanczos))
		res = res.Scale(resizeRatio)
	}

	return &Sheet{Path: path, Image: gray, Resolution: res}, nil
}

// ToGray converts img to an 8-bit grayscale image whose bounds start at
// (0,0). Gray images already in that form are returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// SheetCache provides thread-safe caching of loaded sheets to avoid
// redundant disk reads and conversions.
//
// Entries are keyed by path and resize ratio, so the same file loaded at two
// ratios is cached twice. Cached sheets stay in memory until Evict or Clear.
type SheetCache struct {
	mu     sync.RWMutex
	sheets map[cacheKey]*Sheet
}

type cacheKey struct {
	path  string
	ratio float64
}

// NewSheetCache creates an empty cache.
func NewSheetCache() *SheetCache {
	return &SheetCache{
		sheets: make(map[cacheKey]*Sheet),
	}
}

// Load returns the cached sheet for path and ratio, loading it with
// LoadGray on a miss. Callers must not modify the returned image.
func (c *SheetCache) Load(path string, resizeRatio float64) (*Sheet, error) {
	if resizeRatio == 0 {
		resizeRatio = 1
	}
	key := cacheKey{path: path, ratio: resizeRatio}

	c.mu.RLock()
	if s, ok := c.sheets[key]; ok {
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	s, err := LoadGray(path, resizeRatio)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sheets[key] = s
	c.mu.Unlock()

	return s, nil
}

// Clear removes all sheets from the cache.
func (c *SheetCache) Clear() {
	c.mu.Lock()
	c.sheets = make(map[cacheKey]*Sheet)
	c.mu.Unlock()
}

// Evict removes every cached ratio of path.
func (c *SheetCache) Evict(path string) {
	c.mu.Lock()
	for key := range c.sheets {
		if key.path == path {
			delete(c.sheets, key)
		}
	}
	c.mu.Unlock()
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that recognized the file: "png", "jpeg", "gif",
	// "tiff" or "bmp".
	Format string `json:"format"`

	// Resolution is the stored density in DPI, zero when absent.
	Resolution Resolution `json:"resolution_dpi"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo reads an image's header and density without decoding the
// pixel data.
func LoadImageInfo(path string) (*ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, path, err)
	}

	return &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		Resolution:    ReadResolution(format, data),
		FileSizeBytes: int64(len(data)),
	}, nil
}
