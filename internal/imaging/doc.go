// Package imaging loads scanned mark sheets and renders views of them.
//
// Sheets are decoded from PNG, JPEG, GIF, TIFF or BMP and converted to 8-bit
// grayscale with their bounds at (0,0), the form the mark reader works on.
// A resize ratio below 1 shrinks the sheet before reading and scales the
// stored resolution along with it.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Boxes are (x, y, w, h)
// with the far edges exclusive.
//
// # Resolution
//
// Density is read from PNG pHYs chunks and JPEG JFIF headers and reported
// in dots per inch. Files without density information report zero.
//
// # Thread Safety
//
// SheetCache is safe for concurrent use. Other functions are stateless.
// Cached sheets are shared, so callers must treat their pixels as read-only.
//
// # Rendering
//
// CropBox and MarkOverlay return base64 PNG data for display by clients that
// cannot read files directly.
package imaging
