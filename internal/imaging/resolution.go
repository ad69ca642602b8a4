package imaging

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Resolution is an image's pixel density in dots per inch. Zero components
// mean the file carries no density information.
type Resolution struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Known reports whether both components are set.
func (r Resolution) Known() bool {
	return r.X > 0 && r.Y > 0
}

// Scale returns the resolution multiplied by ratio, truncated like the pixel
// dimensions of a resized image.
func (r Resolution) Scale(ratio float64) Resolution {
	return Resolution{X: int(float64(r.X) * ratio), Y: int(float64(r.Y) * ratio)}
}

// ReadResolution extracts the density stored in encoded image data.
//
// Supported sources:
//   - PNG: the pHYs chunk, when its unit is meters
//   - JPEG: the JFIF APP0 density, in dots per inch or per centimeter
//
// Other formats, and files without density data, return the zero Resolution.
func ReadResolution(format string, data []byte) Resolution {
	switch format {
	case "png":
		return pngResolution(data)
	case "jpeg":
		return jfifResolution(data)
	}
	return Resolution{}
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func pngResolution(data []byte) Resolution {
	if !bytes.HasPrefix(data, pngSignature) {
		return Resolution{}
	}
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		kind := string(data[pos+4 : pos+8])
		body := pos + 8
		if length < 0 || body+length > len(data) {
			break
		}
		switch kind {
		case "pHYs":
			if length < 9 || data[body+8] != 1 {
				return Resolution{}
			}
			ppmX := float64(binary.BigEndian.Uint32(data[body:]))
			ppmY := float64(binary.BigEndian.Uint32(data[body+4:]))
			return Resolution{
				X: int(math.Round(ppmX * 0.0254)),
				Y: int(math.Round(ppmY * 0.0254)),
			}
		case "IDAT", "IEND":
			return Resolution{}
		}
		pos = body + length + 4 // skip CRC
	}
	return Resolution{}
}

func jfifResolution(data []byte) Resolution {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return Resolution{}
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return Resolution{}
		}
		marker := data[pos+1]
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		if length < 2 {
			return Resolution{}
		}
		seg := data[pos+4 : min(pos+2+length, len(data))]

		if marker == 0xE0 && len(seg) >= 12 && bytes.HasPrefix(seg, []byte("JFIF\x00")) {
			units := seg[7]
			x := float64(binary.BigEndian.Uint16(seg[8:]))
			y := float64(binary.BigEndian.Uint16(seg[10:]))
			switch units {
			case 1:
				return Resolution{X: int(x), Y: int(y)}
			case 2:
				return Resolution{X: int(math.Round(x * 2.54)), Y: int(math.Round(y * 2.54))}
			}
			return Resolution{}
		}
		if marker == 0xDA { // start of scan
			return Resolution{}
		}
		pos += 2 + length
	}
	return Resolution{}
}
