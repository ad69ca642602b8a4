package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// withPHYs inserts a pHYs chunk declaring dpi right after the IHDR chunk.
func withPHYs(t *testing.T, pngData []byte, dpi int) []byte {
	t.Helper()
	const ihdrEnd = 8 + 8 + 13 + 4
	if len(pngData) < ihdrEnd {
		t.Fatal("png data too short")
	}

	ppm := uint32(float64(dpi)/0.0254 + 0.5)
	body := make([]byte, 9)
	binary.BigEndian.PutUint32(body[0:], ppm)
	binary.BigEndian.PutUint32(body[4:], ppm)
	body[8] = 1

	var chunk bytes.Buffer
	binary.Write(&chunk, binary.BigEndian, uint32(len(body)))
	typed := append([]byte("pHYs"), body...)
	chunk.Write(typed)
	binary.Write(&chunk, binary.BigEndian, crc32.ChecksumIEEE(typed))

	out := append([]byte{}, pngData[:ihdrEnd]...)
	out = append(out, chunk.Bytes()...)
	return append(out, pngData[ihdrEnd:]...)
}

// withJFIF inserts a JFIF APP0 segment after the SOI marker.
func withJFIF(jpegData []byte, units byte, x, y uint16) []byte {
	seg := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, units}
	seg = binary.BigEndian.AppendUint16(seg, x)
	seg = binary.BigEndian.AppendUint16(seg, y)
	seg = append(seg, 0x00, 0x00)

	out := append([]byte{}, jpegData[:2]...)
	out = append(out, seg...)
	return append(out, jpegData[2:]...)
}

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	path := writePNG(t, t.TempDir(), "r.png", createInMemoryImage(8, 8, color.White))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func encodeTestJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createInMemoryImage(8, 8, color.White), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadResolution(t *testing.T) {
	plainPNG := encodeTestPNG(t)
	plainJPEG := encodeTestJPEG(t)

	tests := []struct {
		name   string
		format string
		data   []byte
		want   Resolution
	}{
		{"png without pHYs", "png", plainPNG, Resolution{}},
		{"png 300 dpi", "png", withPHYs(t, plainPNG, 300), Resolution{300, 300}},
		{"png 200 dpi", "png", withPHYs(t, plainPNG, 200), Resolution{200, 200}},
		{"jpeg without JFIF", "jpeg", plainJPEG, Resolution{}},
		{"jpeg dpi", "jpeg", withJFIF(plainJPEG, 1, 300, 150), Resolution{300, 150}},
		{"jpeg dpcm", "jpeg", withJFIF(plainJPEG, 2, 118, 118), Resolution{300, 300}},
		{"jpeg aspect only", "jpeg", withJFIF(plainJPEG, 0, 1, 1), Resolution{}},
		{"gif", "gif", []byte("GIF89a"), Resolution{}},
		{"truncated png", "png", plainPNG[:12], Resolution{}},
		{"garbage jpeg", "jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, Resolution{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReadResolution(tt.format, tt.data)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadResolution_DecodableFiles(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "a.png")
	if err := os.WriteFile(pngPath, withPHYs(t, encodeTestPNG(t), 300), 0o644); err != nil {
		t.Fatal(err)
	}
	jpegPath := filepath.Join(dir, "b.jpg")
	if err := os.WriteFile(jpegPath, withJFIF(encodeTestJPEG(t), 1, 200, 200), 0o644); err != nil {
		t.Fatal(err)
	}

	for path, want := range map[string]Resolution{pngPath: {300, 300}, jpegPath: {200, 200}} {
		info, err := LoadImageInfo(path)
		if err != nil {
			t.Fatalf("LoadImageInfo(%s) failed: %v", path, err)
		}
		if info.Resolution != want {
			t.Errorf("%s: got %+v, want %+v", path, info.Resolution, want)
		}
	}
}

func TestResolutionScale(t *testing.T) {
	r := Resolution{X: 300, Y: 200}
	if got := r.Scale(0.5); got != (Resolution{150, 100}) {
		t.Errorf("Scale(0.5): got %+v", got)
	}
	if (Resolution{X: 300}).Known() {
		t.Error("half-set resolution should not be known")
	}
	if !r.Known() {
		t.Error("full resolution should be known")
	}
}
