package imaging

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestLoadGray(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "sheet.png", createInMemoryImage(40, 20, color.RGBA{255, 0, 0, 255}))

	sheet, err := LoadGray(path, 1)
	if err != nil {
		t.Fatalf("LoadGray failed: %v", err)
	}

	if sheet.Path != path {
		t.Errorf("Path: got %s, want %s", sheet.Path, path)
	}
	if b := sheet.Image.Bounds(); b.Dx() != 40 || b.Dy() != 20 || b.Min != (image.Point{}) {
		t.Errorf("bounds: got %v, want (0,0)-(40,20)", b)
	}
	// 0.299*255 rounded by the gray model
	if got := sheet.Image.GrayAt(3, 3).Y; got != 76 {
		t.Errorf("gray value: got %d, want 76", got)
	}
	if sheet.Resolution.Known() {
		t.Errorf("expected unknown resolution, got %+v", sheet.Resolution)
	}
}

func TestLoadGray_Resize(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "sheet.png", createInMemoryImage(100, 50, color.White))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, withPHYs(t, data, 300), 0o644); err != nil {
		t.Fatal(err)
	}

	sheet, err := LoadGray(path, 0.5)
	if err != nil {
		t.Fatalf("LoadGray failed: %v", err)
	}

	if b := sheet.Image.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Errorf("resized dimensions: got %dx%d, want 50x25", b.Dx(), b.Dy())
	}
	if sheet.Resolution != (Resolution{X: 150, Y: 150}) {
		t.Errorf("resolution: got %+v, want 150x150", sheet.Resolution)
	}
	if got := sheet.Image.GrayAt(25, 12).Y; got != 255 {
		t.Errorf("white sheet after resize: got %d, want 255", got)
	}
}

func TestLoadGray_InvalidRatio(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "sheet.png", createInMemoryImage(10, 10, color.White))

	for _, ratio := range []float64{-0.5, 1.5} {
		if _, err := LoadGray(path, ratio); err == nil {
			t.Errorf("expected error for ratio %v", ratio)
		}
	}
}

func TestLoadGray_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("not really a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGray(path, 1)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadGray_Missing(t *testing.T) {
	_, err := LoadGray(filepath.Join(t.TempDir(), "missing.png"), 1)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Error("missing file should not be reported as unsupported format")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestToGray(t *testing.T) {
	t.Run("offset bounds", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(5, 5, 15, 10))
		src.Set(5, 5, color.White)
		gray := ToGray(src)
		if gray.Bounds() != image.Rect(0, 0, 10, 5) {
			t.Fatalf("bounds: got %v, want (0,0)-(10,5)", gray.Bounds())
		}
		if gray.GrayAt(0, 0).Y != 255 {
			t.Errorf("origin pixel: got %d, want 255", gray.GrayAt(0, 0).Y)
		}
	})

	t.Run("gray passthrough", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, 4, 4))
		if ToGray(src) != src {
			t.Error("zero-origin gray image should be returned as is")
		}
	})
}

func TestSheetCache(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "sheet.png", createInMemoryImage(20, 20, color.White))
	cache := NewSheetCache()

	first, err := cache.Load(path, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := cache.Load(path, 1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if first != second {
		t.Error("ratio 0 and 1 should share one cache entry")
	}

	half, err := cache.Load(path, 0.5)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if half == first {
		t.Error("different ratios should be cached separately")
	}

	cache.Evict(path)
	third, err := cache.Load(path, 1)
	if err != nil {
		t.Fatalf("Load after evict failed: %v", err)
	}
	if third == first {
		t.Error("Evict should drop cached sheets")
	}

	cache.Clear()
	if len(cache.sheets) != 0 {
		t.Errorf("Clear left %d entries", len(cache.sheets))
	}
}

func TestSheetCache_Concurrent(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "sheet.png", createInMemoryImage(20, 20, color.White))
	cache := NewSheetCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path, 1); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestLoadImageInfo(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "sheet.png", createPatternImage(64, 32))

	info, err := LoadImageInfo(path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}

	if info.Width != 64 || info.Height != 32 {
		t.Errorf("dimensions: got %dx%d, want 64x32", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	stat, _ := os.Stat(path)
	if info.FileSizeBytes != stat.Size() {
		t.Errorf("FileSizeBytes: got %d, want %d", info.FileSizeBytes, stat.Size())
	}
}
