package mark

import (
	"image"
	"image/color"
)

// createGrayImage creates a uniform grayscale image.
func createGrayImage(width, height int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// paintBox fills a box of img with v, clipped to the image.
func paintBox(img *image.Gray, b Box, v uint8) {
	r := b.Rect().Add(img.Bounds().Min).Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

// choiceLayout is two circle marks side by side: A covers (0,0)-(10,10) and
// B covers (20,0)-(30,10).
func choiceLayout() Layout {
	return Layout{
		"choice": {
			"A": Circle{X: 5, Y: 5, R: 5},
			"B": Circle{X: 25, Y: 5, R: 5},
		},
	}
}

// choiceSheet paints raw intensities into the A and B regions of a white
// 40x20 sheet. After preprocessing the regions score 255-a and 255-b.
func choiceSheet(a, b uint8) *image.Gray {
	img := createGrayImage(40, 20, 255)
	paintBox(img, Box{X: 0, Y: 0, W: 10, H: 10}, a)
	paintBox(img, Box{X: 20, Y: 0, W: 10, H: 10}, b)
	return img
}
