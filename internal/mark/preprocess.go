package mark

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// smallGaussianKernels are the fixed kernels used for ksize <= 7 when no
// sigma is given, matching OpenCV's getGaussianKernel.
var smallGaussianKernels = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianKernel returns the normalized 1-D Gaussian kernel for the given
// size and standard deviation.
//
// Parameters:
//   - ksize: Kernel length, a positive odd number. 0 derives it from sigma as
//     round(6*sigma+1), forced odd.
//   - sigma: Standard deviation. Values <= 0 derive it from ksize as
//     0.3*((ksize-1)*0.5-1)+0.8.
//
// When both are zero the identity kernel {1} is returned.
func GaussianKernel(ksize int, sigma float64) []float64 {
	if ksize <= 0 {
		if sigma <= 0 {
			return []float64{1}
		}
		ksize = int(math.Round(sigma*6+1)) | 1
	}

	if sigma <= 0 {
		if fixed, ok := smallGaussianKernels[ksize]; ok {
			return append([]float64(nil), fixed...)
		}
		sigma = 0.3*(float64(ksize-1)*0.5-1) + 0.8
	}

	kernel := make([]float64, ksize)
	center := float64(ksize-1) / 2
	scale := -0.5 / (sigma * sigma)
	var sum float64
	for i := range kernel {
		x := float64(i) - center
		kernel[i] = math.Exp(scale * x * x)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// Preprocess smooths img with a Gaussian blur and inverts it so that filled
// (dark) marks become high values. The result has the same bounds as img.
//
// ksize and sigma follow GaussianKernel. Blurred values are rounded to the
// nearest level, so a uniform image keeps its value. The blur extends edge
// pixels outwards at the image border.
func Preprocess(img *image.Gray, ksize int, sigma float64) *image.Gray {
	var src image.Image = img

	if k := GaussianKernel(ksize, sigma); len(k) > 1 {
		src = convolution.Convolve(img, outerKernel(k), &convolution.Options{
			Bias:      0.5, // round to nearest on the uint8 conversion
			Wrap:      false,
			KeepAlpha: true,
		})
	}

	return grayFromRGBA(effect.Invert(src), img.Bounds())
}

// outerKernel builds the square 2-D kernel k^T * k.
func outerKernel(k []float64) *convolution.Kernel {
	n := len(k)
	kernel := convolution.NewKernel(n, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			kernel.Matrix[y*n+x] = k[y] * k[x]
		}
	}
	return kernel
}

// grayFromRGBA copies the red channel of a gray-valued RGBA image into a
// Gray image with the given bounds.
func grayFromRGBA(rgba *image.RGBA, bounds image.Rectangle) *image.Gray {
	out := image.NewGray(bounds)
	w, h := bounds.Dx(), bounds.Dy()
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}
