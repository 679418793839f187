package preprocess

import "image"

// Adaptive threshold parameters: the neighborhood is an 11x11 window and a
// pixel must be at least thresholdOffset below the local mean to count as
// a stroke.
const (
	thresholdWindow = 11
	thresholdOffset = 2
)

// Binarize converts a grayscale image to an inverted binary image using an
// adaptive mean threshold: a pixel becomes foreground (255) when it is
// darker than the mean of its local window by at least the offset.
//
// The local mean adapts to uneven lighting, which fixed-threshold
// binarization handles poorly on phone photographs of paper. The output
// polarity is inverted relative to the input: dark strokes come out white,
// which is what the detection strategies expect.
func Binarize(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)
	if width == 0 || height == 0 {
		return out
	}

	integral := integralImage(gray)
	half := thresholdWindow / 2

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			x1 := max(0, x-half)
			y1 := max(0, y-half)
			x2 := min(width-1, x+half)
			y2 := min(height-1, y+half)

			count := (x2 - x1 + 1) * (y2 - y1 + 1)
			sum := windowSum(integral, width, x1, y1, x2, y2)
			mean := float64(sum) / float64(count)

			v := gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			if float64(v) < mean-thresholdOffset {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// integralImage computes the summed-area table of gray, with integral[y*w+x]
// holding the sum of all pixels in the rectangle from the origin through
// (x, y) inclusive.
func integralImage(gray *image.Gray) []int64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	integral := make([]int64, width*height)
	for y := 0; y < height; y++ {
		var rowSum int64
		for x := 0; x < width; x++ {
			rowSum += int64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			integral[y*width+x] = rowSum
			if y > 0 {
				integral[y*width+x] += integral[(y-1)*width+x]
			}
		}
	}
	return integral
}

// windowSum returns the pixel sum of the inclusive rectangle
// (x1, y1)-(x2, y2) using the summed-area table.
func windowSum(integral []int64, width, x1, y1, x2, y2 int) int64 {
	sum := integral[y2*width+x2]
	if x1 > 0 {
		sum -= integral[y2*width+x1-1]
	}
	if y1 > 0 {
		sum -= integral[(y1-1)*width+x2]
	}
	if x1 > 0 && y1 > 0 {
		sum += integral[(y1-1)*width+x1-1]
	}
	return sum
}
