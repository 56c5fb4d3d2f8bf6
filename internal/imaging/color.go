package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Colorspace selects the pixel representation fed to the classifier.
type Colorspace int

// Colorspace codes.
const (
	RGB  Colorspace = 0 // red, green, blue in [0,1]
	TRGB Colorspace = 1 // RGB standardized per channel over the window
	HSV  Colorspace = 2 // hue, saturation, value in [0,1]
	GRAY Colorspace = 3 // luminance in [0,1]
)

// ParseColorspace validates a colorspace code.
func ParseColorspace(code int) (Colorspace, error) {
	cs := Colorspace(code)
	switch cs {
	case RGB, TRGB, HSV, GRAY:
		return cs, nil
	}
	return 0, fmt.Errorf("unknown colorspace code %d (0 RGB, 1 TRGB, 2 HSV, 3 GRAY)", code)
}

// String returns the colorspace name.
func (c Colorspace) String() string {
	switch c {
	case RGB:
		return "RGB"
	case TRGB:
		return "TRGB"
	case HSV:
		return "HSV"
	case GRAY:
		return "GRAY"
	}
	return fmt.Sprintf("Colorspace(%d)", int(c))
}

// Channels returns the number of values per pixel.
func (c Colorspace) Channels() int {
	if c == GRAY {
		return 1
	}
	return 3
}

// Features flattens img into a vector in row-major pixel order with
// c.Channels() interleaved values per pixel.
//
// # Conversion
//
//   - RGB: non-premultiplied 8-bit components divided by 255
//   - TRGB: RGB with every channel shifted to zero mean and scaled to unit
//     standard deviation over the whole image (constant channels become 0)
//   - HSV: hue divided by 360, saturation and value as-is; fully transparent
//     pixels map to 0
//   - GRAY: weighted luminance divided by 255
func Features(img image.Image, c Colorspace) []float64 {
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	out := make([]float64, 0, n*c.Channels())

	if c == GRAY {
		gray := effect.Grayscale(img)
		gb := gray.Bounds()
		for y := gb.Min.Y; y < gb.Max.Y; y++ {
			for x := gb.Min.X; x < gb.Max.X; x++ {
				// Grayscale stores the luminance in every color channel
				out = append(out, float64(gray.RGBAAt(x, y).R)/255)
			}
		}
		return out
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := img.At(x, y)
			if c == HSV {
				cf, ok := colorful.MakeColor(px)
				if !ok {
					out = append(out, 0, 0, 0)
					continue
				}
				h, s, v := cf.Hsv()
				out = append(out, h/360, s, v)
				continue
			}
			nc := color.NRGBAModel.Convert(px).(color.NRGBA)
			out = append(out, float64(nc.R)/255, float64(nc.G)/255, float64(nc.B)/255)
		}
	}

	if c == TRGB {
		standardize(out, 3)
	}
	return out
}

// standardize rescales each interleaved channel of v to zero mean and unit variance.
func standardize(v []float64, channels int) {
	n := len(v) / channels
	if n == 0 {
		return
	}
	for ch := 0; ch < channels; ch++ {
		var sum, sq float64
		for i := ch; i < len(v); i += channels {
			sum += v[i]
			sq += v[i] * v[i]
		}
		mean := sum / float64(n)
		std := math.Sqrt(math.Max(sq/float64(n)-mean*mean, 0))
		for i := ch; i < len(v); i += channels {
			if std == 0 {
				v[i] = 0
			} else {
				v[i] = (v[i] - mean) / std
			}
		}
	}
}
