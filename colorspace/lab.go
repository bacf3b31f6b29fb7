package colorspace

import (
	"image/color"
	"math"

	"github.com/hupe1980/slichash/model"
)

// D65 reference white.
const (
	whiteX = 0.950456
	whiteY = 1.0
	whiteZ = 1.088754
)

const (
	labEpsilon = 0.008856
	labKappa   = 903.3
)

// linear maps an 8-bit sRGB value to linear light.
var linear = func() (t [256]float64) {
	for i := range t {
		v := float64(i) / 255
		if v <= 0.04045 {
			t[i] = v / 12.92
		} else {
			t[i] = math.Pow((v+0.055)/1.055, 2.4)
		}
	}
	return t
}()

// Lab converts sRGB to CIELAB (D65) in the 8-bit OpenCV encoding:
// L*·255/100, a*+128, b*+128.
type Lab struct{}

func (Lab) Convert(c color.NRGBA) [model.Channels]uint8 {
	l, a, b := ToLab(c.R, c.G, c.B)
	return [model.Channels]uint8{
		toByte(l * 255 / 100),
		toByte(a + 128),
		toByte(b + 128),
	}
}

func (Lab) Name() string { return "lab" }

// ToLab converts an 8-bit sRGB triple to CIELAB with L* in [0, 100].
func ToLab(r, g, b uint8) (l, a, bb float64) {
	R, G, B := linear[r], linear[g], linear[b]

	x := (R*0.4124564 + G*0.3575761 + B*0.1804375) / whiteX
	y := (R*0.2126729 + G*0.7151522 + B*0.0721750) / whiteY
	z := (R*0.0193339 + G*0.1191920 + B*0.9503041) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)

	return 116*fy - 16, 500 * (fx - fy), 200 * (fy - fz)
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16) / 116
}

func toByte(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v))))
}
