package pipeline

import (
	"github.com/chewxy/math32"

	"backdrop-engine/core"
	"backdrop-engine/math"
)

// ACESFilmic is the fitted ACES curve with an exposure multiplier, matching
// the tone mapping of the output pass. Alpha passes through.
func ACESFilmic(c core.Color, exposure float32) core.Color {
	e := exposure / 0.6
	r, g, b := c.R*e, c.G*e, c.B*e

	// input matrix
	ir := 0.59719*r + 0.35458*g + 0.04823*b
	ig := 0.07600*r + 0.90834*g + 0.01566*b
	ib := 0.02840*r + 0.13383*g + 0.83777*b

	ir, ig, ib = rrtAndODTFit(ir), rrtAndODTFit(ig), rrtAndODTFit(ib)

	// output matrix
	outR := 1.60475*ir - 0.53108*ig - 0.07367*ib
	outG := -0.10208*ir + 1.10813*ig - 0.00605*ib
	outB := -0.00327*ir - 0.07276*ig + 1.07602*ib

	return core.Color{
		R: math.Clamp(outR, 0, 1),
		G: math.Clamp(outG, 0, 1),
		B: math.Clamp(outB, 0, 1),
		A: c.A,
	}
}

func rrtAndODTFit(v float32) float32 {
	a := v*(v+0.0245786) - 0.000090537
	b := v*(0.983729*v+0.4329510) + 0.238081
	return a / b
}

// LinearToSRGB encodes one linear channel with the piecewise sRGB curve.
func LinearToSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math32.Pow(v, 1/2.4) - 0.055
}

// EncodeSRGB applies LinearToSRGB to the color channels.
func EncodeSRGB(c core.Color) core.Color {
	return core.Color{R: LinearToSRGB(c.R), G: LinearToSRGB(c.G), B: LinearToSRGB(c.B), A: c.A}
}

// highPassLuma weights the luminosity high pass.
func highPassLuma(c core.Color) float32 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}
