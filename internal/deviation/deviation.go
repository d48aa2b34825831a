// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deviation implements the subsonic exit-flow-angle correlations:
// Aungier, Ainley-Mathieson, zero-deviation and Borg-Agromayor.
package deviation

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/turbo-sim/turboflow-go/internal/angle"
	"github.com/turbo-sim/turboflow-go/internal/geometry"
)

// Model names the selectable deviation correlation (model_options.deviation_model).
type Model string

const (
	Aungier         Model = "aungier"
	AinleyMathieson Model = "ainley_mathieson"
	ZeroDeviation   Model = "zero_deviation"
	BorgAgromayor   Model = "borg_agromayor"
)

// blend is the fifth-order polynomial smoothly carrying delta_0 to zero
// between Ma=0.5 and the critical Mach, shared by aungier and
// ainley_mathieson.
func blend(x float64) float64 {
	return 1 - 10*x*x*x + 15*x*x*x*x - 6*x*x*x*x*x
}

// Beta returns the unsigned magnitude of the exit flow angle (degrees) for
// the selected model, given the exit relative Mach, the critical Mach at
// the throat and at the exit, and the cascade geometry. Callers apply the
// sign of the plane's own beta (flow always leaves on the same side of the
// axial direction it entered), matching the convention of every cascade/
// choking residual that uses a deviation prediction. Only valid in the
// subsonic/transonic branch (Ma_exit < 1); callers must not invoke it when
// the flow is supersonic.
func Beta(model Model, maExit, maCritThroat, maCritExit float64, g *geometry.Cascade) (float64, error) {
	switch model {
	case Aungier:
		return aungier(maExit, maCritExit, g), nil
	case AinleyMathieson:
		return ainleyMathieson(maExit, maCritExit, g), nil
	case ZeroDeviation:
		return zeroDeviation(g), nil
	case BorgAgromayor:
		return borgAgromayor(maExit, maCritThroat, maCritExit, g), nil
	default:
		return 0, chk.Err("deviation: unknown model %q", model)
	}
}

func aungier(maExit, maCritExit float64, g *geometry.Cascade) float64 {
	gauge := math.Abs(g.MetalAngleTE)
	betaG := 90 - gauge
	delta0 := angle.Arcsind(angle.Cosd(gauge)*(1+(1-angle.Cosd(gauge))*(betaG/90)*(betaG/90))) - betaG

	var delta float64
	switch {
	case maExit < 0.5:
		delta = delta0
	case maExit < maCritExit:
		x := (2*maExit - 1) / (2*maCritExit - 1)
		delta = delta0 * blend(x)
	default:
		delta = 0
	}
	return gauge - delta
}

func ainleyMathieson(maExit, maCritExit float64, g *geometry.Cascade) float64 {
	gauge := math.Abs(g.MetalAngleTE)
	delta0 := gauge - (35.0 + (80.0-35.0)/(79.0-40.0)*(gauge-40.0))

	var delta float64
	switch {
	case maExit < 0.5:
		delta = delta0
	case maExit < maCritExit:
		x := (2*maExit - 1) / (2*maCritExit - 1)
		delta = delta0 * blend(x)
	default:
		delta = 0
	}
	return gauge - delta
}

func zeroDeviation(g *geometry.Cascade) float64 {
	return g.GaugingAngle()
}

func borgAgromayor(maExit, maCritThroat, maCritExit float64, g *geometry.Cascade) float64 {
	gauge := math.Abs(g.MetalAngleTE)
	betaInc := 35.0 + (80.0-35.0)/(79.0-40.0)*(gauge-40.0)
	const maInc = 0.5
	x := (maExit - maInc) / (maCritExit - maInc)
	y := 0.0
	if x > 0 {
		y = x * x * (2 - x)
	}
	return betaInc + (gauge-betaInc)*y
}
