// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loss implements the Benner / Kacker-Okapuu total-pressure loss
// model: profile, trailing-edge, secondary, tip-clearance
// and incidence contributions, each a closed-form correlation in geometry
// and flow variables. Some limits are smoothed with log-sum-exp soft
// max/min (shock term, profile floor, trailing-edge ratio cap,
// penetration-depth cap, incidence-loss limit); the Reynolds, supersonic
// Mach, compressibility, blade-type, aspect-ratio and incidence-side
// branches are plain if/else switches and are not smoothed.
package loss

import (
	"math"

	"github.com/turbo-sim/turboflow-go/internal/angle"
	"github.com/turbo-sim/turboflow-go/internal/geometry"
	"github.com/turbo-sim/turboflow-go/internal/smoothmath"
)

// Model names the selectable loss correlation (model_options.loss_model).
// Benner is the only model this core implements.
type Model string

const Benner Model = "benner"

// sharpness is the default soft-max/min sharpness used for the smooth
// blends demanded by A single module-wide constant keeps every
// blend at a comparable, well-tested curvature; it is not exposed as a
// solver-facing unknown.
const sharpness = 60.0

func smax(x, y float64) float64 { return smoothmath.Max(smoothmath.LogSumExp, sharpness, x, y) }
func smin(x, y float64) float64 { return smoothmath.Max(smoothmath.LogSumExp, -sharpness, x, y) }

// Flow carries the flow-side inputs to the loss correlations, evaluated at
// the cascade's inlet and exit planes.
type Flow struct {
	ReOut     float64
	MaRelIn   float64
	MaRelOut  float64
	ReIn      float64
	P0RelIn   float64
	PIn       float64
	P0RelOut  float64
	POut      float64
	BetaIn    float64
	BetaOut   float64
	GammaOut  float64
}

// Breakdown is the additive decomposition of the total loss coefficient
//.
type Breakdown struct {
	Profile    float64
	Incidence  float64
	Trailing   float64
	Secondary  float64
	Clearance  float64
	Total      float64
	Penetration float64 // Z_TE, the penetration-depth fraction
}

// defaultInletDisplacementThicknessRatio is the fixed baseline value for
// delta*/height at the cascade inlet, scaled by (Re_in/3e5)^(-1/7)
//.
const defaultInletDisplacementThicknessRatio = 0.06

// Compute evaluates the five loss contributions and their sum, applying
// the trailing-edge penetration-depth correction to profile, incidence and
// trailing losses.
func Compute(f Flow, g *geometry.Cascade) Breakdown {
	betaDes := g.MetalAngleLE

	deltaHeight := defaultInletDisplacementThicknessRatio * math.Pow(f.ReIn/3e5, -1.0/7.0)

	yp := profileLoss(f, g)
	yte := trailingEdgeLoss(f, g)
	ys := secondaryLoss(f, g, deltaHeight)
	ycl := tipClearanceLoss(f, g)
	yinc := incidenceLoss(f, g, betaDes)
	zte := penetrationDepth(f, g, deltaHeight)

	yp *= 1 - zte
	yte *= 1 - zte
	yinc *= 1 - zte

	return Breakdown{
		Profile:     yp,
		Incidence:   yinc,
		Trailing:    yte,
		Secondary:   ys,
		Clearance:   ycl,
		Total:       yp + yte + ys + ycl + yinc,
		Penetration: zte,
	}
}

func profileLoss(f Flow, g *geometry.Cascade) float64 {
	re := f.ReOut
	var fRe float64
	if re < 2e5 {
		fRe = math.Pow(re/2e5, -0.4)
	} else if re <= 1e6 {
		fRe = 1
	} else {
		fRe = math.Pow(re/1e6, -0.2)
	}

	fMa := 1.0
	if f.MaRelOut > 1 {
		fMa = 1 + 60*(f.MaRelOut-1)*(f.MaRelOut-1)
	}

	fHub := hubToMeanMachRatio(g.HubTipRatioIn, g.Kind)
	a := smax(fHub*f.MaRelIn-0.4, 0)
	yShock := smax(0.75*math.Pow(a, 1.75)*g.HubTipRatioIn*(f.P0RelIn-f.PIn)/(f.P0RelOut-f.POut), 0)

	kp, _, _ := compressibleCorrectionFactors(f.MaRelIn, f.MaRelOut)

	angleOutBis := smax(math.Abs(f.BetaOut), 40)
	ypReaction := nozzleBlades(g.PitchToChord, angleOutBis)
	ypImpulse := impulseBlades(g.PitchToChord, angleOutBis)

	thetaIn := g.MetalAngleLE
	betaOut := f.BetaOut
	yp := ypReaction - math.Abs(thetaIn/betaOut)*(thetaIn/betaOut)*(ypImpulse-ypReaction)
	yp = smax(yp, 0.8*ypReaction)

	aa := smax(-thetaIn/betaOut, 0)
	yp = yp * math.Pow(g.ThicknessMaxToChord/0.2, aa)
	yp = 0.914 * (2.0/3.0*yp*kp + yShock)

	return fRe * fMa * yp
}

func hubToMeanMachRatio(rht float64, kind geometry.Kind) float64 {
	rht = smax(rht, 0.5)
	xs := []float64{0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	var ys []float64
	if kind == geometry.Stator {
		ys = []float64{1.4, 1.18, 1.05, 1.0, 1.0, 1.0}
	} else {
		ys = []float64{2.15, 1.7, 1.35, 1.12, 1.0, 1.0}
	}
	return interp(rht, xs, ys)
}

func compressibleCorrectionFactors(maRelIn, maRelOut float64) (kp, k2, k1 float64) {
	switch {
	case maRelOut < 0.2:
		k1 = 1
	case maRelOut < 1.0:
		k1 = 1 - 1.25*(maRelOut-0.2)
	default:
		k1 = 0
	}
	k2 = (maRelIn / maRelOut) * (maRelIn / maRelOut)
	kp = 1 - k2*(1-k1)
	kp = smax(kp, 0.1)
	return
}

func nozzleBlades(rsc, angleOut float64) float64 {
	phi := 90 - angleOut
	var rscMin, a float64
	if phi < 30 {
		rscMin = 0.46 + phi/77
		a = 0.025 + (27-phi)/530
	} else {
		rscMin = 0.614 + phi/130
		a = 0.025 + (27-phi)/3085
	}
	x := rsc - rscMin
	b := 0.1583 - phi/1640
	c := 0.08 * (math.Pow(phi/30, 2) - 1)
	n := 1 + phi/30
	if phi < 30 {
		return a + b*x*x + c*x*x*x
	}
	return a + b*math.Pow(math.Abs(x), n)
}

func impulseBlades(rsc, angleOut float64) float64 {
	phi := 90 - angleOut
	rscMin := 0.224 + 1.575*(phi/90) - (phi/90)*(phi/90)
	x := rsc - rscMin
	a := 0.242 - phi/151 + math.Pow(phi/127, 2)
	var b float64
	if phi < 30 {
		b = 0.3 + (30-phi)/50
	} else {
		b = 0.3 + (30-phi)/275
	}
	c := 0.88 - phi/42.4 + math.Pow(phi/72.8, 2)
	return a + b*x*x - c*x*x*x
}

func trailingEdgeLoss(f Flow, g *geometry.Cascade) float64 {
	rTOData := []float64{0, 0.2, 0.4}
	phiReaction := []float64{0, 0.045, 0.15}
	phiImpulse := []float64{0, 0.025, 0.075}

	rTo := smin(0.4, g.ThicknessTE/g.Opening)
	dReaction := interp(rTo, rTOData, phiReaction)
	dImpulse := interp(rTo, rTOData, phiImpulse)

	angleIn := g.MetalAngleLE
	angleOut := f.BetaOut
	dPhi2 := dReaction - math.Abs(angleIn/angleOut)*(angleIn/angleOut)*(dImpulse-dReaction)
	dPhi2 = smax(dPhi2, dImpulse/2)

	return 1/(1-dPhi2) - 1
}

func secondaryLoss(f Flow, g *geometry.Cascade, deltaHeight float64) float64 {
	betaIn, betaOut := f.BetaIn, f.BetaOut
	ar := g.AspectRatio
	cr := angle.Cosd(betaIn) / angle.Cosd(betaOut)
	stagger := g.StaggerAngle

	if ar <= 2 {
		denom := math.Sqrt(angle.Cosd(stagger)) * cr * math.Pow(ar, 0.55) * math.Pow(angle.Cosd(betaOut)/angle.Cosd(stagger), 0.55)
		return (0.038 + 0.41*math.Tanh(1.2*deltaHeight)) / denom
	}
	denom := math.Sqrt(angle.Cosd(stagger)) * cr * ar * math.Pow(angle.Cosd(betaOut)/angle.Cosd(stagger), 0.55)
	return (0.052 + 0.56*math.Tanh(1.2*deltaHeight)) / denom
}

func tipClearanceLoss(f Flow, g *geometry.Cascade) float64 {
	betaIn, betaOut := f.BetaIn, f.BetaOut
	angleM := angle.Arctand((angle.Tand(betaIn) + angle.Tand(betaOut)) / 2)
	z := 4 * math.Pow(angle.Tand(betaIn)-angle.Tand(betaOut), 2) * math.Pow(angle.Cosd(betaOut), 2) / angle.Cosd(angleM)

	b := 0.0
	if g.Kind == geometry.Rotor {
		b = 0.37
	}
	return b * z * g.Chord / g.Height * math.Pow(g.TipClearance/g.Height, 0.78)
}

func incidenceLoss(f Flow, g *geometry.Cascade, betaDes float64) float64 {
	chi := incidenceParameter(g.DiameterLE, g.Pitch, g.WedgeAngleLE, g.MetalAngleLE, g.MetalAngleTE, f.BetaIn, betaDes)
	dphi := incidenceProfileLossIncrement(chi)
	return convertKineticEnergyCoefficient(dphi, f.GammaOut, f.MaRelOut)
}

func incidenceParameter(le, s, we, thetaIn, thetaOut, betaIn, betaDes float64) float64 {
	return math.Pow(le/s, -0.05) * math.Pow(we, -0.2) * math.Pow(angle.Cosd(thetaIn)/angle.Cosd(thetaOut), -1.4) * (math.Abs(betaIn) - math.Abs(betaDes))
}

var incidenceCoeffsPositive = [8]float64{
	-6.149e-5, 1.327e-3, -2.506e-4, -1.542e-4, 9.017e-5, 1.106e-5, -5.318e-6, 3.711e-7,
}
var incidenceCoeffsNegative = [2]float64{-8.72e-4, 1.358e-4}

func polyEval(coeffs []float64, x float64) float64 {
	sum := 0.0
	xp := x
	for _, c := range coeffs {
		sum += c * xp
		xp *= x
	}
	return sum
}

func polySlope(coeffs []float64, x float64) float64 {
	sum := 0.0
	xp := 1.0
	for i, c := range coeffs {
		sum += float64(i+1) * c * xp
		xp *= x
	}
	return sum
}

const incidenceChiExtrapolation = 5.0
const incidenceLossLimit = 0.5

func incidenceProfileLossIncrement(chi float64) float64 {
	var poly float64
	if chi >= 0 {
		poly = polyEval(incidenceCoeffsPositive[:], chi)
	} else {
		poly = polyEval(incidenceCoeffsNegative[:], chi)
	}

	lossAtLimit := polyEval(incidenceCoeffsPositive[:], incidenceChiExtrapolation)
	slope := polySlope(incidenceCoeffsPositive[:], incidenceChiExtrapolation)
	extrap := lossAtLimit + slope*(chi-incidenceChiExtrapolation)

	loss := poly
	if chi > incidenceChiExtrapolation {
		loss = extrap
	}

	return smoothmath.Max(smoothmath.LogSumExp, -25, loss, incidenceLossLimit)
}

func convertKineticEnergyCoefficient(dphi, gamma, maRelOut float64) float64 {
	denom := 1 - math.Pow(1+(gamma-1)/2*maRelOut*maRelOut, -gamma/(gamma-1))
	numer := math.Pow(1-(gamma-1)/2*maRelOut*maRelOut*(1/(1-dphi)-1), -gamma/(gamma-1)) - 1
	return numer / denom
}

func penetrationDepth(f Flow, g *geometry.Cascade, deltaHeight float64) float64 {
	betaIn, betaOut := f.BetaIn, f.BetaOut
	cr := angle.Cosd(betaIn) / angle.Cosd(betaOut)
	bsx := g.AxialChord / g.Pitch
	ar := g.AspectRatio

	ft := fT(bsx, betaIn, betaOut)
	zte := 0.10*math.Pow(ft, 0.79)/math.Sqrt(cr)/math.Pow(ar, 0.55) + 32.70*deltaHeight*deltaHeight
	return smin(zte, 0.99)
}

func fT(bsx, betaIn, betaOut float64) float64 {
	am := angle.Arctand(0.5 * (angle.Tand(betaIn) + angle.Tand(betaOut)))
	return 2 / bsx * math.Pow(angle.Cosd(am), 2) * (math.Abs(angle.Tand(betaIn)) + math.Abs(angle.Tand(betaOut)))
}

func interp(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	n := len(xs)
	if x >= xs[n-1] {
		return ys[n-1]
	}
	for i := 1; i < n; i++ {
		if x <= xs[i] {
			t := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[n-1]
}
