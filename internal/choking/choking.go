// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package choking implements the three interchangeable choking sub-solver
// formulations: the Lagrangian critical-point
// reformulation (Mode A), a calibrated bit-for-bit surrogate (Mode B), and
// an isentropic-throat assumption (Mode C). All three are grounded on
// original_source/meanline_axial/axial_turbine/choking_model.py.
package choking

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/turbo-sim/turboflow-go/internal/deviation"
	"github.com/turbo-sim/turboflow-go/internal/flowplane"
	"github.com/turbo-sim/turboflow-go/internal/geometry"
	"github.com/turbo-sim/turboflow-go/internal/loss"
	"github.com/turbo-sim/turboflow-go/internal/therm"
)

// Mode names one of the three choking formulations; the values match
// model_options.choking_model in the configuration document.
type Mode string

const (
	ModeCritical         Mode = "evaluate_cascade_critical"
	ModeThroat           Mode = "evaluate_cascade_throat"
	ModeIsentropicThroat Mode = "evaluate_cascade_isentropic_throat"
)

// Reference carries the per-operating-point normalization constants
// shared by the whole unknown vector.
type Reference struct {
	V0          float64
	SMin, SRange float64
	MassFlowRef float64
}

// Params bundles everything the choking evaluation needs beyond the
// already-computed inlet and exit planes: the geometry, fluid oracle,
// kinematics of the throat station, the selected loss/deviation models and
// numerical tolerances.
type Params struct {
	Oracle         therm.Oracle
	Geometry       *geometry.Cascade
	AngularSpeed   float64 // rad/s; 0 for a stator row
	RadiusThroat   float64
	Blockage       flowplane.Blockage
	LossModel      loss.Model
	DeviationModel deviation.Model
	Reference      Reference

	RelStepFD        float64
	DeterminantFloor float64 // "Lagrange multiplier division by zero" guard
}

// Outcome is the result of evaluating one choking formulation: the
// resulting throat plane, the critical state it implies, and the
// mode-specific residual block (in the fixed ordering given by Labels).
type Outcome struct {
	ThroatPlane        flowplane.Plane
	CriticalMachThroat float64
	CriticalMassFlow   float64
	Residuals          []float64
	Labels             []string
}

func lossFlow(inlet, out flowplane.Plane) loss.Flow {
	return loss.Flow{
		ReOut:    out.Re,
		MaRelIn:  inlet.MaRel,
		MaRelOut: out.MaRel,
		ReIn:     inlet.Re,
		P0RelIn:  inlet.Stag0Rel.P,
		PIn:      inlet.State.P,
		P0RelOut: out.Stag0Rel.P,
		POut:     out.State.P,
		BetaIn:   inlet.Beta,
		BetaOut:  out.Beta,
		GammaOut: out.State.Gamma,
	}
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// EvaluateIsentropicThroat implements Mode C: the throat is assumed
// isentropic (s_throat = s_in) with beta fixed by the cosine rule, and the
// critical Mach fixed at 1.
func EvaluateIsentropicThroat(p Params, inlet, exit flowplane.Plane, wThroat float64) (Outcome, error) {
	betaThroat := sign(exit.Beta) * p.Geometry.GaugingAngle()
	u := p.AngularSpeed * p.RadiusThroat

	throat, err := flowplane.Downstream(p.Oracle, wThroat, betaThroat, inlet.State.S, u, inlet.Rothalpy, p.Geometry.AThroat, p.Geometry.Chord, p.Blockage)
	if err != nil {
		return Outcome{}, err
	}

	massResidual := (inlet.MassFlow - throat.MassFlow) / p.Reference.MassFlowRef
	chokingResidual := throat.MaRel - math.Min(exit.MaRel, 1.0)

	return Outcome{
		ThroatPlane:        throat,
		CriticalMachThroat: 1.0,
		// Mode C never evaluates a genuine critical mass flow (the source
		// this is ported from leaves it as an unused placeholder); report
		// NaN rather than carry that placeholder forward.
		CriticalMassFlow: math.NaN(),
		Residuals:        []float64{massResidual, chokingResidual},
		Labels:           []string{"mass_throat", "choking"},
	}, nil
}

// EvaluateThroat implements Mode B: the critical mass flux and Mach are
// read from the calibrated surrogate, and the throat plane
// is built directly from the unknowns it is carried with (w*_throat,
// s*_throat, beta*_throat — the "starred" names are historical; in this
// mode they are simply the throat plane's own unknowns).
func EvaluateThroat(p Params, inlet, exit flowplane.Plane, wThroat, sThroat, betaThroat float64) (Outcome, error) {
	u := p.AngularSpeed * p.RadiusThroat

	throat, err := flowplane.Downstream(p.Oracle, wThroat, betaThroat, sThroat, u, inlet.Rothalpy, p.Geometry.AThroat, p.Geometry.Chord, p.Blockage)
	if err != nil {
		return Outcome{}, err
	}

	breakdown := loss.Compute(lossFlow(inlet, throat), p.Geometry)
	yAssumed := flowplane.LossClosure(inlet.Stag0Rel.P, throat.Stag0Rel.P, throat.State.P)
	lossResidual := yAssumed - breakdown.Total

	phiMax, machCrit := interpolateCriticalState(inlet.Stag0Rel.P, inlet.Stag0Rel.T, breakdown.Total)
	criticalMassFlow := phiMax * p.Geometry.AThroat

	betaModelThroat, err := deviation.Beta(p.DeviationModel, throat.MaRel, machCrit, machCrit, p.Geometry)
	if err != nil {
		return Outcome{}, err
	}
	betaResidual := angleCos(sign(throat.Beta)*betaModelThroat) - angleCos(throat.Beta)

	var chokingResidual float64
	if exit.MaRel <= machCrit {
		betaModelExit, err := deviation.Beta(p.DeviationModel, exit.MaRel, machCrit, machCrit, p.Geometry)
		if err != nil {
			return Outcome{}, err
		}
		chokingResidual = angleCos(sign(exit.Beta)*betaModelExit) - angleCos(exit.Beta)
	} else {
		chokingResidual = throat.MaRel - machCrit
	}

	massResidual := (inlet.MassFlow - throat.MassFlow) / p.Reference.MassFlowRef

	return Outcome{
		ThroatPlane:        throat,
		CriticalMachThroat: machCrit,
		CriticalMassFlow:   criticalMassFlow,
		Residuals:          []float64{massResidual, lossResidual, betaResidual, chokingResidual},
		Labels:             []string{"mass_throat", "loss_closure_throat", "beta_throat", "choking"},
	}, nil
}

func angleCos(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }

// interpolateCriticalState evaluates the two calibrated second-order
// polynomials, reproduced bit-for-bit so regression tests
// against the reference implementation match exactly.
func interpolateCriticalState(p0, T0, y float64) (phiMax, machCrit float64) {
	x := [10]float64{1, p0, T0, y, p0 * p0, T0 * T0, y * y, p0 * T0, p0 * y, T0 * y}

	coeffMachCrit := [10]float64{
		9.97808878e-01, -8.59556818e-09, 2.18283101e-05, -3.38413836e-01,
		-4.89469816e-14, -5.99021408e-08, 9.93519991e-02, 7.71201115e-11,
		-4.13346725e-09, 4.91317761e-06,
	}
	coeffPhiMax := [10]float64{
		9.81120337e+01, 3.46299580e-03, -6.34357717e-01, -6.84234362e+01,
		1.05506996e-11, 1.04045797e-03, 3.36231786e+01, -3.81019918e-06,
		-6.90348074e-04, 1.26692586e-01,
	}

	for i := range x {
		machCrit += x[i] * coeffMachCrit[i]
		phiMax += x[i] * coeffPhiMax[i]
	}
	return phiMax, machCrit
}

// Evaluate dispatches to the selected mode. unknowns holds whatever
// mode-specific throat unknowns the caller's series assembler carries for
// this cascade (see the Evaluate* doc comments for the expected contents).
func Evaluate(mode Mode, p Params, inlet, exit flowplane.Plane, unknowns []float64) (Outcome, error) {
	switch mode {
	case ModeIsentropicThroat:
		if len(unknowns) != 1 {
			return Outcome{}, chk.Err("choking: mode %q expects 1 unknown (w_throat), got %d", mode, len(unknowns))
		}
		return EvaluateIsentropicThroat(p, inlet, exit, unknowns[0])
	case ModeThroat:
		if len(unknowns) != 3 {
			return Outcome{}, chk.Err("choking: mode %q expects 3 unknowns (w,s,beta throat), got %d", mode, len(unknowns))
		}
		return EvaluateThroat(p, inlet, exit, unknowns[0], unknowns[1], unknowns[2])
	case ModeCritical:
		if len(unknowns) != 3 {
			return Outcome{}, chk.Err("choking: mode %q expects 3 unknowns (v*_in, w*_throat, s*_throat), got %d", mode, len(unknowns))
		}
		return EvaluateCritical(p, inlet, exit, unknowns[0], unknowns[1], unknowns[2])
	default:
		return Outcome{}, chk.Err("choking: unknown mode %q", mode)
	}
}
