// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package choking

import (
	"math"

	"github.com/turbo-sim/turboflow-go/internal/deviation"
	"github.com/turbo-sim/turboflow-go/internal/flowplane"
	"github.com/turbo-sim/turboflow-go/internal/loss"
	"github.com/turbo-sim/turboflow-go/internal/solve"
)

// criticalValues evaluates the critical-state inlet and throat planes at
// the normalized Lagrangian unknowns x = [v*_in, w*_throat, s*_throat] and
// returns [mass_flow_throat, g1, g2] where g1 is the mass-balance residual
// and g2 the loss-closure residual of the critical state.
// The throat flow angle is held fixed at the cosine-rule gauging angle
// while the search varies only (v_in, w_throat, s_throat), matching
// choking_model.py's compute_critical_values.
func criticalValues(p Params, inlet flowplane.Plane, x []float64) ([]float64, flowplane.Plane, flowplane.Plane, error) {
	ref := p.Reference
	vIn := x[0] * ref.V0
	wThroat := x[1] * ref.V0
	sThroat := x[2]*ref.SRange + ref.SMin

	critInlet, err := flowplane.Inlet(p.Oracle, inlet.Stag0.H, inlet.State.S, inlet.Alpha, vIn, inlet.U, p.Geometry.AIn, p.Geometry.Chord)
	if err != nil {
		return nil, flowplane.Plane{}, flowplane.Plane{}, err
	}

	betaThroat := sign(p.Geometry.MetalAngleTE) * p.Geometry.GaugingAngle()
	u := p.AngularSpeed * p.RadiusThroat
	critThroat, err := flowplane.Downstream(p.Oracle, wThroat, betaThroat, sThroat, u, critInlet.Rothalpy, p.Geometry.AThroat, p.Geometry.Chord, p.Blockage)
	if err != nil {
		return nil, flowplane.Plane{}, flowplane.Plane{}, err
	}

	breakdown := loss.Compute(lossFlow(critInlet, critThroat), p.Geometry)
	yAssumed := flowplane.LossClosure(critInlet.Stag0Rel.P, critThroat.Stag0Rel.P, critThroat.State.P)

	g1 := (critInlet.MassFlow - critThroat.MassFlow) / ref.MassFlowRef
	g2 := yAssumed - breakdown.Total

	return []float64{critThroat.MassFlow, g1, g2}, critInlet, critThroat, nil
}

// EvaluateCritical implements Mode A: the critical point of mass flow
// rate, found as the stationarity conditions of its Lagrangian rather
// than by nested maximization. x holds the normalized
// critical-state unknowns [v*_in, w*_throat, s*_throat]. The returned
// ThroatPlane is the hypothetical critical-point throat plane, not a
// separately converged real throat plane: this mode has none, by design
// (its throat/loss-closure residuals are the critical state's own).
func EvaluateCritical(p Params, inlet, exit flowplane.Plane, vInStar, wThroatStar, sThroatStar float64) (Outcome, error) {
	x := []float64{vInStar, wThroatStar, sThroatStar}

	f := func(xv []float64) ([]float64, error) {
		fv, _, _, err := criticalValues(p, inlet, xv)
		return fv, err
	}

	f0, _, critThroat, err := criticalValues(p, inlet, x)
	if err != nil {
		return Outcome{}, err
	}

	J, err := solve.Jacobian(f, x, solve.Forward, p.RelStepFD)
	if err != nil {
		return Outcome{}, err
	}

	// Two of the three Lagrangian stationarity equations are solved
	// algebraically for the multipliers (Cramer's rule on the 2x2 block
	// formed by the derivatives w.r.t. v_in and s_throat); see
	a11, a12 := J[1][0], J[2][0]
	a21, a22 := J[1][2], J[2][2]
	b1, b2 := -J[0][0], -J[0][2]

	determinant := a11*a22 - a12*a21
	if math.Abs(determinant) < p.DeterminantFloor {
		return Outcome{}, &solve.SingularityError{Determinant: determinant, Floor: p.DeterminantFloor}
	}
	l1Det := a22*b1 - a12*b2
	l2Det := a11*b2 - a21*b1

	// The remaining (w_throat) Lagrangian equation, multiplied through by
	// the determinant rather than divided by it: zero exactly when the
	// original equation was, with no singular division.
	df, dg1, dg2 := J[0][1], J[1][1], J[2][1]
	lagrangian := (determinant*df + l1Det*dg1 + l2Det*dg2) / p.Reference.MassFlowRef

	criticalMach := critThroat.MaRel
	criticalMassFlow := critThroat.MassFlow

	var betaModel float64
	if exit.MaRel <= criticalMach {
		betaModel, err = deviation.Beta(p.DeviationModel, exit.MaRel, criticalMach, criticalMach, p.Geometry)
		if err != nil {
			return Outcome{}, err
		}
		betaModel *= sign(exit.Beta)
	} else {
		betaModel = sign(exit.Beta) * math.Acos(criticalMassFlow/exit.State.Rho/exit.W/p.Geometry.AOut) * 180 / math.Pi
	}
	chokingResidual := angleCos(betaModel) - angleCos(exit.Beta)

	return Outcome{
		ThroatPlane:        critThroat,
		CriticalMachThroat: criticalMach,
		CriticalMassFlow:   criticalMassFlow,
		Residuals:          []float64{f0[1], f0[2], lagrangian, chokingResidual},
		Labels:             []string{"mass_throat", "loss_closure_throat", "lagrangian", "choking"},
	}, nil
}
