// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cascade implements the cascade evaluator: given
// the inlet state and the exit-plane unknowns of one blade row, it builds
// the inlet and exit planes, delegates the throat plane and the choking
// residual to internal/choking, and assembles the fixed-order residual
// vector the series assembler chains across rows.
package cascade

import (
	"github.com/turbo-sim/turboflow-go/internal/choking"
	"github.com/turbo-sim/turboflow-go/internal/flowplane"
	"github.com/turbo-sim/turboflow-go/internal/geometry"
	"github.com/turbo-sim/turboflow-go/internal/loss"
)

// Inlet carries the stagnation state, swirl and absolute velocity handed
// down from the previous row's interspace (or the boundary condition for
// the first row).
type Inlet struct {
	H0, S, Alpha, V float64
}

// ExitUnknowns are this row's own solver unknowns for the exit plane
// (w_out, s_out, beta_out); the throat-side unknowns are
// entirely owned by the selected choking mode (internal/choking).
type ExitUnknowns struct {
	W, Beta, S float64
}

// Result is the value-typed record of one cascade evaluation: the three
// planes, the loss decomposition, the critical state and the residual
// block, in the fixed ordering requires of the series
// assembler.
type Result struct {
	Kind geometry.Kind

	InletPlane  flowplane.Plane
	ThroatPlane flowplane.Plane
	ExitPlane   flowplane.Plane

	LossBreakdown loss.Breakdown
	DhIsentropic  float64

	CriticalMachThroat float64
	CriticalMassFlow   float64
	Incidence          float64

	Residuals []float64
	Labels    []string
}

// Evaluate runs one cascade: inlet plane, exit plane, exit loss closure,
// and the choking sub-solver (which supplies the throat plane and its own
// residuals). angularSpeed must be 0 for a stator row.
func Evaluate(p choking.Params, mode choking.Mode, inlet Inlet, exit ExitUnknowns, chokingUnknowns []float64) (Result, error) {
	g := p.Geometry

	uIn := p.AngularSpeed * g.RadiusMeanIn
	inletPlane, err := flowplane.Inlet(p.Oracle, inlet.H0, inlet.S, inlet.Alpha, inlet.V, uIn, g.AIn, g.Chord)
	if err != nil {
		return Result{}, err
	}

	uOut := p.AngularSpeed * g.RadiusMeanOut
	exitPlane, err := flowplane.Downstream(p.Oracle, exit.W, exit.Beta, exit.S, uOut, inletPlane.Rothalpy, g.AOut, g.Chord, p.Blockage)
	if err != nil {
		return Result{}, err
	}

	breakdown := loss.Compute(loss.Flow{
		ReOut:    exitPlane.Re,
		MaRelIn:  inletPlane.MaRel,
		MaRelOut: exitPlane.MaRel,
		ReIn:     inletPlane.Re,
		P0RelIn:  inletPlane.Stag0Rel.P,
		PIn:      inletPlane.State.P,
		P0RelOut: exitPlane.Stag0Rel.P,
		POut:     exitPlane.State.P,
		BetaIn:   inletPlane.Beta,
		BetaOut:  exitPlane.Beta,
		GammaOut: exitPlane.State.Gamma,
	}, g)

	yAssumedExit := flowplane.LossClosure(inletPlane.Stag0Rel.P, exitPlane.Stag0Rel.P, exitPlane.State.P)
	lossResidualExit := yAssumedExit - breakdown.Total
	massResidualExit := (inletPlane.MassFlow - exitPlane.MassFlow) / p.Reference.MassFlowRef

	isentropicExit, err := p.Oracle.StatePS(exitPlane.State.P, inletPlane.State.S)
	if err != nil {
		return Result{}, err
	}
	dhIsentropic := exitPlane.State.H - isentropicExit.H

	outcome, err := choking.Evaluate(mode, p, inletPlane, exitPlane, chokingUnknowns)
	if err != nil {
		return Result{}, err
	}

	residuals := append([]float64{massResidualExit, lossResidualExit}, outcome.Residuals...)
	labels := append([]string{"mass_exit", "loss_closure_exit"}, outcome.Labels...)

	return Result{
		Kind:               g.Kind,
		InletPlane:         inletPlane,
		ThroatPlane:        outcome.ThroatPlane,
		ExitPlane:          exitPlane,
		LossBreakdown:      breakdown,
		DhIsentropic:       dhIsentropic,
		CriticalMachThroat: outcome.CriticalMachThroat,
		CriticalMassFlow:   outcome.CriticalMassFlow,
		Incidence:          inletPlane.Beta - g.MetalAngleLE,
		Residuals:          residuals,
		Labels:             labels,
	}, nil
}
