// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package result implements the per-operating-point output records:
// operation_point, overall, plane, cascade, stage and solver sections,
// assembled only after an operating point has been fully evaluated (no
// mid-residual mutation of shared state).
package result

import (
	"github.com/turbo-sim/turboflow-go/internal/cascade"
	"github.com/turbo-sim/turboflow-go/internal/config"
	"github.com/turbo-sim/turboflow-go/internal/flowplane"
	"github.com/turbo-sim/turboflow-go/internal/geometry"
	"github.com/turbo-sim/turboflow-go/internal/loss"
	"github.com/turbo-sim/turboflow-go/internal/series"
	"github.com/turbo-sim/turboflow-go/internal/solve"
)

// PlaneResult is one flattened flow-station record.
type PlaneResult struct {
	CascadeIndex int
	Station      string // "inlet" | "throat" | "exit"
	P, T, H, S   float64
	Rho, A       float64
	U, V, Alpha  float64
	W, Beta      float64
	Ma, MaRel    float64
	Re           float64
	MassFlow     float64
	Rothalpy     float64
	Blockage     float64
}

func planeResult(cascadeIndex int, station string, p flowplane.Plane) PlaneResult {
	return PlaneResult{
		CascadeIndex: cascadeIndex,
		Station:      station,
		P:            p.State.P,
		T:            p.State.T,
		H:            p.State.H,
		S:            p.State.S,
		Rho:          p.State.Rho,
		A:            p.State.A,
		U:            p.U,
		V:            p.V,
		Alpha:        p.Alpha,
		W:            p.W,
		Beta:         p.Beta,
		Ma:           p.Ma,
		MaRel:        p.MaRel,
		Re:           p.Re,
		MassFlow:     p.MassFlow,
		Rothalpy:     p.Rothalpy,
		Blockage:     p.Blockage,
	}
}

// CascadeResult is one blade row's output record,
// carrying the loss breakdown alongside the row's identity.
type CascadeResult struct {
	Index              int
	Kind               geometry.Kind
	LossBreakdown      loss.Breakdown
	DhIsentropic       float64
	CriticalMachThroat float64
	CriticalMassFlow   float64
	Incidence          float64
}

// SolverResult is the solver section: status and
// convergence history of the root-find attempt that produced this point.
type SolverResult struct {
	Method       solve.Method
	Converged    bool
	Iterations   int
	FuncEvals    int
	StepNorm     float64
	ResidualNorm float64
	Err          error
}

// OperatingPointResult is the complete per-operating-point record: operation_point, overall, plane, cascade, stage and solver.
type OperatingPointResult struct {
	OperationPoint config.OperationPoint
	Overall        series.OverallResult
	Planes         []PlaneResult
	Cascades       []CascadeResult
	Stages         []series.StageResult
	Solver         SolverResult
}

// Assemble builds the output record for one converged (or failed)
// operating point from the cascade chain's results and the root-finder's
// convergence history. cascades may be nil when solverResult.Err is a
// NonConvergence failure with no usable state.
func Assemble(point config.OperationPoint, cascades []cascade.Result, overall series.OverallResult, stages []series.StageResult, solverResult solve.Result, method solve.Method) OperatingPointResult {
	var planes []PlaneResult
	var cascadeResults []CascadeResult
	for i, c := range cascades {
		planes = append(planes, planeResult(i, "inlet", c.InletPlane))
		planes = append(planes, planeResult(i, "throat", c.ThroatPlane))
		planes = append(planes, planeResult(i, "exit", c.ExitPlane))
		cascadeResults = append(cascadeResults, CascadeResult{
			Index:              i,
			Kind:               c.Kind,
			LossBreakdown:      c.LossBreakdown,
			DhIsentropic:       c.DhIsentropic,
			CriticalMachThroat: c.CriticalMachThroat,
			CriticalMassFlow:   c.CriticalMassFlow,
			Incidence:          c.Incidence,
		})
	}

	return OperatingPointResult{
		OperationPoint: point,
		Overall:        overall,
		Planes:         planes,
		Cascades:       cascadeResults,
		Stages:         stages,
		Solver: SolverResult{
			Method:       method,
			Converged:    solverResult.Converged,
			Iterations:   solverResult.Iterations,
			FuncEvals:    solverResult.FuncEvals,
			StepNorm:     solverResult.StepNorm,
			ResidualNorm: solverResult.ResidualNorm,
			Err:          solverResult.Err,
		},
	}
}
