// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package series implements the series assembler: it
// chains the machine's cascades through the interspace connector, enforces
// the last row's exit pressure against the boundary condition, and
// computes the reference values and overall/per-stage performance metrics
// the operating-point driver reports. Grounded on
// original_source/meanline_axial/meanline/cascade_series.py
// (evaluate_cascade_series, evaluate_cascade_interspace,
// compute_stage_performance, compute_overall_performance).
package series

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/turbo-sim/turboflow-go/internal/cascade"
	"github.com/turbo-sim/turboflow-go/internal/choking"
	"github.com/turbo-sim/turboflow-go/internal/deviation"
	"github.com/turbo-sim/turboflow-go/internal/flowplane"
	"github.com/turbo-sim/turboflow-go/internal/geometry"
	"github.com/turbo-sim/turboflow-go/internal/interspace"
	"github.com/turbo-sim/turboflow-go/internal/loss"
	"github.com/turbo-sim/turboflow-go/internal/therm"
)

// BoundaryConditions is the per-operating-point input: inlet stagnation
// state, inlet flow angle, exit static pressure and shaft speed.
type BoundaryConditions struct {
	FluidName string
	P0In      float64
	T0In      float64
	AlphaIn   float64
	POut      float64
	Omega     float64
}

// Reference holds the normalization constants, computed
// once per operating point from the isentropic expansion between inlet
// stagnation and exit static pressure.
type Reference struct {
	HOutS                float64
	V0                   float64
	SMin, SRange         float64
	AlphaMin, AlphaRange float64
	MassFlowRef          float64
}

// entropyRangeFraction and the angle bounds below are a normalization
// choice: the step that computes them in the original program was not
// present in the retrieved source subset, so s_min/s_range are pinned to
// the isentropic entropy floor and a quarter of c_p (entropy
// rise from loss is of order c_p, never a large multiple of it), and the
// flow-angle range spans the full physical envelope the model ever
// produces.
const entropyRangeFraction = 0.25
const angleMin = -90.0
const angleRange = 180.0

// ComputeReference evaluates the reference values for one operating point
// given the boundary conditions and the first cascade's inlet area.
func ComputeReference(oracle therm.Oracle, bc BoundaryConditions, inletArea float64) (Reference, therm.State, error) {
	stag0In, err := oracle.StatePT(bc.P0In, bc.T0In)
	if err != nil {
		return Reference{}, therm.State{}, err
	}

	outS, err := oracle.StatePS(bc.POut, stag0In.S)
	if err != nil {
		return Reference{}, therm.State{}, err
	}

	dh := stag0In.H - outS.H
	if dh < 0 {
		return Reference{}, therm.State{}, chk.Err("series: inlet stagnation enthalpy (%g) below isentropic exit enthalpy (%g); check p0_in/T0_in/p_out", stag0In.H, outS.H)
	}
	v0 := math.Sqrt(2 * dh)

	return Reference{
		HOutS:       outS.H,
		V0:          v0,
		SMin:        stag0In.S,
		SRange:      entropyRangeFraction * stag0In.Cp,
		AlphaMin:    angleMin,
		AlphaRange:  angleRange,
		MassFlowRef: stag0In.Rho * inletArea * v0,
	}, stag0In, nil
}

// Layout describes the unknown-vector shape for a machine of N cascades
// under the selected choking mode: one global v_in, plus per
// cascade a fixed {w_out, s_out, beta_out} block and the mode-dependent
// choking block.
type Layout struct {
	NumCascades int
	Mode        choking.Mode
}

// ChokingUnknowns is the per-cascade choking-unknown count for the
// selected mode (3 for modes A/B, 1 for mode C).
func (l Layout) ChokingUnknowns() int {
	if l.Mode == choking.ModeIsentropicThroat {
		return 1
	}
	return 3
}

// BlockSize is the per-cascade unknown count: the fixed exit-plane block
// of 3 plus this mode's choking-unknown count.
func (l Layout) BlockSize() int { return 3 + l.ChokingUnknowns() }

// Size is the total length of the unknown vector x.
func (l Layout) Size() int { return 1 + l.NumCascades*l.BlockSize() }

// Machine is an ordered sequence of cascades sharing one angular speed;
// even indices are stators (zero blade speed), odd indices rotors.
type Machine struct {
	Cascades []*geometry.Cascade
	Omega    float64
}

func (m Machine) angularSpeed(i int) float64 {
	if i%2 == 0 {
		return 0
	}
	return m.Omega
}

// Evaluator closes over everything F(x) needs to stay a pure function of
// x for the root finder: the machine, boundary conditions, fluid oracle,
// model selections and reference values.
type Evaluator struct {
	Machine   Machine
	BC        BoundaryConditions
	Oracle    therm.Oracle
	Mode      choking.Mode
	Blockage  flowplane.Blockage
	LossModel loss.Model
	Deviation deviation.Model
	RelStepFD float64
	DetFloor  float64
	Reference Reference
}

func (e Evaluator) layout() Layout {
	return Layout{NumCascades: len(e.Machine.Cascades), Mode: e.Mode}
}

// unpack converts the normalized solver vector x into cascade i's exit
// unknowns and choking unknowns, in physical units.
func (e Evaluator) unpack(x []float64, i int) (cascade.ExitUnknowns, []float64) {
	l := e.layout()
	base := 1 + i*l.BlockSize()
	ref := e.Reference

	exit := cascade.ExitUnknowns{
		W:    x[base] * ref.V0,
		S:    x[base+1]*ref.SRange + ref.SMin,
		Beta: x[base+2]*ref.AlphaRange + ref.AlphaMin,
	}

	chokingX := x[base+3 : base+l.BlockSize()]
	var unknowns []float64
	switch e.Mode {
	case choking.ModeCritical:
		// Mode A's Lagrangian search works directly on the normalized
		// unknowns (internal/choking rescales internally with the same
		// reference values); no physical conversion here.
		unknowns = chokingX
	case choking.ModeThroat:
		unknowns = []float64{
			chokingX[0] * ref.V0,
			chokingX[1]*ref.SRange + ref.SMin,
			chokingX[2]*ref.AlphaRange + ref.AlphaMin,
		}
	case choking.ModeIsentropicThroat:
		unknowns = []float64{chokingX[0] * ref.V0}
	}
	return exit, unknowns
}

// Evaluate computes F(x): the concatenated residual vector of every
// cascade in order, followed by the back-pressure residual. The ordering is identical across every call for a given
// operating point, which is what lets the solver reuse a fixed-shape
// Jacobian.
func (e Evaluator) Evaluate(x []float64) ([]float64, []cascade.Result, error) {
	l := e.layout()
	if len(x) != l.Size() {
		return nil, nil, chk.Err("series: expected %d unknowns, got %d", l.Size(), len(x))
	}

	stag0In, err := e.Oracle.StatePT(e.BC.P0In, e.BC.T0In)
	if err != nil {
		return nil, nil, err
	}

	inlet := cascade.Inlet{
		H0:    stag0In.H,
		S:     stag0In.S,
		Alpha: e.BC.AlphaIn,
		V:     x[0] * e.Reference.V0,
	}

	residuals := make([]float64, 0, l.Size())
	results := make([]cascade.Result, len(e.Machine.Cascades))

	for i, g := range e.Machine.Cascades {
		exit, chokingUnknowns := e.unpack(x, i)

		params := choking.Params{
			Oracle:       e.Oracle,
			Geometry:     g,
			AngularSpeed: e.Machine.angularSpeed(i),
			RadiusThroat: g.RadiusMeanThroat,
			Blockage:     e.Blockage,
			LossModel:    e.LossModel,
			DeviationModel: e.Deviation,
			Reference: choking.Reference{
				V0:          e.Reference.V0,
				SMin:        e.Reference.SMin,
				SRange:      e.Reference.SRange,
				MassFlowRef: e.Reference.MassFlowRef,
			},
			RelStepFD:        e.RelStepFD,
			DeterminantFloor: e.DetFloor,
		}

		res, err := cascade.Evaluate(params, e.Mode, inlet, exit, chokingUnknowns)
		if err != nil {
			return nil, nil, err
		}
		results[i] = res
		residuals = append(residuals, res.Residuals...)

		if i < len(e.Machine.Cascades)-1 {
			next := e.Machine.Cascades[i+1]
			inlet, err = interspace.Connect(e.Oracle, res.ExitPlane, g.RadiusMeanOut, g.AOut, next.RadiusMeanIn, next.AIn)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	last := results[len(results)-1]
	backPressureResidual := (last.ExitPlane.State.P - e.BC.POut) / stag0In.P
	residuals = append(residuals, backPressureResidual)

	return residuals, results, nil
}

// StageResult is the per-stage performance record, one
// per consecutive stator/rotor pair (geometry.NumberOfStages cascades).
// LoadingCoefficient is a supplemented quantity (SPEC_FULL.md
// SUPPLEMENTED FEATURES): dh0_stage / u_out^2, cheap over already-computed
// fields and not excluded by any Non-goal.
type StageResult struct {
	Reaction           float64
	LoadingCoefficient float64
}

// OverallResult is the machine-level performance record
type OverallResult struct {
	MassFlow                float64
	Power                   float64
	Torque                  float64
	PRtt, PRts              float64
	EfficiencyTT            float64
	EfficiencyTS            float64
	EfficiencyTSDropKinetic float64
	EfficiencyTSDropLosses  float64
	BladeJetRatio           float64
	ReheatingFactor         float64
}

// ComputeStages groups the converged cascade results into stages and
// computes the degree of reaction and loading coefficient of each
///(h_stator_in - h_rotor_out)).
func ComputeStages(results []cascade.Result) []StageResult {
	n := geometry.NumberOfStages(len(results))
	stages := make([]StageResult, n)
	for i := 0; i < n; i++ {
		stator := results[2*i]
		rotor := results[2*i+1]
		hStatorIn := stator.InletPlane.State.H
		hRotorOut := rotor.ExitPlane.State.H
		hRotorIn := rotor.InletPlane.State.H

		dh0Stage := stator.InletPlane.Stag0.H - rotor.ExitPlane.Stag0.H
		uOut := rotor.ExitPlane.U

		var loading float64
		if uOut != 0 {
			loading = dh0Stage / (uOut * uOut)
		}

		stages[i] = StageResult{
			Reaction:           (hRotorIn - hRotorOut) / (hStatorIn - hRotorOut),
			LoadingCoefficient: loading,
		}
	}
	return stages
}

// ComputeOverall computes the machine-level performance metrics from the
// converged cascade chain and the reference values of this operating
// point. ReheatingFactor reports (h_out - h_out_s)/sum(dh_s), where dh_s
// is each cascade's DhIsentropic. No per-cascade enthalpy-loss
// decomposition is computed here and the factor is not applied to any
// other field; EfficiencyTSDropLosses is 1 - eta_ts - the kinetic-energy
// drop.
func ComputeOverall(oracle therm.Oracle, results []cascade.Result, ref Reference, omega float64) (OverallResult, error) {
	first := results[0].InletPlane
	last := results[len(results)-1].ExitPlane

	massFlow := first.MassFlow
	power := massFlow * (first.Stag0.H - last.Stag0.H)

	var torque float64
	if omega != 0 {
		torque = power / omega
	}

	prtt := first.Stag0.P / last.Stag0.P
	prts := first.Stag0.P / last.State.P

	isentropicLast, err := oracle.StatePS(last.State.P, first.State.S)
	if err != nil {
		return OverallResult{}, err
	}
	hOutSActual := isentropicLast.H

	dhActualTT := first.Stag0.H - last.Stag0.H
	dhActualTS := first.Stag0.H - last.State.H
	dhIsentropicTT := first.Stag0.H - hOutSActual
	dhIsentropicTS := first.Stag0.H - ref.HOutS

	effTT := dhActualTT / dhIsentropicTT
	effTS := dhActualTS / dhIsentropicTS

	kineticLoss := 0.5 * last.V * last.V
	dropKinetic := kineticLoss / dhIsentropicTS
	dropLosses := 1 - effTS - dropKinetic

	bladeJetRatio := last.U / ref.V0

	var dhSum float64
	for _, r := range results {
		dhSum += r.DhIsentropic
	}
	var reheating float64
	if dhSum != 0 {
		reheating = (last.State.H - hOutSActual) / dhSum
	}

	return OverallResult{
		MassFlow:                massFlow,
		Power:                   power,
		Torque:                  torque,
		PRtt:                    prtt,
		PRts:                    prts,
		EfficiencyTT:            effTT,
		EfficiencyTS:            effTS,
		EfficiencyTSDropKinetic: dropKinetic,
		EfficiencyTSDropLosses:  dropLosses,
		BladeJetRatio:           bladeJetRatio,
		ReheatingFactor:         reheating,
	}, nil
}
