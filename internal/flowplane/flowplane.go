// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flowplane builds the per-station thermodynamic/kinematic record
// ("plane") shared by the cascade evaluator and the choking sub-solver:
// velocity triangle, state lookup, stagnation states, Mach numbers,
// Reynolds number, rothalpy and blockage-corrected mass flow.
package flowplane

import (
	"math"

	"github.com/turbo-sim/turboflow-go/internal/angle"
	"github.com/turbo-sim/turboflow-go/internal/therm"
)

// Plane is one flow station (inlet, throat or exit) of a cascade.
type Plane struct {
	State    therm.State
	Stag0    therm.State // absolute stagnation state
	Stag0Rel therm.State // relative stagnation state

	U                  float64 // blade speed at this station
	V, Vm, Vt, Alpha   float64 // absolute velocity triangle (deg)
	W, Wm, Wt, Beta    float64 // relative velocity triangle (deg)
	Ma, MaRel, Re      float64
	MassFlow           float64
	Rothalpy           float64
	Blockage           float64
}

// Blockage selects how the throat/exit blockage fraction B is computed
//.
type Blockage struct {
	FlatPlateTurbulent bool
	Number             float64 // used when FlatPlateTurbulent is false and HasNumber is set
	HasNumber          bool
}

func (b Blockage) value(re, chord, opening float64) float64 {
	switch {
	case b.FlatPlateTurbulent:
		deltaStar := 0.048 * math.Pow(re, -1.0/5.0) * 0.9 * chord
		return 2 * deltaStar / opening
	case b.HasNumber:
		return b.Number
	default:
		return 0
	}
}

// Inlet evaluates the inlet plane from stagnation enthalpy h0, entropy s,
// absolute flow angle alpha (deg), absolute velocity v and blade speed u.
func Inlet(oracle therm.Oracle, h0, s, alpha, v, u, area, chord float64) (Plane, error) {
	var p Plane
	p.U = u
	p.V = v
	p.Alpha = alpha
	p.Vm = v * angle.Cosd(alpha)
	p.Vt = v * angle.Sind(alpha)
	p.Wt = p.Vt - u
	p.Wm = p.Vm
	p.W = math.Hypot(p.Wm, p.Wt)
	p.Beta = angle.Arctan2d(p.Wt, p.Wm)

	h := h0 - 0.5*v*v
	state, err := oracle.StateHS(h, s)
	if err != nil {
		return Plane{}, err
	}
	p.State = state

	stag0, err := oracle.StateHS(h0, s)
	if err != nil {
		return Plane{}, err
	}
	p.Stag0 = stag0

	h0Rel := h + 0.5*p.W*p.W
	stag0Rel, err := oracle.StateHS(h0Rel, s)
	if err != nil {
		return Plane{}, err
	}
	p.Stag0Rel = stag0Rel

	p.Ma = v / state.A
	p.MaRel = p.W / state.A
	if state.Mu > 0 {
		p.Re = state.Rho * p.W * chord / state.Mu
	}
	p.MassFlow = state.Rho * p.Wm * area
	p.Rothalpy = h0Rel - 0.5*u*u
	return p, nil
}

// Downstream evaluates a throat or exit plane given the relative velocity
// w, relative flow angle beta (deg), entropy s, blade speed u and the
// rothalpy conserved from the cascade's inlet plane.
func Downstream(oracle therm.Oracle, w, beta, s, u, rothalpy, area, chord float64, blockage Blockage) (Plane, error) {
	var p Plane
	p.U = u
	p.W = w
	p.Beta = beta
	p.Wm = w * angle.Cosd(beta)
	p.Wt = w * angle.Sind(beta)
	p.Vt = p.Wt + u
	p.Vm = p.Wm
	p.V = math.Hypot(p.Vm, p.Vt)
	p.Alpha = angle.Arctan2d(p.Vt, p.Vm)

	h := rothalpy + 0.5*u*u - 0.5*w*w
	state, err := oracle.StateHS(h, s)
	if err != nil {
		return Plane{}, err
	}
	p.State = state

	h0 := h + 0.5*p.V*p.V
	stag0, err := oracle.StateHS(h0, s)
	if err != nil {
		return Plane{}, err
	}
	p.Stag0 = stag0

	h0Rel := h + 0.5*w*w
	stag0Rel, err := oracle.StateHS(h0Rel, s)
	if err != nil {
		return Plane{}, err
	}
	p.Stag0Rel = stag0Rel

	p.Ma = p.V / state.A
	p.MaRel = w / state.A
	if state.Mu > 0 {
		p.Re = state.Rho * w * chord / state.Mu
	}
	p.Rothalpy = h0Rel - 0.5*u*u
	p.Blockage = blockage.value(p.Re, chord, area)
	p.MassFlow = state.Rho * p.Wm * area * (1 - p.Blockage)
	return p, nil
}

// LossClosure returns Y_assumed = (p0rel_in - p0rel_out)/(p0rel_out - p_out),
// the loss-closure quantity shared by the cascade evaluator and the
// choking sub-solver.
func LossClosure(p0RelIn, p0RelOut, pOut float64) float64 {
	return (p0RelIn - p0RelOut) / (p0RelOut - pOut)
}
