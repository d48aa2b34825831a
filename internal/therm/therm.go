// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package therm defines the fluid-property oracle the core consumes and
// the thermodynamic state record carried by every flow plane.
// Configuration-file parsing, the real-fluid backend itself (e.g. a
// REFPROP/CoolProp binding) and spreadsheet export are explicitly external
// collaborators; this package only defines the interface and a minimal
// ideal-gas-like implementation used by the seed test scenarios.
package therm

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// State is the thermodynamic record returned by one oracle call.
type State struct {
	P     float64 // static/stagnation pressure [Pa]
	T     float64 // temperature [K]
	H     float64 // specific enthalpy [J/kg]
	S     float64 // specific entropy [J/(kg K)]
	Rho   float64 // density [kg/m^3]
	A     float64 // speed of sound [m/s]
	Mu    float64 // dynamic viscosity [Pa s]
	K     float64 // thermal conductivity [W/(m K)]
	Cp    float64 // isobaric specific heat [J/(kg K)]
	Cv    float64 // isochoric specific heat [J/(kg K)]
	Gamma float64 // isentropic exponent cp/cv [-]
	Z     float64 // compressibility factor [-]
}

// OutOfRangeError reports that an oracle call fell outside the fluid's
// valid range of state. It is always recoverable: callers evaluating a
// residual vector convert it into a large finite residual rather than
// aborting the solve.
type OutOfRangeError struct {
	Fluid  string
	Pair   string // e.g. "p,h"
	Values [2]float64
}

func (e *OutOfRangeError) Error() string {
	return chk.Err("fluid %q: (%s)=(%g, %g) is out of the valid property range", e.Fluid, e.Pair, e.Values[0], e.Values[1]).Error()
}

// Oracle is the external property backend. Every "get state" call a
// cascade or choking evaluation needs is one call to one of these four
// methods. StatePT is a fifth, supplemental operation: boundary
// conditions are given as (p0_in, T0_in), and bootstrapping them into
// (h0_in, s_in) needs a pressure-temperature lookup the four-pair
// interface does not by itself provide.
type Oracle interface {
	// Name returns the fluid identifier (for diagnostics and OutOfRangeError).
	Name() string
	StatePH(p, h float64) (State, error)
	StatePS(p, s float64) (State, error)
	StateHS(h, s float64) (State, error)
	StateRhoH(rho, h float64) (State, error)
	StatePT(p, T float64) (State, error)
}

// IdealGas is a calorically-perfect-gas oracle: a lightweight stand-in for
// the real property package, adequate for the ideal-gas-like seed
// scenarios and for unit-testing the cascade/choking/series
// machinery without a real backend wired in. It follows the same
// Init-from-parameters shape as the teacher's mdl/fluid.Model.
type IdealGas struct {
	FluidName string
	R         float64 // specific gas constant [J/(kg K)]
	Gamma     float64 // cp/cv [-]
	Mu0       float64 // reference viscosity [Pa s]
	K0        float64 // reference conductivity [W/(m K)]
	Tref      float64 // reference temperature for s and the transport properties [K]
	Pref      float64 // reference pressure for sref [Pa]
}

// NewIdealGas returns an IdealGas oracle with typical air-like properties.
func NewIdealGas(name string, r, gamma float64) *IdealGas {
	return &IdealGas{
		FluidName: name,
		R:         r,
		Gamma:     gamma,
		Mu0:       1.8e-5,
		K0:        0.026,
		Tref:      300,
		Pref:      1e5,
	}
}

func (g *IdealGas) Name() string { return g.FluidName }

func (g *IdealGas) cp() float64 { return g.Gamma * g.R / (g.Gamma - 1) }
func (g *IdealGas) cv() float64 { return g.R / (g.Gamma - 1) }

// state builds the full record from T and p, the two natural ideal-gas
// independent variables; h, s follow from the calorically-perfect closure
// h = cp*T, s = cp*ln(T/Tref) - R*ln(p/Pref) (s = 0 at Tref, Pref).
func (g *IdealGas) state(p, T float64) (State, error) {
	if p <= 0 || T <= 0 {
		return State{}, &OutOfRangeError{Fluid: g.FluidName, Pair: "p,T", Values: [2]float64{p, T}}
	}
	cp, cv := g.cp(), g.cv()
	rho := p / (g.R * T)
	return State{
		P:     p,
		T:     T,
		H:     cp * T,
		S:     cp*math.Log(T/g.Tref) - g.R*math.Log(p/g.Pref),
		Rho:   rho,
		A:     math.Sqrt(g.Gamma * g.R * T),
		Mu:    g.Mu0 * math.Pow(T/g.Tref, 0.7),
		K:     g.K0 * math.Pow(T/g.Tref, 0.7),
		Cp:    cp,
		Cv:    cv,
		Gamma: g.Gamma,
		Z:     1,
	}, nil
}

func (g *IdealGas) temperatureFromHS(h, s float64) float64 {
	return h / g.cp()
}

func (g *IdealGas) pressureFromTS(T, s float64) float64 {
	cp := g.cp()
	return g.Pref * math.Exp((cp*math.Log(T/g.Tref)-s)/g.R)
}

// StatePH returns the state at (pressure, enthalpy).
func (g *IdealGas) StatePH(p, h float64) (State, error) {
	T := h / g.cp()
	return g.state(p, T)
}

// StatePS returns the state at (pressure, entropy).
func (g *IdealGas) StatePS(p, s float64) (State, error) {
	cp := g.cp()
	T := g.Tref * math.Exp((s+g.R*math.Log(p/g.Pref))/cp)
	return g.state(p, T)
}

// StateHS returns the state at (enthalpy, entropy).
func (g *IdealGas) StateHS(h, s float64) (State, error) {
	T := g.temperatureFromHS(h, s)
	p := g.pressureFromTS(T, s)
	return g.state(p, T)
}

// StateRhoH returns the state at (density, enthalpy).
func (g *IdealGas) StateRhoH(rho, h float64) (State, error) {
	T := h / g.cp()
	p := rho * g.R * T
	return g.state(p, T)
}

// StatePT returns the state at (pressure, temperature).
func (g *IdealGas) StatePT(p, T float64) (State, error) {
	return g.state(p, T)
}
