// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements the configuration document: a
// single JSON-tagged Document with operation_points, performance_map,
// geometry, model_options and solver sections, in the shape of
// inp.Data/inp.SolverData.
package config

import (
	"encoding/json"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/utl"

	"github.com/turbo-sim/turboflow-go/internal/choking"
	"github.com/turbo-sim/turboflow-go/internal/deviation"
	"github.com/turbo-sim/turboflow-go/internal/flowplane"
	"github.com/turbo-sim/turboflow-go/internal/geometry"
	"github.com/turbo-sim/turboflow-go/internal/loss"
	"github.com/turbo-sim/turboflow-go/internal/series"
	"github.com/turbo-sim/turboflow-go/internal/solve"
)

// OperationPoint is one explicit entry of operation_points.
type OperationPoint struct {
	FluidName string  `json:"fluid_name"`
	P0In      float64 `json:"p0_in"`
	T0In      float64 `json:"t0_in"`
	AlphaIn   float64 `json:"alpha_in"`
	POut      float64 `json:"p_out"`
	Omega     float64 `json:"omega"`
}

// BoundaryConditions converts one operation point into the series
// package's boundary-condition record.
func (p OperationPoint) BoundaryConditions() series.BoundaryConditions {
	return series.BoundaryConditions{
		FluidName: p.FluidName,
		P0In:      p.P0In,
		T0In:      p.T0In,
		AlphaIn:   p.AlphaIn,
		POut:      p.POut,
		Omega:     p.Omega,
	}
}

// PerformanceMap describes a Cartesian-product sweep over per-parameter
// ranges; an axis of exactly three values [min, max, n] is expanded with
// utl.LinSpace, an axis of any other non-zero length is used as a literal
// list of values, and every axis is combined with every other, matching the
// "performance map" terminology of the original program.
type PerformanceMap struct {
	FluidName string     `json:"fluid_name"`
	P0In      []float64  `json:"p0_in"`     // [min, max, n] or empty to hold fixed
	T0In      []float64  `json:"t0_in"`
	AlphaIn   []float64  `json:"alpha_in"`
	POut      []float64  `json:"p_out"`
	Omega     []float64  `json:"omega"`
	Fixed     OperationPoint `json:"fixed"` // values used for any axis left empty
}

func expandAxis(axis []float64, fixed float64) []float64 {
	if len(axis) == 0 {
		return []float64{fixed}
	}
	if len(axis) != 3 {
		return axis
	}
	n := int(axis[2])
	if n < 1 {
		n = 1
	}
	return utl.LinSpace(axis[0], axis[1], n)
}

// Expand returns the Cartesian product of this performance map's axes as
// a flat list of operation points, in p0_in/t0_in/alpha_in/p_out/omega
// nesting order.
func (m PerformanceMap) Expand() []OperationPoint {
	p0s := expandAxis(m.P0In, m.Fixed.P0In)
	t0s := expandAxis(m.T0In, m.Fixed.T0In)
	alphas := expandAxis(m.AlphaIn, m.Fixed.AlphaIn)
	pouts := expandAxis(m.POut, m.Fixed.POut)
	omegas := expandAxis(m.Omega, m.Fixed.Omega)

	points := make([]OperationPoint, 0, len(p0s)*len(t0s)*len(alphas)*len(pouts)*len(omegas))
	for _, p0 := range p0s {
		for _, t0 := range t0s {
			for _, alpha := range alphas {
				for _, pout := range pouts {
					for _, omega := range omegas {
						points = append(points, OperationPoint{
							FluidName: m.FluidName,
							P0In:      p0,
							T0In:      t0,
							AlphaIn:   alpha,
							POut:      pout,
							Omega:     omega,
						})
					}
				}
			}
		}
	}
	return points
}

// ModelOptions is model_options: the three selectable
// models (loss, choking, deviation), the blockage closure, and an
// open-ended list of numeric tunables carried as a fun.Prms list the way
// msolid.Model.GetPrms carries constitutive parameters. Only rel_step_fd
// and determinant_floor are read from that list; the incidence-loss
// soft-clip limit is a fixed constant of internal/loss and is not
// configurable here.
type ModelOptions struct {
	LossModel      loss.Model      `json:"loss_model"`
	ChokingModel   choking.Mode    `json:"choking_model"`
	DeviationModel deviation.Model `json:"deviation_model"`
	BlockageModel  string          `json:"blockage_model"` // flat_plate_turbulent | number | none
	BlockageNumber float64         `json:"blockage_number"`
	Extra          fun.Prms        `json:"extra_params"`
}

// extraDefault looks up a named tunable in Extra, returning def if absent.
func (m ModelOptions) extraDefault(name string, def float64) float64 {
	if prm := m.Extra.Find(name); prm != nil {
		return prm.V
	}
	return def
}

// RelStepFD is the finite-difference relative step used throughout the
// choking and root-finder Jacobians (default matches solve.DefaultOptions).
func (m ModelOptions) RelStepFD() float64 { return m.extraDefault("rel_step_fd", 1e-6) }

// DeterminantFloor is the Lagrange-multiplier singularity guard used by
// choking Mode A.
func (m ModelOptions) DeterminantFloor() float64 { return m.extraDefault("determinant_floor", 1e-8) }

// Blockage builds the flowplane.Blockage value this configuration selects.
func (m ModelOptions) Blockage() flowplane.Blockage {
	switch m.BlockageModel {
	case "flat_plate_turbulent":
		return flowplane.Blockage{FlatPlateTurbulent: true}
	case "number":
		return flowplane.Blockage{HasNumber: true, Number: m.BlockageNumber}
	default:
		return flowplane.Blockage{}
	}
}

// SolverOptions is the solver section.
type SolverOptions struct {
	Method           solve.Method           `json:"method"`
	Tolerance        float64                `json:"tolerance"`
	MaxIterations    int                    `json:"max_iterations"`
	DerivativeMethod solve.DerivativeMethod `json:"derivative_method"`
	DerivativeRelStep float64               `json:"derivative_rel_step"`
}

// Options converts this section into solve.Options, falling back to
// solve.DefaultOptions for any zero-valued field.
func (s SolverOptions) Options() solve.Options {
	def := solve.DefaultOptions()
	opt := solve.Options{
		Method:           s.Method,
		Tolerance:        s.Tolerance,
		MaxIterations:    s.MaxIterations,
		DerivativeMethod: s.DerivativeMethod,
		RelStep:          s.DerivativeRelStep,
	}
	if opt.Method == "" {
		opt.Method = def.Method
	}
	if opt.Tolerance == 0 {
		opt.Tolerance = def.Tolerance
	}
	if opt.MaxIterations == 0 {
		opt.MaxIterations = def.MaxIterations
	}
	if opt.DerivativeMethod == "" {
		opt.DerivativeMethod = def.DerivativeMethod
	}
	if opt.RelStep == 0 {
		opt.RelStep = def.RelStep
	}
	return opt
}

// Document is the top-level configuration document.
type Document struct {
	OperationPoints []OperationPoint   `json:"operation_points"`
	PerformanceMap  *PerformanceMap    `json:"performance_map"`
	Geometry        []geometry.Raw     `json:"geometry"`
	ModelOptions    ModelOptions       `json:"model_options"`
	Solver          SolverOptions      `json:"solver"`
}

// Load parses a configuration document from JSON bytes and validates it
// (InvalidConfiguration, — fatal, reported pre-run).
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, chk.Err("config: invalid JSON: %v", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Points returns the full, expanded set of operation points: the
// explicit list plus the performance map's Cartesian product, if present.
func (d *Document) Points() []OperationPoint {
	points := append([]OperationPoint{}, d.OperationPoints...)
	if d.PerformanceMap != nil {
		points = append(points, d.PerformanceMap.Expand()...)
	}
	return points
}

// Cascades builds the immutable geometry records for every configured
// cascade, in machine order.
func (d *Document) Cascades() ([]*geometry.Cascade, error) {
	cascades := make([]*geometry.Cascade, len(d.Geometry))
	for i, raw := range d.Geometry {
		c, err := geometry.Build(raw)
		if err != nil {
			return nil, chk.Err("config: geometry[%d]: %v", i, err)
		}
		cascades[i] = c
	}
	return cascades, nil
}

// Validate checks the structural requirements a configuration document
// must satisfy before any operating point runs.
func (d *Document) Validate() error {
	if len(d.Geometry) == 0 {
		return chk.Err("config: geometry must list at least one cascade")
	}
	if len(d.OperationPoints) == 0 && d.PerformanceMap == nil {
		return chk.Err("config: at least one of operation_points or performance_map is required")
	}
	for i, p := range d.OperationPoints {
		if p.FluidName == "" {
			return chk.Err("config: operation_points[%d]: fluid_name is required", i)
		}
		if p.P0In <= 0 || p.T0In <= 0 || p.POut <= 0 {
			return chk.Err("config: operation_points[%d]: p0_in, t0_in and p_out must be positive", i)
		}
	}
	switch d.ModelOptions.LossModel {
	case loss.Benner:
	default:
		return chk.Err("config: model_options.loss_model %q is not supported", d.ModelOptions.LossModel)
	}
	switch d.ModelOptions.ChokingModel {
	case choking.ModeCritical, choking.ModeThroat, choking.ModeIsentropicThroat:
	default:
		return chk.Err("config: model_options.choking_model %q is not supported", d.ModelOptions.ChokingModel)
	}
	switch d.ModelOptions.DeviationModel {
	case deviation.Aungier, deviation.AinleyMathieson, deviation.ZeroDeviation, deviation.BorgAgromayor:
	default:
		return chk.Err("config: model_options.deviation_model %q is not supported", d.ModelOptions.DeviationModel)
	}
	switch d.Solver.Method {
	case "", solve.LM, solve.Hybr:
	default:
		return chk.Err("config: solver.method %q is not supported", d.Solver.Method)
	}
	return nil
}
