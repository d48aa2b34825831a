// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver implements the operating-point driver:
// validates the requested points, picks an initial guess (heuristic
// defaults for the first point, nearest-neighbor warm-start afterwards),
// calls the root finder with a method/heuristic retry ladder, and
// maintains the append-only warm-start cache. Grounded on
// original_source/meanline_axial/meanline/performance_analysis.py
// (compute_performance, initialize_solver, find_closest_operation_point,
// get_operation_point_distance).
package driver

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/rnd"
	"github.com/cpmech/gosl/utl"

	"github.com/turbo-sim/turboflow-go/internal/cascade"
	"github.com/turbo-sim/turboflow-go/internal/choking"
	"github.com/turbo-sim/turboflow-go/internal/config"
	"github.com/turbo-sim/turboflow-go/internal/deviation"
	"github.com/turbo-sim/turboflow-go/internal/flowplane"
	"github.com/turbo-sim/turboflow-go/internal/geometry"
	"github.com/turbo-sim/turboflow-go/internal/loss"
	"github.com/turbo-sim/turboflow-go/internal/result"
	"github.com/turbo-sim/turboflow-go/internal/series"
	"github.com/turbo-sim/turboflow-go/internal/solve"
	"github.com/turbo-sim/turboflow-go/internal/therm"
)

// Heuristic is the (R, eta_tt, eta_ts, Ma_crit) family
// step 2 used to expand a first guess through the geometry and boundary
// conditions.
type Heuristic struct {
	Reaction     float64
	EfficiencyTT float64
	EfficiencyTS float64
	MachCrit     float64
}

// DefaultHeuristic is the point-1 default
func DefaultHeuristic() Heuristic {
	return Heuristic{Reaction: 0.5, EfficiencyTT: 0.9, EfficiencyTS: 0.8, MachCrit: 0.95}
}

// sweepVariants reproduces the 11-variant heuristic sweep of
// performance_analysis.py's final retry stage bit-for-bit: R and the two
// efficiencies vary linearly across their historical bounds while Ma_crit
// is held at the source's own constant 0.9 (not a bug this port corrects;
// the original array is literally np.linspace(0.9, 0.9, N)).
func sweepVariants() []Heuristic {
	const n = 11
	r := utl.LinSpace(0.0, 0.95, n)
	etaTS := utl.LinSpace(0.6, 0.9, n)
	etaTT := utl.LinSpace(0.7, 1.0, n)
	machCrit := utl.LinSpace(0.9, 0.9, n)
	variants := make([]Heuristic, n)
	for i := range variants {
		variants[i] = Heuristic{Reaction: r[i], EfficiencyTT: etaTT[i], EfficiencyTS: etaTS[i], MachCrit: machCrit[i]}
	}
	return variants
}

// jitteredSweepVariants is the retry ladder's last resort: the same
// 11-variant grid as sweepVariants, randomly perturbed, for operating
// points whose basin of attraction sits off the deterministic grid
// points. rnd.Init reseeds from the current time so repeated failures on
// the same point do not retry the identical perturbation.
func jitteredSweepVariants() []Heuristic {
	rnd.Init(0)
	variants := sweepVariants()
	jittered := make([]Heuristic, len(variants))
	for i, v := range variants {
		jittered[i] = Heuristic{
			Reaction:     clamp01(v.Reaction + rnd.Float64(-0.05, 0.05)),
			EfficiencyTT: clamp01(v.EfficiencyTT + rnd.Float64(-0.05, 0.05)),
			EfficiencyTS: clamp01(v.EfficiencyTS + rnd.Float64(-0.05, 0.05)),
			MachCrit:     v.MachCrit + rnd.Float64(-0.02, 0.02),
		}
	}
	return jittered
}

// Entry is one cached converged solution, kept for nearest-neighbor
// warm-starting of later points.
type Entry struct {
	Point config.OperationPoint
	X     []float64
}

// Cache is the append-only, monotonically growing warm-start cache of
//: a failed point is never added.
type Cache struct {
	entries []Entry
}

func (c *Cache) add(point config.OperationPoint, x []float64) {
	xc := make([]float64, len(x))
	copy(xc, x)
	c.entries = append(c.entries, Entry{Point: point, X: xc})
}

// distance is the normalized operation-point distance
// step 2: angles are normalized by 90 degrees (the units contract keeps
// angles in degrees at every package boundary, so this plays the role of
// the original program's pi/2-radian normalization), other scalars by
// max(|a|,|b|,eps), combined with a two-norm.
func distance(a, b config.OperationPoint) float64 {
	const eps = 1e-8
	rel := func(x, y float64) float64 {
		m := math.Max(math.Max(math.Abs(x), math.Abs(y)), eps)
		return math.Abs(x-y) / m
	}
	d := []float64{
		math.Abs(a.AlphaIn-b.AlphaIn) / 90.0,
		rel(a.P0In, b.P0In),
		rel(a.T0In, b.T0In),
		rel(a.POut, b.POut),
		rel(a.Omega, b.Omega),
	}
	sum := 0.0
	for _, v := range d {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// nearest returns the cached solution closest to point, or nil if the
// cache is empty.
func (c *Cache) nearest(point config.OperationPoint) []float64 {
	if len(c.entries) == 0 {
		return nil
	}
	best := 0
	bestDist := distance(point, c.entries[0].Point)
	for i := 1; i < len(c.entries); i++ {
		d := distance(point, c.entries[i].Point)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return c.entries[best].X
}

// heuristicGuess expands (R, eta_tt, eta_ts, Ma_crit) into a full unknown
// vector x through the machine geometry and boundary conditions. The original algebra for this expansion was not present
// in the retrieved source subset; this reconstruction distributes the
// heuristic's overall enthalpy drop evenly across cascades (biased by R
// within a stage between stator and rotor), seeds the throat/exit flow
// angle from the row's own trailing-edge metal angle, and seeds entropy
// at s_min + (1-eta_tt)*s_range — adequate as a starting point since the root
// finder only needs the heuristic to land within its basin of attraction.
func heuristicGuess(oracle therm.Oracle, bc series.BoundaryConditions, cascades []*geometry.Cascade, mode choking.Mode, ref series.Reference, h Heuristic) ([]float64, error) {
	layout := series.Layout{NumCascades: len(cascades), Mode: mode}
	x := make([]float64, layout.Size())

	stag0In, err := oracle.StatePT(bc.P0In, bc.T0In)
	if err != nil {
		return nil, err
	}

	dhIsentropicTotal := stag0In.H - ref.HOutS
	dhActualTotal := h.EfficiencyTS * dhIsentropicTotal
	n := len(cascades)
	if n == 0 {
		return nil, chk.Err("driver: heuristic guess requires at least one cascade")
	}
	dhPerCascade := dhActualTotal / float64(n)

	vIn := 0.2 * ref.V0
	x[0] = vIn / ref.V0

	sEstimate := ref.SMin + (1-h.EfficiencyTT)*ref.SRange

	for i, g := range cascades {
		base := 1 + i*layout.BlockSize()

		dh := dhPerCascade
		if g.Kind == geometry.Rotor {
			dh *= h.Reaction * 2
		} else {
			dh *= (1 - h.Reaction) * 2
		}
		wOut := math.Sqrt(math.Max(2*dh, 1.0))

		x[base] = wOut / ref.V0
		x[base+1] = clamp01((sEstimate - ref.SMin) / ref.SRange)
		x[base+2] = clamp01((g.MetalAngleTE - ref.AlphaMin) / ref.AlphaRange)

		chokingBase := base + 3
		switch mode {
		case choking.ModeCritical:
			x[chokingBase] = x[0]
			x[chokingBase+1] = h.MachCrit * 0.5
			x[chokingBase+2] = x[base+1]
		case choking.ModeThroat:
			x[chokingBase] = h.MachCrit
			x[chokingBase+1] = x[base+1]
			x[chokingBase+2] = x[base+2]
		case choking.ModeIsentropicThroat:
			x[chokingBase] = h.MachCrit
		}
	}

	return x, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Config bundles the model and numerical options shared by every
// operating point of one run.
type Config struct {
	Mode       choking.Mode
	LossModel  loss.Model
	Deviation  deviation.Model
	Blockage   flowplane.Blockage
	RelStepFD  float64
	DetFloor   float64
	SolverOpts solve.Options
}

// Driver runs a sequence of operating points, maintaining the warm-start
// cache across points.
type Driver struct {
	Oracle   therm.Oracle
	Cascades []*geometry.Cascade
	Cfg      Config
	Cache    Cache
}

func (d *Driver) evaluator(bc series.BoundaryConditions, ref series.Reference) series.Evaluator {
	return series.Evaluator{
		Machine:   series.Machine{Cascades: d.Cascades, Omega: bc.Omega},
		BC:        bc,
		Oracle:    d.Oracle,
		Mode:      d.Cfg.Mode,
		Blockage:  d.Cfg.Blockage,
		LossModel: d.Cfg.LossModel,
		Deviation: d.Cfg.Deviation,
		RelStepFD: d.Cfg.RelStepFD,
		DetFloor:  d.Cfg.DetFloor,
		Reference: ref,
	}
}

func vectorFunc(e series.Evaluator) solve.VectorFunc {
	return func(x []float64) ([]float64, error) {
		residuals, _, err := e.Evaluate(x)
		return residuals, err
	}
}

// attempt runs one root-find and, on success, returns the converged
// cascade chain alongside the solver result.
func attempt(e series.Evaluator, x0 []float64, opt solve.Options) (solve.Result, []cascade.Result) {
	res := solve.Solve(vectorFunc(e), x0, opt)
	if !res.Converged {
		return res, nil
	}
	_, cascades, err := e.Evaluate(res.X)
	if err != nil {
		res.Converged = false
		res.Err = err
		return res, nil
	}
	return res, cascades
}

// Run evaluates one operating point following the method/heuristic retry
// ladder, and on success appends the solution to the warm-start cache.
// isFirst selects the point-1 default heuristic rather than the
// nearest-neighbor warm start.
func (d *Driver) Run(point config.OperationPoint, isFirst bool) (result.OperatingPointResult, error) {
	bc := point.BoundaryConditions()
	inletArea := d.Cascades[0].AIn
	ref, _, err := series.ComputeReference(d.Oracle, bc, inletArea)
	if err != nil {
		return result.OperatingPointResult{}, err
	}

	e := d.evaluator(bc, ref)

	var x0 []float64
	if isFirst {
		x0, err = heuristicGuess(d.Oracle, bc, d.Cascades, d.Cfg.Mode, ref, DefaultHeuristic())
	} else if cached := d.Cache.nearest(point); cached != nil {
		x0 = cached
	} else {
		x0, err = heuristicGuess(d.Oracle, bc, d.Cascades, d.Cfg.Mode, ref, DefaultHeuristic())
	}
	if err != nil {
		return result.OperatingPointResult{}, err
	}

	method := d.Cfg.SolverOpts.Method
	opt := d.Cfg.SolverOpts
	res, cascades := attempt(e, x0, opt)

	if !res.Converged && method != solve.LM {
		method = solve.LM
		opt.Method = solve.LM
		res, cascades = attempt(e, x0, opt)
	}

	if !res.Converged {
		x0, err = heuristicGuess(d.Oracle, bc, d.Cascades, d.Cfg.Mode, ref, DefaultHeuristic())
		if err == nil {
			res, cascades = attempt(e, x0, opt)
		}
	}

	if !res.Converged {
		for _, h := range sweepVariants() {
			xv, herr := heuristicGuess(d.Oracle, bc, d.Cascades, d.Cfg.Mode, ref, h)
			if herr != nil {
				continue
			}
			res, cascades = attempt(e, xv, opt)
			if res.Converged {
				break
			}
		}
	}

	if !res.Converged {
		for _, h := range jitteredSweepVariants() {
			xv, herr := heuristicGuess(d.Oracle, bc, d.Cascades, d.Cfg.Mode, ref, h)
			if herr != nil {
				continue
			}
			res, cascades = attempt(e, xv, opt)
			if res.Converged {
				break
			}
		}
	}

	if !res.Converged {
		return result.OperatingPointResult{}, chk.Err("driver: operating point did not converge after exhausting the retry ladder (NonConvergence)")
	}

	d.Cache.add(point, res.X)

	overall, err := series.ComputeOverall(d.Oracle, cascades, ref, bc.Omega)
	if err != nil {
		return result.OperatingPointResult{}, err
	}
	stages := series.ComputeStages(cascades)

	return result.Assemble(point, cascades, overall, stages, res, method), nil
}

// RunAll runs every point in order, returning one status per point.
func (d *Driver) RunAll(points []config.OperationPoint) []PointStatus {
	statuses := make([]PointStatus, len(points))
	for i, p := range points {
		r, err := d.Run(p, i == 0)
		statuses[i] = PointStatus{Point: p, Result: r, Err: err}
	}
	return statuses
}

// PointStatus is the per-point status the driver always reports,
// converged or not.
type PointStatus struct {
	Point  config.OperationPoint
	Result result.OperatingPointResult
	Err    error
}
