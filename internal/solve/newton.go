// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solve implements the Newton-type root finder used to close the
// cascade series, driven by a finite-difference Jacobian of the assembled
// residual vector, wrapping github.com/cpmech/gosl/num.NlSolver the way
// the teacher's constitutive-model drivers wrap it for stress
// integration. Both methods run the same NlSolver Newton iteration:
// "lm" without line search, "hybr" with line search. Neither applies
// Levenberg-Marquardt damping or Powell's dogleg trust region.
package solve

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/num"
)

// Method selects the nonlinear solver algorithm.
type Method string

const (
	LM   Method = "lm"
	Hybr Method = "hybr"
)

// Options configures one root-find attempt.
type Options struct {
	Method           Method
	Tolerance        float64 // infinity-norm convergence tolerance on F(x)
	MaxIterations    int
	DerivativeMethod DerivativeMethod
	RelStep          float64 // rel_step_fd
}

// DefaultOptions mirrors the values used throughout the seed scenarios.
func DefaultOptions() Options {
	return Options{
		Method:           LM,
		Tolerance:        1e-6,
		MaxIterations:    100,
		DerivativeMethod: Forward,
		RelStep:          1e-6,
	}
}

// SingularityError reports NumericalSingularity: the
// determinant in the Lagrange-multiplier algebra of choking Mode A fell
// below the configured floor.
type SingularityError struct {
	Determinant float64
	Floor       float64
}

func (e *SingularityError) Error() string {
	return chk.Err("solve: determinant %g below floor %g (numerical singularity)", e.Determinant, e.Floor).Error()
}

// Result is the outcome of one root-find attempt, exposing the
// convergence history demanded by
type Result struct {
	X            []float64
	Converged    bool
	Iterations   int
	FuncEvals    int
	StepNorm     float64
	ResidualNorm float64
	Err          error
}

// Solve runs one Newton attempt on f starting from x0 (with line search
// only for Hybr), mutating
// nothing in x0. The Jacobian is rebuilt by finite differences at every
// iteration using opt.DerivativeMethod/opt.RelStep.
func Solve(f VectorFunc, x0 []float64, opt Options) Result {
	n := len(x0)
	x := make([]float64, n)
	copy(x, x0)

	funcEvals := 0
	wrappedF := func(fx, xv []float64) error {
		fv, err := f(xv)
		funcEvals++
		if err != nil {
			// PropertyOutOfRange and similar recoverable evaluation
			// failures are reported to the solver as a large finite
			// residual so it can back-track, never as a
			// hard failure of the iteration itself.
			for i := range fx {
				fx[i] = 1e6
			}
			return nil
		}
		copy(fx, fv)
		return nil
	}

	jacfcn := func(J [][]float64, xv []float64) error {
		jac, err := Jacobian(f, xv, opt.DerivativeMethod, opt.RelStep)
		if err != nil {
			for i := range J {
				for k := range J[i] {
					J[i][k] = 0
				}
			}
			return nil
		}
		for i := range jac {
			copy(J[i], jac[i])
		}
		return nil
	}

	lineSearch := 0.0
	if opt.Method == Hybr {
		lineSearch = 1.0
	}

	var nls num.NlSolver
	nls.Init(n, wrappedF, nil, jacfcn, true, false, map[string]float64{
		"lSearch": lineSearch,
		"maxIt":   float64(opt.MaxIterations),
	})
	nls.SetTols(opt.Tolerance, opt.Tolerance, 1e-14, num.EPS)

	err := nls.Solve(x, true)

	fxFinal, ferr := f(x)
	resNorm := 0.0
	if ferr == nil {
		resNorm = infNorm(fxFinal)
	}
	stepNorm := 0.0
	for i := range x {
		stepNorm += (x[i] - x0[i]) * (x[i] - x0[i])
	}
	stepNorm = math.Sqrt(stepNorm)

	converged := err == nil && resNorm < opt.Tolerance

	return Result{
		X:            x,
		Converged:    converged,
		Iterations:   nls.It,
		FuncEvals:    funcEvals,
		StepNorm:     stepNorm,
		ResidualNorm: resNorm,
		Err:          err,
	}
}

func infNorm(x []float64) float64 {
	m := 0.0
	for _, xi := range x {
		if math.Abs(xi) > m {
			m = math.Abs(xi)
		}
	}
	return m
}
