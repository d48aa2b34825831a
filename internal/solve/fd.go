// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solve

import (
	"github.com/cpmech/gosl/num"
)

// DerivativeMethod selects the finite-difference stencil used to build the
// Jacobian of a residual vector.
type DerivativeMethod string

const (
	Forward DerivativeMethod = "forward"
	Central DerivativeMethod = "central"
)

// VectorFunc is a residual function F: R^n -> R^m.
type VectorFunc func(x []float64) ([]float64, error)

// Jacobian builds the m x n Jacobian of f at x by finite differences, one
// scalar derivative per (output, input) pair via gosl/num.DerivFwd or
// num.DerivCen, with relative step relStep. This is the same per-component
// FD pattern the teacher uses to check consistent tangent operators in
// msolid/driver.go and mdl/solid/driver.go, generalized from a scalar
// model response to a full residual vector.
//
// The critical-point sub-block (internal/choking Mode A) is the most
// FD-sensitive part of the system: its 3x3 Jacobian is built by the same
// routine, called directly rather than through the outer Newton step.
func Jacobian(f VectorFunc, x []float64, method DerivativeMethod, relStep float64) ([][]float64, error) {
	n := len(x)
	f0, err := f(x)
	if err != nil {
		return nil, err
	}
	m := len(f0)

	derivfcn := num.DerivFwd
	if method == Central {
		derivfcn = num.DerivCen
	}

	J := make([][]float64, m)
	for i := range J {
		J[i] = make([]float64, n)
	}

	xw := make([]float64, n)
	copy(xw, x)

	for j := 0; j < n; j++ {
		h := relStep * maxAbs(x[j], 1.0)
		var ferr error
		for i := 0; i < m; i++ {
			d, err := derivfcn(func(xj float64, _ ...interface{}) float64 {
				saved := xw[j]
				xw[j] = xj
				fx, err2 := f(xw)
				xw[j] = saved
				if err2 != nil {
					ferr = err2
					return 0
				}
				return fx[i]
			}, x[j], h)
			if ferr != nil {
				return nil, ferr
			}
			if err != nil {
				return nil, err
			}
			J[i][j] = d
		}
	}
	return J, nil
}

func maxAbs(a, b float64) float64 {
	if a < 0 {
		a = -a
	}
	if a > b {
		return a
	}
	return b
}
