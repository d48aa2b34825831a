// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package smoothmath implements differentiable stand-ins for max, min and
// abs for the Newton-type solver in internal/solve. internal/loss uses Max
// to soften some of its limits; the choking and deviation switches and
// the remaining loss branches do not use this package.
package smoothmath

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Method selects the soft-max approximation used by Max/Min.
type Method int

const (
	// LogSumExp approximates max via (1/alpha)*log(sum(exp(alpha*x))).
	LogSumExp Method = iota
	// Boltzmann approximates max via a Boltzmann-weighted average of x.
	Boltzmann
	// PNorm approximates max via a p-norm; only valid for positive x.
	PNorm
)

// Max approximates max(x...) with sharpness alpha (larger alpha => closer to
// the true max). A negative alpha approximates min instead.
func Max(method Method, alpha float64, x ...float64) float64 {
	switch method {
	case LogSumExp:
		return logSumExp(alpha, x)
	case Boltzmann:
		return boltzmann(alpha, x)
	case PNorm:
		return pnorm(alpha, x)
	default:
		chk.Panic("smoothmath: unknown method %v", method)
		return 0
	}
}

// Min approximates min(x...) by negating the sharpness of Max.
func Min(method Method, alpha float64, x ...float64) float64 {
	return Max(method, -alpha, x...)
}

// Abs approximates |x| with a smooth function that is exact away from x=0
// and has bounded curvature at the origin, via sqrt(x^2+eps^2) - eps.
func Abs(x, eps float64) float64 {
	return math.Sqrt(x*x+eps*eps) - eps
}

func signOf(alpha float64) float64 {
	if alpha < 0 {
		return -1
	}
	return 1
}

func logSumExp(alpha float64, x []float64) float64 {
	s := signOf(alpha)
	shift := x[0] * s
	for _, xi := range x[1:] {
		if xi*s > shift {
			shift = xi * s
		}
	}
	shift *= s
	sum := 0.0
	for _, xi := range x {
		sum += math.Exp(alpha * (xi - shift))
	}
	return math.Log(sum)/alpha + shift
}

func boltzmann(alpha float64, x []float64) float64 {
	s := signOf(alpha)
	shift := x[0] * s
	for _, xi := range x[1:] {
		if xi*s > shift {
			shift = xi * s
		}
	}
	shift *= s
	var num, den float64
	for _, xi := range x {
		w := math.Exp(alpha * (xi - shift))
		num += xi * w
		den += w
	}
	return num / (den + math.SmallestNonzeroFloat64)
}

func pnorm(alpha float64, x []float64) float64 {
	sum := 0.0
	for _, xi := range x {
		sum += math.Pow(xi, alpha)
	}
	return math.Pow(sum, 1/alpha)
}
