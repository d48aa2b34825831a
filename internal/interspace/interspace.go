// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interspace propagates the flow between two consecutive cascades
// under the conservation assumptions: no heat transfer (h0
// conserved), no friction (r*v_t conserved), and no density variation
// across the gap. Because density is held fixed, the next inlet's entropy
// is whatever the oracle returns for (rho_exit, h); it is not tied to the
// exit entropy, so a small entropy inconsistency appears across the gap.
package interspace

import (
	"math"

	"github.com/turbo-sim/turboflow-go/internal/angle"
	"github.com/turbo-sim/turboflow-go/internal/cascade"
	"github.com/turbo-sim/turboflow-go/internal/flowplane"
	"github.com/turbo-sim/turboflow-go/internal/therm"
)

// Connect derives the next cascade's inlet conditions from the previous
// cascade's exit plane, spanning a change of mean radius and area across
// the gap. radiusExit/areaExit are the exit station's own
// geometry; radiusNext/areaNext belong to the next cascade's inlet.
func Connect(oracle therm.Oracle, exit flowplane.Plane, radiusExit, areaExit, radiusNext, areaNext float64) (cascade.Inlet, error) {
	h0 := exit.Stag0.H

	vtIn := exit.Vt * radiusExit / radiusNext
	vmIn := exit.Vm * areaExit / areaNext
	v := math.Hypot(vtIn, vmIn)
	alpha := angle.Arctan2d(vtIn, vmIn)

	h := h0 - 0.5*v*v
	state, err := oracle.StateRhoH(exit.State.Rho, h)
	if err != nil {
		return cascade.Inlet{}, err
	}

	return cascade.Inlet{H0: h0, S: state.S, Alpha: alpha, V: v}, nil
}
