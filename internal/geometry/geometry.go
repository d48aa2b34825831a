// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geometry builds the per-cascade geometric record from a small
// set of raw input dimensions. Geometry records are
// immutable after construction; all downstream packages (loss, deviation,
// cascade) read only.
package geometry

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/turbo-sim/turboflow-go/internal/angle"
)

// Kind tags whether a cascade is a fixed stator or a rotating rotor.
type Kind int

const (
	Stator Kind = iota
	Rotor
)

func (k Kind) String() string {
	if k == Rotor {
		return "rotor"
	}
	return "stator"
}

// Raw holds the raw per-cascade input dimensions as given in a
// configuration document (angles in degrees throughout).
type Raw struct {
	Kind Kind

	RadiusHubIn, RadiusTipIn   float64
	RadiusHubOut, RadiusTipOut float64

	Chord        float64
	Pitch        float64
	Opening      float64
	StaggerAngle float64

	MetalAngleLE float64
	MetalAngleTE float64
	WedgeAngleLE float64
	DiameterLE   float64

	ThicknessTE    float64
	ThicknessMax   float64
	TipClearance   float64
}

// Cascade is the immutable derived geometry of one blade row.
type Cascade struct {
	Kind Kind

	RadiusHubIn, RadiusTipIn     float64
	RadiusHubOut, RadiusTipOut   float64
	RadiusMeanIn, RadiusMeanOut  float64
	RadiusMeanThroat            float64

	AIn, AThroat, AOut float64

	HeightIn, HeightOut, Height float64
	AxialChord                  float64
	AspectRatio                 float64
	PitchToChord                float64
	ThicknessMaxToChord         float64
	ThicknessTEToOpening        float64
	ClearanceToHeight           float64
	DiameterLEToChord           float64
	HubTipRatioIn               float64
	FlaringAngle                float64

	// carried-through raw inputs needed verbatim by loss/deviation models
	Chord        float64
	Pitch        float64
	Opening      float64
	StaggerAngle float64
	MetalAngleLE float64
	MetalAngleTE float64
	WedgeAngleLE float64
	DiameterLE   float64
	ThicknessTE  float64
	ThicknessMax float64
	TipClearance float64
}

// GaugingAngle returns acos(A_throat/A_out), the geometric throat angle.
func (c *Cascade) GaugingAngle() float64 {
	return angle.Arccosd(c.AThroat / c.AOut)
}

// throatRadius applies the Ainley-Mathieson rule r = (1/6)*r_in + (5/6)*r_out.
func throatRadius(rIn, rOut float64) float64 {
	return (1.0/6.0)*rIn + (5.0/6.0)*rOut
}

func annularArea(rHub, rTip float64) float64 {
	return math.Pi * (rTip*rTip - rHub*rHub)
}

// Build derives every geometric quantity the flow model needs from one raw
// cascade record. It rejects the unsupported geometry subset flagged as an
// open question in: rows where the throat area is inconsistent
// with the exit area and gauging angle (A_throat must not exceed A_out,
// since acos(A_throat/A_out) would otherwise be undefined).
func Build(r Raw) (*Cascade, error) {
	if r.RadiusTipIn <= r.RadiusHubIn || r.RadiusTipOut <= r.RadiusHubOut {
		return nil, chk.Err("geometry: tip radius must exceed hub radius at inlet and outlet")
	}
	if r.Chord <= 0 || r.Pitch <= 0 || r.Opening <= 0 {
		return nil, chk.Err("geometry: chord, pitch and opening must be positive")
	}

	c := &Cascade{
		Kind:         r.Kind,
		RadiusHubIn:  r.RadiusHubIn,
		RadiusTipIn:  r.RadiusTipIn,
		RadiusHubOut: r.RadiusHubOut,
		RadiusTipOut: r.RadiusTipOut,
		Chord:        r.Chord,
		Pitch:        r.Pitch,
		Opening:      r.Opening,
		StaggerAngle: r.StaggerAngle,
		MetalAngleLE: r.MetalAngleLE,
		MetalAngleTE: r.MetalAngleTE,
		WedgeAngleLE: r.WedgeAngleLE,
		DiameterLE:   r.DiameterLE,
		ThicknessTE:  r.ThicknessTE,
		ThicknessMax: r.ThicknessMax,
		TipClearance: r.TipClearance,
	}

	c.RadiusMeanIn = (r.RadiusHubIn + r.RadiusTipIn) / 2
	c.RadiusMeanOut = (r.RadiusHubOut + r.RadiusTipOut) / 2
	c.RadiusMeanThroat = throatRadius(c.RadiusMeanIn, c.RadiusMeanOut)

	rHubThroat := throatRadius(r.RadiusHubIn, r.RadiusHubOut)
	rTipThroat := throatRadius(r.RadiusTipIn, r.RadiusTipOut)

	c.AIn = annularArea(r.RadiusHubIn, r.RadiusTipIn)
	c.AOut = annularArea(r.RadiusHubOut, r.RadiusTipOut)
	c.AThroat = annularArea(rHubThroat, rTipThroat)

	if c.AThroat > c.AOut {
		return nil, chk.Err("geometry: unsupported geometry, A_throat (%g) exceeds A_out (%g); "+
			"gauging_angle = acos(A_throat/A_out) is only defined for A_throat <= A_out (see spec open question on throat/exit area)", c.AThroat, c.AOut)
	}

	c.HeightIn = r.RadiusTipIn - r.RadiusHubIn
	c.HeightOut = r.RadiusTipOut - r.RadiusHubOut
	c.Height = (c.HeightIn + c.HeightOut) / 2

	c.AxialChord = r.Chord * angle.Cosd(r.StaggerAngle)
	if c.AxialChord <= 0 {
		return nil, chk.Err("geometry: axial chord must be positive (stagger angle too close to +-90deg)")
	}

	c.AspectRatio = c.Height / c.AxialChord
	c.PitchToChord = r.Pitch / r.Chord
	c.ThicknessMaxToChord = r.ThicknessMax / r.Chord
	c.ThicknessTEToOpening = r.ThicknessTE / r.Opening
	c.ClearanceToHeight = r.TipClearance / c.Height
	c.DiameterLEToChord = r.DiameterLE / r.Chord
	c.HubTipRatioIn = r.RadiusHubIn / r.RadiusTipIn
	c.FlaringAngle = angle.Arctand((c.HeightOut - c.HeightIn) / (2 * c.AxialChord))

	return c, nil
}

// NumberOfStages returns floor(N/2) for N cascades.
func NumberOfStages(n int) int { return n / 2 }
