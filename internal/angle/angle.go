// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package angle collects the degree-based trigonometric helpers shared by
// the geometry, deviation and loss packages.
//
// Contract: every angle crossing a package boundary in this module (metal
// angles, flow angles, stagger, wedge angle) is in degrees. Radians are
// only ever used inside a function body, never at its interface. This
// prevents silent radian/degree mixing between the geometry builder and
// the flow model.
package angle

import "math"

// Sind returns sin(degrees).
func Sind(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }

// Cosd returns cos(degrees).
func Cosd(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }

// Tand returns tan(degrees).
func Tand(deg float64) float64 { return math.Tan(deg * math.Pi / 180) }

// Arcsind returns asin(x) in degrees.
func Arcsind(x float64) float64 { return math.Asin(x) * 180 / math.Pi }

// Arccosd returns acos(x) in degrees.
func Arccosd(x float64) float64 { return math.Acos(x) * 180 / math.Pi }

// Arctand returns atan(x) in degrees.
func Arctand(x float64) float64 { return math.Atan(x) * 180 / math.Pi }

// Arctan2d returns atan2(y, x) in degrees.
func Arctan2d(y, x float64) float64 { return math.Atan2(y, x) * 180 / math.Pi }
