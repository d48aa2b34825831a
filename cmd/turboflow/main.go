// Copyright 2024 The TurboFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"

	"github.com/turbo-sim/turboflow-go/internal/config"
	"github.com/turbo-sim/turboflow-go/internal/driver"
	"github.com/turbo-sim/turboflow-go/internal/therm"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				io.Pfred("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	flag.Parse()
	if len(flag.Args()) == 0 {
		chk.Panic("Please, provide a configuration file. Ex.: turboflow run.json")
	}
	fnamepath := flag.Arg(0)

	if mpi.Rank() == 0 {
		io.PfWhite("\nTurboFlow -- mean-line turbine performance analyzer\n\n")
	}

	data, err := os.ReadFile(fnamepath)
	if err != nil {
		chk.Panic("cannot read configuration file %q: %v", fnamepath, err)
	}

	doc, err := config.Load(data)
	if err != nil {
		chk.Panic("%v", err)
	}

	cascades, err := doc.Cascades()
	if err != nil {
		chk.Panic("%v", err)
	}

	points := doc.Points()
	if len(points) == 0 {
		chk.Panic("configuration defines no operation points")
	}

	// A single run analyzes one working fluid; the ideal-gas oracle below
	// is the built-in backend until a real property package is wired in.
	oracle := therm.NewIdealGas(points[0].FluidName, 287.0, 1.4)

	drv := &driver.Driver{
		Oracle:   oracle,
		Cascades: cascades,
		Cfg: driver.Config{
			Mode:      doc.ModelOptions.ChokingModel,
			LossModel: doc.ModelOptions.LossModel,
			Deviation: doc.ModelOptions.DeviationModel,
			Blockage:  doc.ModelOptions.Blockage(),
			RelStepFD: doc.ModelOptions.RelStepFD(),
			DetFloor:  doc.ModelOptions.DeterminantFloor(),
			SolverOpts: doc.Solver.Options(),
		},
	}

	if mpi.Rank() == 0 {
		io.Pf("solving %d operating point(s)\n", len(points))
	}

	statuses := drv.RunAll(points)

	failed := 0
	for i, s := range statuses {
		if mpi.Rank() != 0 {
			continue
		}
		if s.Err != nil {
			failed++
			io.Pfyel("point %d: FAILED: %v\n", i, s.Err)
			continue
		}
		io.PfGreen("point %d: converged in %d iterations (residual %.3e)\n",
			i, s.Result.Solver.Iterations, s.Result.Solver.ResidualNorm)
	}

	if mpi.Rank() == 0 {
		io.Pf("\n%d/%d points converged\n", len(points)-failed, len(points))
	}
}
