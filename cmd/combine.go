// rximport: a read-mapping import pipeline for ReadXplorer tracks.
// Copyright (c) 2017-2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/readxplorer/rximport/convert"
	"github.com/readxplorer/rximport/track"
)

// CombineHelp is the help string for this command.
const CombineHelp = "\ncombine parameters:\n" +
	"rximport combine mate1-file mate2-file\n" +
	"[--sort-coordinate]\n" +
	sortHelp +
	commonHelp

// Combine implements the rximport combine command.
func Combine() error {
	var (
		common         commonOptions
		sortCoordinate bool
	)

	flags := flag.NewFlagSet("combine", flag.ContinueOnError)

	flags.BoolVar(&sortCoordinate, "sort-coordinate", false, "sort the combined file by coordinate and index it")
	common.define(flags, true)

	parseFlags(flags, 4, CombineHelp)

	mate1 := getFilename(os.Args[2], CombineHelp)
	mate2 := getFilename(os.Args[3], CombineHelp)

	setLogOutput(common.logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", mate1) {
		sanityChecksFailed = true
	}
	if !checkExist("", mate2) {
		sanityChecksFailed = true
	}
	if convert.DetectFormat(mate1) == convert.Jok || convert.DetectFormat(mate2) == convert.Jok {
		log.Println("Error: Mates must be SAM or BAM files. Convert jok files first with rximport convert.")
		sanityChecksFailed = true
	}
	if !common.check() {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CombineHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " combine ", mate1, " ", mate2)
	if sortCoordinate {
		fmt.Fprint(&command, " --sort-coordinate")
	}
	common.apply(&command)

	// executing command

	log.Println("Executing command:\n", command.String())

	config := convert.DefaultCombineConfig()
	config.SortCoordinate = sortCoordinate
	config.Sort = common.sortOptions()
	job1 := track.NewJob("", mate1)
	job2 := track.NewJob("", mate2)
	combiner := convert.NewPairCombiner(config, common.newValidator(job1.Name()))

	return timedRun(common.timed, common.profile, "Combining mates.", 1, func() error {
		if _, _, err := combiner.Combine(job1, job2); err != nil {
			return err
		}
		logResult("Combined", mate1+" and "+mate2, job1.File())
		return nil
	})
}
