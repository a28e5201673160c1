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
	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/track"
)

// SortHelp is the help string for this command.
const SortHelp = "\nsort parameters:\n" +
	"rximport sort sam-or-bam-file\n" +
	"[--sort-order [coordinate | queryname]]\n" +
	sortHelp +
	commonHelp

// Sort implements the rximport sort command.
func Sort() error {
	var (
		common    commonOptions
		sortOrder string
	)

	flags := flag.NewFlagSet("sort", flag.ContinueOnError)

	flags.StringVar(&sortOrder, "sort-order", "queryname", "determine output order of alignments, one of coordinate or queryname")
	common.define(flags, true)

	parseFlags(flags, 3, SortHelp)

	input := getFilename(os.Args[2], SortHelp)

	setLogOutput(common.logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if convert.DetectFormat(input) == convert.Jok {
		log.Println("Error: Input must be a SAM or BAM file. Convert jok files first with rximport convert.")
		sanityChecksFailed = true
	}
	order, err := mapping.ParseSortOrder(sortOrder)
	if err != nil || mapping.LessFor(order) == nil {
		log.Println("Error: Invalid sort-order: ", sortOrder)
		sanityChecksFailed = true
	}
	if !common.check() {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, SortHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " sort ", input, " --sort-order ", order)
	common.apply(&command)

	// executing command

	log.Println("Executing command:\n", command.String())

	config := convert.DefaultSortConfig(order)
	config.Sort = common.sortOptions()
	job := track.NewJob("", input)
	sorter := convert.NewStreamSorter(config, common.newValidator(job.Name()))

	return timedRun(common.timed, common.profile, "Sorting.", 1, func() error {
		_, changed, err := sorter.Sort(job)
		if err != nil {
			return err
		}
		if changed {
			logResult("Sorted", input, job.File())
		}
		return nil
	})
}
