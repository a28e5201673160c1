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

// ClassifyHelp is the help string for this command.
const ClassifyHelp = "\nclassify parameters:\n" +
	"rximport classify queryname-sorted-sam-or-bam-file\n" +
	sortHelp +
	commonHelp

// Classify implements the rximport classify command.
func Classify() error {
	var common commonOptions

	flags := flag.NewFlagSet("classify", flag.ContinueOnError)

	common.define(flags, true)

	parseFlags(flags, 3, ClassifyHelp)

	input := getFilename(os.Args[2], ClassifyHelp)

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
	if !common.check() {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ClassifyHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " classify ", input)
	common.apply(&command)

	// executing command

	log.Println("Executing command:\n", command.String())

	config := convert.DefaultClassifyConfig()
	config.Sort = common.sortOptions()
	job := track.NewJob("", input)
	classifier := convert.NewClassifier(config, common.newValidator(job.Name()))

	return timedRun(common.timed, common.profile, "Classifying mappings.", 1, func() error {
		if _, err := classifier.Classify(job); err != nil {
			return err
		}
		for class := mapping.Unclassified; class <= mapping.Common; class++ {
			log.Printf("%v: %v\n", class, classifier.Count(class))
		}
		logResult("Classified", input, job.File())
		return nil
	})
}
