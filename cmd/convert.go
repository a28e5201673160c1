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

// ConvertHelp is the help string for this command.
const ConvertHelp = "\nconvert parameters:\n" +
	"rximport convert jok-file\n" +
	referenceHelp +
	sortHelp +
	commonHelp

// Convert implements the rximport convert command.
func Convert() error {
	var (
		common    commonOptions
		reference referenceOptions
	)

	flags := flag.NewFlagSet("convert", flag.ContinueOnError)

	reference.define(flags)
	common.define(flags, true)

	parseFlags(flags, 3, ConvertHelp)

	input := getFilename(os.Args[2], ConvertHelp)

	setLogOutput(common.logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !reference.check() {
		sanityChecksFailed = true
	}
	if !common.check() {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ConvertHelp)
		os.Exit(1)
	}

	name, length, err := reference.resolve()
	if err != nil {
		return err
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " convert ", input)
	reference.apply(&command)
	common.apply(&command)

	// executing command

	log.Println("Executing command:\n", command.String())

	config := convert.DefaultJokConfig(name, length)
	config.Sort = common.sortOptions()
	job := track.NewJob("", input)
	converter := convert.NewJokConverter(config, common.newValidator(job.Name()))

	return timedRun(common.timed, common.profile, "Converting jok file.", 1, func() error {
		if _, err := converter.Convert(job); err != nil {
			return err
		}
		logResult("Converted", input, job.File())
		return nil
	})
}
