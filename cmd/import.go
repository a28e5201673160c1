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
	"strings"

	"github.com/readxplorer/rximport/convert"
	"github.com/readxplorer/rximport/track"
)

// ImportHelp is the help string for this command.
const ImportHelp = "\nimport parameters:\n" +
	"rximport import input-file [input-file ...]\n" +
	"[--paired]\n" +
	"[--nr-of-tracks n]\n" +
	referenceHelp +
	sortHelp +
	commonHelp

// Import implements the rximport import command. Each input file is a
// track, unless --paired is given, in which case consecutive input
// files are the two mates of a track.
func Import() error {
	var (
		common     commonOptions
		reference  referenceOptions
		paired     bool
		nrOfTracks int
	)

	flags := flag.NewFlagSet("import", flag.ContinueOnError)

	flags.BoolVar(&paired, "paired", false, "consecutive input files are the mates of paired tracks")
	flags.IntVar(&nrOfTracks, "nr-of-tracks", 0, "number of tracks imported in parallel")
	reference.define(flags)
	common.define(flags, true)

	inputs := getFilenames(ImportHelp)

	parseFlags(flags, 2+len(inputs), ImportHelp)

	setLogOutput(common.logPath)

	// sanity checks

	var sanityChecksFailed bool

	if len(inputs) == 0 {
		log.Println("Error: No input files given.")
		sanityChecksFailed = true
	}
	var anyJok bool
	for _, input := range inputs {
		if !checkExist("", input) {
			sanityChecksFailed = true
		}
		if convert.DetectFormat(input) == convert.Jok {
			anyJok = true
		}
	}
	if paired && len(inputs)%2 != 0 {
		log.Println("Error: Paired import needs an even number of input files, got", len(inputs))
		sanityChecksFailed = true
	}
	if nrOfTracks < 0 {
		log.Println("Error: Invalid nr-of-tracks: ", nrOfTracks)
		sanityChecksFailed = true
	}
	if anyJok && !reference.check() {
		sanityChecksFailed = true
	}
	if !common.check() {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ImportHelp)
		os.Exit(1)
	}

	config := convert.DefaultImportConfig()
	if anyJok {
		name, length, err := reference.resolve()
		if err != nil {
			return err
		}
		config.Reference = name
		config.ReferenceLength = length
	}
	config.Sort = common.sortOptions()
	config.ErrorLimit = common.errorLimit
	if nrOfTracks > 0 {
		config.Parallelism = nrOfTracks
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " import ", strings.Join(inputs, " "))
	if paired {
		fmt.Fprint(&command, " --paired")
	}
	if nrOfTracks > 0 {
		fmt.Fprint(&command, " --nr-of-tracks ", nrOfTracks)
	}
	reference.apply(&command)
	common.apply(&command)

	// executing command

	log.Println("Executing command:\n", command.String())

	var tracks []convert.Track
	if paired {
		for i := 0; i < len(inputs); i += 2 {
			tracks = append(tracks, convert.Track{
				Job:  track.NewJob("", inputs[i]),
				Mate: track.NewJob("", inputs[i+1]),
			})
		}
	} else {
		for _, input := range inputs {
			tracks = append(tracks, convert.Track{Job: track.NewJob("", input)})
		}
	}

	importer := convert.NewImporter(config, logEvent)

	return timedRun(common.timed, common.profile, "Importing tracks.", 1, func() error {
		err := importer.ImportAll(tracks)
		for _, t := range tracks {
			if t.Job.File() != t.Job.Original() {
				logResult("Imported", t.Job.Original(), t.Job.File())
			}
		}
		return err
	})
}
