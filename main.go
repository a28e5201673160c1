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

// rximport imports read mappings into ReadXplorer tracks. It converts
// jok files into BAM files, combines the mates of paired libraries,
// sorts mappings, classifies the mappings of each read, and indexes the
// coordinate sorted results.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/readxplorer/rximport/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: import, convert, combine, sort, classify, index")
	fmt.Fprint(os.Stderr, "\n", cmd.ImportHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ConvertHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.CombineHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.SortHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ClassifyHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.IndexHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = cmd.Import()
	case "convert":
		err = cmd.Convert()
	case "combine":
		err = cmd.Combine()
	case "sort":
		err = cmd.Sort()
	case "classify":
		err = cmd.Classify()
	case "index":
		err = cmd.Index()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(cmd.FailureMessage(err))
	}
}
