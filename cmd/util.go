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
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/readxplorer/rximport/convert"
	"github.com/readxplorer/rximport/internal"
	"github.com/readxplorer/rximport/fasta"
	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/utils"
)

// ProgramMessage is the first line printed when the rximport binary is
// called.
var ProgramMessage string

func init() {
	ProgramMessage = fmt.Sprint(
		"\n", utils.ProgramName, " version ", utils.ProgramVersion,
		" compiled with ", runtime.Version(),
		" - see ", utils.ProgramURL, " for more information.\n",
	)
}

// HelpMessage is printed to show the --help flag
const HelpMessage = "Print command details:\n" +
	"[--help]\n"

const commonHelp = "[--error-limit n]\n" +
	"[--nr-of-threads n]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

const sortHelp = "[--max-records-in-ram n]\n" +
	"[--tmp-path path]\n"

const referenceHelp = "[--reference name]\n" +
	"[--reference-length n]\n" +
	"[--reference-fasta file]\n" +
	"[--reference-fai file]\n"

func getFilename(s, help string) string {
	switch s {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, help)
		os.Exit(0)
	default:
		if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "--") {
			log.Println("Filename(s) in command line missing.")
			fmt.Fprint(os.Stderr, help)
			os.Exit(1)
		}
	}
	return s
}

// getFilenames returns the file names in the command line, which
// precede the first flag.
func getFilenames(help string) []string {
	var names []string
	for _, arg := range os.Args[2:] {
		if strings.HasPrefix(arg, "-") {
			break
		}
		names = append(names, arg)
	}
	if len(names) == 0 && len(os.Args) > 2 {
		getFilename(os.Args[2], help)
	}
	return names
}

func parseFlags(flags *flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(ioutil.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func logCheckFile(parameter, format string, v ...interface{}) {
	if parameter != "" {
		log.Printf(format+" for command line parameter %v.\n", append(v, parameter)...)
	} else {
		log.Printf(format+".\n", v...)
	}
}

func checkExist(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		logCheckFile(parameter, "Error: File %v does not exist", filename)
		return false
	} else if os.IsPermission(err) {
		logCheckFile(parameter, "Error: No permission to read file %v", filename)
		return false
	} else {
		logCheckFile(parameter, "Error %v when trying to access file %v", err, filename)
		return false
	}
}

func checkCreate(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		// Assume that the file has been written by previous rximport runs, and can be overwritten.
		return true
	}
	err := os.MkdirAll(filepath.Dir(filename), 0700)
	if err == nil {
		err = ioutil.WriteFile(filename, nil, 0666)
	}
	if err != nil {
		if os.IsPermission(err) {
			logCheckFile(parameter, "Error: No permission to create file %v", filename)
		} else {
			logCheckFile(parameter, "Error %v when trying to create file %v", err, filename)
		}
		return false
	}
	_ = os.Remove(filename)
	return true
}

func checkDirectory(parameter, path string) bool {
	if path == "" {
		return true
	}
	if info, err := os.Stat(path); err != nil {
		logCheckFile(parameter, "Error %v when trying to access directory %v", err, path)
		return false
	} else if !info.IsDir() {
		logCheckFile(parameter, "Error: %v is not a directory", path)
		return false
	}
	if !internal.IsWritable(path) {
		logCheckFile(parameter, "Error: No permission to write to directory %v", path)
		return false
	}
	return true
}

// commonOptions are the flags shared by all commands.
type commonOptions struct {
	errorLimit      int
	nrOfThreads     int
	maxRecordsInRAM int
	tmpPath         string
	timed           bool
	profile         string
	logPath         string
}

func (options *commonOptions) define(flags *flag.FlagSet, sorting bool) {
	flags.IntVar(&options.errorLimit, "error-limit", utils.DefaultErrorLimit, "maximum number of diagnostics reported per track")
	flags.IntVar(&options.nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&options.timed, "timed", false, "measure the runtime")
	flags.StringVar(&options.profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&options.logPath, "log-path", "", "write log files to the specified directory")
	if sorting {
		flags.IntVar(&options.maxRecordsInRAM, "max-records-in-ram", mapping.DefaultMaxRecordsInRAM, "number of records sorted in memory before spilling to disk")
		flags.StringVar(&options.tmpPath, "tmp-path", "", "directory for temporary files, by default the directory of the output")
	}
}

func (options *commonOptions) check() bool {
	ok := true
	if options.errorLimit <= 0 {
		log.Println("Error: Invalid error-limit: ", options.errorLimit)
		ok = false
	}
	if options.nrOfThreads < 0 {
		log.Println("Error: Invalid nr-of-threads: ", options.nrOfThreads)
		ok = false
	}
	if options.maxRecordsInRAM < 0 {
		log.Println("Error: Invalid max-records-in-ram: ", options.maxRecordsInRAM)
		ok = false
	}
	if !checkDirectory("--tmp-path", options.tmpPath) {
		ok = false
	}
	if options.profile != "" && !checkCreate("--profile", options.profile) {
		ok = false
	}
	return ok
}

// apply sets the number of threads and describes the options in the
// reconstructed command line.
func (options *commonOptions) apply(command io.Writer) {
	if options.errorLimit != utils.DefaultErrorLimit {
		fmt.Fprint(command, " --error-limit ", options.errorLimit)
	}
	if options.nrOfThreads > 0 {
		runtime.GOMAXPROCS(options.nrOfThreads)
		fmt.Fprint(command, " --nr-of-threads ", options.nrOfThreads)
	}
	if options.maxRecordsInRAM != mapping.DefaultMaxRecordsInRAM && options.maxRecordsInRAM != 0 {
		fmt.Fprint(command, " --max-records-in-ram ", options.maxRecordsInRAM)
	}
	if options.tmpPath != "" {
		fmt.Fprint(command, " --tmp-path ", options.tmpPath)
	}
	if options.timed {
		fmt.Fprint(command, " --timed")
	}
	if options.profile != "" {
		fmt.Fprint(command, " --profile ", options.profile)
	}
	if options.logPath != "" {
		fmt.Fprint(command, " --log-path ", options.logPath)
	}
}

func (options *commonOptions) sortOptions() mapping.SortOptions {
	return mapping.SortOptions{MaxRecordsInRAM: options.maxRecordsInRAM, TempDir: options.tmpPath}
}

func (options *commonOptions) newValidator(source string) *mapping.Validator {
	return mapping.NewValidator(utils.NewReporter(source, utils.NewErrorLimit(options.errorLimit), logEvent))
}

// referenceOptions select the reference of jok input.
type referenceOptions struct {
	name   string
	length int
	fasta  string
	fai    string
}

func (options *referenceOptions) define(flags *flag.FlagSet) {
	flags.StringVar(&options.name, "reference", "", "name of the reference sequence of jok input")
	flags.IntVar(&options.length, "reference-length", 0, "length of the reference sequence of jok input")
	flags.StringVar(&options.fasta, "reference-fasta", "", "FASTA file with the reference sequence of jok input")
	flags.StringVar(&options.fai, "reference-fai", "", "FASTA index with the length of the reference sequence of jok input")
}

func (options *referenceOptions) check() bool {
	if options.fasta != "" && !checkExist("--reference-fasta", options.fasta) {
		return false
	}
	if options.fai != "" && !checkExist("--reference-fai", options.fai) {
		return false
	}
	if options.fasta == "" && options.fai == "" {
		if options.name == "" {
			log.Println("Error: Missing reference for jok input. Please add the --reference option to your call.")
			return false
		}
		if options.length <= 0 {
			log.Println("Error: Missing length of reference", options.name, "- please add the --reference-length option to your call.")
			return false
		}
	}
	return true
}

func (options *referenceOptions) apply(command io.Writer) {
	if options.name != "" {
		fmt.Fprint(command, " --reference ", options.name)
	}
	if options.length > 0 {
		fmt.Fprint(command, " --reference-length ", options.length)
	}
	if options.fasta != "" {
		fmt.Fprint(command, " --reference-fasta ", options.fasta)
	}
	if options.fai != "" {
		fmt.Fprint(command, " --reference-fai ", options.fai)
	}
}

// resolve returns the name and length of the reference. A FASTA file
// or index with a single sequence does not need an explicit name.
func (options *referenceOptions) resolve() (string, int, error) {
	file := options.fai
	if file == "" {
		file = options.fasta
	}
	if file == "" {
		return options.name, options.length, nil
	}
	lengths, err := fasta.ReadLengths(file)
	if err != nil {
		return "", 0, err
	}
	name := options.name
	if name == "" {
		if len(lengths) != 1 {
			return "", 0, fmt.Errorf("%v contains %v sequences, please select one with the --reference option", file, len(lengths))
		}
		name = lengths.Names()[0]
	}
	length, ok := lengths[name]
	if !ok {
		return "", 0, fmt.Errorf("reference %v not found in %v", name, file)
	}
	if options.length > 0 && options.length != length {
		log.Printf("Warning: The --reference-length %v differs from the length %v of %v in %v. The parameter is ignored.\n", options.length, length, name, file)
	}
	return name, length, nil
}

// logEvent is the observer of all pipelines started from the command
// line.
func logEvent(event utils.Event) {
	log.Printf("%v: %v\n", event.Kind, event)
}

// logResult reports where a command stored its result.
func logResult(what, input, output string) {
	if fullPath, err := internal.FullPathname(output); err == nil {
		output = fullPath
	}
	log.Printf("%v %v into %v (%v bytes).\n", what, input, output, internal.FileSize(output))
}

// FailureMessage describes a fatal error for the user.
func FailureMessage(err error) string {
	switch {
	case convert.IsResourceExhausted(err):
		return fmt.Sprint("Resources exhausted - consider a lower --max-records-in-ram or a different --tmp-path: ", err)
	case convert.IsIOError(err):
		return fmt.Sprint("I/O error: ", err)
	default:
		return fmt.Sprint("Error: ", err)
	}
}

func createLogFilename() string {
	t := time.Now()
	zone, _ := t.Zone()
	return fmt.Sprintf("logs/rximport/rximport-%d-%02d-%02d-%02d-%02d-%02d-%09d-%v.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

func setLogOutput(path string) {
	logPath := createLogFilename()
	var fullPath string
	if path == "" {
		fullPath = filepath.Join(os.Getenv("HOME"), logPath)
	} else {
		fullPath = filepath.Join(path, logPath)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0700); err != nil {
		log.Panic(err)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		log.Panic(err)
	}
	fmt.Fprintln(f, ProgramMessage)

	orgStderr, err := unix.Dup(2)
	if err != nil {
		log.Panic(err)
	}
	ferr := os.NewFile(uintptr(orgStderr), "/dev/stderr")
	if err := unix.Dup2(int(f.Fd()), 2); err != nil {
		log.Panic(err)
	}

	multi := io.MultiWriter(f, ferr)

	log.SetOutput(multi)
	log.Println("Created log file at", fullPath)
	log.Println("Command line:", os.Args)
}

func timedRun(timed bool, profile, msg string, phase int64, f func() error) error {
	if profile != "" {
		filename := profile + strconv.FormatInt(phase, 10) + ".prof"
		file, err := os.Create(filename)
		if err != nil {
			return err
		}
		defer func() {
			_ = file.Close()
		}()
		if err := pprof.StartCPUProfile(file); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}
	if timed {
		log.Println(msg)
		start := time.Now()
		defer func() {
			end := time.Now()
			log.Println("Elapsed time: ", end.Sub(start))
		}()
	}
	return f()
}
