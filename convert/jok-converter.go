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

package convert

import (
	"os"

	"github.com/biogo/hts/sam"
	"github.com/exascience/pargo/pipeline"
	"github.com/pkg/errors"

	"github.com/readxplorer/rximport/internal"
	"github.com/readxplorer/rximport/jok"
	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/track"
)

// A State is the progress of a JokConverter through one conversion.
type State int

const (
	Idle State = iota
	OpeningInput
	StreamingConvert
	ClosingOutput
	Indexing
	Done
	Failed
)

var stateNames = [...]string{
	Idle:             "idle",
	OpeningInput:     "opening input",
	StreamingConvert: "converting",
	ClosingOutput:    "closing output",
	Indexing:         "indexing",
	Done:             "done",
	Failed:           "failed",
}

func (state State) String() string {
	if int(state) < len(stateNames) {
		return stateNames[state]
	}
	return "unknown"
}

// A JokConverter converts jok files into coordinate sorted, indexed
// BAM files.
type JokConverter struct {
	config    JokConfig
	validator *mapping.Validator
	state     State
	lines     int
	converted int
}

// NewJokConverter returns a JokConverter that reports through the
// validator's reporter.
func NewJokConverter(config JokConfig, validator *mapping.Validator) *JokConverter {
	return &JokConverter{config: config, validator: validator}
}

// State returns the current state of the converter.
func (c *JokConverter) State() State {
	return c.state
}

// Converted returns the number of records written by the last
// conversion.
func (c *JokConverter) Converted() int {
	return c.converted
}

// Lines returns the number of lines read by the last conversion.
func (c *JokConverter) Lines() int {
	return c.lines
}

type decodedLine struct {
	rec  *sam.Record
	skip *mapping.Skip
}

// Convert converts the working file of job. The input is made read-only
// while it is converted. Invalid lines are reported and skipped. On
// success, or if only indexing failed, the output becomes the working
// file of job and the previous working file is returned.
func (c *JokConverter) Convert(job *track.Job) (previous track.Superseded, funcErr error) {
	c.state = Idle
	c.lines, c.converted = 0, 0
	defer func() {
		if funcErr != nil {
			c.state = Failed
		}
	}()
	if err := c.config.Validate(); err != nil {
		return previous, err
	}
	reporter := c.validator.Reporter()
	input := job.File()
	output, err := track.ReserveStagePath(input, "conv", mapping.BamExt)
	if err != nil {
		return previous, fatal(err, "creating", input)
	}
	defer func() {
		if funcErr != nil && job.File() != output {
			track.Abandon(output)
		}
	}()

	c.state = OpeningInput
	restore, err := internal.SetReadOnly(input)
	if err != nil {
		return previous, fatal(err, "opening", input)
	}
	defer func() {
		if err := restore(); funcErr == nil && err != nil {
			funcErr = fatal(err, "restoring permissions of", input)
		}
	}()
	file, err := os.Open(input)
	if err != nil {
		return previous, fatal(err, "opening", input)
	}
	defer func() {
		if err := file.Close(); funcErr == nil && err != nil {
			funcErr = fatal(err, "closing", input)
		}
	}()
	src, err := jok.NewLineSource(file)
	if err != nil {
		return previous, fatal(err, "reading", input)
	}
	lengths := mapping.ChromosomeLengths{c.config.Reference: c.config.ReferenceLength}
	header, err := lengths.Header(sam.Coordinate)
	if err != nil {
		return previous, err
	}
	writer, err := mapping.CreateSorted(output, header, sam.Coordinate, c.config.Sort)
	if err != nil {
		return previous, fatal(err, "creating", output)
	}
	encoder := mapping.NewEncoder(writer.Header())
	decoder := jok.NewDecoder(c.validator, c.config.Reference, 0, c.config.ReferenceLength)

	c.state = StreamingConvert
	progress := newProgress(reporter, "lines converted")
	var p pipeline.Pipeline
	p.Source(src)
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			lines := data.([]jok.Line)
			decoded := make([]decodedLine, len(lines))
			for i, line := range lines {
				rec, skip := decoder.Decode(line)
				if skip != nil {
					decoded[i].skip = skip
					continue
				}
				canonical, err := encoder.Encode(rec)
				if err != nil {
					p.SetErr(err)
					return decoded[:i]
				}
				decoded[i].rec = canonical
			}
			return decoded
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, line := range data.([]decodedLine) {
				if line.skip != nil {
					c.validator.Reject(line.skip)
					continue
				}
				if err := writer.Write(line.rec); err != nil {
					p.SetErr(fatal(err, "writing", output))
					return nil
				}
				c.converted++
				progress.inc()
			}
			return nil
		})),
	)
	err = internal.RunPipeline(&p)
	c.lines = src.Lines()
	if err != nil {
		_ = writer.Close()
		return previous, fatal(err, "converting", input)
	}

	c.state = ClosingOutput
	if err := writer.Close(); err != nil {
		return previous, fatal(err, "writing", output)
	}
	previous = job.Supersede(output)

	c.state = Indexing
	if !NewIndexBuilder(reporter).Index(output) {
		return previous, errors.Errorf("no index for %v", output)
	}
	reporter.Summaryf("converted %v of %v lines in %v, %v skipped, %v diagnostics suppressed",
		c.converted, c.lines, progress.elapsed(), c.validator.Rejected(), reporter.Limit().Suppressed())
	c.state = Done
	return previous, nil
}
