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
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"

	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/track"
)

// A PairCombiner merges the alignment files of the two mates of a
// paired read library into one file.
//
// Every record is tagged with its mate and as having an unmapped mate.
// Mates are not matched against each other.
type PairCombiner struct {
	config    CombineConfig
	validator *mapping.Validator
	combined  int
}

// NewPairCombiner returns a PairCombiner that reports through the
// validator's reporter.
func NewPairCombiner(config CombineConfig, validator *mapping.Validator) *PairCombiner {
	return &PairCombiner{config: config, validator: validator}
}

// Combined returns the number of records written by the last call to
// Combine.
func (c *PairCombiner) Combined() int {
	return c.combined
}

const mateFlags = sam.Paired | sam.Read1 | sam.Read2 | sam.MateUnmapped

func tagMate(rec *sam.Record, role mapping.PairRole) {
	rec.Flags &^= mateFlags
	rec.Flags |= sam.Paired | sam.MateUnmapped
	if role == mapping.First {
		rec.Flags |= sam.Read1
	} else {
		rec.Flags |= sam.Read2
	}
}

func (c *PairCombiner) addMate(path string, role mapping.PairRole, writer *mapping.SortingWriter, known func(*sam.Reference) bool, progress *progress) (funcErr error) {
	input, err := mapping.Open(path)
	if err != nil {
		return fatal(err, "opening", path)
	}
	defer func() {
		if err := input.Close(); funcErr == nil && err != nil {
			funcErr = fatal(err, "closing", path)
		}
	}()
	filter := func(number int, rec *sam.Record) *mapping.Skip {
		if skip := c.validator.ValidateCanonical(number, rec); skip != nil && !skip.Kind.Benign() {
			return skip
		}
		if !known(rec.Ref) {
			return mapping.NewSkip(mapping.UnknownReference, number, rec.Name, "reference %v is not in the sequence dictionary of the first mate", rec.Ref.Name())
		}
		if !known(rec.MateRef) {
			rec.MateRef, rec.MatePos = nil, -1
		}
		tagMate(rec, role)
		return nil
	}
	emit := func(rec *sam.Record) error {
		if err := writer.Write(rec); err != nil {
			return fatal(err, "writing", "combined output")
		}
		c.combined++
		progress.inc()
		return nil
	}
	if err := streamRecords(input, c.validator, filter, emit, nil); err != nil {
		return fatal(err, "reading", path)
	}
	return nil
}

// Combine streams the records of the working files of job1 and job2
// into a new file, first mates first. The new file becomes the working
// file of job1, and job2 is released. The previous working files of
// both jobs are returned for the caller to delete.
//
// If SortCoordinate is set, the output is coordinate sorted and
// indexed, otherwise it is unsorted.
func (c *PairCombiner) Combine(job1, job2 *track.Job) (previous1, previous2 track.Superseded, funcErr error) {
	c.combined = 0
	if err := c.config.Validate(); err != nil {
		return previous1, previous2, err
	}
	reporter := c.validator.Reporter()
	mate1, mate2 := job1.File(), job2.File()
	if mate1 == track.NoFile || mate2 == track.NoFile {
		return previous1, previous2, errors.New("combining requires the files of both mates")
	}
	output, err := track.ReserveStagePath(mate1, "comb", mapping.BamExt)
	if err != nil {
		return previous1, previous2, fatal(err, "creating", mate1)
	}
	defer func() {
		if funcErr != nil && job1.File() != output {
			track.Abandon(output)
		}
	}()

	input, err := mapping.Open(mate1)
	if err != nil {
		return previous1, previous2, fatal(err, "opening", mate1)
	}
	header := input.Header()
	if err := input.Close(); err != nil {
		return previous1, previous2, fatal(err, "closing", mate1)
	}

	order := sam.Unsorted
	if c.config.SortCoordinate {
		order = sam.Coordinate
	}
	writer, err := mapping.CreateSorted(output, header, order, c.config.Sort)
	if err != nil {
		return previous1, previous2, fatal(err, "creating", output)
	}
	encoder := mapping.NewEncoder(writer.Header())
	known := func(ref *sam.Reference) bool {
		return ref == nil || encoder.Reference(ref.Name()) != nil
	}

	progress := newProgress(reporter, "records combined")
	if err := c.addMate(mate1, mapping.First, writer, known, progress); err != nil {
		_ = writer.Close()
		return previous1, previous2, err
	}
	if err := c.addMate(mate2, mapping.Second, writer, known, progress); err != nil {
		_ = writer.Close()
		return previous1, previous2, err
	}
	if err := writer.Close(); err != nil {
		return previous1, previous2, fatal(err, "writing", output)
	}
	previous1 = job1.Supersede(output)
	previous2 = job2.Release()

	if c.config.SortCoordinate && !NewIndexBuilder(reporter).Index(output) {
		return previous1, previous2, errors.Errorf("no index for %v", output)
	}
	reporter.Summaryf("combined %v records of both mates in %v", c.combined, progress.elapsed())
	return previous1, previous2, nil
}
