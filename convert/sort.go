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
	"fmt"

	"github.com/biogo/hts/sam"

	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/track"
)

// A StreamSorter sorts alignment files with bounded memory.
type StreamSorter struct {
	config    SortConfig
	validator *mapping.Validator
	sorted    int
}

// NewStreamSorter returns a StreamSorter that reports through the
// validator's reporter.
func NewStreamSorter(config SortConfig, validator *mapping.Validator) *StreamSorter {
	return &StreamSorter{config: config, validator: validator}
}

// Sorted returns the number of records written by the last call to
// Sort.
func (s *StreamSorter) Sorted() int {
	return s.sorted
}

// Sort sorts the working file of job into a new file, which becomes
// the new working file of job. The previous working file is returned,
// for the caller to delete once it is no longer in use.
//
// Files whose header already declares the requested order are left
// alone, and job is not changed. If sorting fails after the output was
// created, job still refers to the partial output so that the caller
// can clean it up.
func (s *StreamSorter) Sort(job *track.Job) (previous track.Superseded, changed bool, funcErr error) {
	s.sorted = 0
	if err := s.config.Validate(); err != nil {
		return previous, false, err
	}
	reporter := s.validator.Reporter()
	path := job.File()
	input, err := mapping.Open(path)
	if err != nil {
		return previous, false, fatal(err, "opening", path)
	}
	defer func() {
		if err := input.Close(); funcErr == nil && err != nil {
			funcErr = fatal(err, "closing", path)
		}
	}()
	header := input.Header()
	if header.SortOrder == s.config.Order {
		reporter.Progressf("%v is already sorted by %v", path, s.config.Order)
		return previous, false, nil
	}

	output, err := track.ReserveStagePath(path, fmt.Sprint(s.config.Order), mapping.BamExt)
	if err != nil {
		return previous, false, fatal(err, "creating", path)
	}
	defer func() {
		if funcErr != nil && job.File() != output {
			track.Abandon(output)
		}
	}()
	writer, err := mapping.CreateSorted(output, header, s.config.Order, s.config.Sort)
	if err != nil {
		return previous, false, fatal(err, "creating", output)
	}
	defer func() {
		if funcErr != nil {
			previous = job.Supersede(output)
			changed = true
			reporter.Failuref("sorting %v failed: %v", path, funcErr)
		}
	}()

	progress := newProgress(reporter, "records sorted")
	filter := func(number int, rec *sam.Record) *mapping.Skip {
		return s.validator.ValidateCanonical(number, rec)
	}
	emit := func(rec *sam.Record) error {
		if err := writer.Write(rec); err != nil {
			return fatal(err, "writing", output)
		}
		s.sorted++
		progress.inc()
		return nil
	}
	if err := streamRecords(input, s.validator, filter, emit, nil); err != nil {
		_ = writer.Close()
		return previous, false, fatal(err, "reading", path)
	}
	if err := writer.Close(); err != nil {
		return previous, false, fatal(err, "writing", output)
	}
	previous = job.Supersede(output)
	reporter.Progressf("sorted %v records by %v in %v", s.sorted, s.config.Order, progress.elapsed())
	return previous, true, nil
}
