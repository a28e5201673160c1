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
	"github.com/willf/bitset"

	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/track"
)

// A Classifier assigns each mapping of a read its classification,
// based on the number of differences to the reference of all
// mappings of the same read.
type Classifier struct {
	config    ClassifyConfig
	validator *mapping.Validator
	counts    [mapping.Common + 1]int
}

// NewClassifier returns a Classifier that reports through the
// validator's reporter.
func NewClassifier(config ClassifyConfig, validator *mapping.Validator) *Classifier {
	return &Classifier{config: config, validator: validator}
}

// Count returns how many records received the given classification
// during the last call to Classify.
func (c *Classifier) Count(class mapping.Classification) int {
	if int(class) >= len(c.counts) {
		return 0
	}
	return c.counts[class]
}

// Total returns the number of records written by the last call to
// Classify.
func (c *Classifier) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// differences returns the NM tag of rec, or else the mismatches,
// insertions and deletions in its CIGAR.
func differences(rec *sam.Record) int {
	if diffs, ok := mapping.AuxInt(rec.AuxFields, mapping.DifferencesTag); ok {
		return diffs
	}
	return mapping.Differences(rec.Cigar)
}

// classifyMappings classifies all mappings of one read, and tags them
// with their classification, mapping count and differences. Unmapped
// records are not tagged.
//
// The mapped, perfect and best sets hold indexes into group.
func classifyMappings(group []*sam.Record) {
	size := uint(len(group))
	mapped, perfect, best := bitset.New(size), bitset.New(size), bitset.New(size)
	diffs := make([]int, len(group))
	min := -1
	for i, rec := range group {
		if rec.Flags&sam.Unmapped != 0 {
			continue
		}
		mapped.Set(uint(i))
		diffs[i] = differences(rec)
		if diffs[i] == 0 {
			perfect.Set(uint(i))
		}
		if min < 0 || diffs[i] < min {
			min = diffs[i]
		}
	}
	if mapped.None() {
		return
	}
	for i, ok := mapped.NextSet(0); ok; i, ok = mapped.NextSet(i + 1) {
		if diffs[i] == min {
			best.Set(i)
		}
	}
	count, nperfect, nbest := int(mapped.Count()), perfect.Count(), best.Count()
	for i, ok := mapped.NextSet(0); ok; i, ok = mapped.NextSet(i + 1) {
		var class mapping.Classification
		switch {
		case perfect.Test(i) && nperfect == 1:
			class = mapping.SinglePerfect
		case perfect.Test(i):
			class = mapping.Perfect
		case best.Test(i) && nbest == 1:
			class = mapping.SingleBest
		case best.Test(i):
			class = mapping.Best
		default:
			class = mapping.Common
		}
		rec := group[i]
		mapping.SetAuxInt(rec, mapping.ClassificationTag, int(class))
		mapping.SetAuxInt(rec, mapping.MappingCountTag, count)
		mapping.SetAuxInt(rec, mapping.DifferencesTag, diffs[i])
	}
}

func classOf(rec *sam.Record) mapping.Classification {
	class, _ := mapping.AuxInt(rec.AuxFields, mapping.ClassificationTag)
	return mapping.Classification(class)
}

// Classify classifies the records of the working file of job, which
// must be sorted by queryname. The output is coordinate sorted and
// indexed, and becomes the working file of job. The previous working
// file is returned for the caller to delete.
func (c *Classifier) Classify(job *track.Job) (previous track.Superseded, funcErr error) {
	c.counts = [mapping.Common + 1]int{}
	if err := c.config.Validate(); err != nil {
		return previous, err
	}
	reporter := c.validator.Reporter()
	path := job.File()
	input, err := mapping.Open(path)
	if err != nil {
		return previous, fatal(err, "opening", path)
	}
	defer func() {
		if err := input.Close(); funcErr == nil && err != nil {
			funcErr = fatal(err, "closing", path)
		}
	}()
	header := input.Header()
	if header.SortOrder != sam.QueryName {
		return previous, errors.Errorf("cannot classify %v, which is sorted by %v instead of queryname", path, header.SortOrder)
	}

	output, err := track.ReserveStagePath(path, "classified", mapping.BamExt)
	if err != nil {
		return previous, fatal(err, "creating", path)
	}
	defer func() {
		if funcErr != nil && job.File() != output {
			track.Abandon(output)
		}
	}()
	writer, err := mapping.CreateSorted(output, header, sam.Coordinate, c.config.Sort)
	if err != nil {
		return previous, fatal(err, "creating", output)
	}

	progress := newProgress(reporter, "records classified")
	var group []*sam.Record
	flush := func() error {
		classifyMappings(group)
		for _, rec := range group {
			if err := writer.Write(rec); err != nil {
				return fatal(err, "writing", output)
			}
			c.counts[classOf(rec)]++
			progress.inc()
		}
		group = group[:0]
		return nil
	}
	filter := func(number int, rec *sam.Record) *mapping.Skip {
		return c.validator.ValidateCanonical(number, rec)
	}
	emit := func(rec *sam.Record) error {
		if len(group) > 0 && !mapping.SameRead(group[0], rec) {
			if err := flush(); err != nil {
				return err
			}
		}
		group = append(group, rec)
		return nil
	}
	if err := streamRecords(input, c.validator, filter, emit, flush); err != nil {
		_ = writer.Close()
		return previous, fatal(err, "reading", path)
	}
	if err := writer.Close(); err != nil {
		return previous, fatal(err, "writing", output)
	}
	previous = job.Supersede(output)

	if !NewIndexBuilder(reporter).Index(output) {
		return previous, errors.Errorf("no index for %v", output)
	}
	reporter.Progressf("classified %v records in %v: %v single perfect, %v perfect, %v single best, %v best, %v common, %v unclassified",
		c.Total(), progress.elapsed(),
		c.counts[mapping.SinglePerfect], c.counts[mapping.Perfect], c.counts[mapping.SingleBest],
		c.counts[mapping.Best], c.counts[mapping.Common], c.counts[mapping.Unclassified])
	return previous, nil
}
