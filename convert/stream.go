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
	"time"

	"github.com/biogo/hts/sam"
	"github.com/exascience/pargo/pipeline"

	"github.com/readxplorer/rximport/internal"
	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/utils"
)

// ProgressInterval is the number of records between two progress
// events.
const ProgressInterval = 500000

const (
	minBatchSize = 4096
	maxBatchSize = 65536
)

type progress struct {
	reporter *utils.Reporter
	what     string
	start    time.Time
	count    int
}

func newProgress(reporter *utils.Reporter, what string) *progress {
	return &progress{reporter: reporter, what: what, start: time.Now()}
}

func (p *progress) inc() {
	p.count++
	if p.count%ProgressInterval == 0 {
		p.reporter.Progressf("%v %v after %v", p.count, p.what, time.Since(p.start))
	}
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start)
}

// A recordFilter prepares one record for output. It returns a Skip if
// the record is to be dropped, or carries a benign warning. Filters
// run concurrently on different records.
type recordFilter func(number int, rec *sam.Record) *mapping.Skip

type filteredBatch struct {
	recs  []*sam.Record
	skips []*mapping.Skip
}

// streamRecords filters the records of input in parallel and passes
// the remaining ones to emit in input order. Skips are handed to the
// validator in input order as well. finalize, if not nil, runs after
// the last record was emitted.
func streamRecords(input *mapping.InputFile, validator *mapping.Validator, filter recordFilter, emit func(*sam.Record) error, finalize func() error) error {
	var p pipeline.Pipeline
	p.Source(input)
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.(mapping.RecordBatch)
			result := filteredBatch{recs: batch.Records[:0], skips: batch.Skips}
			for i, rec := range batch.Records {
				if skip := filter(batch.First+i, rec); skip != nil {
					result.skips = append(result.skips, skip)
					if !skip.Kind.Benign() {
						continue
					}
				}
				result.recs = append(result.recs, rec)
			}
			return result
		})),
		pipeline.StrictOrd(pipeline.ReceiveAndFinalize(func(_ int, data interface{}) interface{} {
			result := data.(filteredBatch)
			for _, skip := range result.skips {
				validator.Reject(skip)
			}
			for _, rec := range result.recs {
				if err := emit(rec); err != nil {
					p.SetErr(err)
					return nil
				}
			}
			return nil
		}, func() {
			if finalize == nil || p.Err() != nil {
				return
			}
			if err := finalize(); err != nil {
				p.SetErr(err)
			}
		})),
	)
	return internal.RunPipeline(&p)
}
