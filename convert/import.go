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
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/track"
	"github.com/readxplorer/rximport/utils"
)

// A Format is the file format of a track's input.
type Format int

const (
	Jok Format = iota
	Sam
	Bam
)

func (format Format) String() string {
	switch format {
	case Sam:
		return "SAM"
	case Bam:
		return "BAM"
	default:
		return "jok"
	}
}

// DetectFormat derives the format of an input file from its extension.
// Files that are neither SAM nor BAM are taken to be jok files.
func DetectFormat(path string) Format {
	switch mapping.Extension(path) {
	case mapping.SamExt:
		return Sam
	case mapping.BamExt:
		return Bam
	default:
		return Jok
	}
}

// A Track is the input of one import: a single job, or the jobs of
// both mates of a paired library.
type Track struct {
	Job  *track.Job
	Mate *track.Job
}

// An Importer runs the complete import pipeline for tracks: conversion
// of jok input, combination of mates, sorting by queryname,
// classification, and indexing of the final coordinate sorted file.
//
// The stages of one track run one after the other. Each stage deletes
// the file of the previous one only after its own output was closed.
type Importer struct {
	config    ImportConfig
	observers []utils.Observer
}

// NewImporter returns an Importer that publishes the events of all
// tracks to observers.
func NewImporter(config ImportConfig, observers ...utils.Observer) *Importer {
	return &Importer{config: config, observers: observers}
}

type trackImport struct {
	config    ImportConfig
	validator *mapping.Validator
	reporter  *utils.Reporter
	start     time.Time
}

func (imp *Importer) newTrackImport(name string) *trackImport {
	reporter := utils.NewReporter(name, utils.NewErrorLimit(imp.config.ErrorLimit), imp.observers...)
	return &trackImport{
		config:    imp.config,
		validator: mapping.NewValidator(reporter),
		reporter:  reporter,
		start:     time.Now(),
	}
}

// advance deletes a superseded file after a successful stage.
func (t *trackImport) advance(previous track.Superseded, err error) error {
	if err != nil {
		t.reporter.Failuref("%v", err)
		return err
	}
	if err := previous.Delete(); err != nil {
		return fatal(err, "deleting", previous.Path)
	}
	return nil
}

// prepare brings a job into canonical form, converting jok input.
func (t *trackImport) prepare(job *track.Job) error {
	if DetectFormat(job.File()) != Jok {
		return nil
	}
	previous, err := NewJokConverter(t.config.jok(), t.validator).Convert(job)
	return t.advance(previous, err)
}

// finish sorts a canonical job by queryname and classifies it.
func (t *trackImport) finish(job *track.Job) error {
	previous, _, err := NewStreamSorter(t.config.sort(sam.QueryName), t.validator).Sort(job)
	if err := t.advance(previous, err); err != nil {
		return err
	}
	classifier := NewClassifier(t.config.classify(), t.validator)
	previous, err = classifier.Classify(job)
	if err := t.advance(previous, err); err != nil {
		return err
	}
	t.reporter.Summaryf("imported %v records into %v in %v, %v records skipped, %v diagnostics suppressed",
		classifier.Total(), job.File(), time.Since(t.start), t.validator.Rejected(), t.reporter.Limit().Suppressed())
	return nil
}

// Import runs the pipeline for a single-end track. On success, the
// working file of job is the classified, coordinate sorted and indexed
// result.
func (imp *Importer) Import(job *track.Job) error {
	t := imp.newTrackImport(job.Name())
	if err := t.prepare(job); err != nil {
		return err
	}
	return t.finish(job)
}

// ImportPair runs the pipeline for a paired track. The result becomes
// the working file of job1, and job2 is released.
func (imp *Importer) ImportPair(job1, job2 *track.Job) error {
	t := imp.newTrackImport(job1.Name())
	if err := t.prepare(job1); err != nil {
		return err
	}
	if err := t.prepare(job2); err != nil {
		return err
	}
	previous1, previous2, err := NewPairCombiner(t.config.combine(), t.validator).Combine(job1, job2)
	if err := t.advance(previous1, err); err != nil {
		return err
	}
	if err := t.advance(previous2, nil); err != nil {
		return err
	}
	return t.finish(job1)
}

// ImportAll imports independent tracks in parallel, at most
// Parallelism at a time. Each track has its own ErrorLimit. It returns
// the first error of any track, after all tracks are finished.
func (imp *Importer) ImportAll(tracks []Track) error {
	if err := imp.config.Validate(); err != nil {
		return err
	}
	var g errgroup.Group
	if imp.config.Parallelism > 0 {
		g.SetLimit(imp.config.Parallelism)
	}
	for _, t := range tracks {
		t := t
		g.Go(func() error {
			var err error
			if t.Mate != nil {
				err = imp.ImportPair(t.Job, t.Mate)
			} else {
				err = imp.Import(t.Job)
			}
			return errors.WithMessagef(err, "track %v", t.Job.Name())
		})
	}
	return g.Wait()
}
