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
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"

	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/utils"
)

// An IndexBuilder writes BAM indexes for coordinate sorted BAM files.
type IndexBuilder struct {
	reporter *utils.Reporter
}

// NewIndexBuilder returns an IndexBuilder that reports failures
// through reporter.
func NewIndexBuilder(reporter *utils.Reporter) *IndexBuilder {
	return &IndexBuilder{reporter: reporter}
}

// IndexPath returns the name of the index of an alignment file.
func IndexPath(path string) string {
	return path + mapping.IndexSuffix
}

// WriteIndex writes the index of a coordinate sorted BAM file next to
// it. The alignment file is left alone if indexing fails.
func (b *IndexBuilder) WriteIndex(path string) (funcErr error) {
	if !mapping.IsBam(path) {
		return errors.Errorf("cannot index %v, only BAM files can be indexed", path)
	}
	input, err := mapping.Open(path)
	if err != nil {
		return fatal(err, "opening", path)
	}
	defer func() {
		if err := input.Close(); funcErr == nil && err != nil {
			funcErr = fatal(err, "closing", path)
		}
	}()
	if order := input.Header().SortOrder; order != sam.Coordinate {
		return errors.Errorf("cannot index %v, which is sorted by %v instead of coordinate", path, order)
	}

	var index bam.Index
	for {
		rec, err := input.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fatal(err, "reading", path)
		}
		chunk, _ := input.LastChunk()
		if err := index.Add(rec, chunk); err != nil {
			return errors.Wrapf(err, "while indexing read %v of %v", rec.Name, path)
		}
	}

	indexPath := IndexPath(path)
	file, err := os.Create(indexPath)
	if err != nil {
		return fatal(err, "creating", indexPath)
	}
	defer func() {
		if err := file.Close(); funcErr == nil && err != nil {
			funcErr = fatal(err, "closing", indexPath)
		}
	}()
	if err := bam.WriteIndex(file, &index); err != nil {
		return fatal(err, "writing", indexPath)
	}
	return nil
}

// Index writes the index of a coordinate sorted BAM file, and reports
// whether it succeeded. Failures are published to the reporter.
func (b *IndexBuilder) Index(path string) bool {
	if err := b.WriteIndex(path); err != nil {
		b.reporter.Failuref("index creation failed: %v", err)
		return false
	}
	return true
}
