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

package mapping

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultMaxRecordsInRAM is the number of records a SortingWriter
// buffers before it spills a sorted chunk to disk.
const DefaultMaxRecordsInRAM = 500000

// SortOptions bound the memory a SortingWriter uses.
type SortOptions struct {
	// MaxRecordsInRAM defaults to DefaultMaxRecordsInRAM.
	MaxRecordsInRAM int
	// TempDir defaults to the directory of the output file.
	TempDir string
}

// A SortingWriter writes records to an alignment file in a given sort
// order. It sorts in memory up to MaxRecordsInRAM records and merges
// sorted chunks from disk beyond that.
type SortingWriter struct {
	name     string
	header   *sam.Header
	refs     map[string]*sam.Reference
	by       By
	max      int
	tempDir  string
	direct   *OutputFile
	buffer   []*sam.Record
	spillDir string
	chunks   []string
	written  int
}

// CreateSorted creates an alignment file that receives the records in
// the given order. The output header is a copy of header with its sort
// order set. For unsorted and unknown orders, records are written
// through as they come.
func CreateSorted(name string, header *sam.Header, order sam.SortOrder, options SortOptions) (*SortingWriter, error) {
	header = header.Clone()
	header.SortOrder = order
	if header.Version == "" {
		header.Version = HeaderVersion
	}
	w := &SortingWriter{
		name:    name,
		header:  header,
		refs:    make(map[string]*sam.Reference),
		by:      LessFor(order),
		max:     options.MaxRecordsInRAM,
		tempDir: options.TempDir,
	}
	for _, ref := range header.Refs() {
		w.refs[ref.Name()] = ref
	}
	if w.max <= 0 {
		w.max = DefaultMaxRecordsInRAM
	}
	if w.tempDir == "" {
		w.tempDir = filepath.Dir(name)
	}
	if w.by == nil {
		out, err := Create(name, header)
		if err != nil {
			return nil, err
		}
		w.direct = out
	}
	return w, nil
}

// Header returns the header of the output file.
func (w *SortingWriter) Header() *sam.Header {
	return w.header
}

// Written returns the number of records passed to Write.
func (w *SortingWriter) Written() int {
	return w.written
}

func (w *SortingWriter) relink(ref *sam.Reference) (*sam.Reference, error) {
	if ref == nil {
		return nil, nil
	}
	if own, ok := w.refs[ref.Name()]; ok {
		return own, nil
	}
	return nil, fmt.Errorf("reference %v is not in the sequence dictionary of %v", ref.Name(), w.name)
}

// Write adds a record to the output. The writer takes ownership of rec
// and relinks its references to the output header by name.
func (w *SortingWriter) Write(rec *sam.Record) (err error) {
	if rec.Ref, err = w.relink(rec.Ref); err != nil {
		return err
	}
	if rec.MateRef, err = w.relink(rec.MateRef); err != nil {
		return err
	}
	w.written++
	if w.direct != nil {
		return w.direct.Write(rec)
	}
	w.buffer = append(w.buffer, rec)
	if len(w.buffer) >= w.max {
		return w.spill()
	}
	return nil
}

func (w *SortingWriter) writeSorted(name string) (funcErr error) {
	w.by.ParallelStableSort(w.buffer)
	out, err := Create(name, w.header)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); funcErr == nil && err != nil {
			funcErr = errors.Wrapf(err, "while closing %v", name)
		}
	}()
	for i, rec := range w.buffer {
		if err := out.Write(rec); err != nil {
			return errors.Wrapf(err, "while writing to %v", name)
		}
		w.buffer[i] = nil
	}
	w.buffer = w.buffer[:0]
	return nil
}

func (w *SortingWriter) spill() error {
	if w.spillDir == "" {
		dir := filepath.Join(w.tempDir, "rximport-"+uuid.New().String())
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.Wrap(err, "while creating a directory for sorted chunks")
		}
		w.spillDir = dir
	}
	chunk := filepath.Join(w.spillDir, fmt.Sprintf("chunk-%04d%v", len(w.chunks), BamExt))
	w.chunks = append(w.chunks, chunk)
	return w.writeSorted(chunk)
}

func (w *SortingWriter) merge() (funcErr error) {
	inputs := make([]*InputFile, 0, len(w.chunks))
	defer func() {
		for _, input := range inputs {
			if err := input.Close(); funcErr == nil && err != nil {
				funcErr = err
			}
		}
	}()
	readers := make([]*bam.Reader, 0, len(w.chunks))
	for _, chunk := range w.chunks {
		input, err := Open(chunk)
		if err != nil {
			return err
		}
		inputs = append(inputs, input)
		readers = append(readers, input.bam)
	}
	merger, err := bam.NewMerger(w.by, readers...)
	if err != nil {
		return errors.Wrapf(err, "while merging sorted chunks for %v", w.name)
	}
	out, err := Create(w.name, w.header)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); funcErr == nil && err != nil {
			funcErr = errors.Wrapf(err, "while closing %v", w.name)
		}
	}()
	for {
		rec, err := merger.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "while merging sorted chunks for %v", w.name)
		}
		if rec.Ref, err = w.relink(rec.Ref); err != nil {
			return err
		}
		if rec.MateRef, err = w.relink(rec.MateRef); err != nil {
			return err
		}
		if err = out.Write(rec); err != nil {
			return errors.Wrapf(err, "while writing to %v", w.name)
		}
	}
}

// Close completes the output file and removes any sorted chunks.
func (w *SortingWriter) Close() (funcErr error) {
	if w.direct != nil {
		return w.direct.Close()
	}
	if w.spillDir != "" {
		defer func() {
			if err := os.RemoveAll(w.spillDir); funcErr == nil && err != nil {
				funcErr = err
			}
		}()
	}
	if len(w.chunks) == 0 {
		return w.writeSorted(w.name)
	}
	if len(w.buffer) > 0 {
		if err := w.spill(); err != nil {
			return err
		}
	}
	return w.merge()
}
