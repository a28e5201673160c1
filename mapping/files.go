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
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
)

// Alignment file extensions.
const (
	SamExt  = ".sam"
	BamExt  = ".bam"
	cramExt = ".cram"

	// IndexSuffix is appended to the name of a BAM file to name its
	// index.
	IndexSuffix = ".bai"
)

// Extension returns the lower-cased extension of name. File formats
// are chosen by this extension, so reads.BAM is a BAM file.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsBam reports whether name has the BAM extension.
func IsBam(name string) bool {
	return Extension(name) == BamExt
}

type (
	recordReader interface {
		Header() *sam.Header
		Read() (*sam.Record, error)
	}

	// A RecordBatch is a slice of consecutive records of an
	// InputFile. First is the 1-based number of the first record in
	// the file. Skips describes malformed SAM lines that were passed
	// over.
	RecordBatch struct {
		First   int
		Records []*sam.Record
		Skips   []*Skip
	}

	// InputFile represents a SAM or BAM file for input. It implements
	// pipeline.Source, fetching RecordBatch values.
	InputFile struct {
		rc     io.Closer
		reader recordReader
		bam    *bam.Reader
		read   int
		data   RecordBatch
		err    error
	}
)

// Open a SAM or BAM file for input.
//
// If the filename extension is not .bam, then .sam is always
// assumed.
//
// If the name is "/dev/stdin", then the input is read from os.Stdin.
func Open(name string) (*InputFile, error) {
	switch Extension(name) {
	case BamExt:
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		reader, err := bam.NewReader(file, 0)
		if err != nil {
			_ = file.Close()
			return nil, errors.Wrapf(err, "while opening BAM file %v", name)
		}
		return &InputFile{rc: file, reader: reader, bam: reader}, nil
	case cramExt:
		return nil, errors.Errorf("CRAM format not supported when opening %v", name)
	default:
		file := os.Stdin
		if name != "/dev/stdin" {
			var err error
			if file, err = os.Open(name); err != nil {
				return nil, err
			}
		}
		reader, err := sam.NewReader(bufio.NewReader(file))
		if err != nil {
			_ = file.Close()
			return nil, errors.Wrapf(err, "while opening SAM file %v", name)
		}
		return &InputFile{rc: file, reader: reader}, nil
	}
}

// Header returns the header of the file.
func (f *InputFile) Header() *sam.Header {
	return f.reader.Header()
}

// Read returns the next record, or io.EOF at the end of the file.
func (f *InputFile) Read() (*sam.Record, error) {
	rec, err := f.reader.Read()
	if err == nil {
		f.read++
	}
	return rec, err
}

// LastChunk returns the BGZF chunk of the record returned by the most
// recent call to Read. It reports false for SAM files.
func (f *InputFile) LastChunk() (bgzf.Chunk, bool) {
	if f.bam == nil {
		return bgzf.Chunk{}, false
	}
	return f.bam.LastChunk(), true
}

// Close closes the SAM/BAM input file.
func (f *InputFile) Close() (err error) {
	if f.bam != nil {
		err = f.bam.Close()
	}
	if f.rc == os.Stdin {
		return err
	}
	if nerr := f.rc.Close(); err == nil {
		err = nerr
	}
	return err
}

// Err implements the corresponding method of pipeline.Source.
func (f *InputFile) Err() error {
	if f.err != io.EOF {
		return f.err
	}
	return nil
}

// Prepare implements the corresponding method of pipeline.Source.
func (f *InputFile) Prepare(_ context.Context) (size int) {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source.
func (f *InputFile) Fetch(size int) (fetched int) {
	f.data = RecordBatch{First: f.read + 1}
	if f.err != nil {
		return 0
	}
	recs := make([]*sam.Record, 0, size)
	for len(recs) < size {
		rec, err := f.Read()
		if err != nil {
			if f.bam == nil && isMalformed(err) {
				f.read++
				f.data.Skips = append(f.data.Skips, NewSkip(InvalidRecord, f.read, "", "%v", err))
				continue
			}
			f.err = err
			break
		}
		recs = append(recs, rec)
	}
	f.data.Records = recs
	return len(recs) + len(f.data.Skips)
}

// isMalformed tells parse errors of single SAM lines, after which
// reading can continue, from errors of the underlying file.
func isMalformed(err error) bool {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return false
	}
	var pathErr *os.PathError
	return !errors.As(err, &pathErr)
}

// Data implements the corresponding method of pipeline.Source.
func (f *InputFile) Data() interface{} {
	return f.data
}

type (
	recordWriter interface {
		Write(*sam.Record) error
	}

	// OutputFile represents a SAM or BAM file for output.
	OutputFile struct {
		file    *os.File
		buf     *bufio.Writer
		writer  recordWriter
		bam     *bam.Writer
		header  *sam.Header
		written int
	}
)

// Create a SAM or BAM file for output and write the header.
//
// If the filename extension is not .bam, then .sam is always
// assumed.
//
// If the name is "/dev/stdout", then the output is written to
// os.Stdout.
func Create(name string, header *sam.Header) (*OutputFile, error) {
	switch Extension(name) {
	case BamExt:
		file, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		writer, err := bam.NewWriter(file, header, 0)
		if err != nil {
			_ = file.Close()
			return nil, errors.Wrapf(err, "while creating BAM file %v", name)
		}
		return &OutputFile{file: file, writer: writer, bam: writer, header: header}, nil
	case cramExt:
		return nil, errors.Errorf("CRAM format not supported when creating %v", name)
	default:
		file := os.Stdout
		if name != "/dev/stdout" {
			var err error
			if file, err = os.Create(name); err != nil {
				return nil, err
			}
		}
		buf := bufio.NewWriter(file)
		writer, err := sam.NewWriter(buf, header, sam.FlagDecimal)
		if err != nil {
			_ = file.Close()
			return nil, errors.Wrapf(err, "while creating SAM file %v", name)
		}
		return &OutputFile{file: file, buf: buf, writer: writer, header: header}, nil
	}
}

// Header returns the header the file was created with.
func (f *OutputFile) Header() *sam.Header {
	return f.header
}

// Write writes one record.
func (f *OutputFile) Write(rec *sam.Record) error {
	if err := f.writer.Write(rec); err != nil {
		return err
	}
	f.written++
	return nil
}

// Written returns the number of records written so far.
func (f *OutputFile) Written() int {
	return f.written
}

// Close flushes and closes a SAM or BAM output file.
func (f *OutputFile) Close() (err error) {
	if f.bam != nil {
		err = f.bam.Close()
	} else {
		err = f.buf.Flush()
	}
	if f.file == os.Stdout {
		return err
	}
	if nerr := f.file.Close(); err == nil {
		err = nerr
	}
	return err
}
