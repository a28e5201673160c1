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

package jok

import (
	"bufio"
	"context"
	"io"

	"github.com/readxplorer/rximport/utils"
)

const maxLineLength = 16 * 1024 * 1024

// A Line is one line of a jok file with its 1-based line number.
type Line struct {
	Number int
	Text   string
}

// A LineSource implements pipeline.Source, fetching []Line batches
// from a plain or gzip-compressed jok file. Empty lines are skipped
// but still counted.
type LineSource struct {
	scanner *bufio.Scanner
	lines   int
	data    []Line
	err     error
}

// NewLineSource returns a LineSource for r.
func NewLineSource(r io.Reader) (*LineSource, error) {
	input, err := utils.HandleGzip(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &LineSource{scanner: scanner}, nil
}

// Lines returns the number of lines read so far.
func (src *LineSource) Lines() int {
	return src.lines
}

// Err implements the corresponding method of pipeline.Source.
func (src *LineSource) Err() error {
	return src.err
}

// Prepare implements the corresponding method of pipeline.Source.
func (src *LineSource) Prepare(_ context.Context) (size int) {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source.
func (src *LineSource) Fetch(size int) (fetched int) {
	src.data = make([]Line, 0, size)
	for len(src.data) < size && src.scanner.Scan() {
		src.lines++
		if text := src.scanner.Text(); text != "" {
			src.data = append(src.data, Line{Number: src.lines, Text: text})
		}
	}
	if err := src.scanner.Err(); err != nil {
		src.err = err
	}
	return len(src.data)
}

// Data implements the corresponding method of pipeline.Source.
func (src *LineSource) Data() interface{} {
	return src.data
}
