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
	"bytes"
	"strings"
	"testing"

	"github.com/exascience/pargo/pipeline"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readxplorer/rximport/internal"
	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/utils"
)

func newDecoder(length int) *Decoder {
	return NewDecoder(mapping.NewValidator(utils.NewReporter("test", nil)), "chr1", 0, length)
}

func TestCoordinateShift(t *testing.T) {
	rec, skip := newDecoder(100).Decode(Line{1, "read1\t0\t10\t>>\tACGTACGTAC\tACGTACGTAC\t0"})
	require.Nil(t, skip)
	assert.Equal(t, 1, rec.Start)
	assert.Equal(t, 10, rec.End())
	assert.Equal(t, "chr1", rec.ReferenceName)
	assert.Equal(t, 0, rec.ChromosomeID)
	assert.False(t, rec.Reverse)
	assert.Equal(t, byte(mapping.MapqUnavailable), rec.MappingQuality)
	assert.Equal(t, mapping.Unpaired, rec.PairRole)
	assert.Equal(t, 0, rec.Differences)
	assert.Equal(t, "10=", mapping.CigarString(rec.Cigar))
}

func TestFieldCountIsStrict(t *testing.T) {
	for _, line := range []string{
		"read1\t0\t10\t>>\tACGT\tACGT",
		"read1\t0\t10\t>>\tACGT\tACGT\t0\textra",
		"",
	} {
		_, skip := ParseLine(line, 3)
		require.NotNil(t, skip, "%q", line)
		assert.Equal(t, mapping.MissingData, skip.Kind)
		assert.Equal(t, 3, skip.Line)
	}
}

func TestTabRunsSeparateFields(t *testing.T) {
	fields, skip := ParseLine("read1\t\t4\t8\t\t\t<<\tAC_GT\tACAGT\t1", 1)
	require.Nil(t, skip)
	assert.Equal(t, "read1", fields.ReadName)
	assert.Equal(t, "4", fields.Start)
	assert.Equal(t, "8", fields.Stop)
	assert.Equal(t, Reverse, ParseDirection(fields.Direction))
	assert.Equal(t, "AC_GT", fields.ReadAligned)
}

func TestGapsAreStrippedFromTheSequence(t *testing.T) {
	rec, skip := newDecoder(100).Decode(Line{1, "read1\t4\t9\t<<\tAC_GT\tACAGT\t1"})
	require.Nil(t, skip)
	assert.Equal(t, "ACGT", rec.Sequence)
	assert.Equal(t, "2=1D2=", mapping.CigarString(rec.Cigar))
	assert.True(t, rec.Reverse)
	assert.Equal(t, 1, rec.Differences)
	assert.Equal(t, 5, rec.Start)
	assert.Equal(t, 9, rec.End())
}

func TestUnknownDirectionIsAccepted(t *testing.T) {
	assert.Equal(t, Unknown, ParseDirection("><"))
	rec, skip := newDecoder(100).Decode(Line{1, "read1\t0\t4\t??\tACGT\tACGT\t0"})
	require.Nil(t, skip)
	assert.False(t, rec.Reverse)
}

func TestDecodeRejects(t *testing.T) {
	dec := newDecoder(20)
	for _, test := range []struct {
		line string
		kind mapping.SkipKind
	}{
		{"r\t*\t4\t>>\tACGT\tACGT\t0", mapping.UnmappedWildcard},
		{"r\tzero\t4\t>>\tACGT\tACGT\t0", mapping.NotNumeric},
		{"r\t0\t4\t>>\tACGT\tACG\t0", mapping.LengthMismatch},
		{"r\t18\t22\t>>\tACGT\tACGT\t0", mapping.OutOfBounds},
		{"r\t0\t4\t>>\tACGT", mapping.MissingData},
	} {
		rec, skip := dec.Decode(Line{2, test.line})
		assert.Nil(t, rec)
		require.NotNil(t, skip, test.line)
		assert.Equal(t, test.kind, skip.Kind, test.line)
	}
}

func readLines(t *testing.T, src *LineSource) []Line {
	var p pipeline.Pipeline
	p.Source(src)
	p.SetVariableBatchSize(2, 2)
	var lines []Line
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		lines = append(lines, data.([]Line)...)
		return data
	})))
	require.NoError(t, internal.RunPipeline(&p))
	return lines
}

const testLines = "a\t0\t4\t>>\tACGT\tACGT\t0\n\nb\t1\t5\t<<\tACGT\tACGT\t0\nc\t2\t6\t>>\tACGT\tACGT\t0\n"

func TestLineSource(t *testing.T) {
	src, err := NewLineSource(strings.NewReader(testLines))
	require.NoError(t, err)
	lines := readLines(t, src)
	require.Len(t, lines, 3)
	assert.Equal(t, 1, lines[0].Number)
	assert.Equal(t, 3, lines[1].Number)
	assert.Equal(t, 4, lines[2].Number)
	assert.Equal(t, 4, src.Lines())
}

func TestLineSourceGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(testLines))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	src, err := NewLineSource(&buf)
	require.NoError(t, err)
	lines := readLines(t, src)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2].Text, "c\t"))
}
