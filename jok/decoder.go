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
	"github.com/readxplorer/rximport/mapping"
)

// A Decoder turns jok lines into records for one chromosome.
type Decoder struct {
	validator   *mapping.Validator
	refName     string
	chromID     int
	chromLength int
}

// NewDecoder returns a Decoder for alignments against the chromosome
// refName, which has the given index in the sequence dictionary and the
// given length.
func NewDecoder(validator *mapping.Validator, refName string, chromID, chromLength int) *Decoder {
	return &Decoder{
		validator:   validator,
		refName:     refName,
		chromID:     chromID,
		chromLength: chromLength,
	}
}

// BuildRecord validates the fields of one jok line and converts them
// into a record. The stored sequence has its gaps removed; the CIGAR
// keeps them as deletions. Mapping quality and mate information are
// unavailable.
func (dec *Decoder) BuildRecord(fields Fields) (*mapping.Record, *mapping.Skip) {
	start, _, skip := dec.validator.ValidateJok(fields.Line, fields.ReadName, fields.Start, fields.Stop, fields.ReadAligned, fields.RefAligned, dec.chromLength)
	if skip != nil {
		return nil, skip
	}
	cigar := mapping.BuildCigar(fields.ReadAligned, fields.RefAligned)
	rec := mapping.NewRecord()
	rec.ReadName = fields.ReadName
	rec.ReferenceName = dec.refName
	rec.ChromosomeID = dec.chromID
	rec.Start = start
	rec.Reverse = ParseDirection(fields.Direction) == Reverse
	rec.Cigar = cigar
	rec.Sequence = mapping.StripGaps(fields.ReadAligned)
	rec.Differences = mapping.Differences(cigar)
	return rec, nil
}

// Decode parses one jok line and converts it into a record.
func (dec *Decoder) Decode(line Line) (*mapping.Record, *mapping.Skip) {
	fields, skip := ParseLine(line.Text, line.Number)
	if skip != nil {
		return nil, skip
	}
	return dec.BuildRecord(fields)
}
