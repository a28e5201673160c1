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

	"github.com/biogo/hts/sam"
)

// MapqUnavailable is the mapping quality of records whose aligner did
// not report one.
const MapqUnavailable = 255

// A PairRole tells whether a record is the first or second mate of a
// paired read.
type PairRole byte

const (
	Unpaired PairRole = iota
	First
	Second
)

func (role PairRole) String() string {
	switch role {
	case First:
		return "first"
	case Second:
		return "second"
	default:
		return "unpaired"
	}
}

// A Classification is the quality tier of one mapping of a read,
// compared to all other mappings of the same read.
type Classification byte

const (
	Unclassified Classification = iota
	SinglePerfect
	Perfect
	SingleBest
	Best
	Common
)

var classificationNames = [...]string{
	Unclassified:  "unclassified",
	SinglePerfect: "single perfect",
	Perfect:       "perfect",
	SingleBest:    "single best",
	Best:          "best",
	Common:        "common",
}

func (class Classification) String() string {
	if int(class) < len(classificationNames) {
		return classificationNames[class]
	}
	return fmt.Sprintf("classification(%d)", byte(class))
}

// Tags written for the ReadXplorer specific metadata of a record.
var (
	ClassificationTag = sam.NewTag("Yc")
	MappingCountTag   = sam.NewTag("NH")
	DifferencesTag    = sam.NewTag("NM")
)

// A Record is one aligned occurrence of a read.
//
// Start is 1-based and inclusive; it is 0 for records without a
// position. The alignment end is derived from Start and the reference
// bases consumed by Cigar.
type Record struct {
	ReadName       string
	ReferenceName  string
	ChromosomeID   int
	Start          int
	Reverse        bool
	Unmapped       bool
	Cigar          sam.Cigar
	Sequence       string
	Quality        []byte
	MappingQuality byte

	PairRole          PairRole
	MateUnmapped      bool
	MateReferenceName string
	MateStart         int
	TemplateLength    int

	Classification Classification
	// Differences is -1 when unknown.
	Differences int
	// MappingCount is 0 when unknown.
	MappingCount int

	// OtherFlags keeps the SAM flags that are not modelled by the
	// fields above, such as secondary or duplicate.
	OtherFlags sam.Flags
	// Aux keeps the optional fields that are not modelled above.
	Aux sam.AuxFields
}

// NewRecord returns a Record with all optional information marked as
// unavailable.
func NewRecord() *Record {
	return &Record{
		ChromosomeID:   -1,
		MappingQuality: MapqUnavailable,
		Differences:    -1,
	}
}

// End returns the 1-based inclusive end of the alignment on the
// reference.
func (rec *Record) End() int {
	ref, _ := CigarLengths(rec.Cigar)
	if ref == 0 {
		return rec.Start
	}
	return rec.Start + ref - 1
}

// ReadLength returns the number of read bases covered by the CIGAR.
func (rec *Record) ReadLength() int {
	_, read := CigarLengths(rec.Cigar)
	return read
}

// A SkipKind names the reason a record was not converted.
type SkipKind int

const (
	MissingData SkipKind = iota
	NotNumeric
	UnmappedWildcard
	EmptySequence
	LengthMismatch
	OutOfBounds
	UnknownReference
	InvalidCigar
	InvalidRecord
	// MapqNotZero is the warning for unmapped records with a mapping
	// quality other than 0. It is expected for aligner output and never
	// forwarded.
	MapqNotZero
)

var skipKindNames = [...]string{
	MissingData:      "missing data",
	NotNumeric:       "not a number",
	UnmappedWildcard: "unmapped read",
	EmptySequence:    "empty sequence",
	LengthMismatch:   "length mismatch",
	OutOfBounds:      "out of bounds",
	UnknownReference: "unknown reference",
	InvalidCigar:     "invalid CIGAR",
	InvalidRecord:    "invalid record",
	MapqNotZero:      "MAPQ should be 0 for unmapped read",
}

func (kind SkipKind) String() string {
	if int(kind) < len(skipKindNames) {
		return skipKindNames[kind]
	}
	return fmt.Sprintf("skip(%d)", int(kind))
}

// Benign reports whether a Skip of this kind leaves the record usable
// and must not be forwarded to observers.
func (kind SkipKind) Benign() bool {
	return kind == MapqNotZero
}

// A Skip describes why one input record was not turned into a Record.
// Line is the 1-based line or record number, or 0 if unknown.
type Skip struct {
	Kind    SkipKind
	Line    int
	Read    string
	Message string
}

// NewSkip returns a Skip with a formatted message.
func NewSkip(kind SkipKind, line int, read string, format string, v ...interface{}) *Skip {
	return &Skip{
		Kind:    kind,
		Line:    line,
		Read:    read,
		Message: fmt.Sprintf(format, v...),
	}
}

func (skip *Skip) Error() string {
	msg := skip.Kind.String()
	if skip.Message != "" {
		msg += ": " + skip.Message
	}
	switch {
	case skip.Line > 0 && skip.Read != "":
		return fmt.Sprintf("line %v (read %v): %v", skip.Line, skip.Read, msg)
	case skip.Line > 0:
		return fmt.Sprintf("line %v: %v", skip.Line, msg)
	case skip.Read != "":
		return fmt.Sprintf("read %v: %v", skip.Read, msg)
	default:
		return msg
	}
}
