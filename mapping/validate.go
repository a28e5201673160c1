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
	"strconv"
	"sync/atomic"

	"github.com/biogo/hts/sam"

	"github.com/readxplorer/rximport/utils"
)

// A Validator checks candidate records before they are converted, and
// forwards the reasons for rejecting them to a Reporter, subject to
// the Reporter's ErrorLimit.
//
// The check methods are pure; only Reject has side effects. A
// Validator may be shared between goroutines.
type Validator struct {
	reporter *utils.Reporter
	rejected int64
}

// NewValidator returns a Validator that reports through reporter.
func NewValidator(reporter *utils.Reporter) *Validator {
	return &Validator{reporter: reporter}
}

// Reporter returns the Reporter of this Validator.
func (v *Validator) Reporter() *utils.Reporter {
	return v.reporter
}

// Reject counts skip and forwards it to the reporter, unless skip is
// benign. It reports whether the record must be dropped.
func (v *Validator) Reject(skip *Skip) bool {
	if skip.Kind.Benign() {
		return false
	}
	atomic.AddInt64(&v.rejected, 1)
	v.reporter.Warnf("%v", skip)
	return true
}

// Rejected returns the number of records rejected so far, including
// those whose diagnostics were suppressed.
func (v *Validator) Rejected() int {
	return int(atomic.LoadInt64(&v.rejected))
}

// ParsePosition parses a raw 0-based jok coordinate and returns it
// 1-based.
func ParsePosition(field string) (int, error) {
	raw, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}
	return raw + 1, nil
}

// ValidateJok checks the raw fields of one jok line against the length
// of the chromosome it is mapped to. On success it returns the 1-based
// start and stop positions.
func (v *Validator) ValidateJok(line int, read, startField, stopField, readAligned, refAligned string, chromLength int) (start, stop int, skip *Skip) {
	if startField == "*" || stopField == "*" {
		return 0, 0, NewSkip(UnmappedWildcard, line, read, "start %q, stop %q", startField, stopField)
	}
	start, err := ParsePosition(startField)
	if err != nil {
		return 0, 0, NewSkip(NotNumeric, line, read, "start %q", startField)
	}
	stop, err = ParsePosition(stopField)
	if err != nil {
		return 0, 0, NewSkip(NotNumeric, line, read, "stop %q", stopField)
	}
	if readAligned == "" || refAligned == "" {
		return 0, 0, NewSkip(EmptySequence, line, read, "read or reference alignment is empty")
	}
	if len(readAligned) != len(refAligned) {
		return 0, 0, NewSkip(LengthMismatch, line, read, "read alignment has length %v, reference alignment %v", len(readAligned), len(refAligned))
	}
	if CountBases(readAligned) == 0 {
		return 0, 0, NewSkip(EmptySequence, line, read, "read alignment consists of gaps only")
	}
	refBases := CountBases(refAligned)
	if refBases == 0 {
		return 0, 0, NewSkip(EmptySequence, line, read, "reference alignment consists of gaps only")
	}
	if start < 1 {
		return 0, 0, NewSkip(OutOfBounds, line, read, "start %v is before the chromosome start", start)
	}
	if stop < start {
		return 0, 0, NewSkip(OutOfBounds, line, read, "stop %v is before start %v", stop, start)
	}
	if end := start + refBases - 1; end > chromLength {
		return 0, 0, NewSkip(OutOfBounds, line, read, "alignment end %v exceeds chromosome length %v", end, chromLength)
	}
	return start, stop, nil
}

// ValidateCanonical checks one record read from a SAM or BAM file.
// number is the 1-based position of the record in its file. The
// chromosome length is taken from the record's reference.
func (v *Validator) ValidateCanonical(number int, rec *sam.Record) *Skip {
	if rec.Flags&sam.Unmapped != 0 {
		if rec.MapQ != 0 {
			return NewSkip(MapqNotZero, number, rec.Name, "found %v", rec.MapQ)
		}
		return nil
	}
	if rec.Ref == nil {
		return NewSkip(UnknownReference, number, rec.Name, "mapped read without reference")
	}
	if rec.Pos < 0 {
		return NewSkip(OutOfBounds, number, rec.Name, "mapped read without position")
	}
	if len(rec.Cigar) == 0 {
		return NewSkip(InvalidCigar, number, rec.Name, "mapped read without CIGAR")
	}
	ref, read := CigarLengths(rec.Cigar)
	if rec.Seq.Length > 0 && read != rec.Seq.Length {
		return NewSkip(LengthMismatch, number, rec.Name, "CIGAR %v covers %v bases, sequence has %v", CigarString(rec.Cigar), read, rec.Seq.Length)
	}
	if end := rec.Pos + ref; end > rec.Ref.Len() {
		return NewSkip(OutOfBounds, number, rec.Name, "alignment end %v exceeds length %v of %v", end, rec.Ref.Len(), rec.Ref.Name())
	}
	return nil
}
