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
	"log"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
)

// Gap is the gap character in aligned base strings.
const Gap = '_'

// CigarOperations lists the characters of the CIGAR operations, in
// the order of the github.com/biogo/hts/sam CigarOpType constants.
const CigarOperations = "MIDNSHP=X"

// OperationChar returns the SAM character of a CIGAR operation.
// Unrecognized operations map to 'N'.
func OperationChar(t sam.CigarOpType) byte {
	if int(t) < len(CigarOperations) {
		return CigarOperations[t]
	}
	return 'N'
}

// OperationFromChar returns the CIGAR operation for a SAM character.
// Unrecognized characters map to CigarSkipped.
func OperationFromChar(c byte) sam.CigarOpType {
	if i := strings.IndexByte(CigarOperations, c); i >= 0 {
		return sam.CigarOpType(i)
	}
	return sam.CigarSkipped
}

// CigarString renders a CIGAR as a SAM string, "*" if it is empty.
func CigarString(cigar sam.Cigar) string {
	if len(cigar) == 0 {
		return "*"
	}
	buf := make([]byte, 0, 4*len(cigar))
	for _, op := range cigar {
		buf = append(strconv.AppendInt(buf, int64(op.Len()), 10), OperationChar(op.Type()))
	}
	return string(buf)
}

func operatorConsumesReadBases(t sam.CigarOpType) bool {
	switch t {
	case sam.CigarMatch, sam.CigarInsertion, sam.CigarSoftClipped, sam.CigarEqual, sam.CigarMismatch:
		return true
	default:
		return false
	}
}

func operatorConsumesReferenceBases(t sam.CigarOpType) bool {
	switch t {
	case sam.CigarMatch, sam.CigarDeletion, sam.CigarSkipped, sam.CigarEqual, sam.CigarMismatch:
		return true
	default:
		return false
	}
}

// CigarLengths sums the lengths of all CIGAR operations that consume
// reference bases and read bases, respectively.
func CigarLengths(cigar sam.Cigar) (ref, read int) {
	for _, op := range cigar {
		t := op.Type()
		if operatorConsumesReferenceBases(t) {
			ref += op.Len()
		}
		if operatorConsumesReadBases(t) {
			read += op.Len()
		}
	}
	return ref, read
}

// Differences counts the mismatched, inserted and deleted bases of a
// CIGAR. M operations do not tell matches from mismatches and are not
// counted.
func Differences(cigar sam.Cigar) int {
	diffs := 0
	for _, op := range cigar {
		switch op.Type() {
		case sam.CigarMismatch, sam.CigarInsertion, sam.CigarDeletion:
			diffs += op.Len()
		}
	}
	return diffs
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func classifyPosition(read, ref byte) sam.CigarOpType {
	read, ref = upper(read), upper(ref)
	switch {
	case read == Gap && ref == Gap:
		return sam.CigarPadded
	case read == ref:
		return sam.CigarEqual
	case ref == Gap:
		return sam.CigarInsertion
	case read == Gap:
		return sam.CigarDeletion
	default:
		return sam.CigarMismatch
	}
}

// BuildCigar derives a run-length encoded CIGAR from a read and a
// reference that are aligned position by position, with Gap marking
// gaps. Equal bases become =, differing bases X, gaps in the read D,
// and gaps in the reference I.
//
// Both strings must be non-empty and of equal length.
func BuildCigar(readAligned, refAligned string) sam.Cigar {
	if len(readAligned) != len(refAligned) || len(readAligned) == 0 {
		log.Panicf("BuildCigar called with aligned sequences of length %v and %v", len(readAligned), len(refAligned))
	}
	var cigar sam.Cigar
	current := classifyPosition(readAligned[0], refAligned[0])
	count := 1
	for i := 1; i < len(readAligned); i++ {
		if op := classifyPosition(readAligned[i], refAligned[i]); op != current {
			cigar = append(cigar, sam.NewCigarOp(current, count))
			current = op
			count = 1
		} else {
			count++
		}
	}
	return append(cigar, sam.NewCigarOp(current, count))
}

// StripGaps removes all gap characters from an aligned base string.
func StripGaps(aligned string) string {
	if strings.IndexByte(aligned, Gap) < 0 {
		return aligned
	}
	return strings.Replace(aligned, string(Gap), "", -1)
}

// CountBases counts the characters of an aligned base string that are
// not gaps.
func CountBases(aligned string) int {
	return len(aligned) - strings.Count(aligned, string(Gap))
}
