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
	"sort"

	"github.com/biogo/hts/sam"

	psort "github.com/exascience/pargo/sort"
)

// ParseSortOrder parses the name of a SAM sort order as it appears in
// the @HD header line.
func ParseSortOrder(name string) (sam.SortOrder, error) {
	switch name {
	case "coordinate":
		return sam.Coordinate, nil
	case "queryname":
		return sam.QueryName, nil
	case "unsorted":
		return sam.Unsorted, nil
	case "unknown", "":
		return sam.UnknownOrder, nil
	default:
		return sam.UnknownOrder, fmt.Errorf("unknown sort order %v", name)
	}
}

func refID(rec *sam.Record) int {
	if rec.Ref == nil {
		return -1
	}
	return rec.Ref.ID()
}

// CoordinateLess compares records by reference index and position.
// Records without a reference come last.
func CoordinateLess(rec1, rec2 *sam.Record) bool {
	refid1 := refID(rec1)
	refid2 := refID(rec2)
	switch {
	case refid1 < refid2:
		return refid1 >= 0
	case refid2 < refid1:
		return refid2 < 0
	default:
		return rec1.Pos < rec2.Pos
	}
}

func mateRank(rec *sam.Record) int {
	switch {
	case rec.Flags&sam.Read1 != 0:
		return 1
	case rec.Flags&sam.Read2 != 0:
		return 2
	default:
		return 0
	}
}

// QuerynameLess compares records by read name. First mates come before
// second mates of the same read.
func QuerynameLess(rec1, rec2 *sam.Record) bool {
	switch {
	case rec1.Name < rec2.Name:
		return true
	case rec2.Name < rec1.Name:
		return false
	default:
		return mateRank(rec1) < mateRank(rec2)
	}
}

// SameRead reports whether two records are mappings of the same read,
// taking the mate into account for paired reads.
func SameRead(rec1, rec2 *sam.Record) bool {
	return rec1.Name == rec2.Name && mateRank(rec1) == mateRank(rec2)
}

// LessFor returns the comparison for a sort order, or nil if the order
// does not require sorting.
func LessFor(order sam.SortOrder) By {
	switch order {
	case sam.Coordinate:
		return CoordinateLess
	case sam.QueryName:
		return QuerynameLess
	default:
		return nil
	}
}

type (
	// By is a less function on canonical records.
	By func(rec1, rec2 *sam.Record) bool

	recordSorter struct {
		recs []*sam.Record
		by   By
	}
)

func (s recordSorter) SequentialSort(i, j int) {
	recs, by := s.recs[i:j], s.by
	sort.SliceStable(recs, func(i, j int) bool {
		return by(recs[i], recs[j])
	})
}

func (s recordSorter) NewTemp() psort.StableSorter {
	return recordSorter{make([]*sam.Record, len(s.recs)), s.by}
}

func (s recordSorter) Len() int {
	return len(s.recs)
}

func (s recordSorter) Less(i, j int) bool {
	return s.by(s.recs[i], s.recs[j])
}

func (s recordSorter) Assign(p psort.StableSorter) func(i, j, len int) {
	dst, src := s.recs, p.(recordSorter).recs
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelStableSort sorts recs in parallel, keeping the input order of
// records that compare equal.
func (by By) ParallelStableSort(recs []*sam.Record) {
	psort.StableSort(recordSorter{recs, by})
}
