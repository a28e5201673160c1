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
)

// HeaderVersion is the SAM format version written into new headers.
const HeaderVersion = "1.6"

// ChromosomeLengths maps reference names to their lengths. It supplies
// the sequence dictionary of output files and the bounds for record
// validation.
type ChromosomeLengths map[string]int

// Names returns the reference names in sorted order.
func (lengths ChromosomeLengths) Names() []string {
	names := make([]string, 0, len(lengths))
	for name := range lengths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Header builds a header with a sequence dictionary for the given
// sort order. The dictionary lists names in the given order, or all
// references sorted by name if no names are given.
func (lengths ChromosomeLengths) Header(order sam.SortOrder, names ...string) (*sam.Header, error) {
	if len(names) == 0 {
		names = lengths.Names()
	}
	refs := make([]*sam.Reference, 0, len(names))
	for _, name := range names {
		length, ok := lengths[name]
		if !ok {
			return nil, fmt.Errorf("no length known for reference %v", name)
		}
		ref, err := sam.NewReference(name, "", "", length, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("%v, while creating reference %v", err, name)
		}
		refs = append(refs, ref)
	}
	header, err := sam.NewHeader(nil, refs)
	if err != nil {
		return nil, fmt.Errorf("%v, while creating a header", err)
	}
	header.Version = HeaderVersion
	header.SortOrder = order
	return header, nil
}

// FromHeader returns the reference lengths of a header's sequence
// dictionary.
func FromHeader(header *sam.Header) ChromosomeLengths {
	lengths := make(ChromosomeLengths)
	for _, ref := range header.Refs() {
		lengths[ref.Name()] = ref.Len()
	}
	return lengths
}
