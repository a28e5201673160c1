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

// Package mapping holds the alignment record model of rximport and
// everything that is needed to move such records across the canonical
// SAM/BAM boundary: CIGAR reconstruction from aligned base strings,
// record validation, conversion from and to github.com/biogo/hts
// records, sort orders, and SAM/BAM files that sort what is written
// to them with bounded memory.
//
// Records are streamed, not retained: each one is built, validated,
// converted and handed to a writer, which may keep it only as long as
// its sort buffer requires.
package mapping
