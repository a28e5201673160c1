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

// Package convert implements the stages that turn aligner output into
// classified, coordinate sorted and indexed BAM files: jok conversion,
// combination of mates, sorting, classification and indexing. An
// Importer chains the stages for complete tracks.
//
// Problems with single records are reported through a
// utils.Reporter and the records are skipped. Problems with files end
// the import of a track with an IOError or a ResourceExhaustedError.
package convert
