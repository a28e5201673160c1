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

// Package jok decodes the tab-separated alignment format written by
// the Saruman aligner. Each line describes one alignment of a read to
// a single reference through the aligned read and reference bases:
//
//	name  start  stop  direction  read-aligned  reference-aligned  extra
//
// Coordinates are 0-based, directions are ">>" or "<<", and '_' marks
// a gap in either alignment string.
package jok
