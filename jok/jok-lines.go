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
	"regexp"

	"github.com/readxplorer/rximport/mapping"
)

// NumberOfFields is the number of tab-separated fields of a jok line.
const NumberOfFields = 7

var fieldSeparator = regexp.MustCompile("\t+")

// Fields holds the raw fields of one jok line.
type Fields struct {
	Line        int
	ReadName    string
	Start       string
	Stop        string
	Direction   string
	ReadAligned string
	RefAligned  string
}

// ParseLine splits a jok line on runs of tabs. Lines that do not yield
// exactly NumberOfFields fields are rejected as missing data.
func ParseLine(text string, line int) (Fields, *mapping.Skip) {
	fields := fieldSeparator.Split(text, NumberOfFields+1)
	if len(fields) != NumberOfFields {
		read := ""
		if len(fields) > 0 {
			read = fields[0]
		}
		return Fields{Line: line}, mapping.NewSkip(mapping.MissingData, line, read, "expected %v fields, found %v", NumberOfFields, len(fields))
	}
	return Fields{
		Line:        line,
		ReadName:    fields[0],
		Start:       fields[1],
		Stop:        fields[2],
		Direction:   fields[3],
		ReadAligned: fields[4],
		RefAligned:  fields[5],
	}, nil
}

// A Direction is the strand a read is mapped to.
type Direction int8

const (
	Unknown Direction = 0
	Forward Direction = 1
	Reverse Direction = -1
)

// ParseDirection interprets a direction token. Tokens other than ">>"
// and "<<" are accepted as Unknown.
func ParseDirection(token string) Direction {
	switch token {
	case ">>":
		return Forward
	case "<<":
		return Reverse
	default:
		return Unknown
	}
}

func (dir Direction) String() string {
	switch dir {
	case Forward:
		return ">>"
	case Reverse:
		return "<<"
	default:
		return "?"
	}
}
