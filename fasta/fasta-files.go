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

package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/utils"
)

// FaiExt is the extension of FASTA index files.
const FaiExt = ".fai"

// FaiReference represents an entry in an FAI file.
type FaiReference struct {
	Length    int
	Offset    int64
	LineBases int
	LineWidth int
}

// ParseFai parses an FAI file.
func ParseFai(filename string) (fai map[string]FaiReference, funcErr error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); funcErr == nil {
			funcErr = err
		}
	}()

	fai = make(map[string]FaiReference)

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		b := bytes.Split(scanner.Bytes(), []byte("\t"))
		if len(b) != 5 {
			return nil, fmt.Errorf("badly formatted fai file %v - invalid number of entries in line %v", filename, line)
		}
		var ref FaiReference
		var values [4]int64
		for i := range values {
			if values[i], err = strconv.ParseInt(string(b[i+1]), 10, 64); err != nil {
				return nil, fmt.Errorf("%v, in line %v of fai file %v", err, line, filename)
			}
		}
		ref.Length = int(values[0])
		ref.Offset = values[1]
		ref.LineBases = int(values[2])
		ref.LineWidth = int(values[3])
		fai[string(b[0])] = ref
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return fai, nil
}

func contigFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	if j > len(b) {
		j = len(b)
	}
	return string(b[i:j])
}

// ScanLengths sequentially scans a plain or gzip-compressed FASTA file
// and returns the lengths of its sequences, in file order.
func ScanLengths(filename string) (names []string, lengths mapping.ChromosomeLengths, funcErr error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := f.Close(); funcErr == nil {
			funcErr = err
		}
	}()

	input, err := utils.HandleGzip(bufio.NewReader(f))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "while opening fasta file %v", filename)
	}
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	lengths = make(mapping.ChromosomeLengths)
	contig := ""
	for scanner.Scan() {
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			contig = contigFromHeader(b)
			if _, ok := lengths[contig]; ok {
				return nil, nil, fmt.Errorf("duplicate sequence %v in fasta file %v", contig, filename)
			}
			names = append(names, contig)
			lengths[contig] = 0
			continue
		}
		if contig == "" {
			return nil, nil, fmt.Errorf("invalid fasta file %v - missing first header", filename)
		}
		lengths[contig] += len(b)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("empty fasta file %v", filename)
	}
	return names, lengths, nil
}

// ReadLengths returns the sequence lengths of a reference. The
// filename may name an .fai index, or a FASTA file. For a FASTA file,
// an index next to it is used when present.
func ReadLengths(filename string) (mapping.ChromosomeLengths, error) {
	faiName := filename
	if filepath.Ext(filename) != FaiExt {
		faiName = filename + FaiExt
		if _, err := os.Stat(faiName); err != nil {
			_, lengths, err := ScanLengths(filename)
			return lengths, err
		}
	}
	fai, err := ParseFai(faiName)
	if err != nil {
		return nil, err
	}
	lengths := make(mapping.ChromosomeLengths, len(fai))
	for name, ref := range fai {
		lengths[name] = ref.Length
	}
	return lengths, nil
}
