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

package cmd

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/readxplorer/rximport/convert"
)

func writeFai(t *testing.T, lines ...string) string {
	name := filepath.Join(t.TempDir(), "ref.fa.fai")
	require.NoError(t, ioutil.WriteFile(name, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return name
}

func TestResolveExplicitReference(t *testing.T) {
	options := referenceOptions{name: "chr1", length: 1000}
	assert.True(t, options.check())
	name, length, err := options.resolve()
	require.NoError(t, err)
	assert.Equal(t, "chr1", name)
	assert.Equal(t, 1000, length)
}

func TestResolveSingleSequenceFai(t *testing.T) {
	options := referenceOptions{fai: writeFai(t, "chr1\t1000\t6\t60\t61")}
	name, length, err := options.resolve()
	require.NoError(t, err)
	assert.Equal(t, "chr1", name)
	assert.Equal(t, 1000, length)
}

func TestResolveNeedsNameForSeveralSequences(t *testing.T) {
	fai := writeFai(t, "chr1\t1000\t6\t60\t61", "chr2\t800\t1030\t60\t61")

	_, _, err := (&referenceOptions{fai: fai}).resolve()
	assert.Error(t, err)

	name, length, err := (&referenceOptions{fai: fai, name: "chr2"}).resolve()
	require.NoError(t, err)
	assert.Equal(t, "chr2", name)
	assert.Equal(t, 800, length)

	_, _, err = (&referenceOptions{fai: fai, name: "chr3"}).resolve()
	assert.Error(t, err)
}

func TestResolveFasta(t *testing.T) {
	name := filepath.Join(t.TempDir(), "ref.fa")
	require.NoError(t, ioutil.WriteFile(name, []byte(">chrM mitochondrion\nACGT\nAC\n"), 0644))
	resolved, length, err := (&referenceOptions{fasta: name}).resolve()
	require.NoError(t, err)
	assert.Equal(t, "chrM", resolved)
	assert.Equal(t, 6, length)
}

func TestFailureMessage(t *testing.T) {
	assert.True(t, strings.HasPrefix(FailureMessage(&convert.IOError{Op: "reading", Path: "x.jok", Err: unix.EIO}), "I/O error: "))
	assert.True(t, strings.HasPrefix(FailureMessage(&convert.ResourceExhaustedError{Op: "writing", Path: "x.bam", Err: unix.ENOSPC}), "Resources exhausted"))
	assert.Equal(t, "Error: broken", FailureMessage(fmt.Errorf("broken")))
}
