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
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readxplorer/rximport/mapping"
)

const testFasta = ">chr1 first chromosome\nACGTACGTAC\nACG\n\n>chr2\nAC\n"

func TestScanLengths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa")
	require.NoError(t, ioutil.WriteFile(path, []byte(testFasta), 0644))
	names, lengths, err := ScanLengths(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1", "chr2"}, names)
	assert.Equal(t, mapping.ChromosomeLengths{"chr1": 13, "chr2": 2}, lengths)
}

func TestReadLengthsGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(testFasta))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "ref.fa.gz")
	require.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0644))

	lengths, err := ReadLengths(path)
	require.NoError(t, err)
	assert.Equal(t, 13, lengths["chr1"])
}

func TestReadLengthsPrefersFai(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fa")
	require.NoError(t, ioutil.WriteFile(path, []byte(testFasta), 0644))
	require.NoError(t, ioutil.WriteFile(path+FaiExt, []byte("chr1\t5000\t6\t10\t11\nchr2\t70\t5600\t10\t11\n"), 0644))

	lengths, err := ReadLengths(path)
	require.NoError(t, err)
	assert.Equal(t, mapping.ChromosomeLengths{"chr1": 5000, "chr2": 70}, lengths)

	lengths, err = ReadLengths(path + FaiExt)
	require.NoError(t, err)
	assert.Equal(t, 70, lengths["chr2"])
}

func TestBadFai(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa.fai")
	require.NoError(t, ioutil.WriteFile(path, []byte("chr1\t5000\t6\n"), 0644))
	_, err := ReadLengths(path)
	assert.Error(t, err)
}

func TestMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa")
	require.NoError(t, ioutil.WriteFile(path, []byte("ACGT\n"), 0644))
	_, _, err := ScanLengths(path)
	assert.Error(t, err)
}
