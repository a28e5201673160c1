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

package track

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	require.NoError(t, ioutil.WriteFile(path, []byte("x"), 0644))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSupersedeNeverDeletesTheInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "reads.jok")
	touch(t, input)
	job := NewJob("", input)
	assert.Equal(t, "reads.jok", job.Name())

	converted := StagePath(input, "conv", ".bam")
	touch(t, converted)
	touch(t, converted+".bai")
	previous := job.Supersede(converted)
	assert.Equal(t, input, previous.Path)
	assert.False(t, previous.Owned())
	require.NoError(t, previous.Delete())
	assert.True(t, exists(input))
	assert.Equal(t, converted, job.File())

	sorted := StagePath(input, "sort", ".bam")
	touch(t, sorted)
	previous = job.Supersede(sorted)
	assert.True(t, previous.Owned())
	assert.True(t, exists(converted), "superseded files stay until deleted explicitly")
	require.NoError(t, previous.Delete())
	assert.False(t, exists(converted))
	assert.False(t, exists(converted+".bai"))
	assert.Equal(t, input, job.Original())
}

func TestSupersedeWithSameFile(t *testing.T) {
	job := NewJob("t", "a.bam")
	job.Supersede("b.bam")
	previous := job.Supersede("b.bam")
	assert.False(t, previous.Owned())
}

func TestRelease(t *testing.T) {
	job := NewJob("mate2", "mate2.bam")
	previous := job.Release()
	assert.Equal(t, "mate2.bam", previous.Path)
	assert.Equal(t, NoFile, job.File())
	assert.NoError(t, job.Release().Delete())
}

func TestSetFileIsNotOwned(t *testing.T) {
	job := NewJob("t", "a.bam")
	job.Supersede("b.bam")
	job.SetFile("c.bam")
	assert.False(t, job.Supersede("d.bam").Owned())
}

func TestStagePath(t *testing.T) {
	assert.Equal(t, "/data/reads_conv.bam", StagePath("/data/reads.jok", "conv", ".bam"))
	assert.Equal(t, "/data/reads_conv.bam", StagePath("/data/reads.jok.gz", "conv", ".bam"))
	assert.Equal(t, "reads.bam", StagePath("reads.sam", "", ".bam"))
}

func TestReserveStagePath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "reads.bam")
	touch(t, input)

	reserved, err := ReserveStagePath(input, "queryname", ".bam")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reads_queryname.bam"), reserved)
	info, err := os.Stat(reserved)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestReserveStagePathKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "reads.bam")
	touch(t, input)
	existing := filepath.Join(dir, "reads_queryname.bam")
	touch(t, existing)
	touch(t, filepath.Join(dir, "reads_classified.bam.bai"))

	reserved, err := ReserveStagePath(input, "queryname", ".bam")
	require.NoError(t, err)
	assert.NotEqual(t, existing, reserved)
	assert.True(t, strings.HasPrefix(filepath.Base(reserved), "reads_queryname_"))
	assert.Equal(t, ".bam", filepath.Ext(reserved))
	contents, err := ioutil.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "x", string(contents))

	reserved, err = ReserveStagePath(input, "classified", ".bam")
	require.NoError(t, err)
	assert.NotEqual(t, filepath.Join(dir, "reads_classified.bam"), reserved)

	job := NewJob("", input)
	job.Supersede(reserved)
	previous := job.Supersede(filepath.Join(dir, "next.bam"))
	require.NoError(t, previous.Delete())
	assert.True(t, exists(existing))
}

func TestReserveStagePathIsExclusive(t *testing.T) {
	dir := t.TempDir()
	names := []string{"reads.jok", "reads.txt", "reads.jok.gz", "reads"}
	reserved := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			path, err := ReserveStagePath(filepath.Join(dir, name), "conv", ".bam")
			assert.NoError(t, err)
			reserved[i] = path
		}(i, name)
	}
	wg.Wait()
	seen := make(map[string]bool)
	for _, path := range reserved {
		assert.False(t, seen[path], path)
		seen[path] = true
		assert.True(t, exists(path))
	}
}

func TestAbandon(t *testing.T) {
	reserved, err := ReserveStagePath(filepath.Join(t.TempDir(), "reads.jok"), "conv", ".bam")
	require.NoError(t, err)
	Abandon(reserved)
	assert.False(t, exists(reserved))
}
