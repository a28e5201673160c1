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

package internal

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReadOnly(t *testing.T) {
	name := filepath.Join(t.TempDir(), "reads.jok")
	require.NoError(t, ioutil.WriteFile(name, []byte("r1\t0\t4\n"), 0644))

	restore, err := SetReadOnly(name)
	require.NoError(t, err)
	ro, err := IsReadOnly(name)
	require.NoError(t, err)
	assert.True(t, ro)

	require.NoError(t, restore())
	ro, err = IsReadOnly(name)
	require.NoError(t, err)
	assert.False(t, ro)
	info, err := os.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestSetReadOnlyMissing(t *testing.T) {
	_, err := SetReadOnly(filepath.Join(t.TempDir(), "missing.jok"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveIfExists(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out.bam")
	assert.NoError(t, RemoveIfExists(name))
	require.NoError(t, ioutil.WriteFile(name, nil, 0644))
	assert.Equal(t, int64(0), FileSize(name))
	assert.NoError(t, RemoveIfExists(name))
	assert.Equal(t, int64(-1), FileSize(name))
}

func TestFullPathname(t *testing.T) {
	abs, err := FullPathname("/tmp/x.bam")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.bam", abs)
	rel, err := FullPathname("x.bam")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
}
