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

// Package track describes the import job of one track, and the
// hand-over of its working file from one pipeline stage to the next.
package track

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/readxplorer/rximport/internal"
	"github.com/readxplorer/rximport/mapping"
)

// NoFile is the working file of a Job whose input was consumed by
// another Job.
const NoFile = ""

// A Job names the current working file of one track import. Stages
// read the working file and replace it with their output through
// Supersede.
//
// A Job is safe for concurrent use, but one Job should only be worked
// on by one pipeline at a time.
type Job struct {
	mutex    sync.Mutex
	name     string
	original string
	file     string
	owned    bool
}

// NewJob returns a Job for the given input file. The name labels the
// track in progress events; it defaults to the base name of the file.
func NewJob(name, file string) *Job {
	if name == "" {
		name = filepath.Base(file)
	}
	return &Job{name: name, original: file, file: file}
}

// Name returns the label of the track.
func (job *Job) Name() string {
	return job.name
}

// Original returns the input file the Job was created with.
func (job *Job) Original() string {
	return job.original
}

// File returns the current working file.
func (job *Job) File() string {
	job.mutex.Lock()
	defer job.mutex.Unlock()
	return job.file
}

// SetFile sets the working file without any hand-over. A file set this
// way is never deleted by the pipeline.
func (job *Job) SetFile(file string) {
	job.mutex.Lock()
	defer job.mutex.Unlock()
	job.file = file
	job.owned = false
}

// Supersede makes successor the working file of the Job, and returns
// the previous working file. The pipeline owns successor from now on;
// the previous file may only be deleted through Superseded.Delete, and
// only once the caller no longer needs it.
func (job *Job) Supersede(successor string) Superseded {
	job.mutex.Lock()
	defer job.mutex.Unlock()
	previous := Superseded{Path: job.file, owned: job.owned && job.file != successor}
	job.file = successor
	job.owned = true
	return previous
}

// Release marks the input of the Job as consumed, so that the Job can
// no longer be used to reach it. The returned value refers to the
// previous working file.
func (job *Job) Release() Superseded {
	return job.Supersede(NoFile)
}

// Superseded refers to a working file that was replaced by a later
// stage.
type Superseded struct {
	Path  string
	owned bool
}

// Owned reports whether the pipeline created the file, and Delete will
// therefore remove it.
func (s Superseded) Owned() bool {
	return s.owned
}

// Delete removes the superseded file together with its index, if the
// pipeline created it. Input files of the import are never removed.
func (s Superseded) Delete() error {
	if !s.owned || s.Path == NoFile {
		return nil
	}
	for _, path := range []string{s.Path, s.Path + mapping.IndexSuffix} {
		if err := internal.RemoveIfExists(path); err != nil {
			return errors.Wrapf(err, "while deleting superseded file %v", path)
		}
	}
	return nil
}

// StagePath names the output of a stage by inserting the stage name
// before the extension of path, and replacing the extension with ext.
// A trailing .gz extension is dropped as well.
func StagePath(path, stage, ext string) string {
	base := strings.TrimSuffix(path, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if stage == "" {
		return base + ext
	}
	return base + "_" + stage + ext
}

const maxReserveAttempts = 16

func claim(path string) (bool, error) {
	if _, err := os.Lstat(path + mapping.IndexSuffix); err == nil {
		return false, nil
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, file.Close()
}

// ReserveStagePath claims a new, empty file for the output of a stage
// and returns its name. The name is StagePath(path, stage, ext) when no
// file or index of that name exists yet. Otherwise a random fragment is
// added, so that existing files are never overwritten and concurrent
// pipelines never share an output.
func ReserveStagePath(path, stage, ext string) (string, error) {
	candidate := StagePath(path, stage, ext)
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		ok, err := claim(candidate)
		if err != nil {
			return "", errors.Wrapf(err, "while reserving output file %v", candidate)
		}
		if ok {
			return candidate, nil
		}
		fragment := uuid.New().String()[:8]
		if stage == "" {
			candidate = StagePath(path, fragment, ext)
		} else {
			candidate = StagePath(path, stage+"_"+fragment, ext)
		}
	}
	return "", errors.Errorf("no free output file name for stage %v of %v", stage, path)
}

// Abandon removes a reserved output file that never became the working
// file of a Job.
func Abandon(path string) {
	_ = internal.RemoveIfExists(path)
}
