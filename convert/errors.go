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

package convert

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// An IOError reports that a file could not be opened, read or written.
// It ends the pipeline of the affected track.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%v, while %v %v", e.Err, e.Op, e.Path)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// A ResourceExhaustedError reports that the system ran out of memory,
// disk space or disk quota. Callers may retry with a smaller
// MaxRecordsInRAM or a different temporary directory.
type ResourceExhaustedError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("%v, while %v %v (resources exhausted)", e.Err, e.Op, e.Path)
}

// Unwrap returns the underlying error.
func (e *ResourceExhaustedError) Unwrap() error {
	return e.Err
}

func isExhausted(err error) bool {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case unix.ENOSPC, unix.ENOMEM, unix.EDQUOT:
		return true
	default:
		return false
	}
}

// fatal classifies err as a ResourceExhaustedError or an IOError.
// Errors that already are classified are returned unchanged.
func fatal(err error, op, path string) error {
	if err == nil || IsIOError(err) || IsResourceExhausted(err) {
		return err
	}
	if isExhausted(err) {
		return &ResourceExhaustedError{Op: op, Path: path, Err: err}
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// IsIOError reports whether err is or wraps an IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// IsResourceExhausted reports whether err is or wraps a
// ResourceExhaustedError.
func IsResourceExhausted(err error) bool {
	var exhausted *ResourceExhaustedError
	return errors.As(err, &exhausted)
}
