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
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// FullPathname returns an absolute version of filename.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

// SetReadOnly removes all write permission bits from the given file.
// The returned function restores the original permissions; it must be
// called even if the caller fails later on.
func SetReadOnly(filename string) (restore func() error, err error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, err
	}
	mode := info.Mode().Perm()
	if err = os.Chmod(filename, mode&^0222); err != nil {
		return nil, err
	}
	return func() error {
		return os.Chmod(filename, mode)
	}, nil
}

// IsWritable checks whether the current process may write to the
// given file.
func IsWritable(filename string) bool {
	return unix.Access(filename, unix.W_OK) == nil
}

// IsReadOnly checks whether no write permission bit is set on the
// given file, independent of the privileges of the current process.
func IsReadOnly(filename string) (bool, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return false, err
	}
	return info.Mode().Perm()&0222 == 0, nil
}

// RemoveIfExists removes the named file and ignores a missing file.
func RemoveIfExists(filename string) error {
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FileSize returns the size of the named file, or -1 if it cannot be
// determined.
func FileSize(filename string) int64 {
	info, err := os.Stat(filename)
	if err != nil {
		return -1
	}
	return info.Size()
}
