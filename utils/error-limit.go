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

package utils

import "sync"

// DefaultErrorLimit is the number of diagnostics an ErrorLimit lets
// through when no explicit limit is configured.
const DefaultErrorLimit = 100

// An ErrorLimit caps the number of diagnostics that are forwarded to
// observers over its lifetime. Every call to AllowOutput beyond the
// cap returns false and is counted as suppressed.
//
// It is safe for multiple goroutines to share an ErrorLimit, but each
// track pipeline should own its own instance so that one pathological
// file cannot use up the budget of another one.
type ErrorLimit struct {
	mutex      sync.Mutex
	max        int
	allowed    int
	suppressed int
}

// NewErrorLimit returns an ErrorLimit that allows max diagnostics. If
// max <= 0, DefaultErrorLimit is used.
func NewErrorLimit(max int) *ErrorLimit {
	if max <= 0 {
		max = DefaultErrorLimit
	}
	return &ErrorLimit{max: max}
}

// AllowOutput reports whether one more diagnostic may be forwarded.
func (limit *ErrorLimit) AllowOutput() bool {
	limit.mutex.Lock()
	defer limit.mutex.Unlock()
	if limit.allowed < limit.max {
		limit.allowed++
		return true
	}
	limit.suppressed++
	return false
}

// Max returns the configured cap.
func (limit *ErrorLimit) Max() int {
	return limit.max
}

// Allowed returns the number of diagnostics let through so far.
func (limit *ErrorLimit) Allowed() int {
	limit.mutex.Lock()
	defer limit.mutex.Unlock()
	return limit.allowed
}

// Suppressed returns the number of diagnostics that were refused.
func (limit *ErrorLimit) Suppressed() int {
	limit.mutex.Lock()
	defer limit.mutex.Unlock()
	return limit.suppressed
}
