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

import (
	"bufio"
	"bytes"
	"io/ioutil"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorLimitCapsOutput(t *testing.T) {
	const n = 7
	limit := NewErrorLimit(n)
	var forwarded []Event
	reporter := NewReporter("track", limit, func(e Event) { forwarded = append(forwarded, e) })
	for i := 0; i < 3*n; i++ {
		reporter.Warnf("bad record %v", i)
	}
	assert.Len(t, forwarded, n)
	assert.Equal(t, n, limit.Allowed())
	assert.Equal(t, 2*n, limit.Suppressed())
	assert.Equal(t, "bad record 0", forwarded[0].Message)
	assert.Equal(t, Warning, forwarded[0].Kind)
	assert.Equal(t, "track: bad record 0", forwarded[0].String())
}

func TestErrorLimitDefault(t *testing.T) {
	assert.Equal(t, DefaultErrorLimit, NewErrorLimit(0).Max())
	assert.Equal(t, DefaultErrorLimit, NewErrorLimit(-3).Max())
	assert.Equal(t, DefaultErrorLimit, NewReporter("", nil).Limit().Max())
}

func TestErrorLimitConcurrent(t *testing.T) {
	limit := NewErrorLimit(50)
	var wg sync.WaitGroup
	var mutex sync.Mutex
	allowed := 0
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if limit.AllowOutput() {
					mutex.Lock()
					allowed++
					mutex.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
	assert.Equal(t, 750, limit.Suppressed())
}

func TestProgressIsNotLimited(t *testing.T) {
	limit := NewErrorLimit(1)
	var kinds []EventKind
	reporter := NewReporter("", limit, func(e Event) { kinds = append(kinds, e.Kind) })
	reporter.Warnf("first")
	reporter.Warnf("second")
	reporter.Progressf("%v lines", 500000)
	reporter.Failuref("broken")
	reporter.Summaryf("done")
	assert.Equal(t, []EventKind{Warning, Progress, Failure, Summary}, kinds)
	assert.Equal(t, 1, limit.Suppressed())
}

func TestHandleGzip(t *testing.T) {
	var compressed bytes.Buffer
	w := gzip.NewWriter(&compressed)
	_, err := w.Write([]byte("read1\t0\t10\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := HandleGzip(bufio.NewReader(&compressed))
	require.NoError(t, err)
	content, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "read1\t0\t10\n", string(content))

	r, err = HandleGzip(bufio.NewReader(strings.NewReader("plain")))
	require.NoError(t, err)
	content, err = ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(content))

	ok, err := IsGzip(bufio.NewReader(strings.NewReader("")))
	require.NoError(t, err)
	assert.False(t, ok)
}
