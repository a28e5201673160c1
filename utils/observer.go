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

import "fmt"

// EventKind distinguishes the events a Reporter publishes.
type EventKind int

const (
	// Progress events mark milestones and are never rate limited.
	Progress EventKind = iota
	// Warning events describe per-record problems and are rate limited.
	Warning
	// Failure events describe problems that end a pipeline stage.
	Failure
	// Summary events carry the final counts of a stage.
	Summary
)

func (kind EventKind) String() string {
	switch kind {
	case Progress:
		return "progress"
	case Warning:
		return "warning"
	case Failure:
		return "failure"
	case Summary:
		return "summary"
	default:
		return "unknown"
	}
}

// An Event is what observers receive.
type Event struct {
	Kind    EventKind
	Source  string
	Message string
}

func (event Event) String() string {
	if event.Source == "" {
		return event.Message
	}
	return event.Source + ": " + event.Message
}

// An Observer is called synchronously for every published event. A
// slow observer stalls the publishing pipeline.
type Observer func(Event)

// A Reporter publishes events to zero or more observers, checking its
// ErrorLimit before forwarding any warning.
type Reporter struct {
	source    string
	limit     *ErrorLimit
	observers []Observer
}

// NewReporter returns a Reporter that labels its events with source.
// If limit is nil, a fresh ErrorLimit with DefaultErrorLimit is used.
func NewReporter(source string, limit *ErrorLimit, observers ...Observer) *Reporter {
	if limit == nil {
		limit = NewErrorLimit(DefaultErrorLimit)
	}
	return &Reporter{
		source:    source,
		limit:     limit,
		observers: observers,
	}
}

// Limit returns the ErrorLimit of this Reporter.
func (reporter *Reporter) Limit() *ErrorLimit {
	return reporter.limit
}

// Source returns the label attached to the events of this Reporter.
func (reporter *Reporter) Source() string {
	return reporter.source
}

func (reporter *Reporter) publish(kind EventKind, format string, v ...interface{}) {
	if len(reporter.observers) == 0 {
		return
	}
	event := Event{
		Kind:    kind,
		Source:  reporter.source,
		Message: fmt.Sprintf(format, v...),
	}
	for _, observer := range reporter.observers {
		observer(event)
	}
}

// Progressf publishes a progress milestone.
func (reporter *Reporter) Progressf(format string, v ...interface{}) {
	reporter.publish(Progress, format, v...)
}

// Warnf publishes a warning if the ErrorLimit allows it, and reports
// whether it was forwarded.
func (reporter *Reporter) Warnf(format string, v ...interface{}) bool {
	if !reporter.limit.AllowOutput() {
		return false
	}
	reporter.publish(Warning, format, v...)
	return true
}

// Failuref publishes a failure.
func (reporter *Reporter) Failuref(format string, v ...interface{}) {
	reporter.publish(Failure, format, v...)
}

// Summaryf publishes the final summary of a stage.
func (reporter *Reporter) Summaryf(format string, v ...interface{}) {
	reporter.publish(Summary, format, v...)
}
