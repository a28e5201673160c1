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
	"runtime"

	"github.com/biogo/hts/sam"

	"github.com/readxplorer/rximport/mapping"
	"github.com/readxplorer/rximport/utils"
)

// JokConfig configures the conversion of a jok file, which maps reads
// against exactly one reference.
type JokConfig struct {
	Reference       string
	ReferenceLength int
	Sort            mapping.SortOptions
}

// DefaultJokConfig returns a JokConfig for the given reference.
func DefaultJokConfig(reference string, length int) JokConfig {
	return JokConfig{
		Reference:       reference,
		ReferenceLength: length,
		Sort:            mapping.SortOptions{MaxRecordsInRAM: mapping.DefaultMaxRecordsInRAM},
	}
}

// Validate checks that a reference is given.
func (config JokConfig) Validate() error {
	if config.Reference == "" {
		return fmt.Errorf("no reference given for jok conversion")
	}
	if config.ReferenceLength <= 0 {
		return fmt.Errorf("invalid length %v for reference %v", config.ReferenceLength, config.Reference)
	}
	return validateSort(config.Sort)
}

func validateSort(options mapping.SortOptions) error {
	if options.MaxRecordsInRAM < 0 {
		return fmt.Errorf("invalid maximum number of records in RAM %v", options.MaxRecordsInRAM)
	}
	return nil
}

// CombineConfig configures a PairCombiner.
type CombineConfig struct {
	// SortCoordinate requests coordinate sorted output with an index.
	// Otherwise the output is unsorted.
	SortCoordinate bool
	Sort           mapping.SortOptions
}

// DefaultCombineConfig returns the CombineConfig used between import
// stages.
func DefaultCombineConfig() CombineConfig {
	return CombineConfig{Sort: mapping.SortOptions{MaxRecordsInRAM: mapping.DefaultMaxRecordsInRAM}}
}

// Validate checks the sort options.
func (config CombineConfig) Validate() error {
	return validateSort(config.Sort)
}

// SortConfig configures a StreamSorter.
type SortConfig struct {
	Order sam.SortOrder
	Sort  mapping.SortOptions
}

// DefaultSortConfig returns a SortConfig for the given order.
func DefaultSortConfig(order sam.SortOrder) SortConfig {
	return SortConfig{
		Order: order,
		Sort:  mapping.SortOptions{MaxRecordsInRAM: mapping.DefaultMaxRecordsInRAM},
	}
}

// Validate checks that the order is coordinate or queryname.
func (config SortConfig) Validate() error {
	if mapping.LessFor(config.Order) == nil {
		return fmt.Errorf("cannot sort by %v", config.Order)
	}
	return validateSort(config.Sort)
}

// ClassifyConfig configures a Classifier.
type ClassifyConfig struct {
	Sort mapping.SortOptions
}

// DefaultClassifyConfig returns the default ClassifyConfig.
func DefaultClassifyConfig() ClassifyConfig {
	return ClassifyConfig{Sort: mapping.SortOptions{MaxRecordsInRAM: mapping.DefaultMaxRecordsInRAM}}
}

// Validate checks the sort options.
func (config ClassifyConfig) Validate() error {
	return validateSort(config.Sort)
}

// ImportConfig configures an Importer.
type ImportConfig struct {
	// Reference and ReferenceLength name the chromosome of jok tracks.
	Reference       string
	ReferenceLength int
	Sort            mapping.SortOptions
	// ErrorLimit caps the diagnostics of each track.
	ErrorLimit int
	// Parallelism bounds the number of tracks imported at the same
	// time by ImportAll.
	Parallelism int
}

// DefaultImportConfig returns an ImportConfig without a jok reference.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		Sort:        mapping.SortOptions{MaxRecordsInRAM: mapping.DefaultMaxRecordsInRAM},
		ErrorLimit:  utils.DefaultErrorLimit,
		Parallelism: runtime.GOMAXPROCS(0),
	}
}

// Validate checks the limits. The jok reference is checked when a jok
// track is imported.
func (config ImportConfig) Validate() error {
	if config.ErrorLimit < 0 {
		return fmt.Errorf("invalid error limit %v", config.ErrorLimit)
	}
	if config.Parallelism < 0 {
		return fmt.Errorf("invalid number of parallel tracks %v", config.Parallelism)
	}
	return validateSort(config.Sort)
}

func (config ImportConfig) jok() JokConfig {
	return JokConfig{Reference: config.Reference, ReferenceLength: config.ReferenceLength, Sort: config.Sort}
}

func (config ImportConfig) combine() CombineConfig {
	return CombineConfig{Sort: config.Sort}
}

func (config ImportConfig) sort(order sam.SortOrder) SortConfig {
	return SortConfig{Order: order, Sort: config.Sort}
}

func (config ImportConfig) classify() ClassifyConfig {
	return ClassifyConfig{Sort: config.Sort}
}
