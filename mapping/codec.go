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

package mapping

import (
	"fmt"
	"log"

	"github.com/biogo/hts/sam"
)

const modelledFlags = sam.Paired | sam.Read1 | sam.Read2 | sam.Unmapped | sam.MateUnmapped | sam.Reverse

// An Encoder turns Records into canonical records that refer to the
// references of one header.
type Encoder struct {
	header *sam.Header
	refs   map[string]*sam.Reference
}

// NewEncoder returns an Encoder for header.
func NewEncoder(header *sam.Header) *Encoder {
	refs := make(map[string]*sam.Reference)
	for _, ref := range header.Refs() {
		refs[ref.Name()] = ref
	}
	return &Encoder{header: header, refs: refs}
}

// Header returns the header of this Encoder.
func (enc *Encoder) Header() *sam.Header {
	return enc.header
}

// Reference returns the header reference with the given name, or nil.
func (enc *Encoder) Reference(name string) *sam.Reference {
	return enc.refs[name]
}

func (enc *Encoder) lookup(name string) (*sam.Reference, error) {
	if name == "" || name == "*" {
		return nil, nil
	}
	if ref, ok := enc.refs[name]; ok {
		return ref, nil
	}
	return nil, fmt.Errorf("reference %v is not in the sequence dictionary", name)
}

// Encode converts rec into a canonical record.
func (enc *Encoder) Encode(rec *Record) (*sam.Record, error) {
	ref, err := enc.lookup(rec.ReferenceName)
	if err != nil {
		return nil, fmt.Errorf("%v, while encoding read %v", err, rec.ReadName)
	}
	mateRef, err := enc.lookup(rec.MateReferenceName)
	if err != nil {
		return nil, fmt.Errorf("%v, while encoding the mate of read %v", err, rec.ReadName)
	}

	flags := rec.OtherFlags &^ modelledFlags
	switch rec.PairRole {
	case First:
		flags |= sam.Paired | sam.Read1
	case Second:
		flags |= sam.Paired | sam.Read2
	}
	if rec.Unmapped {
		flags |= sam.Unmapped
	}
	if rec.MateUnmapped {
		flags |= sam.MateUnmapped
	}
	if rec.Reverse {
		flags |= sam.Reverse
	}

	seq := []byte(rec.Sequence)
	qual := rec.Quality
	if qual == nil {
		qual = make([]byte, len(seq))
		for i := range qual {
			qual[i] = 0xff
		}
	}

	aux := make(sam.AuxFields, 0, len(rec.Aux)+3)
	for _, field := range rec.Aux {
		switch field.Tag() {
		case ClassificationTag, MappingCountTag, DifferencesTag:
		default:
			aux = append(aux, field)
		}
	}
	if rec.Differences >= 0 {
		aux = append(aux, mustAux(DifferencesTag, int32(rec.Differences)))
	}
	if rec.MappingCount > 0 {
		aux = append(aux, mustAux(MappingCountTag, int32(rec.MappingCount)))
	}
	if rec.Classification != Unclassified {
		aux = append(aux, mustAux(ClassificationTag, int32(rec.Classification)))
	}

	return &sam.Record{
		Name:      rec.ReadName,
		Ref:       ref,
		Pos:       rec.Start - 1,
		MapQ:      rec.MappingQuality,
		Cigar:     rec.Cigar,
		Flags:     flags,
		MateRef:   mateRef,
		MatePos:   rec.MateStart - 1,
		TempLen:   rec.TemplateLength,
		Seq:       sam.NewSeq(seq),
		Qual:      qual,
		AuxFields: aux,
	}, nil
}

func mustAux(tag sam.Tag, value interface{}) sam.Aux {
	aux, err := sam.NewAux(tag, value)
	if err != nil {
		log.Panic(err)
	}
	return aux
}

// AuxInt returns the integer value of the optional field tag, and
// whether such a field exists.
func AuxInt(fields sam.AuxFields, tag sam.Tag) (int, bool) {
	aux := fields.Get(tag)
	if aux == nil {
		return 0, false
	}
	switch value := aux.Value().(type) {
	case int8:
		return int(value), true
	case uint8:
		return int(value), true
	case int16:
		return int(value), true
	case uint16:
		return int(value), true
	case int32:
		return int(value), true
	case uint32:
		return int(value), true
	case int:
		return value, true
	default:
		return 0, false
	}
}

// SetAuxInt sets the optional field tag of rec to value, replacing an
// existing field with the same tag.
func SetAuxInt(rec *sam.Record, tag sam.Tag, value int) {
	aux := mustAux(tag, int32(value))
	for i, field := range rec.AuxFields {
		if field.Tag() == tag {
			rec.AuxFields[i] = aux
			return
		}
	}
	rec.AuxFields = append(rec.AuxFields, aux)
}

// Decode converts a canonical record into a Record.
func Decode(r *sam.Record) *Record {
	rec := NewRecord()
	rec.ReadName = r.Name
	if r.Ref != nil {
		rec.ReferenceName = r.Ref.Name()
		rec.ChromosomeID = r.Ref.ID()
	}
	if r.Pos >= 0 {
		rec.Start = r.Pos + 1
	}
	rec.Reverse = r.Flags&sam.Reverse != 0
	rec.Unmapped = r.Flags&sam.Unmapped != 0
	rec.Cigar = r.Cigar
	rec.Sequence = string(r.Seq.Expand())
	rec.MappingQuality = r.MapQ
	for _, q := range r.Qual {
		if q != 0xff {
			rec.Quality = append([]byte(nil), r.Qual...)
			break
		}
	}

	switch {
	case r.Flags&sam.Read1 != 0:
		rec.PairRole = First
	case r.Flags&sam.Read2 != 0:
		rec.PairRole = Second
	}
	rec.MateUnmapped = r.Flags&sam.MateUnmapped != 0
	if r.MateRef != nil {
		rec.MateReferenceName = r.MateRef.Name()
	}
	if r.MatePos >= 0 {
		rec.MateStart = r.MatePos + 1
	}
	rec.TemplateLength = r.TempLen
	rec.OtherFlags = r.Flags &^ modelledFlags

	for _, field := range r.AuxFields {
		switch field.Tag() {
		case ClassificationTag:
			if class, ok := AuxInt(r.AuxFields, ClassificationTag); ok {
				rec.Classification = Classification(class)
			}
		case MappingCountTag:
			rec.MappingCount, _ = AuxInt(r.AuxFields, MappingCountTag)
		case DifferencesTag:
			if diffs, ok := AuxInt(r.AuxFields, DifferencesTag); ok {
				rec.Differences = diffs
			}
		default:
			rec.Aux = append(rec.Aux, field)
		}
	}
	return rec
}
