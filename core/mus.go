// Copyright 2026 The Codemem Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the stored document types. Hand-maintained against the
// mus-go primitive serializers; field order is part of the storage format and
// must not change between releases.

var vectorMUS = ord.NewSliceSer[float32](raw.Float32)

type idMUS struct{}

// IDMUS serializes IDs as varint-encoded uint64.
var IDMUS = idMUS{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// Timestamps are stored as microseconds since the Unix epoch, UTC.
type timeMUS struct{}

var timestampMUS = timeMUS{}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type snippetDocumentMUS struct{}

// SnippetDocumentMUS serializes SnippetDocument values.
var SnippetDocumentMUS = snippetDocumentMUS{}

func (snippetDocumentMUS) Marshal(d SnippetDocument, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.ProjectID, bs[n:])
	n += ord.String.Marshal(d.Name, bs[n:])
	n += ord.String.Marshal(d.Code, bs[n:])
	n += ord.String.Marshal(d.Language, bs[n:])
	n += ord.String.Marshal(d.Description, bs[n:])
	n += vectorMUS.Marshal(d.Vector, bs[n:])
	n += timestampMUS.Marshal(d.InsertedAt, bs[n:])
	n += timestampMUS.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (snippetDocumentMUS) Unmarshal(bs []byte) (d SnippetDocument, n int, err error) {
	var n1 int
	d.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	d.ProjectID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Code, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Language, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.InsertedAt, n1, err = timestampMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.UpdatedAt, n1, err = timestampMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (snippetDocumentMUS) Size(d SnippetDocument) (n int) {
	n = IDMUS.Size(d.Id)
	n += ord.String.Size(d.ProjectID)
	n += ord.String.Size(d.Name)
	n += ord.String.Size(d.Code)
	n += ord.String.Size(d.Language)
	n += ord.String.Size(d.Description)
	n += vectorMUS.Size(d.Vector)
	n += timestampMUS.Size(d.InsertedAt)
	n += timestampMUS.Size(d.UpdatedAt)
	return n
}
