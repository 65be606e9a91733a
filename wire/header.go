// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"bytes"
	"strings"
)

// HeaderField is an immutable (name, value) pair once appended. Value is
// the initial value plus any folded continuation lines, each trimmed of
// surrounding whitespace and concatenated without a separator (the
// original implementation's observed behavior, see DESIGN.md).
type HeaderField struct {
	Name  []byte
	Value []byte
}

// HeaderSet maps each case-folded name to at most one HeaderField (the last
// one appended wins), bounded by maxFields distinct names. It also keeps
// every appended field in arrival order, earlier fields of a repeated name
// included, and tracks the most recently appended field as the
// continuation-folding cursor.
type HeaderSet struct {
	maxFields int
	byName    map[string]*HeaderField
	order     []*HeaderField
	last      *HeaderField
}

func newHeaderSet(maxFields int) *HeaderSet {
	return &HeaderSet{
		maxFields: maxFields,
		byName:    make(map[string]*HeaderField),
	}
}

func foldName(name []byte) string {
	return strings.ToLower(string(name))
}

// add inserts a new header field keyed by its lower-ASCII name. It returns
// false without inserting if the set is already at capacity.
func (h *HeaderSet) add(name, value []byte) bool {
	if len(h.byName) >= h.maxFields {
		return false
	}
	field := &HeaderField{
		Name:  append([]byte(nil), name...),
		Value: append([]byte(nil), value...),
	}
	key := foldName(name)
	h.byName[key] = field
	h.order = append(h.order, field)
	h.last = field
	return true
}

// foldContinuation appends a stripped continuation line to the most
// recently added field's value, with no separator. Returns false if there
// is no prior field to fold into.
func (h *HeaderSet) foldContinuation(piece []byte) bool {
	if h.last == nil {
		return false
	}
	h.last.Value = append(h.last.Value, bytes.TrimSpace(piece)...)
	return true
}

// get returns the header field for name, case-insensitively.
func (h *HeaderSet) get(name []byte) (*HeaderField, bool) {
	field, ok := h.byName[foldName(name)]
	return field, ok
}

// fields returns every appended header field in arrival order; a repeated
// name appears once per occurrence, although get returns only the last.
func (h *HeaderSet) fields() []*HeaderField {
	return h.order
}

func (h *HeaderSet) len() int {
	return len(h.byName)
}
