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
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingFramerHandler captures every callback a LineFramer emits so
// tests can assert both the decoded lines and the exact byte accounting.
type recordingFramerHandler struct {
	lines       [][]byte
	rawChunks   [][]byte
	rawConsumed []int
	tooLong     int
	rawLimit    int // bytes to actually consume per onRaw call; 0 means all
}

func (h *recordingFramerHandler) onLine(line []byte) {
	h.lines = append(h.lines, append([]byte(nil), line...))
}

func (h *recordingFramerHandler) onRaw(data []byte) int {
	n := len(data)
	if h.rawLimit > 0 && h.rawLimit < n {
		n = h.rawLimit
	}
	h.rawChunks = append(h.rawChunks, append([]byte(nil), data[:n]...))
	h.rawConsumed = append(h.rawConsumed, n)
	return n
}

func (h *recordingFramerHandler) onLineTooLong() {
	h.tooLong++
}

func TestLineFramerSingleFeed(t *testing.T) {
	h := &recordingFramerHandler{}
	f := newLineFramer(h, defaultDelimiter, 0)
	f.feed([]byte("GET / HTTP/1.1\r\nHost: a\r\n\r\n"))

	assert.Equal(t, [][]byte{
		[]byte("GET / HTTP/1.1"),
		[]byte("Host: a"),
		[]byte(""),
	}, h.lines)
}

func TestLineFramerByteAtATime(t *testing.T) {
	h := &recordingFramerHandler{}
	f := newLineFramer(h, defaultDelimiter, 0)
	input := []byte("A\r\nBB\r\n\r\n")
	for i := 0; i < len(input); i++ {
		f.feed(input[i : i+1])
	}

	assert.Equal(t, [][]byte{
		[]byte("A"),
		[]byte("BB"),
		[]byte(""),
	}, h.lines)
}

// TestLineFramerDelimiterSplitAcrossFeeds verifies the CRLF split exactly
// between the CR and the LF is reassembled rather than treated as two
// separate one-byte lines.
func TestLineFramerDelimiterSplitAcrossFeeds(t *testing.T) {
	h := &recordingFramerHandler{}
	f := newLineFramer(h, defaultDelimiter, 0)
	f.feed([]byte("line\r"))
	f.feed([]byte("\n\r\n"))

	assert.Equal(t, [][]byte{[]byte("line"), []byte("")}, h.lines)
}

func TestLineFramerLineTooLong(t *testing.T) {
	h := &recordingFramerHandler{}
	f := newLineFramer(h, defaultDelimiter, 8)
	f.feed([]byte("0123456789\r\n"))

	assert.Equal(t, 1, h.tooLong)
	assert.Empty(t, h.lines)
}

// TestLineFramerModeSwitchMidBuffer reproduces the case that motivates the
// re-feed logic: a header block and the first bytes of its body arrive in
// a single write, and the handler flips to RAW mode from inside onLine.
func TestLineFramerModeSwitchMidBuffer(t *testing.T) {
	h := &recordingFramerHandler{}
	var f *LineFramer
	lineCount := 0
	handler := &switchingHandler{
		onLineFn: func(line []byte) {
			h.lines = append(h.lines, append([]byte(nil), line...))
			lineCount++
			if lineCount == 2 { // blank line ends the header block
				f.setMode(modeRaw)
			}
		},
		onRawFn: func(data []byte) int {
			h.rawChunks = append(h.rawChunks, append([]byte(nil), data...))
			return len(data)
		},
	}
	f = newLineFramer(handler, defaultDelimiter, 0)
	f.feed([]byte("Host: a\r\n\r\nBODYBYTES"))

	assert.Equal(t, [][]byte{[]byte("Host: a"), []byte("")}, h.lines)
	assert.Equal(t, [][]byte{[]byte("BODYBYTES")}, h.rawChunks)
}

func TestLineFramerRawPartialConsume(t *testing.T) {
	h := &recordingFramerHandler{rawLimit: 3}
	f := newLineFramer(h, defaultDelimiter, 0)
	f.setMode(modeRaw)
	f.feed([]byte("0123456789"))

	// step() is re-invoked with whatever was left unconsumed until the
	// whole chunk is accounted for.
	assert.Equal(t, [][]byte{
		[]byte("012"), []byte("345"), []byte("678"), []byte("9"),
	}, h.rawChunks)
}

// switchingHandler lets a test supply closures for onLine/onRaw so it can
// mutate framer state (mode switches) from inside a callback.
type switchingHandler struct {
	onLineFn func(line []byte)
	onRawFn  func(data []byte) int
}

func (s *switchingHandler) onLine(line []byte)    { s.onLineFn(line) }
func (s *switchingHandler) onRaw(data []byte) int { return s.onRawFn(data) }
func (s *switchingHandler) onLineTooLong()        {}
