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

import "bytes"

// lineMode is the LineFramer output discipline.
type lineMode uint8

const (
	modeText lineMode = iota
	modeRaw
)

// defaultDelimiter is the line delimiter used by every HTTP/RTSP-like
// message; LineFramer accepts any non-empty delimiter but the parser
// never configures anything other than CRLF.
var defaultDelimiter = []byte("\r\n")

const defaultBufferLimit = 8192

// framerHandler receives LineFramer output. MessageParser implements it.
type framerHandler interface {
	onLine(line []byte)
	onRaw(data []byte) int
	onLineTooLong()
}

// LineFramer turns an unframed byte stream into delimited lines while in
// TEXT mode, and relays raw byte chunks verbatim while in RAW mode. The
// internal buffer never exceeds bufferLimit bytes.
//
// Mode switches may happen from inside a handler callback. LineFramer
// re-feeds any bytes it had already buffered under the new mode so that a
// header block and the start of a body that arrived in the same write
// never lose bytes, per the re-feed requirement in the framer design note.
type LineFramer struct {
	handler     framerHandler
	delimiter   []byte
	bufferLimit int

	buf        []byte
	mode       lineMode
	processing bool
}

// newLineFramer creates a LineFramer with the given delimiter and buffer
// bound. delimiter must be non-empty; callers in this package always pass
// defaultDelimiter.
func newLineFramer(handler framerHandler, delimiter []byte, bufferLimit int) *LineFramer {
	if len(delimiter) == 0 {
		delimiter = defaultDelimiter
	}
	if bufferLimit <= 0 {
		bufferLimit = defaultBufferLimit
	}
	return &LineFramer{
		handler:     handler,
		delimiter:   delimiter,
		bufferLimit: bufferLimit,
	}
}

// feed is the only byte entry point. It is safe to call with empty data.
func (f *LineFramer) feed(data []byte) {
	f.processing = true
	defer func() { f.processing = false }()

	consumed := 0
	for consumed < len(data) {
		n := f.step(data[consumed:])
		consumed += n

		// A callback invoked from step may have flipped into RAW mode while
		// bytes were still sitting in f.buf (header block + body arrived in
		// one write). Re-feed: prepend the buffered bytes to whatever of
		// this chunk remains unconsumed and keep going from the top.
		if f.mode == modeRaw && len(f.buf) > 0 {
			rest := data[consumed:]
			merged := make([]byte, 0, len(f.buf)+len(rest))
			merged = append(merged, f.buf...)
			merged = append(merged, rest...)
			f.buf = nil
			data = merged
			consumed = 0
		}
	}
}

// step performs a single data processing step and returns the number of
// bytes of data it consumed. The caller repeats until the chunk is
// exhausted.
func (f *LineFramer) step(data []byte) int {
	if f.mode == modeRaw {
		return f.handler.onRaw(data)
	}

	room := f.bufferLimit - len(f.buf)
	if room <= 0 {
		f.handler.onLineTooLong()
		f.buf = nil
		return len(data)
	}

	n := room
	if n > len(data) {
		n = len(data)
	}

	dlen := len(f.delimiter)
	start := len(f.buf) - (dlen - 1)
	if start < 0 {
		start = 0
	}

	f.buf = append(f.buf, data[:n]...)

	pos := bytes.Index(f.buf[start:], f.delimiter)
	if pos >= 0 {
		pos += start
	}
	for f.mode == modeText && pos >= 0 {
		line := f.buf[:pos]
		rest := f.buf[pos+dlen:]
		// line/rest alias f.buf's backing array; the handler must treat the
		// line as borrowed for the duration of the call only.
		f.buf = rest
		f.handler.onLine(line)
		pos = bytes.Index(f.buf, f.delimiter)
	}

	return n
}

// setMode switches the framer's output discipline. Switching into RAW mode
// while bytes remain buffered and we are not inside feed() replays those
// buffered bytes immediately, now interpreted as RAW data.
func (f *LineFramer) setMode(m lineMode) {
	if f.mode == m {
		return
	}
	f.mode = m

	if m == modeRaw && !f.processing && len(f.buf) > 0 {
		data := f.buf
		f.buf = nil
		f.feed(data)
	}
}

// reset returns the framer to TEXT mode. Buffered bytes are kept: they
// belong to the next pipelined message and are framed as its lines.
func (f *LineFramer) reset() {
	f.mode = modeText
}
