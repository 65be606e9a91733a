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

// Package wire implements an incremental parser for HTTP/1.x-style and
// RTSP/1.x-style wire messages. It consumes an arbitrarily-chunked byte
// stream and emits structured callbacks: the start line, each header
// field, successive body fragments, and end-of-message.
//
// The parser never opens, reads, or closes a socket and never buffers a
// whole body in memory; it is meant to be embedded inside a network
// endpoint that owns the connection and feeds it inbound bytes.
package wire

import (
	"bytes"
	"fmt"
)

// state is the Parser's position in the message grammar.
//
//	start-line CRLF ( header-field CRLF )* CRLF [ body ]
type state uint8

const (
	stateStartLine state = iota
	stateHeaderLine
	stateBodyLength
	stateBodyClose
	stateChunkSize
	stateChunkData
	stateChunkEnd
	stateTrailer
)

const (
	// DefaultMaxHeaders bounds the number of header fields per message.
	DefaultMaxHeaders = 512
	// DefaultMaxLineLength bounds both the start line and any single
	// header line (including folded continuations, which are delivered
	// as separate lines).
	DefaultMaxLineLength = 8192
)

// Parser drives a LineFramer through the HTTP/RTSP-like message grammar
// and dispatches the body to the consumer per the framing selected at
// end-of-headers: no body, Content-Length, chunked, or read-until-close.
//
// A Parser is owned by exactly one connection direction. Feed is not
// reentrant: a Handler callback must never call Feed on the same Parser.
type Parser struct {
	handler Handler
	variant variant

	maxHeaders    int
	maxLineLength int

	framer  *LineFramer
	state   state
	invalid bool // set once the start line fails to match; cleared by Reset

	headers *HeaderSet

	// Per-message start-line attributes. Only the subset relevant to the
	// configured variant is populated.
	Method       string
	URL          string
	Version      string
	StatusCode   int
	ReasonPhrase string

	chunked  bool
	expected int // remaining bytes; noLimit means read until close

	pending pendingRequests // response variants only
}

// noLimit marks a body with no declared length (read-until-close).
const noLimit = -1

// newParser builds a Parser for the given variant with the supplied
// bounds. maxHeaders/maxLineLength default per Default* consts when <= 0.
func newParser(v variant, maxHeaders, maxLineLength int) *Parser {
	if maxHeaders <= 0 {
		maxHeaders = DefaultMaxHeaders
	}
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	p := &Parser{
		variant:       v,
		maxHeaders:    maxHeaders,
		maxLineLength: maxLineLength,
		headers:       newHeaderSet(maxHeaders),
	}
	p.framer = newLineFramer(p, defaultDelimiter, maxLineLength)
	return p
}

// SetHandler attaches the callback sink. It must be called before Feed.
func (p *Parser) SetHandler(h Handler) {
	p.handler = h
}

// Feed is the only byte entry point. Empty feeds are legal no-ops. Any
// panic raised by a Handler callback is recovered here and reported via
// OnInternalError; the parser's own state remains usable afterwards.
func (p *Parser) Feed(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			p.handler.OnInternalError(fmt.Sprintf("%v", r))
		}
	}()
	p.framer.feed(data)
}

// EOF signals that the transport has closed cleanly. It only matters for
// a read-until-close response body, which the parser never terminates on
// its own: EOF completes that message and resets.
func (p *Parser) EOF() {
	if p.invalid {
		return
	}
	if p.state == stateBodyClose {
		p.handler.OnMessageEnd()
		p.reset(true)
	}
}

// Reset discards all per-message state, returns the framer to TEXT mode,
// and clears the "invalid start line" latch. Call it after OnParseError to
// resynchronize the parser (e.g. once the transport has been drained to a
// known message boundary), or the embedder may simply close the
// connection instead.
func (p *Parser) Reset() {
	p.reset(false)
}

// reset is the shared implementation for both the internal (message
// completed) and external (consumer-triggered) paths. completed gates the
// pending-request queue pop: it is only drained after a response message
// actually completed, never after a start-line parse failure or a manual
// abort (see DESIGN.md, Open Question 2).
func (p *Parser) reset(completed bool) {
	persistent := p.invalid || p.isPersistent()

	if completed && !p.variant.isRequest() {
		p.pending.pop()
	}

	p.state = stateStartLine
	p.invalid = false
	p.headers = newHeaderSet(p.maxHeaders)
	p.Method, p.URL, p.Version = "", "", ""
	p.StatusCode, p.ReasonPhrase = 0, ""
	p.chunked = false
	p.expected = 0
	p.framer.reset()

	if !persistent {
		p.handler.OnCloseConnection()
	}
}

func (p *Parser) isPersistent() bool {
	return p.variant.isPersistent(p)
}

// PushRequest informs a response Parser about a request method for which a
// response is expected. It is a no-op on request parsers.
func (p *Parser) PushRequest(method string) {
	if p.variant.isRequest() {
		return
	}
	p.pending.push(method)
}

// GetHeader looks up a header field by name, case-insensitively.
func (p *Parser) GetHeader(name []byte) (*HeaderField, bool) {
	return p.headers.get(name)
}

// Headers returns all header fields of the current (or just-completed, if
// called from inside OnHeaderReceived/OnBodyData/OnMessageEnd) message, in
// arrival order; a repeated name appears once per occurrence.
func (p *Parser) Headers() []*HeaderField {
	return p.headers.fields()
}

// --- framerHandler ---

func (p *Parser) onLineTooLong() {
	p.invalid = true // matches "the parser stops emitting" for any bound violation while mid-message
	p.handler.OnParseError("line length exceeded")
}

func (p *Parser) onLine(line []byte) {
	if p.invalid {
		return
	}
	switch p.state {
	case stateStartLine:
		p.onStartLine(line)
	case stateHeaderLine:
		p.onHeaderLine(line)
	case stateChunkSize:
		p.onChunkSizeLine(line)
	case stateChunkEnd:
		p.onChunkEndLine(line)
	case stateTrailer:
		p.onTrailerLine(line)
	default:
		// Lines should never be delivered while the framer is in RAW mode;
		// if they are, drop them rather than corrupt body framing.
	}
}

func (p *Parser) onStartLine(line []byte) {
	if !p.variant.parseStartLine(p, line) {
		p.invalid = true
		p.handler.OnParseError("invalid first line")
		return
	}
	p.state = stateHeaderLine
}

func (p *Parser) onHeaderLine(line []byte) {
	if len(line) == 0 {
		p.onHeaderEnd()
		return
	}

	if line[0] == ' ' || line[0] == '\t' {
		if !p.headers.foldContinuation(line) {
			p.handler.OnParseError("first header field cannot be a continuation")
		}
		return
	}

	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		p.handler.OnParseError(`header field line does not contain ":"`)
		return
	}
	name := bytes.TrimSpace(line[:idx])
	value := bytes.TrimSpace(line[idx+1:])
	if !p.headers.add(name, value) {
		p.handler.OnParseError("max header fields exceeded")
	}
}

func (p *Parser) onHeaderEnd() {
	p.handler.OnHeaderReceived()

	if !p.variant.hasBody(p) {
		p.handler.OnMessageEnd()
		p.reset(true)
		return
	}

	p.chunked = p.variant.isChunked(p)
	if p.chunked {
		p.state = stateChunkSize
		return
	}

	n, present, err := p.contentLength()
	if err != nil {
		p.handler.OnParseError("unable to decode content length")
		return
	}

	switch {
	case present && n == 0:
		p.handler.OnMessageEnd()
		p.reset(true)
	case present:
		p.expected = n
		p.state = stateBodyLength
		p.framer.setMode(modeRaw)
	case p.variant.isRequest():
		// Request-side missing Content-Length means no body.
		p.handler.OnMessageEnd()
		p.reset(true)
	default:
		p.expected = noLimit
		p.state = stateBodyClose
		p.framer.setMode(modeRaw)
	}
}
