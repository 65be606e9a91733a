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

var rtspProto = []byte("RTSP/")

// RTSP never uses chunked transfer and its persistence rule never gates on
// version (unlike HTTP/1.0): the original source's RtspRequestReader and
// RtspResponseReader simply never override is_chunked/is_persistent, so
// they inherit the base reader's rules directly.

type rtspRequestVariant struct{}

func (rtspRequestVariant) name() string                { return "rtsp-request" }
func (rtspRequestVariant) isRequest() bool              { return true }
func (rtspRequestVariant) isChunked(p *Parser) bool     { return false }
func (rtspRequestVariant) isPersistent(p *Parser) bool  { return basePersistent(p) }
func (rtspRequestVariant) hasBody(p *Parser) bool       { return true }

func (rtspRequestVariant) parseStartLine(p *Parser, line []byte) bool {
	method, url, version, ok := parseRequestLine(line, rtspProto)
	if !ok {
		return false
	}
	p.Method, p.URL, p.Version = method, url, version
	return true
}

type rtspResponseVariant struct{}

func (rtspResponseVariant) name() string               { return "rtsp-response" }
func (rtspResponseVariant) isRequest() bool             { return false }
func (rtspResponseVariant) isChunked(p *Parser) bool    { return false }
func (rtspResponseVariant) isPersistent(p *Parser) bool { return basePersistent(p) }
func (rtspResponseVariant) hasBody(p *Parser) bool      { return responseHasBody(p) }

func (rtspResponseVariant) parseStartLine(p *Parser, line []byte) bool {
	version, status, reason, ok := parseStatusLine(line, rtspProto)
	if !ok {
		return false
	}
	p.Version, p.StatusCode, p.ReasonPhrase = version, status, reason
	return true
}

// NewRTSPRequestParser creates a Parser for RTSP/1.x request messages:
// "METHOD URL RTSP/D.D" start line, never chunked.
func NewRTSPRequestParser(h Handler, maxHeaders, maxLineLength int) *Parser {
	p := newParser(rtspRequestVariant{}, maxHeaders, maxLineLength)
	p.SetHandler(h)
	return p
}

// NewRTSPResponseParser creates a Parser for RTSP/1.x response messages.
// Callers must invoke PushRequest(method) for every request they send.
func NewRTSPResponseParser(h Handler, maxHeaders, maxLineLength int) *Parser {
	p := newParser(rtspResponseVariant{}, maxHeaders, maxLineLength)
	p.SetHandler(h)
	return p
}
