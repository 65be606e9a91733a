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

var (
	httpProto              = []byte("HTTP/")
	transferEncodingHeader = []byte("transfer-encoding")
)

// httpChunked implements the Transfer-Encoding rule shared by HTTP request
// and response variants: chunked iff version is 1.1 and the header is
// present and not "identity".
func httpChunked(p *Parser) bool {
	if p.Version != "1.1" {
		return false
	}
	field, ok := p.headers.get(transferEncodingHeader)
	if !ok {
		return false
	}
	return !bytes.EqualFold(field.Value, []byte("identity"))
}

// httpPersistent implements the persistence rule shared by HTTP request
// and response variants: HTTP/1.0 connections are never persistent
// regardless of any Connection header; HTTP/1.1 falls back to the base
// "Connection: close" rule.
func httpPersistent(p *Parser) bool {
	if p.Version != "1.1" {
		return false
	}
	return basePersistent(p)
}

type httpRequestVariant struct{}

func (httpRequestVariant) name() string     { return "http-request" }
func (httpRequestVariant) isRequest() bool  { return true }
func (httpRequestVariant) isChunked(p *Parser) bool    { return httpChunked(p) }
func (httpRequestVariant) isPersistent(p *Parser) bool { return httpPersistent(p) }

// hasBody is always true for requests; the actual body length (possibly
// zero) is decided by content-length/chunked framing in onHeaderEnd.
func (httpRequestVariant) hasBody(p *Parser) bool { return true }

func (httpRequestVariant) parseStartLine(p *Parser, line []byte) bool {
	method, url, version, ok := parseRequestLine(line, httpProto)
	if !ok {
		return false
	}
	p.Method, p.URL, p.Version = method, url, version
	return true
}

type httpResponseVariant struct{}

func (httpResponseVariant) name() string    { return "http-response" }
func (httpResponseVariant) isRequest() bool { return false }
func (httpResponseVariant) isChunked(p *Parser) bool    { return httpChunked(p) }
func (httpResponseVariant) isPersistent(p *Parser) bool { return httpPersistent(p) }

func (httpResponseVariant) hasBody(p *Parser) bool { return responseHasBody(p) }

func (httpResponseVariant) parseStartLine(p *Parser, line []byte) bool {
	version, status, reason, ok := parseStatusLine(line, httpProto)
	if !ok {
		return false
	}
	p.Version, p.StatusCode, p.ReasonPhrase = version, status, reason
	return true
}

// responseHasBody implements the shared HTTP/RTSP response body-presence
// rule from spec.md's table: no body for the response to a pending HEAD
// request, for any 1xx status, or for 204/304.
func responseHasBody(p *Parser) bool {
	if method, ok := p.pending.head(); ok && method == "HEAD" {
		return false
	}
	if p.StatusCode >= 100 && p.StatusCode < 200 {
		return false
	}
	if p.StatusCode == 204 || p.StatusCode == 304 {
		return false
	}
	return true
}

// NewHTTPRequestParser creates a Parser for HTTP/1.x request messages:
// "METHOD URL HTTP/D.D" start line, Transfer-Encoding/Content-Length
// body framing, HTTP/1.1 keep-alive persistence.
func NewHTTPRequestParser(h Handler, maxHeaders, maxLineLength int) *Parser {
	p := newParser(httpRequestVariant{}, maxHeaders, maxLineLength)
	p.SetHandler(h)
	return p
}

// NewHTTPResponseParser creates a Parser for HTTP/1.x response messages.
// Callers must invoke PushRequest(method) for every request they send on
// the same connection, in order, so HEAD suppression works.
func NewHTTPResponseParser(h Handler, maxHeaders, maxLineLength int) *Parser {
	p := newParser(httpResponseVariant{}, maxHeaders, maxLineLength)
	p.SetHandler(h)
	return p
}
