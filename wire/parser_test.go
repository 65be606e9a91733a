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

// recorder implements Handler and captures every callback plus the exact
// sequence of body fragments, for asserting both content and ordering.
type recorder struct {
	headers     int
	body        [][]byte
	ends        int
	parseErrs   []string
	internalErr []string
	closes      int
}

func (r *recorder) OnHeaderReceived() { r.headers++ }
func (r *recorder) OnBodyData(p []byte) {
	r.body = append(r.body, append([]byte(nil), p...))
}
func (r *recorder) OnMessageEnd()            { r.ends++ }
func (r *recorder) OnParseError(msg string)  { r.parseErrs = append(r.parseErrs, msg) }
func (r *recorder) OnInternalError(msg string) {
	r.internalErr = append(r.internalErr, msg)
}
func (r *recorder) OnCloseConnection() { r.closes++ }

func (r *recorder) bodyString() string {
	var out []byte
	for _, c := range r.body {
		out = append(out, c...)
	}
	return string(out)
}

func TestHTTPRequestContentLengthBody(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	// The start-line fields are checked before the body completes the
	// message, since completion resets them.
	p.Feed([]byte("POST /upload HTTP/1.1\r\nHost: a\r\nContent-Length: 5\r\n\r\n"))
	assert.Equal(t, "POST", p.Method)
	assert.Equal(t, "/upload", p.URL)

	p.Feed([]byte("hello"))

	assert.Equal(t, 1, r.headers)
	assert.Equal(t, 1, r.ends)
	assert.Equal(t, "hello", r.bodyString())
}

// TestHTTPRequestContentLengthZero exercises the documented boundary case:
// Content-Length: 0 must emit OnHeaderReceived then OnMessageEnd with zero
// OnBodyData calls.
func TestHTTPRequestContentLengthZero(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("GET / HTTP/1.1\r\nContent-Length: 0\r\n\r\n"))

	assert.Equal(t, 1, r.headers)
	assert.Equal(t, 1, r.ends)
	assert.Empty(t, r.body)
}

func TestHTTPRequestNoContentLengthMeansNoBody(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("GET / HTTP/1.1\r\nHost: a\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Empty(t, r.body)
}

func TestHTTPChunkedRequestBody(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("POST /chunked HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"7\r\npacketd\r\n9\r\nDeveloper\r\n7\r\nNetwork\r\n0\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Equal(t, "packetdDeveloperNetwork", r.bodyString())
}

func TestHTTPChunkedWithTrailers(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("POST /chunked HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"3\r\nabc\r\n0\r\nX-Trailer: done\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Equal(t, "abc", r.bodyString())
}

func TestHTTPResponseReadUntilClose(t *testing.T) {
	r := &recorder{}
	p := NewHTTPResponseParser(r, 0, 0)
	p.PushRequest("GET")

	p.Feed([]byte("HTTP/1.0 200 OK\r\n\r\nhello world"))
	assert.Equal(t, 1, r.headers)
	assert.Equal(t, 0, r.ends) // never self-terminates
	assert.Equal(t, "hello world", r.bodyString())

	p.EOF()
	assert.Equal(t, 1, r.ends)
}

func TestHTTPResponseHeadSuppressesBody(t *testing.T) {
	r := &recorder{}
	p := NewHTTPResponseParser(r, 0, 0)
	p.PushRequest("HEAD")

	p.Feed([]byte("HTTP/1.1 200 OK\r\nContent-Length: 12\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Empty(t, r.body)
}

func TestHTTPResponse204NoContent(t *testing.T) {
	r := &recorder{}
	p := NewHTTPResponseParser(r, 0, 0)
	p.PushRequest("GET")

	p.Feed([]byte("HTTP/1.1 204 No Content\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Empty(t, r.body)
}

func TestHTTPResponse304NotModified(t *testing.T) {
	r := &recorder{}
	p := NewHTTPResponseParser(r, 0, 0)
	p.PushRequest("GET")

	p.Feed([]byte("HTTP/1.1 304 Not Modified\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Empty(t, r.body)
}

func TestHTTPResponse1xxHasNoBody(t *testing.T) {
	r := &recorder{}
	p := NewHTTPResponseParser(r, 0, 0)
	p.PushRequest("GET")

	p.Feed([]byte("HTTP/1.1 100 Continue\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Empty(t, r.body)
}

// TestPendingQueuePopsOnlyOnCompletion drives two responses for two pushed
// methods (HEAD then GET) and checks HEAD's suppression rule only applies
// to the first response, proving the queue popped after it completed.
func TestPendingQueuePopsOnlyOnCompletion(t *testing.T) {
	r := &recorder{}
	p := NewHTTPResponseParser(r, 0, 0)
	p.PushRequest("HEAD")
	p.PushRequest("GET")

	p.Feed([]byte("HTTP/1.1 200 OK\r\nContent-Length: 12\r\n\r\n"))
	assert.Equal(t, 1, r.ends)
	assert.Empty(t, r.body)

	p.Feed([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	assert.Equal(t, 2, r.ends)
	assert.Equal(t, "hello", r.bodyString())
}

// TestPendingQueueNotPoppedOnStartLineFailure ensures a failed start-line
// match never drains the pending queue (Resolved Open Question 2).
func TestPendingQueueNotPoppedOnStartLineFailure(t *testing.T) {
	r := &recorder{}
	p := NewHTTPResponseParser(r, 0, 0)
	p.PushRequest("HEAD")

	p.Feed([]byte("not a status line\r\n"))
	assert.Len(t, r.parseErrs, 1)

	p.Reset()
	p.Feed([]byte("HTTP/1.1 200 OK\r\nContent-Length: 12\r\n\r\n"))
	// HEAD is still at the head of the queue, so the body is still
	// suppressed.
	assert.Equal(t, 1, r.ends)
	assert.Empty(t, r.body)
}

func TestConnectionCloseSignalsNonPersistent(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Equal(t, 1, r.closes)
}

func TestHTTP10NeverPersistentRegardlessOfHeader(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("GET / HTTP/1.0\r\nConnection: keep-alive\r\n\r\n"))

	assert.Equal(t, 1, r.closes)
}

func TestKeepAlivePersistentConnectionNotClosed(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("GET / HTTP/1.1\r\n\r\n"))

	assert.Equal(t, 1, r.ends)
	assert.Equal(t, 0, r.closes)
}

func TestFoldedHeaderContinuation(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	// The blank line is withheld so the message is still in progress (and
	// its headers not yet reset) when they are looked up.
	p.Feed([]byte("GET / HTTP/1.1\r\nX-Multi: this is a \r\n  multi-line \r\n  header value\r\n"))

	field, ok := p.GetHeader([]byte("x-multi"))
	assert.True(t, ok)
	assert.Equal(t, "this is amulti-lineheader value", string(field.Value))
}

func TestHeaderLookupCaseInsensitive(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	// The blank line is withheld so the headers are not yet reset.
	p.Feed([]byte("GET / HTTP/1.1\r\nHOST: example.com\r\n"))

	field, ok := p.GetHeader([]byte("host"))
	assert.True(t, ok)
	assert.Equal(t, "example.com", string(field.Value))
}

func TestPipelinedRequestsOnOneFeed(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"))

	assert.Equal(t, 2, r.ends)
	assert.Equal(t, 2, r.headers)
}

// TestByteByByteFeedIsEquivalentToSingleFeed asserts the fragmentation
// invariant: splitting the same bytes arbitrarily across Feed calls
// produces identical callback results.
func TestByteByByteFeedIsEquivalentToSingleFeed(t *testing.T) {
	input := []byte("POST /x HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")

	whole := &recorder{}
	NewHTTPRequestParser(whole, 0, 0).Feed(input)

	fragmented := &recorder{}
	p := NewHTTPRequestParser(fragmented, 0, 0)
	for i := 0; i < len(input); i++ {
		p.Feed(input[i : i+1])
	}

	assert.Equal(t, whole.headers, fragmented.headers)
	assert.Equal(t, whole.ends, fragmented.ends)
	assert.Equal(t, whole.bodyString(), fragmented.bodyString())
}

func TestInvalidStartLineReportsParseError(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("not a request line\r\n"))

	assert.Len(t, r.parseErrs, 1)
	assert.Equal(t, 0, r.ends)
}

func TestMaxHeadersExceeded(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 2, 0)

	p.Feed([]byte("GET / HTTP/1.1\r\nA: 1\r\nB: 2\r\nC: 3\r\n\r\n"))

	assert.Contains(t, r.parseErrs, "max header fields exceeded")
}

func TestLineTooLongReportsParseError(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 16)

	p.Feed([]byte("GET /this-is-a-very-long-url-indeed HTTP/1.1\r\n\r\n"))

	assert.Contains(t, r.parseErrs, "line length exceeded")
}

func TestInvalidContentLengthReportsParseError(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: not-a-number\r\n\r\n"))

	assert.Contains(t, r.parseErrs, "unable to decode content length")
}

func TestNegativeContentLengthReportsParseError(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: -10\r\n\r\n"))

	assert.Contains(t, r.parseErrs, "unable to decode content length")
}

func TestHandlerPanicBecomesInternalError(t *testing.T) {
	h := &panickingHandler{}
	p := NewHTTPRequestParser(h, 0, 0)

	assert.NotPanics(t, func() {
		p.Feed([]byte("GET / HTTP/1.1\r\n\r\n"))
	})
	assert.Equal(t, []string{"boom"}, h.internalErr)
}

type panickingHandler struct{ recorder }

func (p *panickingHandler) OnHeaderReceived() { panic("boom") }

func TestRTSPRequestParsing(t *testing.T) {
	r := &recorder{}
	p := NewRTSPRequestParser(r, 0, 0)

	// The start-line fields are checked before the blank line completes
	// (and resets) the message.
	p.Feed([]byte("DESCRIBE rtsp://example.com/stream RTSP/1.0\r\nCSeq: 1\r\n"))
	assert.Equal(t, "DESCRIBE", p.Method)
	assert.Equal(t, "rtsp://example.com/stream", p.URL)

	p.Feed([]byte("\r\n"))
	assert.Equal(t, 1, r.ends)
}

func TestRTSPResponseWithContentLength(t *testing.T) {
	r := &recorder{}
	p := NewRTSPResponseParser(r, 0, 0)
	p.PushRequest("DESCRIBE")

	p.Feed([]byte("RTSP/1.0 200 OK\r\nCSeq: 1\r\nContent-Length: 4\r\n\r\nabcd"))

	assert.Equal(t, 1, r.ends)
	assert.Equal(t, "abcd", r.bodyString())
}

// TestRTSPNeverChunked asserts RTSP ignores Transfer-Encoding: chunked and
// falls back to Content-Length/close framing (RTSP has no chunked mode).
func TestRTSPNeverChunked(t *testing.T) {
	r := &recorder{}
	p := NewRTSPRequestParser(r, 0, 0)

	p.Feed([]byte("ANNOUNCE rtsp://x RTSP/1.0\r\nTransfer-Encoding: chunked\r\nContent-Length: 3\r\n\r\nabc"))

	assert.Equal(t, 1, r.ends)
	assert.Equal(t, "abc", r.bodyString())
}

func TestResetClearsInvalidLatch(t *testing.T) {
	r := &recorder{}
	p := NewHTTPRequestParser(r, 0, 0)

	p.Feed([]byte("garbage\r\n"))
	assert.Len(t, r.parseErrs, 1)

	p.Reset()
	p.Feed([]byte("GET / HTTP/1.1\r\n\r\n"))
	assert.Equal(t, 1, r.ends)
}
