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

// Package endpoint wires a pair of wire.Parser state machines (one per
// transport direction) to role.Matcher so a caller that owns a TCP
// connection can feed raw bytes in and receive matched RoundTrip values
// out, without itself knowing anything about HTTP or RTSP framing.
package endpoint

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/packetd/streamwire/common"
	"github.com/packetd/streamwire/internal/zerocopy"
	"github.com/packetd/streamwire/logger"
	"github.com/packetd/streamwire/metrics"
	"github.com/packetd/streamwire/role"
	"github.com/packetd/streamwire/wire"
)

// Protocol selects which wire.Parser constructors a Connection uses.
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
	ProtocolRTSP Protocol = "rtsp"
)

// maxPendingRoundTrips bounds how many requests a Connection will track
// waiting for their response before the oldest unmatched one is evicted,
// see role.NewPipelineMatcher.
const maxPendingRoundTrips = 64

// defaultMaxBodyCapture bounds how much of a message body is retained for
// the archived Request/Response, mirroring the teacher's enableBodyCapture
// cap (see protocol/phttp/decoder.go's defaultMaxBodySize). It is the
// fallback used when New is not given a "body_capture" option.
const defaultMaxBodyCapture = 100 * 1024

// maxBodyCapture reads the "body_capture" knob out of opts, falling back to
// defaultMaxBodyCapture when it is absent, not an int, or not positive.
func maxBodyCapture(opts common.Options) int {
	if opts == nil {
		return defaultMaxBodyCapture
	}
	if n := opts.GetIntDefault("body_capture", defaultMaxBodyCapture); n > 0 {
		return n
	}
	return defaultMaxBodyCapture
}

// Message is the archived snapshot of one parsed Request or Response,
// taken from the wire.Parser's fields at the moment OnMessageEnd fires
// (before the Parser resets them for the next message).
type Message struct {
	Method       string
	URL          string
	Version      string
	StatusCode   int
	ReasonPhrase string
	Headers      map[string]string
	BodySize     int
	Body         []byte // truncated to the Connection's body-capture limit
	Time         time.Time
}

// RoundTrip is a matched Request/Response pair on one connection.
type RoundTrip struct {
	ConnectionID string
	Protocol     Protocol
	Request      *Message
	Response     *Message
}

// Duration reports how long the response took to arrive after the
// request completed.
func (rt *RoundTrip) Duration() time.Duration {
	return rt.Response.Time.Sub(rt.Request.Time)
}

// Summary renders the round trip as JSON for logging/debugging, using
// goccy/go-json for its faster encode path on the hot logging path.
func (rt *RoundTrip) Summary() ([]byte, error) {
	b, err := json.Marshal(rt)
	if err != nil {
		return nil, errors.Wrap(err, "endpoint: marshal roundtrip")
	}
	return b, nil
}

// Connection couples one request-direction Parser and one
// response-direction Parser for a single TCP connection, matching their
// completed messages into RoundTrips as they arrive.
type Connection struct {
	id       string
	protocol Protocol
	onPair   func(*RoundTrip)

	requestParser  *wire.Parser
	responseParser *wire.Parser
	matcher        role.Matcher

	bodyCapture int
	closed      bool
}

// New creates a Connection for the given protocol. onPair is invoked
// synchronously, from inside Feed, whenever a Request and its Response
// are matched. opts may carry a "body_capture" int knob (typically read
// out of confengine); a nil or zero-value opts falls back to
// defaultMaxBodyCapture.
func New(protocol Protocol, onPair func(*RoundTrip), opts common.Options) *Connection {
	c := &Connection{
		id:          uuid.NewString(),
		protocol:    protocol,
		onPair:      onPair,
		matcher:     role.NewPipelineMatcher(maxPendingRoundTrips),
		bodyCapture: maxBodyCapture(opts),
	}

	reqHandler := &sideHandler{conn: c, role: role.Request}
	respHandler := &sideHandler{conn: c, role: role.Response}

	switch protocol {
	case ProtocolRTSP:
		c.requestParser = wire.NewRTSPRequestParser(reqHandler, 0, 0)
		c.responseParser = wire.NewRTSPResponseParser(respHandler, 0, 0)
	default:
		c.requestParser = wire.NewHTTPRequestParser(reqHandler, 0, 0)
		c.responseParser = wire.NewHTTPResponseParser(respHandler, 0, 0)
	}
	return c
}

// ID returns the correlation id assigned to this connection, suitable for
// joining request-side and response-side log lines.
func (c *Connection) ID() string { return c.id }

// FeedRequest feeds bytes observed traveling from client to server.
func (c *Connection) FeedRequest(r zerocopy.Reader) error {
	return c.feed(c.requestParser, r, role.Request)
}

// FeedResponse feeds bytes observed traveling from server to client.
func (c *Connection) FeedResponse(r zerocopy.Reader) error {
	return c.feed(c.responseParser, r, role.Response)
}

func (c *Connection) feed(p *wire.Parser, r zerocopy.Reader, rl role.Role) error {
	for {
		b, err := r.Read(common.ReadWriteBlockSize)
		if err != nil {
			return nil
		}
		if len(b) == 0 {
			return nil
		}
		metrics.BytesFramed(string(c.protocol), string(rl), len(b))
		p.Feed(b)
	}
}

// EOF signals the transport closed cleanly, completing a read-until-close
// response body if one is in progress (see wire.Parser.EOF).
func (c *Connection) EOF() {
	c.responseParser.EOF()
}

// Closed reports whether either parser observed a non-persistent message.
func (c *Connection) Closed() bool { return c.closed }

func (c *Connection) archive(rl role.Role, msg *Message) {
	metrics.MessageParsed(string(c.protocol), string(rl))

	var obj *role.Object
	switch rl {
	case role.Request:
		obj = role.NewRequestObject(msg)
		c.responseParser.PushRequest(msg.Method)
	case role.Response:
		obj = role.NewResponseObject(msg)
	}

	pair := c.matcher.Match(obj)
	if pair == nil {
		return
	}

	rt := &RoundTrip{
		ConnectionID: c.id,
		Protocol:     c.protocol,
		Request:      pair.Request.Obj.(*Message),
		Response:     pair.Response.Obj.(*Message),
	}
	metrics.RoundtripHandled()
	if c.onPair != nil {
		c.onPair(rt)
	}
}

// sideHandler implements wire.Handler for one direction of a Connection.
// The two instances (request-side, response-side) share the Connection
// but never call into each other's Parser.
type sideHandler struct {
	conn *Connection
	role role.Role

	body bytes.Buffer
}

func (h *sideHandler) OnHeaderReceived() {
	h.body.Reset()
}

func (h *sideHandler) OnBodyData(p []byte) {
	limit := h.conn.bodyCapture
	if h.body.Len() >= limit {
		return
	}
	remain := limit - h.body.Len()
	if len(p) > remain {
		p = p[:remain]
	}
	h.body.Write(p)
}

func (h *sideHandler) OnMessageEnd() {
	p := h.parser()

	fields := p.Headers()
	headers := make(map[string]string, len(fields))
	for _, f := range fields {
		headers[string(f.Name)] = string(f.Value)
	}

	msg := &Message{
		Method:       p.Method,
		URL:          p.URL,
		Version:      p.Version,
		StatusCode:   p.StatusCode,
		ReasonPhrase: p.ReasonPhrase,
		Headers:      headers,
		BodySize:     h.body.Len(),
		Body:         append([]byte(nil), h.body.Bytes()...),
		Time:         time.Now(),
	}
	h.conn.archive(h.role, msg)
}

func (h *sideHandler) OnParseError(msg string) {
	metrics.ParseErrorObserved(string(h.conn.protocol), string(h.role))
	h.logger().Warnf("parse error: %s", msg)
}

func (h *sideHandler) OnInternalError(msg string) {
	h.logger().Errorf("internal error: %s", msg)
}

func (h *sideHandler) logger() logger.Logger {
	return logger.With("connection", h.conn.id, "role", string(h.role))
}

func (h *sideHandler) OnCloseConnection() {
	h.conn.closed = true
}

func (h *sideHandler) parser() *wire.Parser {
	if h.role == role.Request {
		return h.conn.requestParser
	}
	return h.conn.responseParser
}
