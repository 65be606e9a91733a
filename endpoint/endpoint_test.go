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

package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/packetd/streamwire/common"
	"github.com/packetd/streamwire/internal/zerocopy"
)

func TestConnectionMatchesRoundTrip(t *testing.T) {
	var pairs []*RoundTrip
	c := New(ProtocolHTTP, func(rt *RoundTrip) {
		pairs = append(pairs, rt)
	}, nil)

	err := c.FeedRequest(zerocopy.NewBufferString("GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	assert.NoError(t, err)

	err = c.FeedResponse(zerocopy.NewBufferString("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	assert.NoError(t, err)

	assert.Len(t, pairs, 1)
	assert.Equal(t, "GET", pairs[0].Request.Method)
	assert.Equal(t, "/index.html", pairs[0].Request.URL)
	assert.Equal(t, 200, pairs[0].Response.StatusCode)
	assert.Equal(t, "hello", string(pairs[0].Response.Body))

	summary, err := pairs[0].Summary()
	assert.NoError(t, err)
	assert.Contains(t, string(summary), "example.com")
}

func TestConnectionHeadSuppressesResponseBody(t *testing.T) {
	var pairs []*RoundTrip
	c := New(ProtocolHTTP, func(rt *RoundTrip) {
		pairs = append(pairs, rt)
	}, nil)

	err := c.FeedRequest(zerocopy.NewBufferString("HEAD /status HTTP/1.1\r\n\r\n"))
	assert.NoError(t, err)

	err = c.FeedResponse(zerocopy.NewBufferString("HTTP/1.1 200 OK\r\nContent-Length: 42\r\n\r\n"))
	assert.NoError(t, err)

	assert.Len(t, pairs, 1)
	assert.Equal(t, 0, pairs[0].Response.BodySize)
}

func TestConnectionMatchesPipelinedRequestsInOrder(t *testing.T) {
	var pairs []*RoundTrip
	c := New(ProtocolHTTP, func(rt *RoundTrip) {
		pairs = append(pairs, rt)
	}, nil)

	err := c.FeedRequest(zerocopy.NewBufferString(
		"GET /first HTTP/1.1\r\n\r\nGET /second HTTP/1.1\r\n\r\n"))
	assert.NoError(t, err)
	assert.Empty(t, pairs, "neither request should match before any response arrives")

	err = c.FeedResponse(zerocopy.NewBufferString("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	assert.NoError(t, err)
	err = c.FeedResponse(zerocopy.NewBufferString("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	assert.NoError(t, err)

	assert.Len(t, pairs, 2)
	assert.Equal(t, "/first", pairs[0].Request.URL)
	assert.Equal(t, "/second", pairs[1].Request.URL)
}

func TestConnectionRespectsConfiguredBodyCapture(t *testing.T) {
	var pairs []*RoundTrip
	opts := common.NewOptions()
	opts.Merge("body_capture", 4)
	c := New(ProtocolHTTP, func(rt *RoundTrip) {
		pairs = append(pairs, rt)
	}, opts)

	err := c.FeedRequest(zerocopy.NewBufferString("GET / HTTP/1.1\r\n\r\n"))
	assert.NoError(t, err)

	err = c.FeedResponse(zerocopy.NewBufferString("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	assert.NoError(t, err)

	assert.Len(t, pairs, 1)
	assert.Equal(t, "hell", string(pairs[0].Response.Body))
}
