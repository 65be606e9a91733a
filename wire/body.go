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
	"strconv"
)

var contentLengthHeader = []byte("content-length")

// contentLength reads the Content-Length header, if any. present is false
// when the header is absent; err is non-nil when it is present but not a
// base-10 non-negative integer.
func (p *Parser) contentLength() (n int, present bool, err error) {
	field, ok := p.headers.get(contentLengthHeader)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.Atoi(string(bytes.TrimSpace(field.Value)))
	if err != nil || v < 0 {
		if err == nil {
			err = errNegativeContentLength
		}
		return 0, true, err
	}
	return v, true, nil
}

var errNegativeContentLength = &parseErr{"negative content length"}

type parseErr struct{ msg string }

func (e *parseErr) Error() string { return e.msg }

// onRaw is the framerHandler RAW-mode entry point; it is only ever invoked
// while state is one of stateBodyLength, stateBodyClose or stateChunkData.
func (p *Parser) onRaw(data []byte) int {
	if p.invalid {
		return len(data)
	}
	switch p.state {
	case stateBodyLength:
		return p.onLengthBody(data)
	case stateBodyClose:
		return p.onCloseBody(data)
	case stateChunkData:
		return p.onChunkBody(data)
	default:
		return len(data)
	}
}

// onLengthBody drains a Content-Length-framed body. Bytes beyond expected
// are left unconsumed so they become the first bytes of the next
// pipelined message.
func (p *Parser) onLengthBody(data []byte) int {
	consume := p.expected
	if consume > len(data) {
		consume = len(data)
	}
	p.expected -= consume
	p.handler.OnBodyData(data[:consume])

	if p.expected == 0 {
		p.handler.OnMessageEnd()
		p.reset(true)
	}
	return consume
}

// onCloseBody streams a read-until-close body verbatim; the parser never
// ends this message on its own, see Parser.EOF.
func (p *Parser) onCloseBody(data []byte) int {
	p.handler.OnBodyData(data)
	return len(data)
}

// onChunkBody drains the current chunk's declared number of bytes, then
// switches back to TEXT mode to read the trailing CRLF.
func (p *Parser) onChunkBody(data []byte) int {
	consume := p.expected
	if consume > len(data) {
		consume = len(data)
	}
	p.expected -= consume
	p.handler.OnBodyData(data[:consume])

	if p.expected == 0 {
		p.state = stateChunkEnd
		p.framer.setMode(modeText)
	}
	return consume
}

// onChunkSizeLine parses "<hex-size>[;ext...]".
func (p *Parser) onChunkSizeLine(line []byte) {
	if ext := bytes.IndexByte(line, ';'); ext >= 0 {
		line = line[:ext]
	}

	size, err := strconv.ParseUint(string(line), 16, 63)
	if err != nil {
		p.handler.OnParseError("unable to decode chunk size")
		return
	}

	if size > 0 {
		p.expected = int(size)
		p.state = stateChunkData
		p.framer.setMode(modeRaw)
	} else {
		p.state = stateTrailer
	}
}

func (p *Parser) onChunkEndLine(line []byte) {
	if len(line) > 0 {
		p.handler.OnParseError("non-empty line after chunk data")
	}
	p.state = stateChunkSize
}

func (p *Parser) onTrailerLine(line []byte) {
	if len(line) > 0 {
		return
	}
	p.handler.OnMessageEnd()
	p.reset(true)
}
