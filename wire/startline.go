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

// Hand-rolled start-line splitters. Per the spec's "Start-line regex"
// design note, any equivalent hand-rolled splitter is acceptable in place
// of the source's anchored regular expressions; version must be exactly
// "D.D" (two digits separated by a dot) and the status code exactly three
// digits.

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseVersion(b []byte) (string, bool) {
	if len(b) != 3 || !isDigit(b[0]) || b[1] != '.' || !isDigit(b[2]) {
		return "", false
	}
	return string(b), true
}

// parseRequestLine matches "METHOD SP URL SP <proto>/D.D", e.g.
// "GET /test HTTP/1.1" or "DESCRIBE rtsp://x RTSP/1.0".
func parseRequestLine(line []byte, proto []byte) (method, url, version string, ok bool) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 <= 0 { // method is \S+, must be non-empty
		return "", "", "", false
	}
	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 < 0 {
		return "", "", "", false
	}
	url = string(rest[:sp2])
	tail := rest[sp2+1:]

	want := len(proto) + 3
	if len(tail) != want || !bytes.HasPrefix(tail, proto) {
		return "", "", "", false
	}
	ver, ok := parseVersion(tail[len(proto):])
	if !ok {
		return "", "", "", false
	}
	return string(line[:sp1]), url, ver, true
}

// parseStatusLine matches "<proto>/D.D SP ddd SP reason", e.g.
// "HTTP/1.1 200 OK". The reason phrase may be empty but the surrounding
// space is mandatory.
func parseStatusLine(line []byte, proto []byte) (version string, status int, reason string, ok bool) {
	if !bytes.HasPrefix(line, proto) {
		return "", 0, "", false
	}
	rest := line[len(proto):]
	if len(rest) < 3 {
		return "", 0, "", false
	}
	ver, ok := parseVersion(rest[:3])
	if !ok {
		return "", 0, "", false
	}
	rest = rest[3:]

	if len(rest) < 1 || rest[0] != ' ' {
		return "", 0, "", false
	}
	rest = rest[1:]

	if len(rest) < 3 || !isDigit(rest[0]) || !isDigit(rest[1]) || !isDigit(rest[2]) {
		return "", 0, "", false
	}
	code := int(rest[0]-'0')*100 + int(rest[1]-'0')*10 + int(rest[2]-'0')
	rest = rest[3:]

	if len(rest) < 1 || rest[0] != ' ' {
		return "", 0, "", false
	}
	return ver, code, string(rest[1:]), true
}
