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

// Handler receives the callbacks a Parser emits while consuming a message.
// For a single message, calls arrive in the order:
//
//	OnHeaderReceived -> zero or more OnBodyData -> OnMessageEnd
//
// Implementations must return synchronously; Feed is not reentrant and a
// Handler must never call back into the same Parser's Feed.
type Handler interface {
	// OnHeaderReceived fires once the blank line terminating the header
	// block has been seen.
	OnHeaderReceived()

	// OnBodyData fires for each fragment of body data as it arrives. p is
	// only valid for the duration of the call.
	OnBodyData(p []byte)

	// OnMessageEnd fires when the message (including its body) is fully
	// framed. The Parser's fields and headers still describe the finished
	// message during the call; the Parser resets right after it returns.
	OnMessageEnd()

	// OnParseError fires on a wire-grammar or bound violation. The Parser
	// does not self-close; it keeps running until Reset or the transport
	// closes.
	OnParseError(msg string)

	// OnInternalError fires when a Handler callback panics or an
	// unexpected internal condition is hit. Parser state remains usable.
	OnInternalError(msg string)

	// OnCloseConnection fires from inside Reset when the just-finished
	// message was not persistent.
	OnCloseConnection()
}
