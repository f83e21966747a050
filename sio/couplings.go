/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package sio couples a conversation to the outside world.
//
// Every coupling here feeds a Queue, which is a core.Transport.
package sio

import (
	"context"

	"github.com/Comcast/chatter/core"
)

// Couplings provide a transport for inbound messages and (usually)
// a way to emit outbound messages.
//
// For example, an implementation could couple a conversation to an
// MQTT broker.
type Couplings interface {
	core.Transport
	core.Emitter

	// Start initializes the Couplings.
	Start(context.Context) error

	// Stop shuts down the Couplings.
	Stop(context.Context) error

	// Inbound is the Queue that receives inbound messages.  Other
	// sources (like Timers) can push into it, too.
	Inbound() *Queue
}
