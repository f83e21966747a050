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

package core

import (
	"context"
	"time"
)

//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mocks/mock_transport.go -package=mocks

// Update is a message delivered by a Transport.
type Update struct {
	// Id is whatever the transport uses to identify the update.
	// Might be empty.
	Id string `json:"id,omitempty"`

	// Content is the message itself.  The core never looks
	// inside; predicates do.
	Content interface{} `json:"content"`

	Received time.Time `json:"received,omitempty"`
}

// NewUpdate makes an Update received now.
func NewUpdate(id string, content interface{}) *Update {
	return &Update{
		Id:       id,
		Content:  content,
		Received: time.Now(),
	}
}

// Transport is a source of Updates.
//
// Updates returns the batch of updates that have arrived since the
// previous call, which might be an empty batch.  A Transport may make
// Updates wait until the polling interval has passed since the
// previous call.
type Transport interface {
	SetInterval(d time.Duration)
	Updates(ctx context.Context) ([]*Update, error)
}

// Emitter is a Transport that can also send messages.
type Emitter interface {
	Emit(ctx context.Context, msg interface{}) error
}
