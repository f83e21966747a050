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

package sio

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/util"
)

// Queue is a thread-safe buffer of updates that implements
// core.Transport.
//
// Updates honors the interval given to SetInterval: a call waits
// until at least that long since the previous call returned.  Then it
// drains the buffer (which might be empty).
//
// A Queue also implements core.Emitter by remembering what was
// emitted, which is mostly useful for tests.
type Queue struct {
	sync.Mutex

	// Prefix is prepended to generated update ids.
	Prefix string

	buf      []*core.Update
	seq      int64
	interval time.Duration
	last     time.Time
	emitted  []interface{}
}

// NewQueue makes an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push enqueues the content with a generated id.
func (q *Queue) Push(content interface{}) *core.Update {
	q.Lock()
	defer q.Unlock()
	q.seq++
	u := core.NewUpdate(q.Prefix+strconv.FormatInt(q.seq, 10), content)
	q.buf = append(q.buf, u)
	return u
}

// PushUpdate enqueues the given update as is.
func (q *Queue) PushUpdate(u *core.Update) {
	q.Lock()
	q.buf = append(q.buf, u)
	q.Unlock()
}

// Len reports the number of buffered updates.
func (q *Queue) Len() int {
	q.Lock()
	defer q.Unlock()
	return len(q.buf)
}

func (q *Queue) SetInterval(d time.Duration) {
	q.Lock()
	q.interval = d
	q.Unlock()
}

func (q *Queue) Updates(ctx context.Context) ([]*core.Update, error) {
	q.Lock()
	wait := time.Until(q.last.Add(q.interval))
	q.Unlock()

	if 0 < wait {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	q.Lock()
	defer q.Unlock()
	us := q.buf
	q.buf = nil
	q.last = time.Now()
	if 0 < len(us) {
		util.Logf("queue delivering %d updates", len(us))
	}
	return us, nil
}

// Emit remembers the message.  See Emitted.
func (q *Queue) Emit(ctx context.Context, msg interface{}) error {
	q.Lock()
	q.emitted = append(q.emitted, msg)
	q.Unlock()
	return nil
}

// Emitted returns a copy of what's been emitted.
func (q *Queue) Emitted() []interface{} {
	q.Lock()
	defer q.Unlock()
	acc := make([]interface{}, len(q.emitted))
	copy(acc, q.emitted)
	return acc
}

func (q *Queue) Start(ctx context.Context) error {
	return nil
}

func (q *Queue) Stop(ctx context.Context) error {
	return nil
}

func (q *Queue) Inbound() *Queue {
	return q
}
