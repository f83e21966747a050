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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Comcast/chatter/util"

	"github.com/gorhill/cronexpr"
)

// TimerEntry represents a pending timer.
type TimerEntry struct {
	Id  string      `json:"id"`
	Msg interface{} `json:"msg,omitempty"`
	At  time.Time   `json:"at"`

	// Cron, if not empty, makes the timer recurring.
	Cron string `json:"cron,omitempty"`

	ctl  chan struct{}
	expr *cronexpr.Expression
}

// Timers pushes messages into a Queue later.
//
// A one-shot timer (see Add) pushes its message once.  A cron timer
// (see AddCron) pushes {"timer":NAME,"at":TIME} whenever its schedule
// says so.
type Timers struct {
	sync.Mutex

	Queue *Queue

	// Now is the clock.  Tests can change it.
	Now func() time.Time

	entries map[string]*TimerEntry
}

// NewTimers creates a Timers that pushes into the given Queue.
func NewTimers(q *Queue) *Timers {
	return &Timers{
		Queue:   q,
		Now:     time.Now,
		entries: make(map[string]*TimerEntry, 8),
	}
}

// Add creates a new timer that will push the given message later (if
// the timer isn't cancelled first).
//
// An existing timer with the same id is cancelled.
func (ts *Timers) Add(ctx context.Context, id string, msg interface{}, d time.Duration) error {
	util.Logf("Timers.Add %s", id)
	e := &TimerEntry{
		Id:  id,
		Msg: msg,
		At:  ts.Now().UTC().Add(d),
	}
	ts.add(ctx, e)
	return nil
}

// AddCron creates a recurring timer for the given cron expression.
//
// See https://github.com/gorhill/cronexpr for the syntax, which
// includes an optional seconds field.
func (ts *Timers) AddCron(ctx context.Context, name, expr string) error {
	util.Logf("Timers.AddCron %s %s", name, expr)
	x, err := cronexpr.Parse(expr)
	if err != nil {
		return fmt.Errorf("timer %s: %w", name, err)
	}
	at := x.Next(ts.Now())
	if at.IsZero() {
		return fmt.Errorf("timer %s: %q never fires", name, expr)
	}
	e := &TimerEntry{
		Id:   name,
		At:   at.UTC(),
		Cron: expr,
		expr: x,
	}
	ts.add(ctx, e)
	return nil
}

func (ts *Timers) add(ctx context.Context, e *TimerEntry) {
	e.ctl = make(chan struct{})

	ts.Lock()
	if old, have := ts.entries[e.Id]; have {
		close(old.ctl)
	}
	ts.entries[e.Id] = e
	ts.Unlock()

	go ts.run(ctx, e)
}

// fire pushes the timer's message.
func (ts *Timers) fire(e *TimerEntry, at time.Time) {
	util.Logf("firing timer '%s'", e.Id)
	if e.Cron == "" {
		ts.Queue.Push(e.Msg)
		return
	}
	ts.Queue.Push(map[string]interface{}{
		"timer": e.Id,
		"at":    at.UTC().Format(time.RFC3339),
	})
}

// run waits for the timer's time (again and again for a cron timer)
// unless the timer is cancelled first.
func (ts *Timers) run(ctx context.Context, e *TimerEntry) {
	at := e.At
	for {
		t := time.NewTimer(at.Sub(ts.Now()))
		select {
		case <-t.C:
		case <-e.ctl:
			t.Stop()
			util.Logf("canceled timer '%s'", e.Id)
			return
		case <-ctx.Done():
			t.Stop()
			return
		}

		ts.fire(e, at)

		if e.expr == nil {
			ts.Lock()
			if ts.entries[e.Id] == e {
				delete(ts.entries, e.Id)
			}
			ts.Unlock()
			return
		}

		if at = e.expr.Next(ts.Now()); at.IsZero() {
			ts.Lock()
			if ts.entries[e.Id] == e {
				delete(ts.entries, e.Id)
			}
			ts.Unlock()
			return
		}
		ts.Lock()
		e.At = at.UTC()
		ts.Unlock()
	}
}

// Cancel attempts to cancel the timer with the given id.
func (ts *Timers) Cancel(ctx context.Context, id string) error {
	ts.Lock()
	defer ts.Unlock()
	e, have := ts.entries[id]
	if !have {
		return fmt.Errorf("timer '%s' doesn't exist", id)
	}
	delete(ts.entries, id)
	close(e.ctl)
	return nil
}

// Pending returns the ids of the pending timers in order.
func (ts *Timers) Pending() []string {
	ts.Lock()
	defer ts.Unlock()
	acc := make([]string, 0, len(ts.entries))
	for id := range ts.entries {
		acc = append(acc, id)
	}
	sort.Strings(acc)
	return acc
}

// Stop cancels every timer.
func (ts *Timers) Stop(ctx context.Context) error {
	ts.Lock()
	defer ts.Unlock()
	for id, e := range ts.entries {
		close(e.ctl)
		delete(ts.entries, id)
	}
	return nil
}
