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

	"github.com/Comcast/chatter/util"
)

// WaitConf controls WaitFor.
type WaitConf struct {
	// Timeout is how long to wait.  Zero means forever.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Pause is the sleep between polling rounds.
	Pause time.Duration `json:"pause,omitempty"`

	// TransportInterval is given to the Transport's SetInterval.
	// Zero leaves the transport alone.
	TransportInterval time.Duration `json:"transportInterval,omitempty"`
}

// DefaultWaitConf is used when WaitFor gets a nil WaitConf.
var DefaultWaitConf = &WaitConf{
	Timeout:           300 * time.Second,
	Pause:             100 * time.Millisecond,
	TransportInterval: 500 * time.Millisecond,
}

// Copy makes a copy.
func (c *WaitConf) Copy() *WaitConf {
	return &WaitConf{
		Timeout:           c.Timeout,
		Pause:             c.Pause,
		TransportInterval: c.TransportInterval,
	}
}

// Outcome is how a WaitFor ended (when it didn't end with an error).
//
// When TimedOut is false, Value is the resolved terminal value of
// Condition, which matched Update.  Value can be anything, including
// nil or false, so check TimedOut.
type Outcome struct {
	TimedOut  bool
	Value     interface{}
	Condition *Condition
	Update    *Update
}

// TimedOutOutcome is what WaitFor returns when it gives up.
func TimedOutOutcome() *Outcome {
	return &Outcome{TimedOut: true}
}

// WaitFor polls the transport until a terminal Condition matches or
// the timeout passes.
//
// Every update is considered against the given conditions in order.
// Each Condition that matches gets its callback called.  The first
// terminal Condition that matches ends the wait: WaitFor returns its
// resolved terminal value right away, and neither the later
// Conditions nor any later update are considered.  Otherwise the
// update goes to the forks, if any.
//
// An error from the transport, a predicate, a callback, or a fork
// ends the wait.  So does the context.
func WaitFor(ctx context.Context, t Transport, conds []*Condition, conf *WaitConf, forks *Forks) (*Outcome, error) {
	if t == nil {
		return nil, ErrNoTransport
	}
	if conf == nil {
		conf = DefaultWaitConf
	}

	if 0 < conf.TransportInterval {
		t.SetInterval(conf.TransportInterval)
	}

	var deadline time.Time
	if 0 < conf.Timeout {
		deadline = time.Now().Add(conf.Timeout)
	}

	for {
		us, err := t.Updates(ctx)
		if err != nil {
			return nil, err
		}

		for _, u := range us {
			o, err := consider(ctx, u, conds)
			if err != nil {
				return nil, err
			}
			if o != nil {
				return o, nil
			}
			if forks != nil {
				if err = forks.Dispatch(ctx, u); err != nil {
					return nil, err
				}
			}
		}

		if !deadline.IsZero() && deadline.Before(time.Now()) {
			util.Logf("WaitFor timed out after %s", conf.Timeout)
			return TimedOutOutcome(), nil
		}

		if err = sleep(ctx, conf.Pause); err != nil {
			return nil, err
		}
	}
}

// consider triggers every matching Condition up to the first
// terminal one, which gives the Outcome.
func consider(ctx context.Context, u *Update, conds []*Condition) (*Outcome, error) {
	for _, c := range conds {
		ok, err := c.Matches(u.Content)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		util.Logf("WaitFor %s matched %s", c, util.JS(u.Content))
		if err = c.Trigger(ctx, u.Content); err != nil {
			return nil, err
		}
		if !c.IsTerminal() {
			continue
		}
		x, err := c.TerminalValue(u.Content)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Value:     x,
			Condition: c,
			Update:    u,
		}, nil
	}
	return nil, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
