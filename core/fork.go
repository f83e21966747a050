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
	"fmt"
	"sync"

	"github.com/Comcast/chatter/util"
)

// ForkSpec says how to make a Fork.
type ForkSpec struct {
	// Id is optional.  See Forks.Attach.
	Id string `json:"id,omitempty"`

	// Conditions are the non-terminal branches.  None of them
	// may have a Terminal.
	Conditions []*Condition `json:"-"`

	// Completed must have a Terminal.  When it matches, the Fork
	// is done, and its terminal value is the Fork's result.
	Completed *Condition `json:"-"`

	// Exclusive means that at most one of the Conditions fires
	// per message (the first one that matches).
	Exclusive bool `json:"exclusive,omitempty"`

	// QuickStop checks Completed before the Conditions.  If
	// Completed matches, its callback fires and the Conditions
	// aren't considered at all.
	//
	// When nil, NewFork (and so Forks.Attach) makes a quick-stop
	// Fork, while Forks.Replace doesn't.
	QuickStop *bool `json:"quickStop,omitempty"`
}

// Bool returns a pointer to the given value, which is handy for
// ForkSpec.QuickStop.
func Bool(b bool) *bool {
	return &b
}

func (spec *ForkSpec) quickStop(otherwise bool) bool {
	if spec.QuickStop == nil {
		return otherwise
	}
	return *spec.QuickStop
}

// Fork is a little state machine with two states: active and done.
//
// Each message presented (via Process) to an active Fork is checked
// against the Fork's Conditions.  The Fork is done when its Completed
// Condition matches.  After that, the Fork ignores everything.
//
// A Fork can be superseded by a substitute (see Forks.Replace).
// Somebody blocked in BlockUntilDone then waits for the substitute
// instead.
type Fork struct {
	Id         string
	Conditions []*Condition
	Completed  *Condition
	Exclusive  bool
	QuickStop  bool

	// processing serializes calls to Process.
	processing sync.Mutex

	// mu protects the rest.
	mu         sync.Mutex
	done       bool
	result     interface{}
	doneCh     chan struct{}
	substitute *Fork
	subCh      chan struct{}
}

// NewFork checks the given spec and makes a Fork.
//
// Unless the spec says otherwise, the Fork is a quick-stop Fork.
//
// Returns a *BadFork if a non-terminal Condition has a terminal value
// or if the Completed Condition doesn't.
func NewFork(spec *ForkSpec) (*Fork, error) {
	return newFork(spec, true)
}

func newFork(spec *ForkSpec, quickStop bool) (*Fork, error) {
	if spec == nil {
		return nil, &BadFork{Index: -1, Reason: "missing"}
	}
	for i, c := range spec.Conditions {
		if c == nil {
			return nil, &BadFork{Index: i, Reason: "is nil"}
		}
		if c.IsTerminal() {
			return nil, &BadFork{Index: i, Reason: "has a terminal value; only the completed condition can have one"}
		}
	}
	if spec.Completed == nil {
		return nil, &BadFork{Index: -1, Reason: "missing"}
	}
	if !spec.Completed.IsTerminal() {
		return nil, &BadFork{Index: -1, Reason: "must have a terminal value"}
	}

	cs := make([]*Condition, len(spec.Conditions))
	copy(cs, spec.Conditions)

	return &Fork{
		Id:         spec.Id,
		Conditions: cs,
		Completed:  spec.Completed,
		Exclusive:  spec.Exclusive,
		QuickStop:  spec.quickStop(quickStop),
		doneCh:     make(chan struct{}),
		subCh:      make(chan struct{}),
	}, nil
}

// Done reports whether the Fork's Completed Condition has matched.
func (f *Fork) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Result returns the resolved terminal value of the Completed
// Condition (or nil if the Fork isn't done).
func (f *Fork) Result() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Substitute returns the Fork that replaced this one, if any.
func (f *Fork) Substitute() *Fork {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.substitute
}

// setSubstitute installs the replacement and wakes up any waiters.
func (f *Fork) setSubstitute(g *Fork) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.substitute == nil {
		close(f.subCh)
	}
	f.substitute = g
}

// finish resolves the result and marks the Fork done.
func (f *Fork) finish(content interface{}) error {
	result, err := f.Completed.TerminalValue(content)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.result = result
	f.done = true
	close(f.doneCh)
	f.mu.Unlock()
	util.Logf("fork %s done", f.Id)
	return nil
}

// Process presents a message to the Fork.
//
// When Completed doesn't match, a warning is logged if one of the
// Conditions matched the message.  A message that nothing matched
// passes silently.
//
// The first error from a predicate or callback stops processing and
// is returned.  The Fork is not done in that case (unless it was
// already).
func (f *Fork) Process(ctx context.Context, u *Update) error {
	f.processing.Lock()
	defer f.processing.Unlock()

	if f.Done() {
		return nil
	}

	content := u.Content

	if f.QuickStop {
		ok, err := f.Completed.Matches(content)
		if err != nil {
			return err
		}
		if ok {
			if err = f.Completed.Trigger(ctx, content); err != nil {
				return err
			}
			return f.finish(content)
		}
	}

	matched := 0
	for _, c := range f.Conditions {
		ok, err := c.Matches(content)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		matched++
		if err = c.Trigger(ctx, content); err != nil {
			return err
		}
		if f.Exclusive {
			break
		}
	}

	ok, err := f.Completed.Matches(content)
	if err != nil {
		return err
	}
	if ok {
		return f.finish(content)
	}
	if 0 < matched {
		util.Warnf("fork %s has matched, but is still running", f.Id)
	}
	return nil
}

// BlockUntilDone waits until the Fork is done and returns its result.
//
// If a substitute is installed (see Forks.Replace), the wait moves on
// to the substitute, and then on to the substitute's substitute, and
// so on.  There's no limit on the length of that chain.  The result
// is the result of the Fork that finished.
//
// Returns ctx.Err() if the context is done first.
func (f *Fork) BlockUntilDone(ctx context.Context) (interface{}, error) {
	at := f
	for {
		at.mu.Lock()
		done, result, sub := at.done, at.result, at.substitute
		at.mu.Unlock()

		if done {
			return result, nil
		}
		if sub != nil {
			at = sub
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-at.doneCh:
		case <-at.subCh:
		}
	}
}

func (f *Fork) String() string {
	return fmt.Sprintf("Fork(%s, conditions=%d, exclusive=%v, quickStop=%v, done=%v)",
		f.Id, len(f.Conditions), f.Exclusive, f.QuickStop, f.Done())
}
