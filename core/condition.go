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
	"strings"
)

// Callback is a side effect for a Condition that matched.
type Callback func(ctx context.Context, content interface{}) error

// Resolver computes a terminal value from a message's content.
type Resolver func(content interface{}) (interface{}, error)

// Const makes a Resolver that always returns the given value.
//
// Const(nil) is still terminal: the value just happens to be nil.
func Const(x interface{}) Resolver {
	return func(interface{}) (interface{}, error) {
		return x, nil
	}
}

// Condition is a conjunction of Filters along with a Callback and an
// optional terminal value.
//
// A Condition with a Terminal ends a WaitFor (or completes a Fork).
type Condition struct {
	// Label is only used for diagnostics.
	Label string

	// Filters must all pass for the Condition to match.  An empty
	// Condition matches everything.
	Filters []*Filter

	// Callback (optional) is called when the Condition matches.
	Callback Callback

	// Terminal (optional) makes this Condition terminal.
	Terminal Resolver
}

// NewCondition makes a non-terminal Condition with the given filters.
func NewCondition(label string, filters ...*Filter) *Condition {
	return &Condition{
		Label:   label,
		Filters: filters,
	}
}

// AddFilter appends filters.
func (c *Condition) AddFilter(fs ...*Filter) *Condition {
	c.Filters = append(c.Filters, fs...)
	return c
}

// Then sets the callback.
func (c *Condition) Then(cb Callback) *Condition {
	c.Callback = cb
	return c
}

// Returning makes the Condition terminal with the given literal
// value.
func (c *Condition) Returning(x interface{}) *Condition {
	c.Terminal = Const(x)
	return c
}

// ResolvingWith makes the Condition terminal with a value computed
// from the matching message.
func (c *Condition) ResolvingWith(r Resolver) *Condition {
	c.Terminal = r
	return c
}

// Matches reports whether every filter passes.
//
// Filters are evaluated in order, and evaluation stops at the first
// one that doesn't pass.
func (c *Condition) Matches(content interface{}) (bool, error) {
	for _, f := range c.Filters {
		ok, err := f.EvaluateContent(content)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Trigger calls the callback (if any).
func (c *Condition) Trigger(ctx context.Context, content interface{}) error {
	if c.Callback == nil {
		return nil
	}
	return c.Callback(ctx, content)
}

// IsTerminal reports whether the Condition has a terminal value.
func (c *Condition) IsTerminal() bool {
	return c.Terminal != nil
}

// TerminalValue resolves the terminal value.
//
// Returns nil, nil if the Condition isn't terminal.
func (c *Condition) TerminalValue(content interface{}) (interface{}, error) {
	if c.Terminal == nil {
		return nil, nil
	}
	return c.Terminal(content)
}

func (c *Condition) String() string {
	fs := make([]string, len(c.Filters))
	for i, f := range c.Filters {
		fs[i] = f.String()
	}
	s := "Condition(" + c.Label + ", filters=[" + strings.Join(fs, ", ") + "]"
	if c.IsTerminal() {
		s += ", terminal"
	}
	return s + ")"
}
