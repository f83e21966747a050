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

// These errors are user errors, not internal errors.

import (
	"errors"
	"fmt"
)

// ErrAbsent indicates that a predicate looked for something (usually
// a property) that the message doesn't have.
//
// A Filter treats a predicate error that wraps ErrAbsent as a
// non-match.
var ErrAbsent = errors.New("absent")

// ErrNoTransport occurs when WaitFor is called without a Transport.
var ErrNoTransport = errors.New("no transport")

// AbsentError is an ErrAbsent with some detail.
type AbsentError struct {
	// Path is the sequence of property names that led to the
	// missing property.
	Path []string
}

func (e *AbsentError) Error() string {
	return fmt.Sprintf("property %q absent", e.Path)
}

func (e *AbsentError) Unwrap() error {
	return ErrAbsent
}

// BadFork occurs when somebody tries to make a Fork that doesn't make
// sense.
//
// A non-terminal Condition can't have a terminal value, and the
// Completed Condition must have one.
type BadFork struct {
	// Index is the position of the offending Condition in
	// ForkSpec.Conditions, or -1 if the problem is with
	// ForkSpec.Completed.
	Index  int
	Reason string
}

func (e *BadFork) Error() string {
	if e.Index < 0 {
		return "bad fork: completed condition " + e.Reason
	}
	return fmt.Sprintf("bad fork: condition %d %s", e.Index, e.Reason)
}

// UnknownFork occurs when a Forks doesn't have a fork with the given
// id.
type UnknownFork struct {
	Id string
}

func (e *UnknownFork) Error() string {
	return `fork "` + e.Id + `" not found`
}

// DuplicateFork occurs when attaching a fork with an id that's
// already in use.
type DuplicateFork struct {
	Id string
}

func (e *DuplicateFork) Error() string {
	return `fork "` + e.Id + `" already attached`
}

// UnknownInterpreter occurs when a script names an interpreter that
// nobody provided.
type UnknownInterpreter struct {
	Name string
}

func (e *UnknownInterpreter) Error() string {
	return `interpreter "` + e.Name + `" not found`
}
