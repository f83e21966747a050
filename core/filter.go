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
	"errors"
	"fmt"

	"github.com/Comcast/chatter/util"
)

// Verdict is the result of a Predicate.
//
// Absent is distinct from NotMatched so that a Filter can tell a
// message that has the wrong shape from a message that simply isn't
// the right one.
type Verdict int

const (
	NotMatched Verdict = iota
	Matched
	Absent
)

func (v Verdict) String() string {
	switch v {
	case Matched:
		return "matched"
	case NotMatched:
		return "not matched"
	case Absent:
		return "absent"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Predicate examines a message's content.
//
// An error wrapping ErrAbsent means the same thing as Absent.  Any
// other error is a real error.
type Predicate func(content interface{}) (Verdict, error)

// Pred makes a Predicate out of a plain boolean function.
func Pred(f func(content interface{}) bool) Predicate {
	return func(x interface{}) (Verdict, error) {
		if f(x) {
			return Matched, nil
		}
		return NotMatched, nil
	}
}

// PredErr makes a Predicate out of a boolean function that can fail.
//
// Use Get (or return an *AbsentError) to report a missing property.
func PredErr(f func(content interface{}) (bool, error)) Predicate {
	return func(x interface{}) (Verdict, error) {
		ok, err := f(x)
		if err != nil {
			return NotMatched, err
		}
		if ok {
			return Matched, nil
		}
		return NotMatched, nil
	}
}

// Filter wraps a single Predicate.
type Filter struct {
	// Label is a human-readable description of what the
	// predicate checks.  Only used for diagnostics.
	Label string

	Predicate Predicate
}

// NewFilter makes a Filter.
func NewFilter(label string, p Predicate) *Filter {
	return &Filter{
		Label:     label,
		Predicate: p,
	}
}

// Evaluate runs the predicate against the update's content.
func (f *Filter) Evaluate(u *Update) (bool, error) {
	return f.EvaluateContent(u.Content)
}

// EvaluateContent runs the predicate against the given content.
//
// When the predicate reports that the content is missing something
// the predicate wanted, the result is false (and a warning is
// logged).  Other errors are returned.
func (f *Filter) EvaluateContent(content interface{}) (bool, error) {
	if f.Predicate == nil {
		return false, fmt.Errorf("%s has no predicate", f)
	}
	v, err := f.Predicate(content)
	if err != nil {
		if !errors.Is(err, ErrAbsent) {
			return false, err
		}
		v = Absent
	}
	switch v {
	case Matched:
		return true, nil
	case Absent:
		if err != nil {
			util.Warnf("%s: %s", f, err)
		} else {
			util.Warnf("%s: message lacks what the filter wants", f)
		}
	}
	return false, nil
}

func (f *Filter) String() string {
	return fmt.Sprintf("Filter(%q)", f.Label)
}
