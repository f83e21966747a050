/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package testutil has a few things that tests in several packages
// want.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Comcast/chatter/util"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	return util.JS(x)
}

// Dwimjs, when given a string or bytes, parses that data as JSON.
// When given anything else, just returns what's given.
//
// A string that isn't JSON is returned as is, which is handy for
// plain-text chat messages.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			return vv
		}
		return v
	default:
		return x
	}
}

// Recorder remembers what its callbacks have seen.
type Recorder struct {
	sync.Mutex
	Seen map[string][]interface{}
}

func NewRecorder() *Recorder {
	return &Recorder{
		Seen: make(map[string][]interface{}),
	}
}

// Callback returns a callback (suitable for a core.Condition) that
// records messages under the given tag.
func (r *Recorder) Callback(tag string) func(context.Context, interface{}) error {
	return func(ctx context.Context, x interface{}) error {
		r.Lock()
		r.Seen[tag] = append(r.Seen[tag], x)
		r.Unlock()
		return nil
	}
}

// Count reports how many times the callback with the given tag fired.
func (r *Recorder) Count(tag string) int {
	r.Lock()
	defer r.Unlock()
	return len(r.Seen[tag])
}

// Failing returns a callback that always returns an error.
func Failing(tag string) func(context.Context, interface{}) error {
	return func(ctx context.Context, x interface{}) error {
		return fmt.Errorf("%s failed on %s", tag, JS(x))
	}
}
