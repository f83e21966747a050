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

package match

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Comcast/chatter/core"
)

// plain reports whether x is already made of JSON-ish values.
func plain(x interface{}) bool {
	switch x.(type) {
	case nil, bool, string, float64, int, int32, int64, float32,
		map[string]interface{}, map[string]string, []interface{}, []string:
		return true
	}
	return false
}

// Predicate returns a core.Predicate that matches content against the
// pattern.
//
// Content that isn't plain JSON-ish data (a struct, for example) is
// canonicalized first.  A pattern that requires a property that the
// content lacks gives core.Absent.
func (m *Matcher) Predicate(pattern interface{}) core.Predicate {
	return func(x interface{}) (core.Verdict, error) {
		if !plain(x) {
			y, err := core.Canonicalize(x)
			if err != nil {
				return core.NotMatched, err
			}
			x = y
		}
		r, err := m.Check(pattern, x, nil)
		if err != nil {
			return core.NotMatched, err
		}
		if r.Matched() {
			return core.Matched, nil
		}
		if r.Absent {
			return core.Absent, nil
		}
		return core.NotMatched, nil
	}
}

// NewFilter makes a core.Filter that uses the DefaultMatcher.
//
// If the label is empty, the filter is labelled with the pattern's
// JSON.
func NewFilter(label string, pattern interface{}) *core.Filter {
	if label == "" {
		label = "pattern " + js(pattern)
	}
	return core.NewFilter(label, DefaultMatcher.Predicate(pattern))
}

func js(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Interpreter lets a pattern, written in JSON, serve as a "script".
//
// A compiled predicate matches the pattern.  A compiled resolver
// returns the (unquestioned) bindings from the first match or nil if
// there was no match.
type Interpreter struct {
	Matcher *Matcher
}

// NewInterpreter makes an Interpreter that uses the DefaultMatcher.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Matcher: DefaultMatcher,
	}
}

func (i *Interpreter) parse(src string) (interface{}, error) {
	var pattern interface{}
	if err := json.Unmarshal([]byte(src), &pattern); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", src, err)
	}
	return pattern, nil
}

func (i *Interpreter) matcher() *Matcher {
	if i.Matcher == nil {
		return DefaultMatcher
	}
	return i.Matcher
}

func (i *Interpreter) CompilePredicate(ctx context.Context, src string) (core.Predicate, error) {
	pattern, err := i.parse(src)
	if err != nil {
		return nil, err
	}
	return i.matcher().Predicate(pattern), nil
}

func (i *Interpreter) CompileResolver(ctx context.Context, src string) (core.Resolver, error) {
	pattern, err := i.parse(src)
	if err != nil {
		return nil, err
	}
	m := i.matcher()
	return func(x interface{}) (interface{}, error) {
		if !plain(x) {
			y, err := core.Canonicalize(x)
			if err != nil {
				return nil, err
			}
			x = y
		}
		bss, err := m.Match(pattern, x, nil)
		if err != nil {
			return nil, err
		}
		if len(bss) == 0 {
			return nil, nil
		}
		return bss[0].Unquestioned(), nil
	}, nil
}
