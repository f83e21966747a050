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

// Package match implements a pattern matcher for JSON-like messages.
//
// A pattern is a JSON-like value that can contain variables, which
// are strings that start with '?'.  For example, the pattern
//
//	{"text":"?said","chat":{"id":"?chat"}}
//
// matches the message
//
//	{"text":"yes","chat":{"id":42,"type":"private"},"date":1700000000}
//
// with bindings {"?said":"yes","?chat":42}.  A map pattern only
// constrains the properties it mentions.  An array pattern is a set:
// its elements can match the message's elements in any order.
//
// Unlike a plain boolean matcher, a Matcher also reports whether a
// failure was due to a property that the message doesn't have.  That
// information lets a core.Filter treat a message of an unexpected
// shape as a non-match rather than an error.
package match

import (
	"errors"
	"sort"
	"strings"
)

// Matcher holds a few switches.
type Matcher struct {
	// AllowPropertyVariables enables support for a property
	// variable in a pattern that contains only one property.
	//
	// For example, {"?p":"yes"} matches {"answer":"yes"} with
	// bindings {"?p":"answer"}.
	AllowPropertyVariables bool

	// Inequalities turns on binding inequality support.
	//
	// The input bindings should include a binding for a variable
	// with a name that contains either "<", ">", "<=", ">=", or
	// "!=" immediately after the leading "?".  The pattern can
	// then use that variable.  A value X matches that variable
	// only if the binding Y for that variable satisfies the
	// inequality with X and Y (in that order).  The output
	// bindings then include a binding for the variable without
	// the inequality.
	//
	// For example, given input bindings {"?<n":10}, pattern
	// {"n":"?<n"}, and message {"n":3}, the match will succeed
	// with bindings {"?<n":10,"?n":3}.
	//
	// Only numbers are supported.
	Inequalities bool
}

// DefaultMatcher has all the features on.
var DefaultMatcher = &Matcher{
	AllowPropertyVariables: true,
	Inequalities:           true,
}

// Bindings is a map from variables (strings starting with a '?') to
// their values.
type Bindings map[string]interface{}

func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Unquestioned returns a copy of the bindings with the leading '?'
// removed from each variable.
func (bs Bindings) Unquestioned() map[string]interface{} {
	acc := make(map[string]interface{}, len(bs))
	for k, v := range bs {
		acc[strings.TrimLeft(k, "?")] = v
	}
	return acc
}

// Bind returns a copy of x with every bound variable replaced by its
// value.  Unbound variables stay as they are.
func (bs Bindings) Bind(x interface{}) interface{} {
	switch vv := x.(type) {
	case string:
		if y, have := bs[vv]; have && strings.HasPrefix(vv, "?") {
			return y
		}
		return vv
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			acc[k] = bs.Bind(v)
		}
		return acc
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, v := range vv {
			acc[i] = bs.Bind(v)
		}
		return acc
	default:
		return x
	}
}

// IsVariable reports if the string represents a pattern variable.
//
// All pattern variables start with a '?".
func (m *Matcher) IsVariable(s string) bool {
	return strings.HasPrefix(s, "?")
}

// IsOptionalVariable reports if the string is a variable that starts
// with "??".  A map property with an optional variable as its value
// can be missing from the message.
func (m *Matcher) IsOptionalVariable(x interface{}) bool {
	if s, is := x.(string); is {
		return strings.HasPrefix(s, "??")
	}
	return false
}

// IsAnonymousVariable detects a variable of the form '?'.  A binding
// for an anonymous variable never makes it into bindings.
func (m *Matcher) IsAnonymousVariable(s string) bool {
	return s == "?"
}

// Result is what Check returns.
type Result struct {
	// Bindingss has one Bindings for each way the pattern
	// matched.  Empty if the pattern didn't match.
	Bindingss []Bindings

	// Absent is true if the pattern didn't match because the
	// message is missing a property that the pattern requires.
	Absent bool
}

// Matched reports whether there was at least one match.
func (r *Result) Matched() bool {
	return 0 < len(r.Bindingss)
}

// trial accumulates what we learn while matching.
type trial struct {
	*Matcher
	absent bool
}

// Check matches the pattern against the fact starting with the given
// bindings, which are not modified.
func (m *Matcher) Check(pattern, fact interface{}, bs Bindings) (*Result, error) {
	if bs == nil {
		bs = NewBindings()
	}
	t := &trial{Matcher: m}
	bss, err := t.match(pattern, fact, bs.Copy())
	if err != nil {
		return nil, err
	}
	r := &Result{
		Bindingss: bss,
	}
	if len(bss) == 0 {
		r.Absent = t.absent
	}
	return r, nil
}

// Match attempts to match the given fact with the given pattern.
// Returns an array of Bindings, one for each way to match.
//
// The given bindings are not modified.
func (m *Matcher) Match(pattern, fact interface{}, bs Bindings) ([]Bindings, error) {
	r, err := m.Check(pattern, fact, bs)
	if err != nil {
		return nil, err
	}
	return r.Bindingss, nil
}

// Match uses the DefaultMatcher.
func Match(pattern, fact interface{}, bs Bindings) ([]Bindings, error) {
	return DefaultMatcher.Match(pattern, fact, bs)
}

// Check uses the DefaultMatcher.
func Check(pattern, fact interface{}, bs Bindings) (*Result, error) {
	return DefaultMatcher.Check(pattern, fact, bs)
}

// fudge is a hack to cast numbers to float64s.
func fudge(x interface{}) interface{} {
	switch vv := x.(type) {
	case float32:
		return float64(vv)
	case int64:
		return float64(vv)
	case int32:
		return float64(vv)
	case int:
		return float64(vv)
	case map[string]string:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[k] = v
		}
		return m
	case []string:
		xs := make([]interface{}, len(vv))
		for i, s := range vv {
			xs[i] = s
		}
		return xs
	default:
		return x
	}
}

// UnknownPatternType is an error that includes the thing that's
// causing the trouble.
type UnknownPatternType struct {
	Pattern interface{}
}

func (e *UnknownPatternType) Error() string {
	return "unknown pattern type"
}

// match can modify the given bindings.
func (t *trial) match(pattern, fact interface{}, bs Bindings) ([]Bindings, error) {
	pattern = fudge(pattern)
	fact = fudge(fact)

	switch p := pattern.(type) {
	case nil:
		if fact == nil {
			return []Bindings{bs}, nil
		}
		return nil, nil

	case bool:
		if f, is := fact.(bool); is && f == p {
			return []Bindings{bs}, nil
		}
		return nil, nil

	case float64:
		if f, is := fact.(float64); is && f == p {
			return []Bindings{bs}, nil
		}
		return nil, nil

	case string:
		if !t.IsVariable(p) {
			if f, is := fact.(string); is && f == p {
				return []Bindings{bs}, nil
			}
			return nil, nil
		}
		if t.IsAnonymousVariable(p) {
			return []Bindings{bs}, nil
		}
		if using, bss := t.inequal(fact, bs, p); using {
			return bss, nil
		}
		if x, found := bs[p]; found {
			return t.match(x, fact, bs)
		}
		bs[p] = fact
		return []Bindings{bs}, nil

	case map[string]interface{}:
		f, is := fact.(map[string]interface{})
		if !is {
			return nil, nil
		}
		return t.mapMatch(bs, p, f)

	case []interface{}:
		f, is := fact.([]interface{})
		if !is {
			return nil, nil
		}
		return t.arrayMatch(bs, p, f)

	default:
		return nil, &UnknownPatternType{pattern}
	}
}

// mapMatch matches a map pattern against a map fact.
//
// Every required property must be present; otherwise the match fails
// and the trial notes the absence.  Properties are then matched in
// sorted order so that results are deterministic.
func (t *trial) mapMatch(bs Bindings, pattern, fact map[string]interface{}) ([]Bindings, error) {
	if len(pattern) == 0 {
		return []Bindings{bs}, nil
	}

	keys := make([]string, 0, len(pattern))
	for k := range pattern {
		if t.IsVariable(k) {
			if !t.AllowPropertyVariables {
				return nil, errors.New(`can't have a variable as a key ("` + k + `")`)
			}
			if 1 < len(pattern) {
				return nil, errors.New(`can't have a variable as a key ("` + k + `") with other keys`)
			}
			return t.propertyVariableMatch(bs, k, pattern[k], fact)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, have := fact[k]; !have && !t.IsOptionalVariable(pattern[k]) {
			t.absent = true
			return nil, nil
		}
	}

	bss := []Bindings{bs}
	for _, k := range keys {
		fv, have := fact[k]
		if !have {
			continue
		}
		acc := make([]Bindings, 0, len(bss))
		for _, bs := range bss {
			more, err := t.match(pattern[k], fv, bs.Copy())
			if err != nil {
				return nil, err
			}
			acc = append(acc, more...)
		}
		if len(acc) == 0 {
			return nil, nil
		}
		bss = acc
	}
	return bss, nil
}

// propertyVariableMatch handles {"?p":v}, which matches any property
// whose value matches v.
func (t *trial) propertyVariableMatch(bs Bindings, k string, v interface{}, fact map[string]interface{}) ([]Bindings, error) {
	fks := make([]string, 0, len(fact))
	for fk := range fact {
		fks = append(fks, fk)
	}
	sort.Strings(fks)

	var acc []Bindings
	for _, fk := range fks {
		kbss, err := t.match(k, fk, bs.Copy())
		if err != nil {
			return nil, err
		}
		for _, kbs := range kbss {
			vbss, err := t.match(v, fact[fk], kbs)
			if err != nil {
				return nil, err
			}
			acc = append(acc, vbss...)
		}
	}
	return acc, nil
}

// arrayMatch treats the pattern as a set.
//
// Each element of the pattern that isn't a variable must match a
// distinct element of the fact.  The pattern can also contain one
// variable, which then matches one of the remaining elements (or
// none, if the variable is optional).  The result can have several
// Bindings since there can be several ways to match.
func (t *trial) arrayMatch(bs Bindings, pattern, fact []interface{}) ([]Bindings, error) {
	var v string
	elems := make([]interface{}, 0, len(pattern))
	for _, x := range pattern {
		if s, is := x.(string); is && t.IsVariable(s) {
			if v != "" {
				return nil, errors.New("multiple variables not supported in an array")
			}
			v = s
			continue
		}
		elems = append(elems, x)
	}

	used := make([]bool, len(fact))
	var acc []Bindings

	var walk func(i int, bs Bindings) error
	walk = func(i int, bs Bindings) error {
		if i < len(elems) {
			for j, f := range fact {
				if used[j] {
					continue
				}
				bss, err := t.match(elems[i], f, bs.Copy())
				if err != nil {
					return err
				}
				used[j] = true
				for _, more := range bss {
					if err = walk(i+1, more); err != nil {
						return err
					}
				}
				used[j] = false
			}
			return nil
		}

		if v == "" {
			acc = append(acc, bs)
			return nil
		}

		found := false
		for j, f := range fact {
			if used[j] {
				continue
			}
			bss, err := t.match(v, f, bs.Copy())
			if err != nil {
				return err
			}
			if 0 < len(bss) {
				found = true
				acc = append(acc, bss...)
			}
		}
		if !found && t.IsOptionalVariable(v) {
			acc = append(acc, bs)
		}
		return nil
	}

	if err := walk(0, bs); err != nil {
		return nil, err
	}
	return acc, nil
}

// inequal handles inequality variables (see Matcher.Inequalities).
//
// Returns false if the variable isn't being used as an inequality.
func (t *trial) inequal(fact interface{}, bs Bindings, v string) (bool, []Bindings) {
	if !t.Inequalities || len(v) < 3 {
		return false, nil
	}

	x, have := bs[v]
	if !have {
		return false, nil
	}
	b, is := fudge(x).(float64)
	if !is {
		return false, nil
	}
	a, is := fudge(fact).(float64)
	if !is {
		return false, nil
	}

	var ineq, vv string
	for _, ie := range []string{"<=", ">=", "!=", ">", "<"} {
		if strings.HasPrefix(v[1:], ie) {
			ineq = ie
			vv = "?" + v[1+len(ie):]
			break
		}
	}
	if ineq == "" || vv == "?" {
		return false, nil
	}

	var satisfied bool
	switch ineq {
	case "<":
		satisfied = a < b
	case "<=":
		satisfied = a <= b
	case ">":
		satisfied = a > b
	case ">=":
		satisfied = a >= b
	case "!=":
		satisfied = a != b
	}

	if !satisfied {
		return true, nil
	}

	if x, given := bs[vv]; given {
		if c, is := fudge(x).(float64); !is || c != a {
			return true, nil
		}
		return true, []Bindings{bs}
	}

	bs[vv] = a
	return true, []Bindings{bs}
}
