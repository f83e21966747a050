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

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/match"
	"github.com/Comcast/chatter/plan"
	"github.com/Comcast/chatter/sio"
	"github.com/Comcast/chatter/util"

	"github.com/jsccast/yaml"
)

// Output is a specification for a message that's expected.
type Output struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Pattern must be matched by an emitted message.
	Pattern interface{} `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Bindingss is written during processing.  Just for
	// diagnostics.
	Bindingss []match.Bindings `json:"-" yaml:"-"`
}

// Want describes the outcome a Session expects.
type Want struct {
	TimedOut bool `json:"timedOut,omitempty" yaml:"timedOut,omitempty"`

	// Condition is the label of the terminal condition that
	// should match.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Value, if given, is a pattern the resolved value must
	// match.
	Value interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

// Session is a sequence of inputs for a plan along with the messages
// the plan should emit (in any order) and how the wait should end.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	Inputs []interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// OutputSet is the set (not a list) of outputs to verify.
	OutputSet []Output `json:"outputSet,omitempty" yaml:"outputSet,omitempty"`

	Want *Want `json:"want,omitempty" yaml:"want,omitempty"`

	// Timeout, if not nil, overrides the plan's timeout.
	Timeout *float64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// ParseSession reads a Session in JSON or YAML.
func ParseSession(bs []byte) (*Session, error) {
	var s Session
	trimmed := bytes.TrimSpace(bs)
	if 0 < len(trimmed) && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadSession reads and parses the given file.
func ReadSession(filename string) (*Session, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	s, err := ParseSession(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// Failure is a Session that didn't go as expected.
type Failure struct {
	Problems []string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("session failed: %v", f.Problems)
}

// Report is what happened during a Session run.
type Report struct {
	Outcome *core.Outcome
	Emitted []interface{}
}

// Run compiles the plan with the given interpreters, feeds the
// Session's inputs to it, and checks the results.
//
// A Session that didn't go as expected results in a *Failure.  The
// Report is returned in any case when the plan ran.
func (s *Session) Run(ctx context.Context, p *plan.Plan, is core.InterpretersMap) (*Report, error) {
	q := sio.NewQueue()
	c, err := p.Compile(ctx, is, q)
	if err != nil {
		return nil, err
	}
	if s.Timeout != nil {
		c.Conf.Timeout = plan.Seconds(*s.Timeout)
	}

	for _, in := range s.Inputs {
		if s.Verbose {
			util.Logf("expect input %s", util.JS(in))
		}
		q.Push(in)
	}

	o, err := c.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	r := &Report{
		Outcome: o,
		Emitted: q.Emitted(),
	}

	var problems []string
	for i := range s.OutputSet {
		out := &s.OutputSet[i]
		out.Bindingss = nil
		for _, msg := range r.Emitted {
			bss, err := match.Match(out.Pattern, msg, match.NewBindings())
			if err != nil {
				return r, err
			}
			if 0 < len(bss) {
				if s.Verbose {
					util.Logf("expect output %s matched %s", util.JS(out.Pattern), util.JS(msg))
				}
				out.Bindingss = bss
				break
			}
		}
		if out.Bindingss == nil {
			problems = append(problems, fmt.Sprintf("nothing emitted matched %s", util.JS(out.Pattern)))
		}
	}

	if w := s.Want; w != nil {
		switch {
		case w.TimedOut != o.TimedOut:
			problems = append(problems, fmt.Sprintf("wanted timedOut=%v", w.TimedOut))
		case o.TimedOut:
		default:
			if w.Condition != "" && w.Condition != o.Condition.Label {
				problems = append(problems, fmt.Sprintf("wanted condition %q but got %q", w.Condition, o.Condition.Label))
			}
			if w.Value != nil {
				v, err := core.Canonicalize(o.Value)
				if err != nil {
					return r, err
				}
				bss, err := match.Match(w.Value, v, match.NewBindings())
				if err != nil {
					return r, err
				}
				if len(bss) == 0 {
					problems = append(problems, fmt.Sprintf("value %s didn't match %s", util.JS(o.Value), util.JS(w.Value)))
				}
			}
		}
	}

	if 0 < len(problems) {
		return r, &Failure{Problems: problems}
	}
	return r, nil
}
