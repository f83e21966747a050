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
	"fmt"
	"sort"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/plan"

	"github.com/gorhill/cronexpr"
)

// PlanAnalysis has some basic facts about a plan along with problems
// that would make it fail (Errors) or behave strangely (Warnings).
type PlanAnalysis struct {
	Conditions   int      `json:"conditions"`
	Terminals    int      `json:"terminals"`
	Forks        int      `json:"forks"`
	Timers       int      `json:"timers"`
	Interpreters []string `json:"interpreters,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// OK reports whether there were no errors.
func (a *PlanAnalysis) OK() bool {
	return len(a.Errors) == 0
}

func (a *PlanAnalysis) errorf(format string, args ...interface{}) {
	a.Errors = append(a.Errors, fmt.Sprintf(format, args...))
}

func (a *PlanAnalysis) warnf(format string, args ...interface{}) {
	a.Warnings = append(a.Warnings, fmt.Sprintf(format, args...))
}

func unfiltered(c *plan.Condition) bool {
	return c.Pattern == nil && c.Script == nil && c.Text == ""
}

// Analyze looks over the plan.
//
// If interpreters isn't nil, every script's interpreter must be in
// it.
func Analyze(p *plan.Plan, interpreters core.InterpretersMap) *PlanAnalysis {
	a := &PlanAnalysis{
		Conditions: len(p.Conditions),
		Forks:      len(p.Forks),
		Timers:     len(p.Timers),
	}

	used := make(map[string]bool)
	script := func(where string, s *plan.Script) {
		if s == nil {
			return
		}
		if s.Interpreter == "" {
			a.errorf("%s: script has no interpreter", where)
			return
		}
		used[s.Interpreter] = true
		if interpreters != nil {
			if _, err := interpreters.Find(s.Interpreter); err != nil {
				a.errorf("%s: %s", where, err)
			}
		}
	}

	for i, c := range p.Conditions {
		where := fmt.Sprintf("condition %d (%s)", i, c.Label)
		script(where, c.Script)
		script(where, c.Resolve)
		if c.IsTerminal() {
			a.Terminals++
		}
		if unfiltered(c) && c.IsTerminal() && i < len(p.Conditions)-1 {
			a.warnf("%s is terminal and matches everything, so later conditions will never match", where)
		}
	}
	if a.Terminals == 0 {
		a.warnf("no terminal conditions, so the wait can only time out")
	}

	ids := make(map[string]bool)
	for i, f := range p.Forks {
		where := fmt.Sprintf("fork %d (%s)", i, f.Id)
		if f.Id != "" {
			if ids[f.Id] {
				a.errorf("%s: duplicate id", where)
			}
			ids[f.Id] = true
		}
		for k, c := range f.Conditions {
			cwhere := fmt.Sprintf("%s condition %d (%s)", where, k, c.Label)
			script(cwhere, c.Script)
			script(cwhere, c.Resolve)
			if c.IsTerminal() {
				a.errorf("%s is terminal", cwhere)
			}
		}
		if f.Completed == nil {
			a.errorf("%s has no completed condition", where)
		} else {
			script(where+" completed", f.Completed.Script)
			script(where+" completed", f.Completed.Resolve)
		}
	}

	names := make([]string, 0, len(p.Timers))
	for name := range p.Timers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := cronexpr.Parse(p.Timers[name]); err != nil {
			a.errorf("timer %s: %s", name, err)
		}
	}

	for name := range used {
		a.Interpreters = append(a.Interpreters, name)
	}
	sort.Strings(a.Interpreters)

	return a
}
