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
	"reflect"
	"strings"
	"testing"

	"github.com/Comcast/chatter/interpreters"
	"github.com/Comcast/chatter/plan"
)

func TestAnalyzeConfirm(t *testing.T) {
	a := Analyze(confirmPlan(t), interpreters.Standard())
	if !a.OK() {
		t.Fatal(a.Errors)
	}
	if a.Conditions != 3 || a.Terminals != 2 || a.Forks != 1 || a.Timers != 1 {
		t.Fatalf("%#v", a)
	}
	if !reflect.DeepEqual(a.Interpreters, []string{"expr", "goja"}) {
		t.Fatal(a.Interpreters)
	}
	if len(a.Warnings) != 0 {
		t.Fatal(a.Warnings)
	}
}

func TestAnalyzeProblems(t *testing.T) {
	p, err := plan.Parse([]byte(`
conditions:
  - label: anything
  - label: unreachable
    text: hi
    script: {interpreter: cobol, source: MOVE}
forks:
  - id: f
    conditions:
      - label: stop
        text: stop
        result: 1
  - id: f
    completed:
      text: done
timers:
  bad: never
`))
	if err != nil {
		t.Fatal(err)
	}
	a := Analyze(p, interpreters.Standard())
	if a.OK() {
		t.Fatal("expected errors")
	}

	want := []string{
		"cobol",
		"fork 0 (f) condition 0 (stop) is terminal",
		"fork 0 (f) has no completed condition",
		"fork 1 (f): duplicate id",
		"timer bad",
	}
	all := strings.Join(a.Errors, "\n")
	for _, w := range want {
		if !strings.Contains(all, w) {
			t.Fatalf("missing %q in\n%s", w, all)
		}
	}

	// A non-terminal catch-all doesn't keep later conditions from
	// matching.
	warnings := strings.Join(a.Warnings, "\n")
	if strings.Contains(warnings, "matches everything") || !strings.Contains(warnings, "no terminal") {
		t.Fatal(warnings)
	}

	// Without interpreters, unknown names aren't errors.
	a = Analyze(p, nil)
	if strings.Contains(strings.Join(a.Errors, "\n"), "cobol") {
		t.Fatal(a.Errors)
	}
	if !reflect.DeepEqual(a.Interpreters, []string{"cobol"}) {
		t.Fatal(a.Interpreters)
	}
}

func TestAnalyzeTerminalCatchAll(t *testing.T) {
	p, err := plan.Parse([]byte(`
conditions:
  - label: whatever
    result: 0
  - label: never
    text: hi
    result: 1
`))
	if err != nil {
		t.Fatal(err)
	}
	a := Analyze(p, nil)
	if !a.OK() {
		t.Fatal(a.Errors)
	}
	if len(a.Warnings) != 1 || !strings.Contains(a.Warnings[0], "condition 0 (whatever) is terminal and matches everything") {
		t.Fatal(a.Warnings)
	}
}
