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
	"testing"

	. "github.com/Comcast/chatter/util/testutil"
)

func TestConditionEmptyMatchesEverything(t *testing.T) {
	c := NewCondition("anything")
	for _, x := range []interface{}{nil, "yes", 1, Dwimjs(`{"a":1}`)} {
		ok, err := c.Matches(x)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("%s should match", JS(x))
		}
	}
}

func TestConditionConjunction(t *testing.T) {
	calls := 0
	counting := func(want bool) *Filter {
		return NewFilter("counting", Pred(func(x interface{}) bool {
			calls++
			return want
		}))
	}

	tests := []struct {
		name  string
		fs    []*Filter
		want  bool
		calls int
	}{
		{"all pass", []*Filter{counting(true), counting(true)}, true, 2},
		{"first fails", []*Filter{counting(false), counting(true)}, false, 1},
		{"last fails", []*Filter{counting(true), counting(false)}, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = 0
			c := NewCondition(tt.name, tt.fs...)
			ok, err := c.Matches("x")
			if err != nil {
				t.Fatal(err)
			}
			if ok != tt.want {
				t.Fatalf("got %v", ok)
			}
			if calls != tt.calls {
				t.Fatalf("calls %d", calls)
			}
		})
	}
}

func TestConditionAddFilter(t *testing.T) {
	c := NewCondition("yes", Equals("yes"))
	c.AddFilter(NewFilter("never", Pred(func(interface{}) bool { return false })))
	if len(c.Filters) != 2 {
		t.Fatal(len(c.Filters))
	}
	if ok, _ := c.Matches("yes"); ok {
		t.Fatal("shouldn't match")
	}
}

func TestConditionTerminalValue(t *testing.T) {
	ctx := context.Background()

	c := NewCondition("plain")
	if c.IsTerminal() {
		t.Fatal("shouldn't be terminal")
	}
	if x, err := c.TerminalValue("x"); x != nil || err != nil {
		t.Fatal(x, err)
	}

	c.Returning(false)
	if !c.IsTerminal() {
		t.Fatal("should be terminal")
	}
	if x, _ := c.TerminalValue("x"); x != false {
		t.Fatal(x)
	}

	c.ResolvingWith(func(x interface{}) (interface{}, error) {
		return JS(x), nil
	})
	if x, _ := c.TerminalValue("hi"); x != `"hi"` {
		t.Fatal(x)
	}

	if err := c.Trigger(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	r := NewRecorder()
	c.Then(r.Callback("c"))
	if err := c.Trigger(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if r.Count("c") != 1 {
		t.Fatal(r.Count("c"))
	}
	if err := c.Then(Failing("c")).Trigger(ctx, "x"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestConditionString(t *testing.T) {
	c := NewCondition("yes", Equals("yes")).Returning(true)
	if s := c.String(); s != `Condition(yes, filters=[Filter("content == yes")], terminal)` {
		t.Fatal(s)
	}
}
