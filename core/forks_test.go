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
	"errors"
	"reflect"
	"testing"
	"time"

	. "github.com/Comcast/chatter/util/testutil"
)

func doneSpec(id, done string, result interface{}) *ForkSpec {
	return &ForkSpec{
		Id:        id,
		Completed: NewCondition(done, Equals(done)).Returning(result),
	}
}

func TestForksAttachDetachGet(t *testing.T) {
	fs := NewForks()

	id, err := fs.Attach(doneSpec("", "done", true))
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}
	if _, err = fs.Attach(doneSpec("survey", "done", true)); err != nil {
		t.Fatal(err)
	}

	var dup *DuplicateFork
	if _, err = fs.Attach(doneSpec("survey", "done", true)); !errors.As(err, &dup) {
		t.Fatalf("expected a *DuplicateFork, got %v", err)
	}

	var bad *BadFork
	if _, err = fs.Attach(&ForkSpec{Id: "bad", Completed: NewCondition("x")}); !errors.As(err, &bad) {
		t.Fatalf("expected a *BadFork, got %v", err)
	}

	if fs.Len() != 2 {
		t.Fatal(fs.Len())
	}

	f, err := fs.Get("survey")
	if err != nil {
		t.Fatal(err)
	}
	if f.Id != "survey" {
		t.Fatal(f.Id)
	}

	if err = fs.Detach("survey"); err != nil {
		t.Fatal(err)
	}

	var unknown *UnknownFork
	if err = fs.Detach("survey"); !errors.As(err, &unknown) {
		t.Fatalf("expected an *UnknownFork, got %v", err)
	}
	if _, err = fs.Get("survey"); !errors.As(err, &unknown) {
		t.Fatalf("expected an *UnknownFork, got %v", err)
	}
	if !reflect.DeepEqual(fs.Ids(), []string{id}) {
		t.Fatal(fs.Ids())
	}
}

func TestForksDispatchIsolation(t *testing.T) {
	ctx := context.Background()
	fs := NewForks()
	r := NewRecorder()

	for _, id := range []string{"a", "b", "c"} {
		spec := doneSpec(id, "done", id)
		spec.QuickStop = Bool(false)
		switch id {
		case "b":
			spec.Conditions = []*Condition{NewCondition("b", Equals("done")).Then(Failing("b"))}
		case "c":
			spec.Conditions = []*Condition{
				NewCondition("c", NewFilter("panics", Pred(func(interface{}) bool { panic("oops") }))),
			}
		default:
			spec.Conditions = []*Condition{NewCondition(id, Equals("done")).Then(r.Callback(id))}
		}
		if _, err := fs.Attach(spec); err != nil {
			t.Fatal(err)
		}
	}

	err := fs.Dispatch(ctx, update("done"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if r.Count("a") != 1 {
		t.Fatal("a should have seen the message")
	}
	a, _ := fs.Get("a")
	if !a.Done() {
		t.Fatal("a should be done")
	}
	b, _ := fs.Get("b")
	if b.Done() {
		t.Fatal("b shouldn't be done")
	}

	if pruned := fs.Prune(); !reflect.DeepEqual(pruned, []string{"a"}) {
		t.Fatal(pruned)
	}
	if fs.Len() != 2 {
		t.Fatal(fs.Len())
	}
}

func TestForksReplace(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fs := NewForks()
	if _, err := fs.Attach(doneSpec("f", "old", "old")); err != nil {
		t.Fatal(err)
	}
	old, _ := fs.Get("f")

	woke := make(chan interface{}, 1)
	go func() {
		x, err := old.BlockUntilDone(ctx)
		if err != nil {
			woke <- err
			return
		}
		woke <- x
	}()

	time.Sleep(20 * time.Millisecond)

	if err := fs.Replace("f", doneSpec("ignored", "new", "new")); err != nil {
		t.Fatal(err)
	}
	current, _ := fs.Get("f")
	if current == old || current.Id != "f" {
		t.Fatal("replace didn't replace")
	}
	if old.Substitute() != current {
		t.Fatal("old fork should point to the new one")
	}

	// The old completion doesn't matter anymore.
	if err := fs.Dispatch(ctx, update("old")); err != nil {
		t.Fatal(err)
	}
	select {
	case x := <-woke:
		t.Fatalf("woke too early: %v", x)
	case <-time.After(50 * time.Millisecond):
	}

	if err := fs.Dispatch(ctx, update("new")); err != nil {
		t.Fatal(err)
	}
	select {
	case x := <-woke:
		if x != "new" {
			t.Fatal(x)
		}
	case <-ctx.Done():
		t.Fatal("waiter never woke up")
	}

	var unknown *UnknownFork
	if err := fs.Replace("nope", doneSpec("", "x", 1)); !errors.As(err, &unknown) {
		t.Fatalf("expected an *UnknownFork, got %v", err)
	}
}

func TestForksReplaceChain(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fs := NewForks()
	if _, err := fs.Attach(doneSpec("f", "zero", 0)); err != nil {
		t.Fatal(err)
	}
	first, _ := fs.Get("f")

	woke := make(chan interface{}, 1)
	go func() {
		x, _ := first.BlockUntilDone(ctx)
		woke <- x
	}()

	for i, done := range []string{"one", "two", "three"} {
		time.Sleep(10 * time.Millisecond)
		if err := fs.Replace("f", doneSpec("", done, i+1)); err != nil {
			t.Fatal(err)
		}
	}

	if err := fs.Dispatch(ctx, update("three")); err != nil {
		t.Fatal(err)
	}
	select {
	case x := <-woke:
		if x != 3 {
			t.Fatal(x)
		}
	case <-ctx.Done():
		t.Fatal("waiter never woke up")
	}
}

func TestForksQuickStopDefaults(t *testing.T) {
	ctx := context.Background()
	fs := NewForks()
	r := NewRecorder()

	catchAll := func(id string) *ForkSpec {
		return &ForkSpec{
			Id: id,
			Conditions: []*Condition{
				NewCondition("branch").Then(r.Callback(id + " branch")),
			},
			Completed: NewCondition("end", Equals("end")).Returning(id).Then(r.Callback(id + " completed")),
		}
	}

	if _, err := fs.Attach(catchAll("attached")); err != nil {
		t.Fatal(err)
	}
	attached, _ := fs.Get("attached")
	if !attached.QuickStop {
		t.Fatal("attached forks should quick-stop by default")
	}

	if _, err := fs.Attach(catchAll("replaced")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Replace("replaced", catchAll("")); err != nil {
		t.Fatal(err)
	}
	replaced, _ := fs.Get("replaced")
	if replaced.QuickStop {
		t.Fatal("replacements shouldn't quick-stop by default")
	}

	if err := fs.Dispatch(ctx, update("end")); err != nil {
		t.Fatal(err)
	}
	if r.Count("attached branch") != 0 || r.Count("attached completed") != 1 {
		t.Fatalf("%s", JS(r.Seen))
	}
	// The replacement was built from a spec with an empty id, so
	// its callbacks are tagged with "".
	if r.Count(" branch") != 1 || r.Count(" completed") != 0 {
		t.Fatalf("%s", JS(r.Seen))
	}
	if !attached.Done() || !replaced.Done() {
		t.Fatal("both should be done")
	}

	spec := catchAll("")
	spec.QuickStop = Bool(true)
	if err := fs.Replace("replaced", spec); err != nil {
		t.Fatal(err)
	}
	if f, _ := fs.Get("replaced"); !f.QuickStop {
		t.Fatal("an explicit QuickStop should win")
	}
}
