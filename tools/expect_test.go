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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Comcast/chatter/interpreters"
)

func TestSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := ReadSession("testdata/confirm-session.yaml")
	if err != nil {
		t.Fatal(err)
	}
	r, err := s.Run(ctx, confirmPlan(t), interpreters.Standard())
	if err != nil {
		t.Fatal(err)
	}
	if r.Outcome.TimedOut {
		t.Fatal("timed out")
	}
	if len(r.Emitted) != 3 {
		t.Fatal(r.Emitted)
	}
	if bs := s.OutputSet[0].Bindingss; len(bs) != 1 || bs[0]["?heard"] != "maybe" {
		t.Fatal(bs)
	}
}

func TestSessionFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := ParseSession([]byte(`{
  "inputs": [{"text": "no"}],
  "outputSet": [{"pattern": {"text": "Great!"}}],
  "want": {"condition": "yes", "value": true}
}`))
	if err != nil {
		t.Fatal(err)
	}
	r, err := s.Run(ctx, confirmPlan(t), interpreters.Standard())
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("got %v", err)
	}
	// Nothing emitted, wrong condition, and wrong value.
	if len(f.Problems) != 3 {
		t.Fatal(f.Problems)
	}
	if r == nil || r.Outcome.Condition.Label != "no" {
		t.Fatal(r)
	}
}

func TestSessionTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := ParseSession([]byte(`
inputs:
  - text: hmm
timeout: 0.2
want:
  timedOut: true
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.Run(ctx, confirmPlan(t), interpreters.Standard()); err != nil {
		t.Fatal(err)
	}
}
