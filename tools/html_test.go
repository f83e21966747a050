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
	"strings"
	"testing"
)

func TestRenderPlanPage(t *testing.T) {
	var buf bytes.Buffer
	if err := ReadAndRenderPlanPage("../plan/testdata/confirm.yaml", nil, &buf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, want := range []string{
		"<title>confirm</title>",
		"/static/plan-html.css",
		"<strong>yes</strong>",
		`<div class="fork" id="survey">`,
		"exclusive: true, quickStop: true",
		"msg.stars != nil &amp;&amp; msg.stars &gt;= 1",
		"&#34;Great!&#34;",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in\n%s", want, s)
		}
	}
}

func TestRenderPlanPageMissing(t *testing.T) {
	var buf bytes.Buffer
	if err := ReadAndRenderPlanPage("nope.yaml", nil, &buf); err == nil {
		t.Fatal("expected an error")
	}
}
