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

package interpreters

import (
	"context"
	"testing"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/util/testutil"
)

func TestStandard(t *testing.T) {
	is := Standard()
	srcs := map[string]string{
		"goja":       `msg.text == "yes"`,
		"ecmascript": `msg.text == "yes"`,
		"expr":       `msg.text == "yes"`,
		"pattern":    `{"text":"yes"}`,
		"noop":       ``,
	}
	msg := testutil.Dwimjs(`{"text":"yes"}`)
	for name, src := range srcs {
		i, err := is.Find(name)
		if err != nil {
			t.Fatal(err)
		}
		p, err := i.CompilePredicate(context.Background(), src)
		if err != nil {
			t.Fatalf("%s: %s", name, err)
		}
		v, err := p(msg)
		if err != nil {
			t.Fatalf("%s: %s", name, err)
		}
		if v != core.Matched {
			t.Fatalf("%s: %s", name, v)
		}
	}

	if _, err := is.Find("cobol"); err == nil {
		t.Fatal("cobol?")
	}
}
