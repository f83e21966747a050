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

package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInline(t *testing.T) {
	input := `
I like %inline("tacos"), and
I also like %inline("queso").
Both are delicious.
`
	want := `
I like TACOS, and
I also like QUESO.
Both are delicious.
`

	find := func(name string) ([]byte, error) {
		return []byte(strings.ToUpper(name)), nil
	}

	got, err := Inline([]byte(input), find)
	require.NoError(t, err)
	require.Equal(t, want, string(got))
}

func TestInlineIndented(t *testing.T) {
	input := "source: |\n    %inline(\"lib.js\")\nnext: 1\n"
	find := func(name string) ([]byte, error) {
		return []byte("var x = 1;\nx + 1\n"), nil
	}
	got, err := Inline([]byte(input), find)
	require.NoError(t, err)
	require.Equal(t, "source: |\n    var x = 1;\n    x + 1\nnext: 1\n", string(got))
}

func TestParseFileWithInline(t *testing.T) {
	p, err := ParseFile("testdata/inlined.yaml")
	require.NoError(t, err)
	require.Len(t, p.Conditions, 1)
	require.Equal(t, "var wanted = \"yes\";\nmsg.text == wanted", p.Conditions[0].Script.Source)
}
