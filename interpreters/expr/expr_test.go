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

package expr

import (
	"context"
	"errors"
	"testing"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/util/testutil"
	"github.com/stretchr/testify/require"
)

func TestPredicate(t *testing.T) {
	ctx := context.Background()
	i := NewInterpreter()

	p, err := i.CompilePredicate(ctx, `msg.text == "yes" && msg.n > 2`)
	require.NoError(t, err)

	v, err := p(testutil.Dwimjs(`{"text":"yes","n":3}`))
	require.NoError(t, err)
	require.Equal(t, core.Matched, v)

	v, err = p(testutil.Dwimjs(`{"text":"yes","n":1}`))
	require.NoError(t, err)
	require.Equal(t, core.NotMatched, v)
}

func TestPredicateAbsent(t *testing.T) {
	p, err := NewInterpreter().CompilePredicate(context.Background(), `msg.chat.id == 42`)
	require.NoError(t, err)

	_, err = p(testutil.Dwimjs(`{"text":"yes"}`))
	require.True(t, errors.Is(err, core.ErrAbsent), "got %v", err)

	ok, err := core.NewFilter("chat 42", p).EvaluateContent(testutil.Dwimjs(`{"text":"yes"}`))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPredicateNotBool(t *testing.T) {
	p, err := NewInterpreter().CompilePredicate(context.Background(), `msg.n + 1`)
	require.NoError(t, err)

	_, err = p(testutil.Dwimjs(`{"n":1}`))
	require.Error(t, err)
	require.False(t, errors.Is(err, core.ErrAbsent))
}

func TestCompileError(t *testing.T) {
	_, err := NewInterpreter().CompilePredicate(context.Background(), `msg.text ==`)
	require.Error(t, err)
}

func TestResolver(t *testing.T) {
	r, err := NewInterpreter().CompileResolver(context.Background(), `upper(msg.text)`)
	require.NoError(t, err)

	x, err := r(testutil.Dwimjs(`{"text":"yes"}`))
	require.NoError(t, err)
	require.Equal(t, "YES", x)
}
