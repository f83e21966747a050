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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/interpreters"
	"github.com/Comcast/chatter/sio"
	"github.com/stretchr/testify/require"
)

func TestParseFile(t *testing.T) {
	p, err := ParseFile("testdata/confirm.yaml")
	require.NoError(t, err)
	require.Equal(t, "confirm", p.Name)
	require.Len(t, p.Conditions, 3)
	require.Equal(t, "yes", p.Conditions[0].Label)
	require.True(t, p.Conditions[0].IsTerminal())
	require.True(t, p.Conditions[1].IsTerminal())
	require.False(t, p.Conditions[2].IsTerminal())
	require.Len(t, p.Forks, 1)
	require.True(t, p.Forks[0].Exclusive)
	require.Nil(t, p.Forks[0].QuickStop)
	require.True(t, p.Forks[0].IsQuickStop())
	require.Equal(t, "0 * * * * * *", p.Timers["reminder"])
	require.Equal(t, 5*time.Second, p.WaitConf().Timeout)

	_, err = ParseFile("testdata/nope.yaml")
	require.Error(t, err)
}

func TestParseJSON(t *testing.T) {
	p, err := Parse([]byte(` {"name":"j","timeout":0,"conditions":[{"label":"any","terminal":true}]}`))
	require.NoError(t, err)
	require.Equal(t, "j", p.Name)
	require.Equal(t, time.Duration(0), p.WaitConf().Timeout)
	require.True(t, p.Conditions[0].IsTerminal())

	p, err = Parse([]byte(`name: defaults`))
	require.NoError(t, err)
	require.Equal(t, core.DefaultWaitConf.Timeout, p.WaitConf().Timeout)

	_, err = Parse([]byte("  \n"))
	require.Error(t, err)
	_, err = Parse([]byte(`{"name":`))
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := ParseFile("testdata/confirm.yaml")
	require.NoError(t, err)

	q := sio.NewQueue()
	c, err := p.Compile(ctx, interpreters.Standard(), q)
	require.NoError(t, err)
	require.Len(t, c.Conditions, 3)
	require.Len(t, c.Forks, 1)

	q.Push(map[string]interface{}{"text": "maybe"})
	q.Push(map[string]interface{}{"stars": 4.0})
	q.Push(map[string]interface{}{"command": "/done", "from": "homer"})
	q.Push(map[string]interface{}{"stars": 5.0})
	q.Push(map[string]interface{}{"text": "YES"})
	q.Push(map[string]interface{}{"text": "no"})

	forks := core.NewForks()
	o, err := c.RunWith(ctx, q, forks)
	require.NoError(t, err)
	require.False(t, o.TimedOut)
	require.Equal(t, true, o.Value)
	require.Equal(t, "yes", o.Condition.Label)

	require.Equal(t, []interface{}{
		map[string]interface{}{"text": "Please answer yes or no.", "heard": "maybe"},
		map[string]interface{}{"text": "Thanks for the stars."},
		map[string]interface{}{"text": "Great!"},
	}, q.Emitted())

	f, err := forks.Get("survey")
	require.NoError(t, err)
	require.True(t, f.Done())
	require.Equal(t, map[string]interface{}{"done": true, "by": "homer"}, f.Result())
}

func TestRunTimeout(t *testing.T) {
	ctx := context.Background()
	p, err := Parse([]byte(`{"timeout":0.1,"conditions":[{"text":"yes","result":true}]}`))
	require.NoError(t, err)
	c, err := p.Compile(ctx, interpreters.Standard(), nil)
	require.NoError(t, err)
	c.Conf.TransportInterval = 10 * time.Millisecond
	c.Conf.Pause = 10 * time.Millisecond

	o, err := c.Run(ctx, sio.NewQueue())
	require.NoError(t, err)
	require.True(t, o.TimedOut)
}

func TestSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := ParseFile("testdata/confirm.yaml")
	require.NoError(t, err)
	ts := sio.NewTimers(sio.NewQueue())
	require.NoError(t, p.Schedule(ctx, ts))
	require.Equal(t, []string{"reminder"}, ts.Pending())
	require.NoError(t, ts.Stop(ctx))

	p.Timers["bad"] = "never ever"
	require.Error(t, p.Schedule(ctx, sio.NewTimers(sio.NewQueue())))
}

func TestCompileErrors(t *testing.T) {
	ctx := context.Background()
	is := interpreters.Standard()

	p, err := Parse([]byte(`{"conditions":[{"script":{"interpreter":"cobol","source":"MOVE"}}]}`))
	require.NoError(t, err)
	_, err = p.Compile(ctx, is, nil)
	var ui *core.UnknownInterpreter
	require.True(t, errors.As(err, &ui), "got %v", err)
	require.Equal(t, "cobol", ui.Name)

	p, err = Parse([]byte(`{"conditions":[{"script":{"source":"true"}}]}`))
	require.NoError(t, err)
	_, err = p.Compile(ctx, is, nil)
	require.Error(t, err)

	p, err = Parse([]byte(`{"conditions":[{"text":"hi","emit":[{"text":"hello"}]}]}`))
	require.NoError(t, err)
	_, err = p.Compile(ctx, is, nil)
	require.Error(t, err)

	p, err = Parse([]byte(`{"forks":[{"id":"f","conditions":[{"text":"a"}]}]}`))
	require.NoError(t, err)
	_, err = p.Compile(ctx, is, nil)
	require.Error(t, err)

	// A terminal condition inside a fork.
	p, err = Parse([]byte(`{"forks":[{"id":"f","conditions":[{"text":"a","result":1}],"completed":{"text":"b"}}]}`))
	require.NoError(t, err)
	c, err := p.Compile(ctx, is, nil)
	require.NoError(t, err)
	_, err = c.Run(ctx, sio.NewQueue())
	var bf *core.BadFork
	require.True(t, errors.As(err, &bf), "got %v", err)

	p, err = Parse([]byte(`{"conditions":[{"script":{"interpreter":"goja","source":"msg.text =="}}]}`))
	require.NoError(t, err)
	_, err = p.Compile(ctx, is, nil)
	require.Error(t, err)
}
