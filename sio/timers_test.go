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

package sio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimersAdd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue()
	ts := NewTimers(q)
	require.NoError(t, ts.Add(ctx, "soon", "ding", 20*time.Millisecond))
	require.NoError(t, ts.Add(ctx, "later", "dong", time.Hour))
	require.Equal(t, []string{"later", "soon"}, ts.Pending())

	require.Eventually(t, func() bool {
		return q.Len() == 1
	}, time.Second, 5*time.Millisecond)

	us, err := q.Updates(ctx)
	require.NoError(t, err)
	require.Equal(t, "ding", us[0].Content)

	require.Eventually(t, func() bool {
		return len(ts.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, ts.Cancel(ctx, "later"))
	require.Error(t, ts.Cancel(ctx, "later"))
	require.Empty(t, ts.Pending())
}

func TestTimersReplace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue()
	ts := NewTimers(q)
	require.NoError(t, ts.Add(ctx, "t", "first", 20*time.Millisecond))
	require.NoError(t, ts.Add(ctx, "t", "second", 30*time.Millisecond))

	time.Sleep(100 * time.Millisecond)
	us, err := q.Updates(ctx)
	require.NoError(t, err)
	require.Len(t, us, 1)
	require.Equal(t, "second", us[0].Content)
}

func TestTimersCron(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue()
	ts := NewTimers(q)

	// Every second.
	require.NoError(t, ts.AddCron(ctx, "tick", "* * * * * * *"))
	require.Error(t, ts.AddCron(ctx, "bad", "nope"))

	require.Eventually(t, func() bool {
		return 2 <= q.Len()
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, ts.Stop(ctx))
	require.Empty(t, ts.Pending())

	us, err := q.Updates(ctx)
	require.NoError(t, err)
	m, is := us[0].Content.(map[string]interface{})
	require.True(t, is)
	require.Equal(t, "tick", m["timer"])
	_, err = time.Parse(time.RFC3339, m["at"].(string))
	require.NoError(t, err)
}
