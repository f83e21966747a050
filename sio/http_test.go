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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chatServer is a tiny getUpdates-style server.
type chatServer struct {
	sync.Mutex
	updates []*HTTPUpdate
	sent    []interface{}
	cookies int
}

func (s *chatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()

	if _, err := r.Cookie("session"); err == nil {
		s.cookies++
	}
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "42"})

	switch r.Method {
	case "POST":
		bs, _ := io.ReadAll(r.Body)
		var x interface{}
		if err := json.Unmarshal(bs, &x); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.sent = append(s.sent, x)
		return
	}

	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	acc := make([]*HTTPUpdate, 0, len(s.updates))
	for _, u := range s.updates {
		if offset <= u.Id {
			acc = append(acc, u)
		}
	}
	json.NewEncoder(w).Encode(&HTTPUpdates{Updates: acc})
}

func TestHTTPPoll(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cs := &chatServer{
		updates: []*HTTPUpdate{
			{Id: 10, Content: map[string]interface{}{"text": "hi"}},
			{Id: 11, Content: "yes"},
		},
	}
	server := httptest.NewServer(cs)
	defer server.Close()

	c, err := NewHTTPPoller(server.URL + "/updates")
	require.NoError(t, err)
	c.SendURL = server.URL + "/send"

	n, err := c.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, int64(12), c.Offset())

	// Nothing new.
	n, err = c.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	us, err := c.Updates(ctx)
	require.NoError(t, err)
	require.Len(t, us, 2)
	require.Equal(t, "10", us[0].Id)
	require.Equal(t, "yes", us[1].Content)

	require.NoError(t, c.Emit(ctx, map[string]interface{}{"text": "thanks"}))

	cs.Lock()
	defer cs.Unlock()
	require.Equal(t, []interface{}{map[string]interface{}{"text": "thanks"}}, cs.sent)
	// The jar sent the cookie back.
	require.Equal(t, 2, cs.cookies)
}

func TestHTTPPollerStart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cs := &chatServer{
		updates: []*HTTPUpdate{{Id: 1, Content: "yes"}},
	}
	server := httptest.NewServer(cs)
	defer server.Close()

	c, err := NewHTTPPoller(server.URL)
	require.NoError(t, err)
	c.Pause = 10 * time.Millisecond
	require.NoError(t, c.Start(ctx))

	require.Eventually(t, func() bool {
		return c.Queue.Len() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Stop(ctx))
	require.Equal(t, 1, c.Queue.Len())
}

func TestHTTPPollBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	defer server.Close()

	c, err := NewHTTPPoller(server.URL)
	require.NoError(t, err)
	_, err = c.Poll(context.Background())
	require.Error(t, err)

	require.Error(t, c.Emit(context.Background(), "hi"))
}
