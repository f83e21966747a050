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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocket(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	heard := make(chan string, 1)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"hi"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_, bs, err := conn.ReadMessage()
		if err != nil {
			return
		}
		heard <- string(bs)
		// Wait for the close.
		conn.ReadMessage()
	}))
	defer server.Close()

	c := NewWebSocket("ws" + strings.TrimPrefix(server.URL, "http"))
	require.Error(t, c.Emit(ctx, "too soon"))
	require.NoError(t, c.Start(ctx))

	require.Eventually(t, func() bool {
		return c.Queue.Len() == 2
	}, time.Second, 10*time.Millisecond)

	us, err := c.Updates(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"text": "hi"}, us[0].Content)
	require.Equal(t, "not json", us[1].Content)

	require.NoError(t, c.Emit(ctx, map[string]interface{}{"text": "thanks"}))
	select {
	case s := <-heard:
		require.Equal(t, `{"text":"thanks"}`, s)
	case <-ctx.Done():
		t.Fatal("server never heard")
	}

	require.NoError(t, c.Stop(ctx))
	select {
	case <-c.Closed:
	case <-ctx.Done():
		t.Fatal("read loop didn't end")
	}
}
