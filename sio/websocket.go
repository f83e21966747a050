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
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/util"

	"github.com/gorilla/websocket"
)

// WebSocket is a Couplings for a WebSocket client.
//
// Inbound text messages are parsed as JSON (and kept as strings if
// they aren't JSON).  Emitted messages are written as JSON.
type WebSocket struct {
	URL    string
	Header http.Header

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	Queue *Queue

	// Closed will be closed when the read loop ends.
	Closed chan struct{}

	// wmu serializes writes, which gorilla requires.
	wmu  sync.Mutex
	conn *websocket.Conn
}

func NewWebSocket(url string) *WebSocket {
	return &WebSocket{
		URL:    url,
		Queue:  NewQueue(),
		Closed: make(chan struct{}),
	}
}

// Start creates the WebSocket session and starts reading from it.
func (c *WebSocket) Start(ctx context.Context) error {
	d := c.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}

	util.Logf("wsconnect %s", c.URL)
	conn, _, err := d.DialContext(ctx, c.URL, c.Header)
	if err != nil {
		return err
	}
	c.conn = conn

	go func() {
		defer close(c.Closed)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, bs, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					util.Logf("websocket read: %s", err)
				}
				return
			}
			if len(bs) == 0 {
				continue
			}
			util.Logf("heard %s", bs)

			var msg interface{}
			if err = json.Unmarshal(bs, &msg); err != nil {
				msg = string(bs)
			}
			c.Queue.Push(msg)
		}
	}()

	return nil
}

// Emit writes the message as JSON.
func (c *WebSocket) Emit(ctx context.Context, msg interface{}) error {
	if c.conn == nil {
		return errors.New("websocket not started")
	}
	js, err := json.Marshal(&msg)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, js)
}

// Stop terminates the WebSocket connection.
func (c *WebSocket) Stop(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	util.Logf("disconnecting")
	c.wmu.Lock()
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wmu.Unlock()
	if err != nil {
		util.Logf("websocket close: %s", err)
	}
	return c.conn.Close()
}

func (c *WebSocket) Inbound() *Queue {
	return c.Queue
}

func (c *WebSocket) SetInterval(d time.Duration) {
	c.Queue.SetInterval(d)
}

func (c *WebSocket) Updates(ctx context.Context) ([]*core.Update, error) {
	return c.Queue.Updates(ctx)
}
