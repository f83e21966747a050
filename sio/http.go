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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/util"

	"golang.org/x/net/publicsuffix"
)

// HTTPUpdate is one element of a poll response.
type HTTPUpdate struct {
	Id      int64       `json:"id"`
	Content interface{} `json:"content"`
}

// HTTPUpdates is what a poll response looks like.
type HTTPUpdates struct {
	Updates []*HTTPUpdate `json:"updates"`
}

// HTTPPoller is a Couplings that long-polls an HTTP endpoint, much
// like a chat bot API's getUpdates.
//
// Each poll is a GET of URL?offset=N&timeout=S, where N is one more
// than the largest update id seen so far, and S is the LongPoll in
// seconds.  The response should be JSON like HTTPUpdates.
//
// Emit POSTs a message (as JSON) to SendURL.
type HTTPPoller struct {
	URL     string
	SendURL string

	// LongPoll is given to the server as the timeout parameter.
	LongPoll time.Duration

	// Pause is the wait between polls.
	Pause time.Duration

	// Backoff is the wait after a failed poll.
	Backoff time.Duration

	Client *http.Client
	Queue  *Queue

	mu     sync.Mutex
	offset int64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewJar makes a cookie jar that uses the public suffix list.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewHTTPPoller makes a poller with a cookie-keeping client.
func NewHTTPPoller(u string) (*HTTPPoller, error) {
	jar, err := NewJar()
	if err != nil {
		return nil, err
	}
	return &HTTPPoller{
		URL:      u,
		LongPoll: 10 * time.Second,
		Pause:    100 * time.Millisecond,
		Backoff:  time.Second,
		Client: &http.Client{
			Jar: jar,
		},
		Queue: NewQueue(),
	}, nil
}

// Offset reports the offset that the next poll will use.
func (c *HTTPPoller) Offset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Poll does one GET and queues what it gets.
func (c *HTTPPoller) Poll(ctx context.Context) (int, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return 0, err
	}
	q := u.Query()
	q.Set("offset", strconv.FormatInt(c.Offset(), 10))
	q.Set("timeout", strconv.Itoa(int(c.LongPoll/time.Second)))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("poll status %s: %s", resp.Status, JShort(string(body)))
	}

	var us HTTPUpdates
	if err = json.Unmarshal(body, &us); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, hu := range us.Updates {
		if hu.Id < c.offset {
			continue
		}
		c.Queue.PushUpdate(core.NewUpdate(strconv.FormatInt(hu.Id, 10), hu.Content))
		c.offset = hu.Id + 1
		n++
	}
	return n, nil
}

// Start starts polling in the background.
func (c *HTTPPoller) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		for {
			wait := c.Pause
			if _, err := c.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				util.Warnf("poll %s: %s", c.URL, err)
				wait = c.Backoff
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()

	return nil
}

// Stop stops polling and waits for the poller to finish.
func (c *HTTPPoller) Stop(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Emit POSTs the message to SendURL.
func (c *HTTPPoller) Emit(ctx context.Context, msg interface{}) error {
	if c.SendURL == "" {
		return fmt.Errorf("no SendURL for %s", JShort(msg))
	}
	js, err := json.Marshal(&msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.SendURL, bytes.NewReader(js))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("send status %s", resp.Status)
	}
	return nil
}

func (c *HTTPPoller) Inbound() *Queue {
	return c.Queue
}

func (c *HTTPPoller) SetInterval(d time.Duration) {
	c.Queue.SetInterval(d)
}

func (c *HTTPPoller) Updates(ctx context.Context) ([]*core.Update, error) {
	return c.Queue.Updates(ctx)
}
