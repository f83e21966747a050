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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/util"
)

// Stdio is a fairly simple Couplings that reads JSON messages, one
// per line, from In and writes emitted messages to Out.
//
// Input lines that start with '#' and blank lines are ignored.  A
// line that's just "quit" ends the input, as does EOF.  A line that
// isn't JSON is taken as a plain string message.
type Stdio struct {
	// In is the source of inbound messages.
	In io.Reader

	// Out receives emitted messages.
	Out io.Writer

	// ShellExpand enables input to include inline shell commands
	// delimited by '<<' and '>>'.  Use at your own risk, of
	// course!
	ShellExpand bool

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "emit", "result").
	Tags bool

	// PadTags adds some padding to tags used in output.
	PadTags bool

	// InputEOF will be closed when input ends.
	InputEOF chan struct{}

	Queue *Queue

	sync.Mutex
	started bool
}

// NewStdio creates a new Stdio.
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.
func NewStdio() *Stdio {
	return &Stdio{
		In:       os.Stdin,
		Out:      os.Stdout,
		InputEOF: make(chan struct{}),
		Queue:    NewQueue(),
	}
}

func (s *Stdio) Inbound() *Queue {
	return s.Queue
}

func (s *Stdio) SetInterval(d time.Duration) {
	s.Queue.SetInterval(d)
}

func (s *Stdio) Updates(ctx context.Context) ([]*core.Update, error) {
	return s.Queue.Updates(ctx)
}

// Printf writes a line to Out with an optional tag and timestamp.
func (s *Stdio) Printf(tag, format string, args ...interface{}) {
	if s.PadTags {
		tag = fmt.Sprintf("% 10s", tag)
	}
	if s.Tags {
		format = tag + " " + format
	}
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
		format = ts + " " + format
	}

	s.Lock()
	fmt.Fprintf(s.Out, format, args...)
	s.Unlock()
}

// Emit writes the message as a line of JSON.
func (s *Stdio) Emit(ctx context.Context, msg interface{}) error {
	s.Printf("emit", "%s\n", JS(msg))
	return nil
}

// Start starts reading input.
//
// Reading stops at EOF, "quit", or when the context is done (though
// a read in progress isn't interrupted).
func (s *Stdio) Start(ctx context.Context) error {
	s.Lock()
	if s.started {
		s.Unlock()
		return fmt.Errorf("already started")
	}
	s.started = true
	s.Unlock()

	go func() {
		defer close(s.InputEOF)
		in := bufio.NewReader(s.In)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line, err := in.ReadString('\n')
			if strings.TrimSpace(line) == "quit" {
				return
			}
			if line != "" {
				if err := s.line(line); err != nil {
					util.Warnf("stdin: %s", err)
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				util.Warnf("stdin error %s", err)
				return
			}
		}
	}()

	return nil
}

func (s *Stdio) line(line string) error {
	if s.EchoInput {
		s.Printf("input", "%s", line)
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") || trimmed == "" {
		return nil
	}
	if s.ShellExpand {
		var err error
		if trimmed, err = ShellExpand(trimmed); err != nil {
			return err
		}
	}

	var msg interface{}
	if err := json.Unmarshal([]byte(trimmed), &msg); err != nil {
		msg = trimmed
	}
	s.Queue.Push(msg)
	return nil
}

// Stop does nothing.
func (s *Stdio) Stop(ctx context.Context) error {
	return nil
}
