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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/interpreters"
	"github.com/Comcast/chatter/journal"
	"github.com/Comcast/chatter/plan"
	"github.com/Comcast/chatter/sio"
	"github.com/Comcast/chatter/util"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	CouplingOptions

	// Timeout in seconds overrides the plan's timeout when not
	// negative.
	Timeout float64

	Journal string

	// HaltOnEOF stops the wait (after Linger) when std input
	// ends.
	HaltOnEOF bool
	Linger    time.Duration
}

// RunResult is what the run command prints when the wait ends.
type RunResult struct {
	TimedOut  bool        `json:"timedOut"`
	Condition string      `json:"condition,omitempty"`
	Value     interface{} `json:"value,omitempty"`
	UpdateId  string      `json:"updateId,omitempty"`
	Session   string      `json:"session,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run PLAN",
		Short: "Wait for a plan's conditions",
		Long: `Wait for updates from a coupling until one of the plan's terminal
conditions matches or the plan times out.

The outcome is printed as a line of JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			r, err := runPlan(ctx, opts, args[0], cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}

	opts.addFlags(cmd.Flags())
	cmd.Flags().Float64Var(&opts.Timeout, "timeout", -1, "timeout in seconds (0 means none; negative means the plan's)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the conversation in this journal file")
	cmd.Flags().BoolVar(&opts.HaltOnEOF, "halt-on-eof", false, "std: stop when input ends")
	cmd.Flags().DurationVar(&opts.Linger, "linger", time.Second, "std: how long to keep going after input ends")

	return cmd
}

func runPlan(ctx context.Context, opts *RunOptions, filename string, cmd *cobra.Command) (*RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p, err := plan.ParseFile(filename)
	if err != nil {
		return nil, err
	}

	cs, err := opts.couplings(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}

	var (
		t       core.Transport = cs
		emitter core.Emitter   = cs
		session *journal.Session
	)

	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return nil, err
		}
		defer j.Close()
		j.Debug = opts.Verbose
		if session, err = j.NewSession(ctx, p.Name); err != nil {
			return nil, err
		}
		t = session.Tap(t)
		emitter = session.TapEmitter(emitter)
	}

	c, err := p.Compile(ctx, interpreters.Standard(), emitter)
	if err != nil {
		return nil, err
	}
	if 0 <= opts.Timeout {
		c.Conf.Timeout = plan.Seconds(opts.Timeout)
	}

	if err = cs.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := cs.Stop(context.Background()); err != nil {
			util.Warnf("stopping %s: %s", opts.IO, err)
		}
	}()

	ts := sio.NewTimers(cs.Inbound())
	if err = p.Schedule(ctx, ts); err != nil {
		return nil, err
	}
	defer ts.Stop(context.Background())

	// Halting ends the wait as if it had timed out.
	runCtx, halt := context.WithCancel(ctx)
	defer halt()

	if s, is := cs.(*sio.Stdio); is && opts.HaltOnEOF {
		go func() {
			select {
			case <-ctx.Done():
			case <-s.InputEOF:
				util.Logf("input ended; stopping in %s", opts.Linger)
				select {
				case <-ctx.Done():
				case <-time.After(opts.Linger):
					halt()
				}
			}
		}()
	}

	o, err := c.Run(runCtx, t)
	if err != nil {
		if runCtx.Err() == nil || ctx.Err() != nil {
			return nil, err
		}
		o = core.TimedOutOutcome()
	}

	r := &RunResult{
		TimedOut: o.TimedOut,
	}
	if !o.TimedOut {
		r.Value = o.Value
		if o.Condition != nil {
			r.Condition = o.Condition.Label
		}
		if o.Update != nil {
			r.UpdateId = o.Update.Id
		}
	}

	if session != nil {
		r.Session = session.Id
		if err = session.RecordOutcome(ctx, o); err != nil {
			return nil, err
		}
	}

	return r, nil
}
