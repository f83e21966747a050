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

// Package plan builds conditions and forks from a YAML or JSON
// document.
//
// A Plan describes one WaitFor: the conditions to wait for, the
// forks to run alongside, and how long to wait.
package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/match"
	"github.com/Comcast/chatter/sio"

	"github.com/jsccast/yaml"
)

// Script is source code for an interpreter.
type Script struct {
	// Interpreter names an interpreter (see
	// interpreters.Standard).
	Interpreter string `json:"interpreter" yaml:"interpreter"`

	Source string `json:"source" yaml:"source"`
}

func (s *Script) String() string {
	return s.Interpreter + ":" + s.Source
}

// Condition describes a core.Condition.
//
// The filters are pattern, script, and text, in that order.  A
// Condition is terminal if it has a result or a resolve (or if
// Terminal is true, which gives a nil result when there's no
// resolve).
type Condition struct {
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Doc   string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Pattern is a match pattern.  Any bindings from the match
	// are substituted into Emit messages.
	Pattern interface{} `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Script is a predicate.
	Script *Script `json:"script,omitempty" yaml:"script,omitempty"`

	// Text is compared to the message's text (see core.TextIs).
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Emit has messages to emit when the Condition matches.
	Emit []interface{} `json:"emit,omitempty" yaml:"emit,omitempty"`

	Terminal bool        `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	Result   interface{} `json:"result,omitempty" yaml:"result,omitempty"`
	Resolve  *Script     `json:"resolve,omitempty" yaml:"resolve,omitempty"`
}

// IsTerminal reports whether the Condition will be terminal.
func (c *Condition) IsTerminal() bool {
	return c.Terminal || c.Result != nil || c.Resolve != nil
}

// Fork describes a core.ForkSpec.
type Fork struct {
	Id         string       `json:"id,omitempty" yaml:"id,omitempty"`
	Doc        string       `json:"doc,omitempty" yaml:"doc,omitempty"`
	Exclusive  bool         `json:"exclusive,omitempty" yaml:"exclusive,omitempty"`
	Conditions []*Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// QuickStop defaults to true.  See core.ForkSpec.
	QuickStop *bool `json:"quickStop,omitempty" yaml:"quickStop,omitempty"`

	// Completed is always terminal.
	Completed *Condition `json:"completed" yaml:"completed"`
}

// IsQuickStop reports whether the attached fork will check Completed
// first.
func (f *Fork) IsQuickStop() bool {
	return f.QuickStop == nil || *f.QuickStop
}

// Plan is the whole document.
type Plan struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Doc is Markdown.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Timeout is in seconds.  Zero means forever.  When not
	// given, core.DefaultWaitConf's Timeout applies.
	Timeout *float64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	Conditions []*Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Forks      []*Fork      `json:"forks,omitempty" yaml:"forks,omitempty"`

	// Timers maps timer names to cron expressions.  See
	// sio.Timers.AddCron.
	Timers map[string]string `json:"timers,omitempty" yaml:"timers,omitempty"`
}

// Parse reads a Plan in JSON (if the first non-space character is
// '{') or YAML.
func Parse(bs []byte) (*Plan, error) {
	var (
		p   Plan
		err error
	)
	trimmed := bytes.TrimSpace(bs)
	if len(trimmed) == 0 {
		return nil, errors.New("empty plan")
	}
	switch trimmed[0] {
	case '{':
		err = json.Unmarshal(trimmed, &p)
	default:
		err = yaml.Unmarshal(bs, &p)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseFile reads and parses the given file.
//
// The file can use '%inline("NAME")' to include other files (see
// Inline).
func ParseFile(filename string) (*Plan, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	p, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return p, nil
}

// Schedule adds the Plan's timers.
func (p *Plan) Schedule(ctx context.Context, ts *sio.Timers) error {
	names := make([]string, 0, len(p.Timers))
	for name := range p.Timers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ts.AddCron(ctx, name, p.Timers[name]); err != nil {
			return err
		}
	}
	return nil
}

// WaitConf makes a core.WaitConf based on core.DefaultWaitConf and
// the Plan's Timeout.
func (p *Plan) WaitConf() *core.WaitConf {
	conf := core.DefaultWaitConf.Copy()
	if p.Timeout != nil {
		conf.Timeout = Seconds(*p.Timeout)
	}
	return conf
}

// Seconds converts a (possibly fractional) number of seconds to a
// Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Compiled is a Plan ready to Run.
type Compiled struct {
	Plan       *Plan
	Conditions []*core.Condition
	Forks      []*core.ForkSpec
	Conf       *core.WaitConf
}

type compiler struct {
	interpreters core.InterpretersMap
	emitter      core.Emitter
}

// Compile builds core Conditions and ForkSpecs.
//
// The emitter is only required if some Condition has something to
// Emit.
func (p *Plan) Compile(ctx context.Context, interpreters core.InterpretersMap, emitter core.Emitter) (*Compiled, error) {
	c := &compiler{
		interpreters: interpreters,
		emitter:      emitter,
	}

	conds, err := c.conditions(ctx, p.Conditions)
	if err != nil {
		return nil, err
	}

	forks := make([]*core.ForkSpec, 0, len(p.Forks))
	for i, f := range p.Forks {
		spec, err := c.fork(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("fork %d (%s): %w", i, f.Id, err)
		}
		forks = append(forks, spec)
	}

	return &Compiled{
		Plan:       p,
		Conditions: conds,
		Forks:      forks,
		Conf:       p.WaitConf(),
	}, nil
}

func (c *compiler) conditions(ctx context.Context, cs []*Condition) ([]*core.Condition, error) {
	acc := make([]*core.Condition, 0, len(cs))
	for i, cond := range cs {
		compiled, err := c.condition(ctx, cond, false)
		if err != nil {
			return nil, fmt.Errorf("condition %d (%s): %w", i, cond.Label, err)
		}
		acc = append(acc, compiled)
	}
	return acc, nil
}

func (c *compiler) fork(ctx context.Context, f *Fork) (*core.ForkSpec, error) {
	conds, err := c.conditions(ctx, f.Conditions)
	if err != nil {
		return nil, err
	}
	if f.Completed == nil {
		return nil, errors.New("no completed condition")
	}
	completed, err := c.condition(ctx, f.Completed, true)
	if err != nil {
		return nil, fmt.Errorf("completed: %w", err)
	}
	return &core.ForkSpec{
		Id:         f.Id,
		Conditions: conds,
		Completed:  completed,
		Exclusive:  f.Exclusive,
		QuickStop:  f.QuickStop,
	}, nil
}

func (c *compiler) script(ctx context.Context, s *Script) (core.Interpreter, error) {
	if s.Interpreter == "" {
		return nil, fmt.Errorf("script %q has no interpreter", s.Source)
	}
	return c.interpreters.Find(s.Interpreter)
}

func (c *compiler) condition(ctx context.Context, cond *Condition, terminal bool) (*core.Condition, error) {
	label := cond.Label
	if label == "" {
		label = "unlabeled"
	}
	compiled := core.NewCondition(label)

	if cond.Pattern != nil {
		compiled.AddFilter(match.NewFilter("", cond.Pattern))
	}

	if cond.Script != nil {
		i, err := c.script(ctx, cond.Script)
		if err != nil {
			return nil, err
		}
		p, err := i.CompilePredicate(ctx, cond.Script.Source)
		if err != nil {
			return nil, err
		}
		compiled.AddFilter(core.NewFilter(cond.Script.String(), p))
	}

	if cond.Text != "" {
		compiled.AddFilter(core.TextIs(cond.Text))
	}

	if 0 < len(cond.Emit) {
		if c.emitter == nil {
			return nil, errors.New("nothing to emit with")
		}
		compiled.Then(c.emit(cond.Pattern, cond.Emit))
	}

	switch {
	case cond.Resolve != nil:
		i, err := c.script(ctx, cond.Resolve)
		if err != nil {
			return nil, err
		}
		r, err := i.CompileResolver(ctx, cond.Resolve.Source)
		if err != nil {
			return nil, err
		}
		compiled.ResolvingWith(r)
	case cond.IsTerminal() || terminal:
		compiled.Returning(cond.Result)
	}

	return compiled, nil
}

// emit makes a Callback that sends the given messages after
// substituting any bindings from the pattern.
func (c *compiler) emit(pattern interface{}, msgs []interface{}) core.Callback {
	return func(ctx context.Context, x interface{}) error {
		bs := match.NewBindings()
		if pattern != nil {
			y, err := core.Canonicalize(x)
			if err != nil {
				return err
			}
			bss, err := match.Match(pattern, y, nil)
			if err != nil {
				return err
			}
			if 0 < len(bss) {
				bs = bss[0]
			}
		}
		for _, msg := range msgs {
			if err := c.emitter.Emit(ctx, bs.Bind(msg)); err != nil {
				return err
			}
		}
		return nil
	}
}

// Run attaches the forks to a new core.Forks and calls core.WaitFor.
func (c *Compiled) Run(ctx context.Context, t core.Transport) (*core.Outcome, error) {
	return c.RunWith(ctx, t, core.NewForks())
}

// RunWith is Run with the given Forks, which can be inspected
// afterwards.
func (c *Compiled) RunWith(ctx context.Context, t core.Transport, forks *core.Forks) (*core.Outcome, error) {
	for _, spec := range c.Forks {
		if _, err := forks.Attach(spec); err != nil {
			return nil, err
		}
	}
	return core.WaitFor(ctx, t, c.Conditions, c.Conf, forks)
}
