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

// Package expr provides an interpreter for expr-lang expressions.
//
// See https://expr-lang.org.
package expr

import (
	"context"
	"fmt"
	"strings"

	"github.com/Comcast/chatter/core"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Interpreter implements core.Interpreter with expr-lang.
//
// The message is available as msg (and as _).  Reading a member of
// nil, as in msg.chat.id for a message without a chat, gives
// core.Absent.
type Interpreter struct {
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) compile(src string) (*vm.Program, error) {
	p, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("expr %q: %w", src, err)
	}
	return p, nil
}

func (i *Interpreter) run(p *vm.Program, x interface{}) (interface{}, error) {
	env := map[string]interface{}{
		"msg": x,
		"_":   x,
	}
	y, err := expr.Run(p, env)
	if err != nil {
		if strings.Contains(err.Error(), "cannot fetch") {
			return nil, fmt.Errorf("%w: %s", core.ErrAbsent, err)
		}
		return nil, err
	}
	return y, nil
}

func (i *Interpreter) CompilePredicate(ctx context.Context, src string) (core.Predicate, error) {
	p, err := i.compile(src)
	if err != nil {
		return nil, err
	}
	return func(x interface{}) (core.Verdict, error) {
		y, err := i.run(p, x)
		if err != nil {
			return core.NotMatched, err
		}
		switch vv := y.(type) {
		case bool:
			if vv {
				return core.Matched, nil
			}
			return core.NotMatched, nil
		case nil:
			return core.NotMatched, nil
		default:
			return core.NotMatched, fmt.Errorf("expr %q gave a %T, not a bool", src, y)
		}
	}, nil
}

func (i *Interpreter) CompileResolver(ctx context.Context, src string) (core.Resolver, error) {
	p, err := i.compile(src)
	if err != nil {
		return nil, err
	}
	return func(x interface{}) (interface{}, error) {
		return i.run(p, x)
	}, nil
}
