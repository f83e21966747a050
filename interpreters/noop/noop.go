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

// Package noop has an interpreter that ignores its source.
package noop

import (
	"context"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/util"
)

// Interpreter is a core.Interpreter whose predicates always match and
// whose resolvers return the message without modification.
type Interpreter struct {
	// Silent, if true, will suppress warning log messages.
	Silent bool
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) warn(src string) {
	if !i.Silent && src != "" {
		util.Warnf("noop interpreter ignoring %q", src)
	}
}

func (i *Interpreter) CompilePredicate(ctx context.Context, src string) (core.Predicate, error) {
	i.warn(src)
	return func(x interface{}) (core.Verdict, error) {
		return core.Matched, nil
	}, nil
}

func (i *Interpreter) CompileResolver(ctx context.Context, src string) (core.Resolver, error) {
	i.warn(src)
	return func(x interface{}) (interface{}, error) {
		return x, nil
	}, nil
}
