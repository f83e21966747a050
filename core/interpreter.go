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

package core

import (
	"context"
)

// Interpreter compiles source code into predicates and resolvers.
//
// See the interpreters package.
type Interpreter interface {
	CompilePredicate(ctx context.Context, src string) (Predicate, error)
	CompileResolver(ctx context.Context, src string) (Resolver, error)
}

// InterpretersMap maps names like "goja" to Interpreters.
type InterpretersMap map[string]Interpreter

// Find returns the named Interpreter or an *UnknownInterpreter error.
func (m InterpretersMap) Find(name string) (Interpreter, error) {
	i, have := m[name]
	if !have {
		return nil, &UnknownInterpreter{Name: name}
	}
	return i, nil
}
