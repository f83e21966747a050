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

// Package interpreters gathers the standard interpreters.
package interpreters

import (
	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/interpreters/expr"
	"github.com/Comcast/chatter/interpreters/goja"
	"github.com/Comcast/chatter/interpreters/noop"
	"github.com/Comcast/chatter/match"
)

// Standard returns a fresh map with these interpreters:
//
//	goja, ecmascript: ECMAScript via goja
//	expr: expr-lang
//	pattern: JSON patterns via the match package
//	noop: always matches; resolves to the message itself
func Standard() core.InterpretersMap {
	is := make(core.InterpretersMap)

	es := goja.NewInterpreter()
	is["goja"] = es
	is["ecmascript"] = es

	is["expr"] = expr.NewInterpreter()
	is["pattern"] = match.NewInterpreter()
	is["noop"] = noop.NewInterpreter()

	return is
}
