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

// Package core provides the core gear for waiting on conversations.
//
// A Filter wraps a Predicate, which examines a message.  A Condition
// is a conjunction of Filters, a Callback to call when all the
// Filters pass, and, optionally, a terminal value (a Resolver).
//
// WaitFor polls a Transport for Updates and checks each one against
// a list of Conditions.  When a terminal Condition matches, WaitFor
// returns that Condition's terminal value.  Otherwise WaitFor gives
// up after a timeout (which is not an error).
//
// A Fork is a small state machine for conversations that branch: a
// set of non-terminal Conditions and one Completed Condition that
// ends the Fork.  Forks holds a set of Forks, and WaitFor can send
// every Update to a Forks as well.  Somebody else can wait for a Fork
// to finish with Fork.BlockUntilDone.
//
// A predicate that looks for something the message doesn't have
// (for example, a missing property) should report Absent (or return
// an error wrapping ErrAbsent).  The Filter then says "no match"
// instead of failing.  Any other predicate error is a real error.
//
// To use this package, make some Conditions (perhaps via the plan
// package), get a Transport (see the sio package), and call WaitFor.
package core
