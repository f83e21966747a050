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

// YesNo makes a pair of example Conditions that are useful to have
// around.
//
// The first Condition matches "yes" (ignoring case) and returns true.
// The second matches "no" (ignoring case) and calls the given
// callback, which could nag the user to say "yes".
func YesNo(nag Callback) []*Condition {
	return []*Condition{
		NewCondition("yes", TextIs("yes")).Returning(true),
		NewCondition("no", TextIs("no")).Then(nag),
	}
}
