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

// Package main is a command-line tool for running, checking, and
// drawing conversation plans.
//
//	chatter run plan.yaml
//	chatter run --io mqtt --topics 'in/#' --out-topic out plan.yaml
//	chatter render --format mermaid plan.yaml
//	chatter expect --plan plan.yaml session.yaml
//	chatter journal chats.db
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chatter: %s\n", err)
		os.Exit(1)
	}
}
