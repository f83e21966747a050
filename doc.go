// Package chatter waits for conversations to reach conclusions.
//
// The core code is in package 'core': Filters and Conditions that
// match updates, forks that follow side conversations, and WaitFor,
// which polls a Transport until a terminal Condition matches.  Plans
// (package 'plan') describe all of that in YAML or JSON, and some
// command-line tools are in `cmd`.
package chatter
