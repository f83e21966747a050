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

// Package goja provides an ECMAScript interpreter for predicates and
// resolvers.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Comcast/chatter/core"
	"github.com/Comcast/chatter/match"
	"github.com/Comcast/chatter/util"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by a predicate or resolver if the
	// execution is interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// DefaultTimeout is the Timeout for a NewInterpreter.
	DefaultTimeout = time.Second
)

// Interpreter implements core.Interpreter using Goja, which is a Go
// implementation of ECMAScript 5.1+.
//
// A program is an expression (or statements ending in an
// expression).  The message is available as both msg and _.msg.
//
// A predicate's value is converted to a boolean using ECMAScript's
// rules.  A program that tries to read a property of undefined or
// null gives core.Absent, so msg.chat.id is only true for messages
// that have a chat.
type Interpreter struct {
	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// Timeout limits how long a single execution can run.  Zero
	// means no limit.
	Timeout time.Duration

	// Requires names libraries that are loaded before each
	// program.  See LibraryProvider.
	Requires []string

	// LibraryProvider resolves library names.  If nil,
	// DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, name string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Timeout: DefaultTimeout,
	}
}

// ProvideLibrary resolves the library name into source code.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, name)
	}
	return DefaultLibraryProvider(ctx, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a library provider that supports
// names that are URLs with protocols of "file", "http", and "https".
//
// File names are relative to the given directory.
func MakeFileLibraryProvider(dir string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			bs, err := os.ReadFile(filepath.Join(dir, filepath.Clean("/"+parts[1])))
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, "GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s", resp.Status)
			}
			bs, err := io.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

// Compile prepends any required libraries and calls goja.Compile.
//
// This method can block if the interpreter's LibraryProvider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src string) (*goja.Program, error) {
	var libsSrc string
	for _, lib := range i.Requires {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + ";\n"
	}

	p, err := goja.Compile("", libsSrc+src, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, src)
	}
	return p, nil
}

func (i *Interpreter) CompilePredicate(ctx context.Context, src string) (core.Predicate, error) {
	p, err := i.Compile(ctx, src)
	if err != nil {
		return nil, err
	}
	return func(x interface{}) (core.Verdict, error) {
		v, err := i.Exec(p, x)
		if err != nil {
			return core.NotMatched, err
		}
		if v.ToBoolean() {
			return core.Matched, nil
		}
		return core.NotMatched, nil
	}, nil
}

// CompileResolver compiles a program whose value, exported and
// canonicalized, is the resolved value.
func (i *Interpreter) CompileResolver(ctx context.Context, src string) (core.Resolver, error) {
	p, err := i.Compile(ctx, src)
	if err != nil {
		return nil, err
	}
	return func(x interface{}) (interface{}, error) {
		v, err := i.Exec(p, x)
		if err != nil {
			return nil, err
		}
		return core.Canonicalize(v.Export())
	}, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

// absent reports whether the error came from reading a property of
// undefined or null.
func absent(err error) bool {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return false
	}
	s := ex.Error()
	return strings.Contains(s, "TypeError") && strings.Contains(s, "Cannot read property")
}

// Exec runs the program with the given message.
//
// The following properties are available from the runtime at _.
//
//	msg: the message.
//	gensym(): generate a random string.
//	esc(s): URL query-escape the given string.
//	cronNext(expr): the next time (RFC3339) for the cron expression.
//	match(pat, obj, bs): Execute the pattern matcher.
//	log(x): Log x as JSON.
//
// For testing only (see Testing):
//
//	sleep(ms): sleep for the given number of milliseconds.
func (i *Interpreter) Exec(p *goja.Program, msg interface{}) (goja.Value, error) {
	o := goja.New()

	env := map[string]interface{}{
		"msg": msg,
	}
	o.Set("_", env)
	o.Set("msg", msg)

	if i.Testing {
		env["sleep"] = func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	env["gensym"] = func() interface{} {
		return util.Gensym(32)
	}

	env["esc"] = func(x interface{}) interface{} {
		s, is := export(x).(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	}

	env["cronNext"] = func(x interface{}) interface{} {
		s, is := export(x).(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(s)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["log"] = func(x interface{}) interface{} {
		x = export(x)
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}
		return x
	}

	// match is a utility that invokes the pattern matcher.
	env["match"] = func(pat, mess, bs goja.Value) interface{} {
		bindings := match.NewBindings()
		if bs != nil && !goja.IsUndefined(bs) && !goja.IsNull(bs) {
			x, err := core.Canonicalize(bs.Export())
			if err != nil {
				protest(o, err.Error())
			}
			m, is := x.(map[string]interface{})
			if !is {
				protest(o, "bad bindings")
			}
			bindings = match.Bindings(m)
		}

		p, err := core.Canonicalize(pat.Export())
		if err != nil {
			protest(o, err.Error())
		}
		m, err := core.Canonicalize(mess.Export())
		if err != nil {
			protest(o, err.Error())
		}

		bss, err := match.Match(p, m, bindings)
		if err != nil {
			protest(o, err.Error())
		}

		x, err := core.Canonicalize(bss)
		if err != nil {
			protest(o, err.Error())
		}
		return x
	}

	if 0 < i.Timeout {
		timer := time.AfterFunc(i.Timeout, func() {
			o.Interrupt(InterruptedMessage)
		})
		defer timer.Stop()
	}

	v, err := o.RunProgram(p)
	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			return nil, Interrupted
		}
		if absent(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrAbsent, err)
		}
		return nil, err
	}
	return v, nil
}
