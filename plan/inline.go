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

package plan

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Comcast/chatter/util"
)

var inlinePattern = regexp.MustCompile(`(?s)(.*?)(%inline *\("([^"]*)"\))`)

// Inline replaces '%inline("NAME")' with f(NAME).
//
// When the directive is the first thing on its line, every line of
// the replacement gets the directive's indentation.  That way a YAML
// block scalar can inline a multi-line script.
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	i := 0
	acc := make([]byte, 0, len(bs))
	for {
		part := inlinePattern.FindSubmatch(bs[i:])
		if part == nil {
			acc = append(acc, bs[i:]...)
			break
		}
		i += len(part[0])
		acc = append(acc, part[1]...)
		replacement, err := f(string(part[3]))
		if err != nil {
			return nil, err
		}
		util.Logf("inlining %s: %s", part[3], replacement)

		if indent, ok := indentation(acc); ok && 0 < len(indent) {
			replacement = bytes.TrimRight(replacement, "\n")
			replacement = bytes.ReplaceAll(replacement, []byte("\n"), append([]byte("\n"), indent...))
		}
		acc = append(acc, replacement...)
	}

	return acc, nil
}

// indentation returns the trailing whitespace of acc if that's all
// there is on the current line.
func indentation(acc []byte) ([]byte, bool) {
	line := acc[bytes.LastIndexByte(acc, '\n')+1:]
	if len(bytes.TrimLeft(line, " \t")) != 0 {
		return nil, false
	}
	return line, true
}

// ReadFileWithInlines is a replacement for os.ReadFile that adds
// automatic Inline()ing based on the directory obtained from the
// filename.
//
// '%inline("NAME")' is replaced with ReadFile(NAME).
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(filename)
	f := func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	}

	return Inline(bs, f)
}
