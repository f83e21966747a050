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
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// A cases.Caser is not safe for concurrent use, so every call gets its
// own.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// TextIs makes a Filter that checks whether the message text equals
// the given string, ignoring case and Unicode normalization
// differences.
//
// The message text is either the content itself (if it's a string)
// or the content's "text" property.  A message without any text is
// Absent.
func TextIs(want string) *Filter {
	w := fold(want)
	return NewFilter("text is "+want, func(x interface{}) (Verdict, error) {
		s, is := x.(string)
		if !is {
			var err error
			if s, err = GetString(x, "text"); err != nil {
				return Absent, err
			}
		}
		if fold(s) == w {
			return Matched, nil
		}
		return NotMatched, nil
	})
}

// Equals makes a Filter that checks that the content is exactly the
// given string.
func Equals(want string) *Filter {
	return NewFilter("content == "+want, Pred(func(x interface{}) bool {
		s, is := x.(string)
		return is && s == want
	}))
}
