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
	"encoding/json"
	"reflect"
	"time"
)

// Get walks the given property path through nested maps.
//
// If a property along the way is missing (or the thing at hand isn't
// a map), the error is an *AbsentError, which a Filter will treat as a
// non-match.  Structs are consulted by field name via reflection,
// which is slow but occasionally convenient.
func Get(x interface{}, path ...string) (interface{}, error) {
	for i, p := range path {
		switch vv := x.(type) {
		case map[string]interface{}:
			y, have := vv[p]
			if !have {
				return nil, &AbsentError{Path: path[:i+1]}
			}
			x = y
		case map[string]string:
			y, have := vv[p]
			if !have {
				return nil, &AbsentError{Path: path[:i+1]}
			}
			x = y
		default:
			y, have := field(x, p)
			if !have {
				return nil, &AbsentError{Path: path[:i+1]}
			}
			x = y
		}
	}
	return x, nil
}

// GetString is Get for a string.  A value that isn't a string counts
// as absent.
func GetString(x interface{}, path ...string) (string, error) {
	y, err := Get(x, path...)
	if err != nil {
		return "", err
	}
	s, is := y.(string)
	if !is {
		return "", &AbsentError{Path: path}
	}
	return s, nil
}

func field(x interface{}, name string) (interface{}, bool) {
	v := reflect.ValueOf(x)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	f := v.FieldByName(name)
	if !f.IsValid() || !f.CanInterface() {
		return nil, false
	}
	return f.Interface(), true
}

// Canonicalize is ... hey, look over there!
//
// Round-trips through JSON so that content looks the same no matter
// which transport delivered it.
func Canonicalize(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}

// Timestamp returns a string representing the current time in
// RFC3339Nano.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
