// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package common holds the small cross-cutting pieces (build info, runtime
// sizing, a generic option bag) shared by confengine, endpoint, metrics and
// cmd, none of which belong to any one of those packages specifically.
package common

import (
	"github.com/spf13/cast"
)

// Options is a loosely-typed config bag, the shape confengine.Config.
// UnpackOptions produces for sections a caller doesn't want to declare a
// dedicated struct for (e.g. endpoint.New's body-capture knob).
type Options map[string]any

func NewOptions() Options {
	return make(Options)
}

func (o Options) GetInt(k string) (int, error) {
	return cast.ToIntE(o[k])
}

// GetIntDefault returns the int stored at k, or def if the key is absent or
// cannot be cast to int. Lets callers read an optional knob in one line
// instead of handling GetInt's error themselves.
func (o Options) GetIntDefault(k string, def int) int {
	if _, ok := o[k]; !ok {
		return def
	}
	n, err := o.GetInt(k)
	if err != nil {
		return def
	}
	return n
}

func (o Options) GetBool(k string) (bool, error) {
	return cast.ToBoolE(o[k])
}

func (o Options) GetStringSlice(k string) ([]string, error) {
	return cast.ToStringSliceE(o[k])
}

func (o Options) Merge(k string, v any) {
	o[k] = v
}
