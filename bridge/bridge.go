//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Casey Howe
//
// This file is part of linepipe.
//
// linepipe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// linepipe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with linepipe. If not, see https://www.gnu.org/licenses/.

// Package bridge is the Value Bridge: the single choke-point for
// converting between host Go values and github.com/risor-io/risor/object
// values. No other package in linepipe constructs or inspects an
// object.Object directly — everything routes through ToScript/ToHost.
//
// The bridge is pure: it never touches the Global Store or a Context.
package bridge

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/caseyhowe/linepipe/core"
)

// Error reports a value that the bridge cannot convert in either
// direction, carrying the offending type's description.
type Error struct {
	Op   string
	Type string
}

func (e *Error) Error() string {
	return fmt.Sprintf("bridge: %s: unsupported type %s", e.Op, e.Type)
}

// AsCoreError wraps a bridge Error as a core.Error tagged Kind Bridge.
func AsCoreError(op string, err error) *core.Error {
	return &core.Error{Kind: core.Bridge, Op: op, Err: err}
}

// ToScript converts a host value into a risor script value. Supported host
// types: string, int64, uint64, float64, bool, nil (absent), []any
// (ordered sequence), map[string]any (string-keyed mapping), and the
// convenience Go kinds (int, []string) the rest of linepipe passes around.
//
// Numeric narrowing mirrors transform.convertToInt/convertToFloat/
// convertToBool, adapted from Record-field coercion to Risor-object
// coercion.
func ToScript(v any) (object.Object, error) {
	switch val := v.(type) {
	case nil:
		return object.Nil, nil
	case object.Object:
		return val, nil
	case string:
		return object.NewString(val), nil
	case []byte:
		return object.NewString(string(val)), nil
	case core.Line:
		return object.NewString(val.String()), nil
	case bool:
		return object.NewBool(val), nil
	case int:
		return object.NewInt(int64(val)), nil
	case int64:
		return object.NewInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, &Error{Op: "to_script", Type: "uint64 (overflow)"}
		}
		return object.NewInt(int64(val)), nil
	case float64:
		return object.NewFloat(val), nil
	case []string:
		items := make([]object.Object, 0, len(val))
		for _, s := range val {
			items = append(items, object.NewString(s))
		}
		return object.NewList(items), nil
	case []any:
		items := make([]object.Object, 0, len(val))
		for _, item := range val {
			obj, err := ToScript(item)
			if err != nil {
				return nil, err
			}
			items = append(items, obj)
		}
		return object.NewList(items), nil
	case map[string]any:
		entries := make(map[string]object.Object, len(val))
		for k, item := range val {
			obj, err := ToScript(item)
			if err != nil {
				return nil, err
			}
			entries[k] = obj
		}
		return object.NewMap(entries), nil
	default:
		return nil, &Error{Op: "to_script", Type: fmt.Sprintf("%T", v)}
	}
}

// ToHost converts a risor script value into a host Go value suitable for
// fmt.Sprintf-free use by the rest of linepipe (stage interpretation,
// Global Store storage, diagnostic formatting).
func ToHost(obj object.Object) (any, error) {
	if obj == nil || obj == object.Nil {
		return nil, nil
	}
	switch v := obj.(type) {
	case *object.String:
		return v.Value(), nil
	case *object.Int:
		return v.Value(), nil
	case *object.Float:
		return v.Value(), nil
	case *object.Bool:
		return v.Value(), nil
	case *object.List:
		items := v.Value()
		out := make([]any, 0, len(items))
		for _, item := range items {
			hv, err := ToHost(item)
			if err != nil {
				return nil, err
			}
			out = append(out, hv)
		}
		return out, nil
	case *object.Map:
		out := make(map[string]any, len(v.Value()))
		for k, item := range v.Value() {
			hv, err := ToHost(item)
			if err != nil {
				return nil, err
			}
			out[k] = hv
		}
		return out, nil
	default:
		return nil, &Error{Op: "to_host", Type: fmt.Sprintf("%T", obj)}
	}
}

// ToHostString stringifies a script value by converting it with ToHost
// and rendering the result with Stringify.
func ToHostString(obj object.Object) (string, error) {
	v, err := ToHost(obj)
	if err != nil {
		return "", err
	}
	return Stringify(v)
}

// Stringify renders a host value the way a Transform stage's fallback
// "stringify via the Value Bridge" rule (spec §4.4) requires.
func Stringify(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, err := Stringify(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}

// Truthy implements Python-style truthiness for Filter stages (spec §4.4):
// false, 0, empty string, empty container and absent are all falsy.
func Truthy(obj object.Object) bool {
	if obj == nil || obj == object.Nil {
		return false
	}
	switch v := obj.(type) {
	case *object.Bool:
		return v.Value()
	case *object.Int:
		return v.Value() != 0
	case *object.Float:
		return v.Value() != 0
	case *object.String:
		return v.Value() != ""
	case *object.List:
		return len(v.Value()) != 0
	case *object.Map:
		return len(v.Value()) != 0
	default:
		return true
	}
}
