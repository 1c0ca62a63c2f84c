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

package bridge

import (
	"math"
	"testing"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToScriptRoundTripsScalars(t *testing.T) {
	cases := []any{"hello", int64(42), 3.5, true, nil}
	for _, v := range cases {
		obj, err := ToScript(v)
		require.NoError(t, err)
		host, err := ToHost(obj)
		require.NoError(t, err)
		assert.Equal(t, v, host)
	}
}

func TestToScriptUint64Overflow(t *testing.T) {
	_, err := ToScript(uint64(math.MaxInt64) + 1)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "to_script", bErr.Op)
}

func TestToScriptSequenceAndMapping(t *testing.T) {
	obj, err := ToScript([]any{"a", int64(1), nil})
	require.NoError(t, err)
	list, ok := obj.(*object.List)
	require.True(t, ok)
	assert.Len(t, list.Value(), 3)

	obj, err = ToScript(map[string]any{"k": "v"})
	require.NoError(t, err)
	m, ok := obj.(*object.Map)
	require.True(t, ok)
	assert.Len(t, m.Value(), 1)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(object.Nil))
	assert.False(t, Truthy(object.NewBool(false)))
	assert.False(t, Truthy(object.NewInt(0)))
	assert.False(t, Truthy(object.NewString("")))
	assert.False(t, Truthy(object.NewList(nil)))
	assert.True(t, Truthy(object.NewInt(1)))
	assert.True(t, Truthy(object.NewString("x")))
}

func TestStringify(t *testing.T) {
	s, err := Stringify(int64(7))
	require.NoError(t, err)
	assert.Equal(t, "7", s)

	s, err = Stringify(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = Stringify([]any{"a", int64(1)})
	require.NoError(t, err)
	assert.Equal(t, "[a, 1]", s)
}
