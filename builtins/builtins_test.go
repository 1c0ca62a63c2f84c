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

package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseyhowe/linepipe/linectx"
	"github.com/caseyhowe/linepipe/store"
)

func TestScopeBindsAmbientIdentifiers(t *testing.T) {
	st := store.New()
	ctx := &linectx.Context{LineNum: 3, RecNum: 2, Filename: "a.txt", HasFilename: true}
	scope := Scope(ctx, st)

	assert.Equal(t, int64(3), scope["LINENUM"])
	assert.Equal(t, int64(2), scope["RECNUM"])
	assert.Equal(t, "a.txt", scope["FILENAME"])
}

func TestScopeFilenameAbsentForStdin(t *testing.T) {
	st := store.New()
	ctx := &linectx.Context{HasFilename: false}
	scope := Scope(ctx, st)
	assert.Nil(t, scope["FILENAME"])
}

func TestEmitAppendsInOrder(t *testing.T) {
	st := store.New()
	ctx := &linectx.Context{}
	scope := Scope(ctx, st)
	emit := scope["emit"].(func(any) (any, error))

	_, err := emit("x")
	require.NoError(t, err)
	_, err = emit(int64(7))
	require.NoError(t, err)

	require.Len(t, ctx.Emits, 2)
	assert.Equal(t, "x", string(ctx.Emits[0]))
	assert.Equal(t, "7", string(ctx.Emits[1]))
}

func TestSkipAndExitSetFlags(t *testing.T) {
	st := store.New()
	ctx := &linectx.Context{}
	scope := Scope(ctx, st)

	scope["skip"].(func())()
	assert.True(t, ctx.Skipped)

	exit := scope["exit"].(func(...string))
	exit("fatal")
	assert.True(t, ctx.Terminated)
	assert.Equal(t, "fatal", ctx.TermMessage)
	assert.True(t, ctx.HasTermMsg)
}

func TestExitWithoutMessage(t *testing.T) {
	st := store.New()
	ctx := &linectx.Context{}
	scope := Scope(ctx, st)
	scope["exit"].(func(...string))()
	assert.True(t, ctx.Terminated)
	assert.False(t, ctx.HasTermMsg)
}

func TestIncIsMonotonic(t *testing.T) {
	st := store.New()
	inc := Scope(&linectx.Context{}, st)["inc"].(func(string) int64)
	assert.Equal(t, int64(1), inc("k"))
	assert.Equal(t, int64(2), inc("k"))
}

func TestLineAndFieldsBound(t *testing.T) {
	st := store.New()
	ctx := &linectx.Context{Line: []byte("a,b"), Fields: []string{"a", "b"}}
	scope := Scope(ctx, st)
	assert.Equal(t, "a,b", scope["line"])
	assert.Equal(t, []string{"a", "b"}, scope["fields"])
}

func TestGetCounterDoesNotMutate(t *testing.T) {
	st := store.New()
	scope := Scope(&linectx.Context{}, st)
	getCounter := scope["get_counter"].(func(string) int64)
	assert.Equal(t, int64(0), getCounter("k"))
	inc := scope["inc"].(func(string) int64)
	inc("k")
	assert.Equal(t, int64(1), getCounter("k"))
}

func TestGlobGetSetRoundTrip(t *testing.T) {
	st := store.New()
	scope := Scope(&linectx.Context{}, st)
	set := scope["glob_set"].(func(string, any))
	get := scope["glob_get"].(func(string, any) any)

	assert.Equal(t, "fallback", get("missing", "fallback"))
	set("seen", int64(5))
	assert.Equal(t, int64(5), get("seen", "fallback"))
}

func TestParseAndDumpCSV(t *testing.T) {
	rec, err := parseCSV("a,b,\"c,d\"")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c,d"}, rec)

	line, err := dumpCSV([]string{"a", "b,c"})
	require.NoError(t, err)
	assert.Equal(t, `a,"b,c"`, line)
}

func TestParseJSONInvalidFails(t *testing.T) {
	_, err := parseJSON("{not json")
	require.Error(t, err)
}

func TestParseJSONValid(t *testing.T) {
	v, err := parseJSON(`{"a": 1}`)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), m["a"])
}

func TestRegexMatchAndReplace(t *testing.T) {
	ok, err := regexMatch(`^\d+$`, "123")
	require.NoError(t, err)
	assert.True(t, ok)

	out, err := regexReplace(`\d+`, "#", "a1b22c")
	require.NoError(t, err)
	assert.Equal(t, "a#b#c", out)
}

func TestRegexMatchInvalidPattern(t *testing.T) {
	_, err := regexMatch(`(`, "x")
	require.Error(t, err)
}
