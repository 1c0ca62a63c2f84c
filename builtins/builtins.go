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

// Package builtins is the callable surface injected into every script
// scope: emit/skip/exit/inc/glob_*, plus the format helpers (json, csv,
// regex, field split) and the supplemental string convenience library.
//
// Every entry here is a plain Go value handed to risor.WithGlobals, which
// wraps native functions and values into script values through Risor's own
// Go-interop reflection layer rather than through the bridge package
// directly — transform/filter operate the same way elsewhere in this
// stack, on Go-native field values rather than hand-rolled wire types.
package builtins

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/caseyhowe/linepipe/core"
	"github.com/caseyhowe/linepipe/linectx"
	"github.com/caseyhowe/linepipe/store"
)

// Scope builds the set of ambient identifiers and builtins bound fresh for
// one Stage evaluation of one Context. The Global Store is shared by
// reference through the counter and glob_* builtins; the glob identifier
// itself is a copy taken for this call (see StoreScope), so writes made
// through it are not kept.
func Scope(ctx *linectx.Context, st *store.Store) map[string]any {
	scope := StoreScope(st)

	scope["line"] = ctx.Line.String()
	scope["LINENUM"] = ctx.LineNum
	scope["RECNUM"] = ctx.RecNum
	scope["FILENAME"] = filenameOf(ctx)
	scope["fields"] = ctx.Fields

	scope["emit"] = func(x any) (any, error) {
		s, err := stringify(x)
		if err != nil {
			return nil, err
		}
		ctx.Emit(s)
		return nil, nil
	}
	scope["skip"] = func() {
		ctx.Skipped = true
	}
	scope["exit"] = func(msg ...string) {
		ctx.Terminated = true
		if len(msg) > 0 {
			ctx.TermMessage = msg[0]
			ctx.HasTermMsg = true
		}
	}
	return scope
}

// StoreScope builds the subset of builtins that need only the Global
// Store, not a Context: the counter/glob operations, the format helpers,
// and the string convenience library. The Include Loader uses exactly
// this (spec.md §4.7: "Includes have access to the Global Store and
// builtins but there is no Context ... referencing one is an error") —
// leaving line/LINENUM/RECNUM/FILENAME/fields/emit/skip/exit unbound makes
// a reference to any of them from an include script a plain "identifier
// not defined" runtime error, with no special-casing required here.
//
// glob is bound as a snapshot map, refreshed on every call (i.e. every
// line, or once at include time): reads against it are current as of
// that moment; mutations that must outlive the call go through glob_set,
// which writes straight through to the Store.
func StoreScope(st *store.Store) map[string]any {
	return map[string]any{
		"inc": func(key string) int64 {
			return st.Inc(key, 1)
		},
		"get_counter": func(key string) int64 {
			return st.Counter(key)
		},
		"glob": st.GlobSnapshot(),
		"glob_get": func(key string, def any) any {
			if v, ok := st.GlobGet(key); ok {
				return v
			}
			return def
		},
		"glob_set": func(key string, v any) {
			st.GlobSet(key, v)
		},
		"glob_contains": func(key string) bool {
			return st.GlobContains(key)
		},
		"glob_delete": func(key string) {
			st.GlobDelete(key)
		},

		"parse_json": parseJSON,
		"parse_csv":  parseCSV,
		"dump_csv":   dumpCSV,

		"regex_match":   regexMatch,
		"regex_replace": regexReplace,

		"trim":  strings.TrimSpace,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"split": func(s, sep string) []string { return strings.Split(s, sep) },
		"join":  func(parts []string, sep string) string { return strings.Join(parts, sep) },
	}
}

func filenameOf(ctx *linectx.Context) any {
	if !ctx.HasFilename {
		return nil
	}
	return ctx.Filename
}

func stringify(x any) (string, error) {
	switch v := x.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// parseJSON parses one JSON document into a plain Go value (string,
// float64, bool, nil, []any, map[string]any), matching spec.md §4.3's
// "parsed value; Fail on invalid".
func parseJSON(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, &core.Error{Kind: core.Runtime, Op: "parse_json", Err: err}
	}
	return v, nil
}

// parseCSV parses exactly one CSV record, grounded on readers/csv.go's
// use of encoding/csv.
func parseCSV(s string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(s))
	rec, err := r.Read()
	if err != nil {
		return nil, &core.Error{Kind: core.Runtime, Op: "parse_csv", Err: err}
	}
	return rec, nil
}

// dumpCSV formats one CSV record, grounded on writers/csv.go's use of
// encoding/csv.
func dumpCSV(fields []string) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", &core.Error{Kind: core.Runtime, Op: "dump_csv", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", &core.Error{Kind: core.Runtime, Op: "dump_csv", Err: err}
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// regexMatch and regexReplace are grounded on filter.MatchesRegex's use
// of the regexp package. Each call compiles its pattern; linepipe does not
// cache compiled patterns across calls, since that filter package does
// not either.
func regexMatch(pattern, s string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, &core.Error{Kind: core.Runtime, Op: "regex_match", Err: err}
	}
	return re.MatchString(s), nil
}

func regexReplace(pattern, repl, s string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", &core.Error{Kind: core.Runtime, Op: "regex_replace", Err: err}
	}
	return re.ReplaceAllString(s, repl), nil
}
