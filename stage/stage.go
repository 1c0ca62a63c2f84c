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

// Package stage implements Stage: one compiled script bound to a Role
// (Transform or Filter), evaluated once per line against a fresh scope.
//
// Stage covers what a design with distinct Transformer and Filter
// interfaces would split in two: one role produces a replacement value,
// the other an inclusion decision. Here both are the same script value,
// interpreted two different ways by Role (spec.md §4.4).
package stage

import (
	"context"
	"fmt"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/caseyhowe/linepipe/bridge"
	"github.com/caseyhowe/linepipe/builtins"
	"github.com/caseyhowe/linepipe/core"
	"github.com/caseyhowe/linepipe/linectx"
	"github.com/caseyhowe/linepipe/store"
)

// Stage is one `-e`/`--filter` argument: a Role plus the script source
// that was declared for it.
type Stage struct {
	Role   core.Role
	Name   string
	source string
}

// Compile validates source against the scripting engine's grammar and
// returns a Stage ready for repeated Evaluate calls. A syntax error here
// is a Parse error (spec.md §7: "Parse ... abort before any line is
// processed"), so Compile is called once per Stage during startup, never
// from inside the per-line loop.
func Compile(role core.Role, name, source string) (*Stage, error) {
	if _, err := risor.Compile(context.Background(), source); err != nil {
		return nil, &core.Error{Kind: core.Parse, Op: fmt.Sprintf("compile stage %q", name), Err: err}
	}
	return &Stage{Role: role, Name: name, source: source}, nil
}

// Evaluate runs the Stage's script once against one line, following the
// five-step contract of spec.md §4.4. shared is the top-level scope left
// behind by the Include Loader; it is merged underneath this call's
// builtins and ambient identifiers, never mutated.
func (s *Stage) Evaluate(ctx context.Context, lc *linectx.Context, shared map[string]any, st *store.Store) core.Verdict {
	scope := make(map[string]any, len(shared)+len(ambientNames)+8)
	for k, v := range shared {
		scope[k] = v
	}
	for k, v := range builtins.Scope(lc, st) {
		scope[k] = v
	}

	result, err := risor.Eval(ctx, s.source, risor.WithGlobals(scope))
	if err != nil {
		return core.Verdict{
			Kind: core.Fail,
			Err:  &core.Error{Kind: core.Runtime, Op: s.Name, Err: err},
		}
	}

	if lc.Terminated {
		msg := ""
		if lc.HasTermMsg {
			msg = lc.TermMessage
		}
		return core.Verdict{Kind: core.Terminate, Message: msg}
	}
	if lc.Skipped {
		return core.Verdict{Kind: core.Drop}
	}

	if s.Role == core.Filter {
		return s.interpretFilter(lc, result)
	}
	return s.interpretTransform(lc, result)
}

// interpretTransform implements spec.md §4.4 step 4's Transform rules.
func (s *Stage) interpretTransform(lc *linectx.Context, result object.Object) core.Verdict {
	host, err := bridge.ToHost(result)
	if err != nil {
		return core.Verdict{Kind: core.Fail, Err: &core.Error{Kind: core.Bridge, Op: s.Name, Err: err}}
	}
	switch v := host.(type) {
	case nil:
		return core.Verdict{Kind: core.Keep, Line: lc.Line}
	case string:
		return core.Verdict{Kind: core.Keep, Line: core.Line(v)}
	case bool:
		if !v {
			return core.Verdict{Kind: core.Drop}
		}
		return core.Verdict{Kind: core.Keep, Line: lc.Line}
	default:
		str, err := bridge.Stringify(host)
		if err != nil {
			return core.Verdict{Kind: core.Fail, Err: &core.Error{Kind: core.Bridge, Op: s.Name, Err: err}}
		}
		return core.Verdict{Kind: core.Keep, Line: core.Line(str)}
	}
}

// interpretFilter implements spec.md §4.4 step 4's Filter rules: Python-
// style truthiness, independent of Transform's stringify-everything-else
// fallback.
func (s *Stage) interpretFilter(lc *linectx.Context, result object.Object) core.Verdict {
	if bridge.Truthy(result) {
		return core.Verdict{Kind: core.Keep, Line: lc.Line}
	}
	return core.Verdict{Kind: core.Drop}
}

var ambientNames = []string{"line", "LINENUM", "RECNUM", "FILENAME", "fields"}
