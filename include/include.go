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

// Package include implements the Include Loader (spec.md §4.7): each
// `-I` file is evaluated once, in declaration order, against a shared
// top-level scope that becomes the base scope every subsequent Stage
// evaluation is layered on top of.
package include

import (
	"context"
	"fmt"
	"os"

	"github.com/risor-io/risor"

	"github.com/caseyhowe/linepipe/builtins"
	"github.com/caseyhowe/linepipe/core"
	"github.com/caseyhowe/linepipe/store"
)

// Load evaluates each path in order against a scope seeded from
// builtins.StoreScope, threading top-level assignments from one include
// into the scope visible to the next. A failure aborts immediately with a
// Parse error, matching "a failure aborts startup with a non-zero exit".
func Load(ctx context.Context, paths []string, st *store.Store) (map[string]any, error) {
	scope := builtins.StoreScope(st)

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, &core.Error{Kind: core.Parse, Op: fmt.Sprintf("read include %q", path), Err: err}
		}
		// risor.WithGlobals binds scope by reference: top-level assignments
		// and function definitions in this include are written back into
		// scope, and so become visible to every include and Stage that
		// follows.
		if _, err := risor.Eval(ctx, string(src), risor.WithGlobals(scope)); err != nil {
			return nil, &core.Error{Kind: core.Parse, Op: fmt.Sprintf("evaluate include %q", path), Err: err}
		}
	}
	return scope, nil
}
