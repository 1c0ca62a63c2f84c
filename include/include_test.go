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

package include

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseyhowe/linepipe/core"
	"github.com/caseyhowe/linepipe/store"
)

func writeTemp(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyIsStoreScope(t *testing.T) {
	scope, err := Load(context.Background(), nil, store.New())
	require.NoError(t, err)
	_, ok := scope["inc"]
	assert.True(t, ok)
	_, ok = scope["line"]
	assert.False(t, ok)
}

func TestLoadDeclarationOrder(t *testing.T) {
	first := writeTemp(t, "first.risor", `greeting = "hi"`)
	second := writeTemp(t, "second.risor", `farewell = greeting + " bye"`)

	scope, err := Load(context.Background(), []string{first, second}, store.New())
	require.NoError(t, err)
	assert.Equal(t, "hi bye", scope["farewell"])
}

func TestLoadFailureIsParseError(t *testing.T) {
	bad := writeTemp(t, "bad.risor", `this is not )) valid`)
	_, err := Load(context.Background(), []string{bad}, store.New())
	require.Error(t, err)
	var cerr *core.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, core.Parse, cerr.Kind)
}

func TestLoadMissingFileIsParseError(t *testing.T) {
	_, err := Load(context.Background(), []string{"/no/such/file.risor"}, store.New())
	require.Error(t, err)
	var cerr *core.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, core.Parse, cerr.Kind)
}
