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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseyhowe/linepipe/core"
)

func TestParseInterleavedStagesPreservesOrder(t *testing.T) {
	cfg, positional, err := Parse([]string{
		"--filter", "int(line) % 2 == 0",
		"-e", `c = inc("k"); string(c)`,
		"in.txt",
	})
	require.NoError(t, err)
	require.Len(t, cfg.Stages, 2)
	assert.Equal(t, StageFilter, cfg.Stages[0].Kind)
	assert.Equal(t, StageTransform, cfg.Stages[1].Kind)
	assert.Equal(t, []string{"in.txt"}, positional)
}

func TestParseNullFlagSetsHasNull(t *testing.T) {
	cfg, _, err := Parse([]string{"-e", "line", "--null", "NA"})
	require.NoError(t, err)
	assert.True(t, cfg.HasNull)
	assert.Equal(t, "NA", cfg.NullMarker)
}

func TestParseWithoutNullFlagLeavesHasNullFalse(t *testing.T) {
	cfg, _, err := Parse([]string{"-e", "line"})
	require.NoError(t, err)
	assert.False(t, cfg.HasNull)
}

func TestParseRejectsScriptFileWithExprFlags(t *testing.T) {
	_, _, err := Parse([]string{"-s", "script.lp", "-e", "line"})
	require.Error(t, err)
	var cerr *core.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, core.Usage, cerr.Kind)
}

func TestParseRejectsEmptyPipeline(t *testing.T) {
	_, _, err := Parse([]string{"in.txt"})
	require.Error(t, err)
	var cerr *core.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, core.Usage, cerr.Kind)
}

func TestParseConfigFileFillsUnsetFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linepipe.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
output = "out.txt"
field_sep = ","
`), 0o644))

	cfg, _, err := Parse([]string{"-e", "line", "--config", path})
	require.NoError(t, err)
	assert.Equal(t, "out.txt", cfg.Output)
	assert.Equal(t, ",", cfg.FieldSep)
}

func TestParseCLIOutputOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linepipe.toml")
	require.NoError(t, os.WriteFile(path, []byte(`output = "file-default.txt"`), 0o644))

	cfg, _, err := Parse([]string{"-e", "line", "-o", "cli.txt", "--config", path})
	require.NoError(t, err)
	assert.Equal(t, "cli.txt", cfg.Output)
}

func TestParseConfigFileSuppliesStagesWhenCLIHasNone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linepipe.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[stages]]
kind = "filter"
source = "True"
`), 0o644))

	cfg, _, err := Parse([]string{"--config", path})
	require.NoError(t, err)
	require.Len(t, cfg.Stages, 1)
	assert.Equal(t, StageFilter, cfg.Stages[0].Kind)
}
