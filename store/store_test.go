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

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncStartsAtZero(t *testing.T) {
	s := New()
	require.Equal(t, int64(1), s.Inc("lines", 1))
	require.Equal(t, int64(3), s.Inc("lines", 2))
	assert.Equal(t, int64(3), s.Counter("lines"))
	assert.Equal(t, int64(0), s.Counter("unused"))
}

func TestIncNegativeDelta(t *testing.T) {
	s := New()
	s.Inc("balance", 10)
	assert.Equal(t, int64(4), s.Inc("balance", -6))
}

func TestCountersSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Inc("a", 1)
	snap := s.Counters()
	snap["a"] = 999
	assert.Equal(t, int64(1), s.Counter("a"))
}

func TestGlobRoundTrip(t *testing.T) {
	s := New()
	_, ok := s.GlobGet("seen")
	assert.False(t, ok)
	assert.False(t, s.GlobContains("seen"))

	s.GlobSet("seen", []any{"a", "b"})
	v, ok := s.GlobGet("seen")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, v)
	assert.True(t, s.GlobContains("seen"))

	assert.True(t, s.GlobDelete("seen"))
	assert.False(t, s.GlobDelete("seen"))
	assert.False(t, s.GlobContains("seen"))
}
