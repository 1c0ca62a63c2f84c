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

// Package linectx defines Context, the per-line ambient record threaded
// through Stage evaluation. It carries no behavior of its own beyond the
// bookkeeping spec'd fields and flags — Stage and Pipeline own the logic
// that reads and mutates it.
package linectx

import "github.com/caseyhowe/linepipe/core"

// Context holds the per-line state. The driver keeps one Context per
// source and calls Reset before each line, so per-line state does not
// carry over from one line to the next.
type Context struct {
	Line core.Line

	LineNum int64 // 1-based absolute line index across the whole run
	RecNum  int64 // 1-based line index within the current file

	Filename    string // display name of the current source
	HasFilename bool   // false for standard input

	// Fields is the result of the optional -F field split, exposed to
	// scripts as the ambient "fields" identifier (SPEC_FULL §12).
	Fields []string

	Emits [][]byte // ordered extra lines queued by emit()

	Skipped     bool
	Terminated  bool
	TermMessage string
	HasTermMsg  bool
}

// Reset clears per-line state so a Context can be reused across lines
// without reallocating, keeping LineNum/RecNum/Filename (set by the
// driver before each line) intact.
func (c *Context) Reset() {
	c.Emits = c.Emits[:0]
	c.Skipped = false
	c.Terminated = false
	c.TermMessage = ""
	c.HasTermMsg = false
	c.Fields = nil
}

// Emit appends a line to the emit buffer, in call order.
func (c *Context) Emit(s string) {
	c.Emits = append(c.Emits, []byte(s))
}
