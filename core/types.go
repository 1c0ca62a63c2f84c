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

package core

// Package core defines the vocabulary shared by every linepipe package: the
// Line/Role/Verdict types the pipeline engine is built from, and the error
// Kind taxonomy every package tags its errors with.
//
// Nothing in this package touches the scripting runtime, a Context, or I/O —
// it is the contract the rest of the engine is written against.

// Line is an immutable byte sequence without its trailing newline.
// Encoding is opaque text; linepipe never normalizes it.
type Line []byte

// String renders Line for diagnostics. Scripts receive Line as a string via
// the Value Bridge, never as this type directly.
func (l Line) String() string {
	return string(l)
}

// Role is the declared behavior of a Stage.
type Role int

const (
	// Transform stages replace the line; their produced value becomes the
	// next line (or Drop it, via a false boolean).
	Transform Role = iota
	// Filter stages never replace the line; their produced value's
	// truthiness decides whether the line survives.
	Filter
)

func (r Role) String() string {
	switch r {
	case Transform:
		return "transform"
	case Filter:
		return "filter"
	default:
		return "unknown"
	}
}

// VerdictKind tags the outcome of one Stage evaluating one Context.
type VerdictKind int

const (
	// Keep continues the pipeline with Verdict.Line as the current line.
	Keep VerdictKind = iota
	// Drop stops processing this line; nothing further is emitted from it.
	Drop
	// Terminate flushes already-buffered emits for this line, then stops
	// all further input consumption.
	Terminate
	// Fail means the stage raised; the Pipeline's error policy decides
	// whether to drop the line or abort the run.
	Fail
)

// Verdict is a Stage's outcome for one Line.
type Verdict struct {
	Kind    VerdictKind
	Line    Line   // valid when Kind == Keep
	Message string // valid when Kind == Terminate, optional
	Err     error  // valid when Kind == Fail
}
