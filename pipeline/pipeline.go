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

// Package pipeline implements Pipeline: the ordered list of Stages that
// drives one line to completion, flushing emits and interpreting verdicts
// along the way.
//
// This collapses the three-phase Pipeline.Execute (transform-all,
// then filter-all, then write) into a single ordered left-to-right walk,
// since Stages here can freely interleave Transform and Filter roles at
// any position, something a fixed two-phase design cannot express.
// ErrorStrategy is defined in core/interfaces.go.
package pipeline

import (
	"context"

	"github.com/caseyhowe/linepipe/core"
	"github.com/caseyhowe/linepipe/linectx"
	"github.com/caseyhowe/linepipe/stage"
	"github.com/caseyhowe/linepipe/store"
)

// OutcomeKind tags how one call to ProcessLine resolved.
type OutcomeKind int

const (
	// Produced means every Stage kept the line; Outcome.Line holds the
	// final value to write to the sink.
	Produced OutcomeKind = iota
	// Dropped means some Stage returned Drop, or failed under the lenient
	// error policy.
	Dropped
	// Terminated means some Stage called exit(); the driver must stop
	// reading further input after this line.
	Terminated
	// Aborted means some Stage failed under FailFast; the run stops
	// immediately.
	Aborted
)

// Outcome is ProcessLine's result.
type Outcome struct {
	Kind    OutcomeKind
	Line    core.Line // valid when Kind == Produced
	Message string    // valid when Kind == Terminated
	Err     error     // valid when Kind == Aborted, or Dropped via the lenient error policy
}

// Pipeline holds the declared Stage order plus the shared state every
// Stage evaluation reads and writes.
type Pipeline struct {
	Stages        []*stage.Stage
	Shared        map[string]any // top-level scope left by the Include Loader
	Store         *store.Store
	Sink          core.LineSink
	ErrorStrategy core.ErrorStrategy
	ErrorHandler  core.ErrorHandler // optional; may be nil
}

// ProcessLine implements spec.md §4.5's process_line(context) loop.
func (p *Pipeline) ProcessLine(ctx context.Context, lc *linectx.Context) (Outcome, error) {
	for _, st := range p.Stages {
		verdict := st.Evaluate(ctx, lc, p.Shared, p.Store)

		if ioErr := p.flushEmits(lc); ioErr != nil {
			return Outcome{}, ioErr
		}

		switch verdict.Kind {
		case core.Drop:
			return Outcome{Kind: Dropped}, nil
		case core.Terminate:
			return Outcome{Kind: Terminated, Message: verdict.Message}, nil
		case core.Fail:
			if p.ErrorStrategy == core.FailFast {
				return Outcome{Kind: Aborted, Err: verdict.Err}, nil
			}
			if p.ErrorHandler != nil {
				cerr, _ := verdict.Err.(*core.Error)
				if cerr == nil {
					cerr = &core.Error{Kind: core.Runtime, Op: st.Name, Err: verdict.Err}
				}
				p.ErrorHandler.HandleError(cerr, lc.LineNum, lc.RecNum, lc.Filename, st.Name)
			}
			return Outcome{Kind: Dropped, Err: verdict.Err}, nil
		case core.Keep:
			lc.Line = verdict.Line
		}
	}
	return Outcome{Kind: Produced, Line: lc.Line}, nil
}

// flushEmits writes every buffered emit to the sink, in call order, then
// clears the buffer — spec.md §4.5's "flush ... always, in buffer order".
// A sink write failure is an IO error and is always fatal (spec.md §7).
func (p *Pipeline) flushEmits(lc *linectx.Context) error {
	for _, e := range lc.Emits {
		if err := p.Sink.Write(core.Line(e)); err != nil {
			return &core.Error{Kind: core.IO, Op: "write emit", Err: err}
		}
	}
	lc.Emits = lc.Emits[:0]
	return nil
}
