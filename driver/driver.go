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

// Package driver implements the Stream Driver: the outermost loop that
// iterates LineSources in sequence, drives the Pipeline one line at a
// time, and computes the run's exit code.
//
// Grounded on the root Pipeline.Execute read loop and
// dag/dag_executor.go's iterate-with-error-policy structure, generalized
// from executing DAG nodes in dependency order to executing LineSources in
// declared order.
package driver

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/caseyhowe/linepipe/core"
	"github.com/caseyhowe/linepipe/linectx"
	"github.com/caseyhowe/linepipe/pipeline"
)

// ExitCode mirrors spec.md §6/§7/§8's three-way outcome.
type ExitCode int

const (
	ExitSuccess  ExitCode = 0
	ExitErrors   ExitCode = 1
	ExitNoOutput ExitCode = 2
)

// RunStats accumulates the counters the --stats flag reports at shutdown,
// following CSVReaderStats/PostgresWriterStats's pattern of a plain
// struct of running totals, returned by value so callers can't mutate the
// driver's copy.
type RunStats struct {
	LinesRead     int64
	LinesProduced int64
	LinesDropped  int64
	Errors        int64
}

// Driver iterates Sources in sequence and feeds each line to Pipeline.
type Driver struct {
	Sources  []core.LineSource
	Pipeline *pipeline.Pipeline
	Sink     core.LineSink

	// FieldSep, if non-empty, splits each line on it and binds the parts
	// to the per-line "fields" ambient identifier (SPEC_FULL §12, the
	// "-F <pattern>" field splitter).
	FieldSep string
	// NullMarker, if set, replaces a line exactly equal to it with an empty
	// line before the stages run (SPEC_FULL §12). Scripts see it as the
	// empty string, not the absent value, and cannot tell it apart from a
	// genuinely empty input line.
	NullMarker    string
	HasNullMarker bool

	Log zerolog.Logger

	stats RunStats
}

// Stats returns a copy of the accumulated run statistics.
func (d *Driver) Stats() RunStats {
	return d.stats
}

// Run implements spec.md §4.6's source-iteration loop and computes the
// final exit code per spec.md §6/§7/§8.
func (d *Driver) Run(ctx context.Context) ExitCode {
	var lineNum int64
	var anyOutput, hadErrors bool

	for _, src := range d.Sources {
		var recNum int64
		filename, hasFilename := src.Name()

		terminated, err := d.runSource(ctx, src, filename, hasFilename, &lineNum, &recNum, &anyOutput)
		if err != nil {
			d.Log.Error().Err(err).Str("filename", filename).Msg("input source failed")
			hadErrors = true
			d.stats.Errors++
		}
		closeErr := src.Close()
		if closeErr != nil {
			d.Log.Warn().Err(closeErr).Str("filename", filename).Msg("error closing source")
		}
		if terminated {
			break
		}
	}

	if err := d.Sink.Close(); err != nil {
		d.Log.Error().Err(err).Msg("sink close failed")
		hadErrors = true
	}

	switch {
	case hadErrors || d.stats.Errors > 0:
		return ExitErrors
	case !anyOutput:
		return ExitNoOutput
	default:
		return ExitSuccess
	}
}

// runSource drains one source to completion or Terminate, reporting
// whether the whole run should stop (Terminate or a fatal IO error).
func (d *Driver) runSource(
	ctx context.Context,
	src core.LineSource,
	filename string,
	hasFilename bool,
	lineNum, recNum *int64,
	anyOutput *bool,
) (terminated bool, fatal error) {
	lc := &linectx.Context{Filename: filename, HasFilename: hasFilename}
	for {
		line, err := src.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			// Per spec.md §7: "IO on input: close current source,
			// continue with next; flag had_errors." We stop reading
			// this source only; the caller moves on to the next one.
			return false, err
		}

		*lineNum++
		*recNum++
		d.stats.LinesRead++

		lc.Reset()
		lc.Line = line
		lc.LineNum = *lineNum
		lc.RecNum = *recNum
		d.applyFieldSplit(lc)
		d.applyNullMarker(lc)

		outcome, err := d.Pipeline.ProcessLine(ctx, lc)
		if err != nil {
			// A sink write failure surfacing from ProcessLine's emit
			// flush is always fatal (spec.md §7: "IO on sink: abort the
			// run") — stop the whole run, not just this source.
			return true, err
		}

		switch outcome.Kind {
		case pipeline.Produced:
			if werr := d.Sink.Write(outcome.Line); werr != nil {
				return true, werr
			}
			*anyOutput = true
			d.stats.LinesProduced++
		case pipeline.Dropped:
			d.stats.LinesDropped++
			if outcome.Err != nil {
				d.Log.Warn().Err(outcome.Err).Int64("line", *lineNum).Msg("line dropped after stage error")
				d.stats.Errors++
			}
		case pipeline.Terminated:
			if outcome.Message != "" {
				d.Log.Warn().Msg(outcome.Message)
			}
			return true, nil
		case pipeline.Aborted:
			d.Log.Error().Err(outcome.Err).Msg("stage aborted the run")
			return true, outcome.Err
		}
	}
}

func (d *Driver) applyFieldSplit(lc *linectx.Context) {
	if d.FieldSep == "" {
		return
	}
	lc.Fields = strings.Split(lc.Line.String(), d.FieldSep)
}

func (d *Driver) applyNullMarker(lc *linectx.Context) {
	if !d.HasNullMarker {
		return
	}
	if lc.Line.String() == d.NullMarker {
		lc.Line = nil
	}
}
