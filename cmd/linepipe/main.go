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

// Command linepipe is the CLI entrypoint: it parses flags, compiles stages,
// wires a Pipeline to a Driver, and runs to completion.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/caseyhowe/linepipe/config"
	"github.com/caseyhowe/linepipe/core"
	"github.com/caseyhowe/linepipe/driver"
	"github.com/caseyhowe/linepipe/include"
	"github.com/caseyhowe/linepipe/pipeline"
	"github.com/caseyhowe/linepipe/stage"
	"github.com/caseyhowe/linepipe/store"
)

func main() {
	os.Exit(int(run(os.Args[1:])))
}

func run(argv []string) driver.ExitCode {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, positional, err := config.Parse(argv)
	if err != nil {
		log.Error().Err(err).Msg("usage error")
		return driver.ExitErrors
	}
	if cfg.Debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	st := store.New()

	shared, err := include.Load(context.Background(), cfg.Includes, st)
	if err != nil {
		log.Error().Err(err).Msg("include load failed")
		return driver.ExitErrors
	}

	stages, err := compileStages(cfg)
	if err != nil {
		log.Error().Err(err).Msg("stage compile failed")
		return driver.ExitErrors
	}

	sink, err := driver.SinkFor(cfg.Output)
	if err != nil {
		log.Error().Err(err).Msg("failed to open sink")
		return driver.ExitErrors
	}

	errorStrategy := core.LenientErrors
	if cfg.FailFast {
		errorStrategy = core.FailFast
	}

	p := &pipeline.Pipeline{
		Stages:        stages,
		Shared:        shared,
		Store:         st,
		Sink:          sink,
		ErrorStrategy: errorStrategy,
		ErrorHandler: core.ErrorHandlerFunc(func(err *core.Error, lineNum, recNum int64, filename, stageName string) {
			log.Warn().Err(err).Int64("line", lineNum).Str("filename", filename).Str("stage", stageName).Msg("line dropped")
		}),
	}

	d := &driver.Driver{
		Sources:       buildSources(positional),
		Pipeline:      p,
		Sink:          sink,
		FieldSep:      cfg.FieldSep,
		NullMarker:    cfg.NullMarker,
		HasNullMarker: cfg.HasNull,
		Log:           log,
	}

	code := d.Run(context.Background())

	if cfg.Stats {
		stats := d.Stats()
		log.Info().
			Int64("lines_read", stats.LinesRead).
			Int64("lines_produced", stats.LinesProduced).
			Int64("lines_dropped", stats.LinesDropped).
			Int64("errors", stats.Errors).
			Msg("run statistics")
	}

	return code
}

// compileStages builds the ordered Stage list from either -s or the
// interleaved -e/--filter sequence config.Validate has already confirmed
// are mutually exclusive.
func compileStages(cfg *config.Config) ([]*stage.Stage, error) {
	if cfg.ScriptFile != "" {
		src, err := os.ReadFile(cfg.ScriptFile)
		if err != nil {
			return nil, &core.Error{Kind: core.Parse, Op: "read script file " + cfg.ScriptFile, Err: err}
		}
		s, err := stage.Compile(core.Transform, cfg.ScriptFile, string(src))
		if err != nil {
			return nil, err
		}
		return []*stage.Stage{s}, nil
	}

	stages := make([]*stage.Stage, 0, len(cfg.Stages))
	for _, spec := range cfg.Stages {
		role := core.Transform
		name := "stage-e"
		if spec.Kind == config.StageFilter {
			role = core.Filter
			name = "stage-filter"
		}
		s, err := stage.Compile(role, name, spec.Source)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, nil
}

// buildSources turns positional file arguments into FileSources, or a
// single StdinSource when none are given (spec.md §6). FileSource opens
// lazily, so no error is possible yet.
func buildSources(positional []string) []core.LineSource {
	if len(positional) == 0 {
		return []core.LineSource{driver.NewStdinSource(os.Stdin)}
	}
	sources := make([]core.LineSource, 0, len(positional))
	for _, path := range positional {
		sources = append(sources, driver.NewFileSource(path))
	}
	return sources
}
