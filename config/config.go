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

// Package config parses the linepipe command line into a Config, optionally
// layering in a TOML file loaded via --config. Flags always win over the
// file: the file only fills in values the command line left at their zero
// value.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/caseyhowe/linepipe/core"
)

// StageKind tags one entry of the declared -e/--filter sequence.
type StageKind int

const (
	StageTransform StageKind = iota
	StageFilter
)

// StageSpec is one -e or --filter occurrence, in declaration order.
type StageSpec struct {
	Kind   StageKind
	Source string
}

// Config is the fully resolved set of options a run needs, after flags and
// an optional --config file have been merged.
type Config struct {
	Stages      []StageSpec // from -e/--filter, in declaration order
	ScriptFile  string      // from -s, mutually exclusive with Stages
	Includes    []string    // from -I, repeatable, in declaration order
	Output      string      // from -o; empty means stdout
	FieldSep    string      // from -F
	NullMarker  string      // from --null
	HasNull     bool
	FailFast    bool // from --fail-fast
	Debug       bool // from --debug
	Stats       bool // from --stats
	ConfigFile  string
}

// fileConfig mirrors the subset of Config a TOML file may supply, following
// manifest.Manifest's pattern of a struct tagged one-to-one with the
// file's keys.
type fileConfig struct {
	Stages     []fileStage `toml:"stages"`
	ScriptFile string      `toml:"script_file"`
	Includes   []string    `toml:"includes"`
	Output     string      `toml:"output"`
	FieldSep   string      `toml:"field_sep"`
	NullMarker string      `toml:"null_marker"`
	FailFast   bool        `toml:"fail_fast"`
	Debug      bool        `toml:"debug"`
	Stats      bool        `toml:"stats"`
}

type fileStage struct {
	Kind   string `toml:"kind"` // "transform" or "filter"
	Source string `toml:"source"`
}

// stageFlags is a pflag.Value implementation that records every -e/--filter
// occurrence in the order pflag encounters them, since pflag's own
// StringArray loses the interleaving between two differently-named flags.
// -e and --filter each register their own stageFlagValue, both pointing
// at the same underlying *[]StageSpec, so appends from either flag land
// in one slice in encounter order.
type stageFlagValue struct {
	kind   StageKind
	target *[]StageSpec
}

func (v *stageFlagValue) String() string {
	return ""
}

func (v *stageFlagValue) Set(s string) error {
	*v.target = append(*v.target, StageSpec{Kind: v.kind, Source: s})
	return nil
}

func (v *stageFlagValue) Type() string {
	return "expr"
}

// Parse builds a Config from argv (ordinarily os.Args[1:]) plus any
// positional file arguments it leaves over, using pflag's flag-set idiom
// in place of a functional-options constructor.
func Parse(argv []string) (cfg *Config, positional []string, err error) {
	fs := pflag.NewFlagSet("linepipe", pflag.ContinueOnError)

	cfg = &Config{}
	fs.VarP(&stageFlagValue{kind: StageTransform, target: &cfg.Stages}, "e", "e", "append a transform stage")
	fs.Var(&stageFlagValue{kind: StageFilter, target: &cfg.Stages}, "filter", "append a filter stage")
	fs.StringVarP(&cfg.ScriptFile, "script", "s", "", "load a script file in place of -e/--filter")
	fs.StringArrayVarP(&cfg.Includes, "include", "I", nil, "evaluate an include file at startup (repeatable)")
	fs.StringVarP(&cfg.Output, "output", "o", "", "output sink path (default: stdout)")
	fs.StringVarP(&cfg.FieldSep, "field-sep", "F", "", "split each line on this separator and bind it to fields")
	nullMarker := fs.String("null", "", "replace a line exactly equal to this marker with an empty line")
	fs.BoolVar(&cfg.FailFast, "fail-fast", false, "abort the run on the first per-line error")
	fs.BoolVar(&cfg.Debug, "debug", false, "raise the diagnostic log level to debug")
	fs.BoolVar(&cfg.Stats, "stats", false, "print run statistics to the diagnostic stream at shutdown")
	fs.StringVar(&cfg.ConfigFile, "config", "", "load defaults from a TOML config file")

	if err := fs.Parse(argv); err != nil {
		return nil, nil, &core.Error{Kind: core.Usage, Op: "parse flags", Err: err}
	}
	cfg.HasNull = fs.Changed("null")
	cfg.NullMarker = *nullMarker

	if cfg.ConfigFile != "" {
		if err := mergeFile(cfg, cfg.ConfigFile, fs); err != nil {
			return nil, nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, nil, err
	}

	return cfg, fs.Args(), nil
}

// mergeFile layers fileConfig into cfg, filling only the fields the command
// line left unset (fs.Changed reports which flags the user actually typed).
func mergeFile(cfg *Config, path string, fs *pflag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &core.Error{Kind: core.Usage, Op: "read config file " + path, Err: err}
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return &core.Error{Kind: core.Usage, Op: "parse config file " + path, Err: err}
	}

	if len(cfg.Stages) == 0 {
		for _, s := range fc.Stages {
			kind := StageTransform
			if s.Kind == "filter" {
				kind = StageFilter
			}
			cfg.Stages = append(cfg.Stages, StageSpec{Kind: kind, Source: s.Source})
		}
	}
	if !fs.Changed("script") && cfg.ScriptFile == "" {
		cfg.ScriptFile = fc.ScriptFile
	}
	if !fs.Changed("include") && len(cfg.Includes) == 0 {
		cfg.Includes = fc.Includes
	}
	if !fs.Changed("output") && cfg.Output == "" {
		cfg.Output = fc.Output
	}
	if !fs.Changed("field-sep") && cfg.FieldSep == "" {
		cfg.FieldSep = fc.FieldSep
	}
	if !fs.Changed("null") && fc.NullMarker != "" {
		cfg.NullMarker = fc.NullMarker
		cfg.HasNull = true
	}
	if !fs.Changed("fail-fast") {
		cfg.FailFast = cfg.FailFast || fc.FailFast
	}
	if !fs.Changed("debug") {
		cfg.Debug = cfg.Debug || fc.Debug
	}
	if !fs.Changed("stats") {
		cfg.Stats = cfg.Stats || fc.Stats
	}

	return nil
}

// Validate rejects self-contradictory flag combinations before any line is
// read, following the precondition-checking style of the pack's
// validators.DataQualityValidator: check one constraint at a time, return
// the first violation as an error rather than collecting all of them.
func Validate(cfg *Config) error {
	if cfg.ScriptFile != "" && len(cfg.Stages) > 0 {
		return &core.Error{
			Kind: core.Usage,
			Op:   "validate flags",
			Err:  fmt.Errorf("-s cannot be combined with -e or --filter"),
		}
	}
	if cfg.ScriptFile == "" && len(cfg.Stages) == 0 {
		return &core.Error{
			Kind: core.Usage,
			Op:   "validate flags",
			Err:  fmt.Errorf("no pipeline given: use -e, --filter, or -s"),
		}
	}
	return nil
}
