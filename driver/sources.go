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

package driver

import (
	"bufio"
	"io"
	"os"

	"github.com/caseyhowe/linepipe/core"
)

const maxLineBuffer = 16 * 1024 * 1024

// FileSource streams lines from a single file, opened lazily on its first
// Read call (spec.md §5: "input sources are opened lazily just before
// their first line is read").
type FileSource struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
}

// NewFileSource returns a FileSource for path. The file is not opened yet.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() (string, bool) {
	return s.path, true
}

func (s *FileSource) Read() (core.Line, error) {
	if s.scanner == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, &IOError{Op: "open " + s.path, Err: err}
		}
		s.file = f
		s.scanner = newLineScanner(f)
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, &IOError{Op: "read " + s.path, Err: err}
		}
		return nil, io.EOF
	}
	return core.Line(append([]byte(nil), s.scanner.Bytes()...)), nil
}

func (s *FileSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// StdinSource streams lines from standard input, used when no positional
// file arguments are given (spec.md §6: "zero positional arguments ⇒
// read standard input").
type StdinSource struct {
	scanner *bufio.Scanner
}

// NewStdinSource returns a StdinSource reading from r (ordinarily
// os.Stdin; a parameter here purely so tests can substitute a
// strings.Reader).
func NewStdinSource(r io.Reader) *StdinSource {
	return &StdinSource{scanner: newLineScanner(r)}
}

func (s *StdinSource) Name() (string, bool) {
	return "", false
}

func (s *StdinSource) Read() (core.Line, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, &IOError{Op: "read stdin", Err: err}
		}
		return nil, io.EOF
	}
	return core.Line(append([]byte(nil), s.scanner.Bytes()...)), nil
}

func (s *StdinSource) Close() error {
	return nil
}

// newLineScanner configures a bufio.Scanner the way CSV/JSON line-oriented
// readers elsewhere in this stack do: a generous max token size so a
// single unusually long line doesn't abort the run with bufio.ErrTooLong.
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBuffer)
	return scanner
}
