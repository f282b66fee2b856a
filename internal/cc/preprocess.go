// Copyright 2026 The go-kusabira Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cc ties together translation phases 1-4: package source reads
// and splices the input, package lexer tokenizes each logical line,
// package parser recognizes directives and drives conditional
// compilation, and package macro performs replacement. Resolving
// #include to another line producer is explicitly out of scope here -
// it stays a named external collaborator a caller wires in by feeding
// its own Assembler (or a shared macro.Table) for the included file.
package cc

import (
	"io"
	"iter"

	"github.com/go-kusabira/kusabira/internal/cc/macro"
	"github.com/go-kusabira/kusabira/internal/cc/parser"
	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
	"github.com/go-kusabira/kusabira/internal/cc/source"
	"github.com/go-kusabira/kusabira/internal/diag"
)

// Preprocessor runs phases 1-4 over a single translation unit.
type Preprocessor struct {
	Filename string
	Env      macro.Environment // predefined + -D-style macros active from the start
	Reporter diag.Reporter
}

// Run reads r to EOF and returns the assembled SourceInfo: the
// directive tree and the fully macro-expanded pp-token stream.
func (p Preprocessor) Run(r io.Reader) (parser.SourceInfo, error) {
	reader, err := source.NewReader(r)
	if err != nil {
		return parser.SourceInfo{}, err
	}
	asm := parser.NewAssembler(p.Filename, p.Env, p.Reporter)
	return asm.Assemble(reader)
}

// Tokens adapts Run's result into the lazy iter.Seq[PPToken] the
// external-interface surface describes: a sequence emitted in source
// order, which a caller can range over without caring whether the
// underlying assembly was eager.
func Tokens(info parser.SourceInfo) iter.Seq[pptoken.PPToken] {
	return func(yield func(pptoken.PPToken) bool) {
		for _, tok := range info.Tokens {
			if !yield(tok) {
				return
			}
		}
	}
}
