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

package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-kusabira/kusabira/internal/cc/macro"
	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
	"github.com/go-kusabira/kusabira/internal/cc/source"
	"github.com/go-kusabira/kusabira/internal/diag"
)

// recordingReporter is a diag.Reporter that just accumulates every
// report it sees, for tests that need to assert on diagnostics raised
// during assembly.
type recordingReporter struct {
	Reports []recordedReport
	Prints  []string
}

type recordedReport struct {
	Pos      diag.Position
	Kind     diag.Kind
	Severity diag.Severity
}

func (r *recordingReporter) Report(pos diag.Position, kind diag.Kind, severity diag.Severity) {
	r.Reports = append(r.Reports, recordedReport{Pos: pos, Kind: kind, Severity: severity})
}

func (r *recordingReporter) Print(pos diag.Position, message string) {
	r.Prints = append(r.Prints, message)
}

func assemble(t *testing.T, src string, env macro.Environment) (SourceInfo, *recordingReporter) {
	t.Helper()
	r, err := source.NewReader(strings.NewReader(src))
	require.NoError(t, err)
	rec := &recordingReporter{}
	a := NewAssembler("test.cpp", env, rec)
	info, err := a.Assemble(r)
	require.NoError(t, err)
	return info, rec
}

func outValues(info SourceInfo) []string {
	var out []string
	for _, tok := range info.Tokens {
		if tok.Category == pptoken.Newline {
			continue
		}
		out = append(out, tok.Value())
	}
	return out
}

func TestAssembleObjectMacroExpansion(t *testing.T) {
	info, rec := assemble(t, "#define WIDTH 80\nint w = WIDTH;\n", nil)
	assert.Empty(t, rec.Reports)
	assert.Equal(t, []string{"int", "w", "=", "80", ";"}, outValues(info))
}

func TestAssembleConditionalCompilationSkipsFalseBranch(t *testing.T) {
	src := "#define FEATURE 1\n#if FEATURE\nint a;\n#else\nint b;\n#endif\n"
	info, _ := assemble(t, src, nil)
	assert.Equal(t, []string{"int", "a", ";"}, outValues(info))
}

func TestAssembleConditionalCompilationTakesElse(t *testing.T) {
	src := "#if 0\nint a;\n#elif 0\nint b;\n#else\nint c;\n#endif\n"
	info, _ := assemble(t, src, nil)
	assert.Equal(t, []string{"int", "c", ";"}, outValues(info))
}

func TestAssembleFunctionMacroMultiLineCall(t *testing.T) {
	src := "#define ADD(a, b) ((a) + (b))\nint x = ADD(\n  1,\n  2\n);\n"
	info, _ := assemble(t, src, nil)
	assert.Equal(t, []string{"int", "x", "=", "(", "(", "1", ")", "+", "(", "2", ")", ")", ";"}, outValues(info))
}

func TestAssembleIncludesCollected(t *testing.T) {
	src := "#include <vector>\n#include \"local.h\"\n"
	info, _ := assemble(t, src, nil)
	includes := info.CollectIncludes()
	require.Len(t, includes, 2)
	assert.Equal(t, IncludeDirective{Path: "vector", IsSystem: true}, includes[0])
	assert.Equal(t, IncludeDirective{Path: "local.h", IsSystem: false}, includes[1])
}

func TestAssembleDetectsMain(t *testing.T) {
	info, _ := assemble(t, "int main() { return 0; }\n", nil)
	assert.True(t, info.HasMain)
}

func TestAssembleLineDirectiveShiftsLineMacro(t *testing.T) {
	src := "#line 100 \"generated.cpp\"\n__LINE__\n__FILE__\n"
	info, _ := assemble(t, src, nil)
	assert.Equal(t, []string{"100", `"generated.cpp"`}, outValues(info))
}

func TestAssembleConflictingRedefinitionReported(t *testing.T) {
	src := "#define N 1\n#define N 2\n"
	_, rec := assemble(t, src, nil)
	require.Len(t, rec.Reports, 1)
	assert.Equal(t, diag.KindMacroRedefinitionConflict, rec.Reports[0].Kind)
}

func TestAssembleUndef(t *testing.T) {
	src := "#define N 1\n#undef N\n#ifdef N\nint a;\n#else\nint b;\n#endif\n"
	info, _ := assemble(t, src, nil)
	assert.Equal(t, []string{"int", "b", ";"}, outValues(info))
}

func TestAssembleUserDefinedLiteralGluing(t *testing.T) {
	info, _ := assemble(t, `auto len = "cm"_s;`+"\n", nil)
	assert.Equal(t, []string{"auto", "len", "=", `"cm"_s`, ";"}, outValues(info))
	require.Len(t, info.Tokens, 6) // 5 real tokens plus the trailing newline marker
	assert.Equal(t, pptoken.UserDefinedStringLiteral, info.Tokens[3].Category)
}

func TestAssembleUserDefinedLiteralNotGluedAcrossWhitespace(t *testing.T) {
	info, _ := assemble(t, `auto len = "cm" _s;`+"\n", nil)
	assert.Equal(t, []string{"auto", "len", "=", `"cm"`, "_s", ";"}, outValues(info))
	assert.Equal(t, pptoken.StringLiteral, info.Tokens[3].Category)
}

func TestAssembleDigraphAngleBracketColonException(t *testing.T) {
	info, _ := assemble(t, "a<::b>c;\n", nil)
	assert.Equal(t, []string{"a", "<", "::", "b", ">", "c", ";"}, outValues(info))
}

func TestAssembleDigraphNotRewrittenWhenFollowedByColon(t *testing.T) {
	// <:: immediately followed by another : stays the digraph <: plus ::.
	info, _ := assemble(t, "a<:::b>c;\n", nil)
	assert.Equal(t, []string{"a", "<:", "::", "b", ">", "c", ";"}, outValues(info))
}

func TestAssembleRawStringAcrossLogicalLines(t *testing.T) {
	src := "auto s = R\"d(line1\nline2)d\";\n"
	info, _ := assemble(t, src, nil)
	require.GreaterOrEqual(t, len(info.Tokens), 5)
	assert.Equal(t, "R\"d(line1\nline2)d\"", info.Tokens[3].Value())
	assert.Equal(t, pptoken.RawStringLiteral, info.Tokens[3].Category)
	assert.Equal(t, []string{"auto", "s", "=", "R\"d(line1\nline2)d\"", ";"}, outValues(info))
}
