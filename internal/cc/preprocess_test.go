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

package cc

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-kusabira/kusabira/internal/cc/platform"
	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
	"github.com/go-kusabira/kusabira/internal/diag"
)

func TestTokensIteratesInOrder(t *testing.T) {
	src := "#define N 1\nint x = N;\n"
	p := Preprocessor{Filename: "test.cpp", Reporter: diag.NewWriterReporter(io.Discard)}
	info, err := p.Run(strings.NewReader(src))
	require.NoError(t, err)

	var values []string
	for tok := range Tokens(info) {
		if tok.Category == pptoken.Newline {
			continue
		}
		values = append(values, tok.Value())
	}
	assert.Equal(t, []string{"int", "x", "=", "1", ";"}, values)
}

func TestPreprocessorDetectsMainAcrossIf(t *testing.T) {
	src := "#ifdef UNDEFINED\nvoid unused();\n#else\nint main() { return 0; }\n#endif\n"
	p := Preprocessor{Filename: "test.cpp", Reporter: diag.NewWriterReporter(io.Discard)}
	info, err := p.Run(strings.NewReader(src))
	require.NoError(t, err)
	assert.True(t, info.HasMain)
}

func TestPreprocessorSeedsPlatformEnvironment(t *testing.T) {
	linux, err := platform.Create("linux", "x86_64")
	require.NoError(t, err)

	src := "#ifdef __linux__\nint linux_only();\n#else\nint other();\n#endif\n"
	p := Preprocessor{
		Filename: "test.cpp",
		Env:      platform.KnownPlatformEnv[linux],
		Reporter: diag.NewWriterReporter(io.Discard),
	}
	info, err := p.Run(strings.NewReader(src))
	require.NoError(t, err)

	var values []string
	for tok := range Tokens(info) {
		if tok.Category == pptoken.Newline {
			continue
		}
		values = append(values, tok.Value())
	}
	assert.Equal(t, []string{"int", "linux_only", "(", ")", ";"}, values)
}
