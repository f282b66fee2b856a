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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-kusabira/kusabira/internal/cc/lexer"
	"github.com/go-kusabira/kusabira/internal/cc/macro"
	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
)

func exprToks(t *testing.T, src string) []pptoken.PPToken {
	t.Helper()
	lx := lexer.NewLexer([]byte(src))
	var out []pptoken.PPToken
	for lt := range lx.All() {
		switch lt.Kind {
		case lexer.KindWhitespaceRun, lexer.KindNewline:
			continue
		}
		require.False(t, lt.Kind.IsError())
		out = append(out, pptoken.NewOwned(lexKindToCategory(lt.Kind), pptoken.Position{}, lt.Content))
	}
	return out
}

func evalSrc(t *testing.T, src string, env macro.Environment) bool {
	t.Helper()
	expr, err := ParseIfExpression(exprToks(t, src))
	require.NoError(t, err)
	result, err := Evaluate(expr, env)
	require.NoError(t, err)
	return result
}

func TestEvaluateDefined(t *testing.T) {
	env := macro.Environment{"FOO": 1}
	assert.True(t, evalSrc(t, "defined(FOO)", env))
	assert.True(t, evalSrc(t, "defined FOO", env))
	assert.False(t, evalSrc(t, "defined(BAR)", env))
	assert.False(t, evalSrc(t, "!defined(FOO)", env))
}

func TestEvaluateLogicAndCompare(t *testing.T) {
	env := macro.Environment{"VERSION": 201703}
	assert.True(t, evalSrc(t, "VERSION >= 201402", env))
	assert.False(t, evalSrc(t, "VERSION < 201402", env))
	assert.True(t, evalSrc(t, "VERSION >= 201402 && VERSION < 202003", env))
	assert.True(t, evalSrc(t, "VERSION == 0 || VERSION == 201703", env))
}

func TestEvaluateUndefinedIdentIsZero(t *testing.T) {
	assert.False(t, evalSrc(t, "UNKNOWN", macro.Environment{}))
	assert.True(t, evalSrc(t, "!UNKNOWN", macro.Environment{}))
}

func TestCompareNegate(t *testing.T) {
	c := Compare{Left: Ident("A"), Op: "==", Right: ConstantInt(1)}
	assert.Equal(t, "!=", c.Negate().Op)
	assert.Equal(t, "<", Compare{Op: ">="}.Negate().Op)
}
