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

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextToken(t *testing.T) {
	testCases := []struct {
		name            string
		input           string
		expectedKind    Kind
		expectedContent string
	}{
		{"empty", "", KindEmpty, ""},
		{"newline", "\n\n", KindNewline, "\n"},
		{"whitespace run", "\t\t abc", KindWhitespaceRun, "\t\t "},
		{"identifier", "foo_Bar123", KindIdentifier, "foo_Bar123"},
		{"pp-number simple", "123", KindPPNumber, "123"},
		{"pp-number with dot", "3.14f", KindPPNumber, "3.14f"},
		{"pp-number hex", "0x1AuLL", KindPPNumber, "0x1AuLL"},
		{"pp-number exponent sign", "1e+10", KindPPNumber, "1e+10"},
		{"pp-number leading dot", ".5", KindPPNumber, ".5"},
		{"string literal", `"hello\nworld"`, KindStringLiteral, `"hello\nworld"`},
		{"char literal", `'a'`, KindCharacterLiteral, `'a'`},
		{"line comment", "// trailing\nnext", KindLineComment, "// trailing"},
		{"block comment", "/* a\nb */x", KindBlockComment, "/* a\nb */"},
		{"op-or-punc longest match", "<<=", KindOpOrPunc, "<<="},
		{"op-or-punc single", "+", KindOpOrPunc, "+"},
		{"digraph", "<:", KindOpOrPunc, "<:"},
		{"hashhash", "##", KindOpOrPunc, "##"},
		{"raw string literal", `R"(a"b)"`, KindRawStringLiteral, `R"(a"b)"`},
		{"raw string with delimiter", `R"lua(a)b)lua"`, KindRawStringLiteral, `R"lua(a)b)lua"`},
		{"wide string literal", `L"wide"`, KindStringLiteral, `L"wide"`},
		{"utf8 string literal", `u8"utf8"`, KindStringLiteral, `u8"utf8"`},
		{"utf16 string literal", `u"u16"`, KindStringLiteral, `u"u16"`},
		{"wide char literal", `U'x'`, KindCharacterLiteral, `U'x'`},
		{"wide raw string literal", `LR"(a)"`, KindRawStringLiteral, `LR"(a)"`},
		{"utf8 raw string literal", `u8R"(a)"`, KindRawStringLiteral, `u8R"(a)"`},
		{"utf16 raw string literal", `uR"(a)"`, KindRawStringLiteral, `uR"(a)"`},
		{"utf32 raw string literal", `UR"(a)"`, KindRawStringLiteral, `UR"(a)"`},
		{"other char", "`", KindOtherChar, "`"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lx := NewLexer([]byte(tc.input))
			tok := lx.NextToken()
			assert.Equal(t, tc.expectedKind, tok.Kind)
			assert.Equal(t, tc.expectedContent, tok.Content)
		})
	}
}

func TestNextTokenErrors(t *testing.T) {
	testCases := []struct {
		name         string
		input        string
		expectedKind Kind
	}{
		{"unterminated block comment", "/* never closes", KindErrorUnterminatedBlockComment},
		{"unterminated string literal", `"never closes`, KindErrorUnterminatedStringLiteral},
		{"newline inside string literal", "\"a\nb\"", KindErrorNewlineInLiteral},
		{"raw string delimiter over 16 chars", `R"01234567890123456(body)01234567890123456"`, KindErrorRawStringDelimiterOver16Chars},
		{"raw string delimiter invalid char", `R" ()"`, KindErrorRawStringDelimiterInvalid},
		{"raw string unterminated", `R"(never closes`, KindErrorRawStringUnterminated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lx := NewLexer([]byte(tc.input))
			tok := lx.NextToken()
			assert.Equal(t, tc.expectedKind, tok.Kind)
			assert.True(t, tok.Kind.IsError())
		})
	}
}

func TestAll(t *testing.T) {
	lx := NewLexer([]byte("int x = 1;"))
	var kinds []Kind
	for tok := range lx.All() {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{
		KindIdentifier, KindWhitespaceRun, KindIdentifier, KindWhitespaceRun,
		KindOpOrPunc, KindWhitespaceRun, KindPPNumber, KindOpOrPunc,
	}, kinds)
}

func TestAlternativeTokenNotConfusedWithIdentifier(t *testing.T) {
	lx := NewLexer([]byte("android"))
	tok := lx.NextToken()
	assert.Equal(t, KindIdentifier, tok.Kind)
	assert.Equal(t, "android", tok.Content)
}

func TestLiteralPrefixLikeIdentifierNotConfusedWithPrefix(t *testing.T) {
	testCases := []string{"L", "U", "u", "u8", "R", "LR", "Length", "user8"}
	for _, in := range testCases {
		t.Run(in, func(t *testing.T) {
			lx := NewLexer([]byte(in))
			tok := lx.NextToken()
			assert.Equal(t, KindIdentifier, tok.Kind)
			assert.Equal(t, in, tok.Content)
		})
	}
}
