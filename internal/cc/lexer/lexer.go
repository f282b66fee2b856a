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

// Package lexer implements translation phase 3: tokenizing the text of
// a single logical line into preprocessing lexemes. It is a deterministic
// finite-state machine with accept-and-restart semantics - each call to
// NextToken consumes the longest lexeme that matches at the current
// position, using at most one character of lookahead to decide when a
// lexeme ends.
package lexer

import (
	"iter"
	"strings"
)

// Lexer tokenizes the text of one logical line. It never looks past
// the end of that line's text: callers drive one Lexer per logical
// line and re-lex across physical-line boundaries only through the
// assembler's raw-string reassembly (the sole category whose body can
// legitimately contain the bytes of a continuation).
type Lexer struct {
	dataLeft []byte
	cursor   Cursor
}

// NewLexer returns a Lexer over the text of one logical line.
func NewLexer(logicalLineText []byte) *Lexer {
	return &Lexer{dataLeft: logicalLineText, cursor: CursorInit}
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentifierStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

func isIdentifierContinue(b byte) bool {
	return isIdentifierStart(b) || isDigit(b)
}

func (lx *Lexer) consume(n int, kind Kind) Token {
	content := string(lx.dataLeft[:n])
	tok := Token{Kind: kind, Location: lx.cursor, Content: content}
	lx.dataLeft = lx.dataLeft[n:]
	lx.cursor = lx.cursor.AdvancedBy(content)
	return tok
}

func (lx *Lexer) consumeError(n int, kind Kind) Token {
	if n > len(lx.dataLeft) {
		n = len(lx.dataLeft)
	}
	return lx.consume(n, kind)
}

// NextToken returns the next lexeme, or EOF once the line is exhausted.
func (lx *Lexer) NextToken() Token {
	if len(lx.dataLeft) == 0 {
		return EOF
	}

	b := lx.dataLeft[0]
	switch {
	case b == '\n':
		return lx.consume(1, KindNewline)
	case isWhitespace(b):
		i := 1
		for i < len(lx.dataLeft) && isWhitespace(lx.dataLeft[i]) {
			i++
		}
		return lx.consume(i, KindWhitespaceRun)
	case b == '/' && hasPrefix(lx.dataLeft, "//"):
		return lx.scanLineComment()
	case b == '/' && hasPrefix(lx.dataLeft, "/*"):
		return lx.scanBlockComment()
	case b == '"':
		return lx.scanStringLiteral()
	case b == '\'':
		return lx.scanCharacterLiteral()
	case isIdentifierStart(b):
		return lx.scanIdentifierOrRawString()
	case isDigit(b):
		return lx.scanPPNumber()
	case b == '.' && len(lx.dataLeft) > 1 && isDigit(lx.dataLeft[1]):
		return lx.scanPPNumber()
	default:
		if p := matchPunctuator(lx.dataLeft); p != "" {
			return lx.consume(len(p), KindOpOrPunc)
		}
		return lx.consume(1, KindOtherChar)
	}
}

func hasPrefix(data []byte, prefix string) bool {
	return len(data) >= len(prefix) && string(data[:len(prefix)]) == prefix
}

func (lx *Lexer) scanLineComment() Token {
	i := strings.IndexByte(string(lx.dataLeft), '\n')
	if i == -1 {
		i = len(lx.dataLeft)
	}
	return lx.consume(i, KindLineComment)
}

func (lx *Lexer) scanBlockComment() Token {
	rest := lx.dataLeft[2:]
	if i := strings.Index(string(rest), "*/"); i != -1 {
		return lx.consume(2+i+2, KindBlockComment)
	}
	return lx.consumeError(len(lx.dataLeft), KindErrorUnterminatedBlockComment)
}

// scanLiteralBody scans a "..." or '...' literal body starting at
// dataLeft[start] == quote, honoring backslash escapes, and reports
// whether a raw newline was hit before the closing quote (a hard error
// per [lex.string]/[lex.ccon] - non-raw literals cannot span physical
// lines except via line splicing, which phase 2 already resolved).
// start is nonzero when the literal carries an L/U/u/u8 prefix.
func (lx *Lexer) scanLiteralBody(start int, quote byte, okKind, unterminatedKind, newlineKind Kind) Token {
	i := start + 1
	for i < len(lx.dataLeft) {
		switch lx.dataLeft[i] {
		case '\\':
			if i+1 < len(lx.dataLeft) {
				i += 2
				continue
			}
			i++
		case '\n':
			return lx.consumeError(i, newlineKind)
		case quote:
			return lx.consume(i+1, okKind)
		default:
			i++
		}
	}
	return lx.consumeError(i, unterminatedKind)
}

func (lx *Lexer) scanStringLiteral() Token {
	return lx.scanLiteralBody(0, '"', KindStringLiteral, KindErrorUnterminatedStringLiteral, KindErrorNewlineInLiteral)
}

func (lx *Lexer) scanCharacterLiteral() Token {
	return lx.scanLiteralBody(0, '\'', KindCharacterLiteral, KindErrorUnterminatedCharLiteral, KindErrorNewlineInLiteral)
}

// rawStringPrefixes and stringPrefixes are the encoding prefixes
// [lex.string] allows before a string or character literal. R and its
// combinations hand off to the raw-string sub-automaton; the rest are
// plain string/char literals with a wider character type.
var rawStringPrefixes = map[string]bool{
	"R": true, "LR": true, "UR": true, "uR": true, "u8R": true,
}

var stringPrefixes = map[string]bool{
	"L": true, "U": true, "u": true, "u8": true,
}

// scanIdentifierOrRawString scans an identifier, and if the identifier
// turns out to be one of the encoding prefixes immediately followed by
// a '"' or '\'', hands off to the literal or raw-string sub-automaton
// (accept-and-restart: the prefix is only committed to meaning
// "literal prefix" once the quote lookahead confirms it).
func (lx *Lexer) scanIdentifierOrRawString() Token {
	i := 1
	for i < len(lx.dataLeft) && isIdentifierContinue(lx.dataLeft[i]) {
		i++
	}
	ident := string(lx.dataLeft[:i])
	if i >= len(lx.dataLeft) {
		return lx.consume(i, KindIdentifier)
	}
	next := lx.dataLeft[i]
	switch {
	case next == '"' && rawStringPrefixes[ident]:
		return lx.scanRawString(i + 1)
	case next == '"' && stringPrefixes[ident]:
		return lx.scanLiteralBody(i, '"', KindStringLiteral, KindErrorUnterminatedStringLiteral, KindErrorNewlineInLiteral)
	case next == '\'' && stringPrefixes[ident]:
		return lx.scanLiteralBody(i, '\'', KindCharacterLiteral, KindErrorUnterminatedCharLiteral, KindErrorNewlineInLiteral)
	}
	return lx.consume(i, KindIdentifier)
}

// scanRawString is entered right after the opening R" of a raw-string
// literal, with delimStart the offset of the first delimiter byte.
func (lx *Lexer) scanRawString(delimStart int) Token {
	delimiter, delimConsumed, outcome := readRawStringDelimiter(lx.dataLeft[delimStart:])
	switch outcome {
	case rawStringDelimiterInvalid:
		return lx.consumeError(delimStart+delimConsumed, KindErrorRawStringDelimiterInvalid)
	case rawStringDelimiterOver16:
		return lx.consumeError(delimStart+delimConsumed, KindErrorRawStringDelimiterOver16Chars)
	}
	bodyStart := delimStart + delimConsumed
	bodyLen := scanRawStringBody(lx.dataLeft[bodyStart:], delimiter)
	if bodyLen == -1 {
		return lx.consumeError(len(lx.dataLeft), KindErrorRawStringUnterminated)
	}
	return lx.consume(bodyStart+bodyLen, KindRawStringLiteral)
}

// scanPPNumber implements the pp-number grammar from [lex.ppnumber]:
// a digit or .digit, followed by any run of digits, identifier-nondigits,
// ., or a sign immediately following an e/E/p/P exponent marker.
func (lx *Lexer) scanPPNumber() Token {
	i := 1
	for i < len(lx.dataLeft) {
		b := lx.dataLeft[i]
		switch {
		case (b == 'e' || b == 'E' || b == 'p' || b == 'P') && i+1 < len(lx.dataLeft) && (lx.dataLeft[i+1] == '+' || lx.dataLeft[i+1] == '-'):
			i += 2
		case isIdentifierContinue(b) || b == '.' || b == '\'':
			i++
		default:
			return lx.consume(i, KindPPNumber)
		}
	}
	return lx.consume(i, KindPPNumber)
}

// All lazily yields every lexeme in the line, EOF excluded.
func (lx *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for len(lx.dataLeft) > 0 {
			if !yield(lx.NextToken()) {
				return
			}
		}
	}
}
