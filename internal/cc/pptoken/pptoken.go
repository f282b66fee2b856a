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

// Package pptoken defines the preprocessing-token representation shared
// between the lexer, the assembler and the macro expander.
package pptoken

import "github.com/go-kusabira/kusabira/internal/cc/source"

// Category is the closed set of preprocessing-token categories a
// finished PPToken can carry. It overlaps the lexer's lexeme categories
// without being a subset of them: whitespace runs and comments never
// survive into a PPToken stream, while NotMacroIdentifier (an identifier
// blue-painted during macro rescanning), UserDefinedStringLiteral,
// HeaderName, Placemarker and EOF exist only here.
type Category int

const (
	Identifier Category = iota
	NotMacroIdentifier // an identifier painted blue: suppressed for further expansion
	PPNumber
	CharacterLiteral
	StringLiteral
	RawStringLiteral
	UserDefinedStringLiteral
	OpOrPunc
	OtherChar
	HeaderName // the <...> or "..." token scanned only after #include
	Placemarker
	Newline
	EOF
)

func (c Category) String() string {
	switch c {
	case Identifier:
		return "identifier"
	case NotMacroIdentifier:
		return "non-macro-identifier"
	case PPNumber:
		return "pp-number"
	case CharacterLiteral:
		return "character-literal"
	case StringLiteral:
		return "string-literal"
	case RawStringLiteral:
		return "raw-string-literal"
	case UserDefinedStringLiteral:
		return "user-defined-string-literal"
	case OpOrPunc:
		return "operator-or-punctuator"
	case OtherChar:
		return "other-char"
	case HeaderName:
		return "header-name"
	case Placemarker:
		return "placemarker"
	case Newline:
		return "newline"
	case EOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Position identifies where a PPToken originated, for diagnostics and
// for __LINE__/__FILE__ resolution.
type Position struct {
	File        string
	PhysicalLine int
	Column      int
}

// text is the "sometimes-owning string" described by the design notes: a
// PPToken's text is either a borrowed view into a LogicalLine's backing
// string (built with NewView) or an owned buffer (built with NewOwned).
// The assembler builds every lexed token with NewOwned, just as it does
// the tokens produced by stringization, token pasting and
// predefined-macro materialization, so no token of an assembled stream
// borrows from its line. Both variants expose the same Value() accessor,
// so callers never need to know which one they hold.
type text struct {
	owned    string
	borrowed *source.LogicalLine
	start    int
	end      int
}

func (t text) Value() string {
	if t.borrowed != nil {
		return t.borrowed.Text[t.start:t.end]
	}
	return t.owned
}

// PPToken is one preprocessing token: a category, its text, and the
// position it should be reported at for diagnostics.
type PPToken struct {
	Category Category
	Pos      Position
	text     text

	// SpaceBefore reports whether this token was separated from the one
	// preceding it on its logical line by whitespace or a comment in the
	// original source. Stringization (# x) and the <:: digraph exception
	// both need the real source adjacency, not an assumed one, so the
	// assembler stamps this in at tokenization time and it survives
	// unchanged through argument slicing and macro rescanning.
	SpaceBefore bool
}

// NewView constructs a PPToken whose text is a borrowed view into ll,
// spanning the byte range [start, end).
func NewView(category Category, pos Position, ll *source.LogicalLine, start, end int) PPToken {
	return PPToken{
		Category: category,
		Pos:      pos,
		text:     text{borrowed: ll, start: start, end: end},
	}
}

// NewOwned constructs a PPToken whose text is an owned string. The
// assembler uses it for every lexed token as well as for tokens
// materialized by ## pasting, # stringization or predefined-macro
// expansion.
func NewOwned(category Category, pos Position, value string) PPToken {
	return PPToken{
		Category: category,
		Pos:      pos,
		text:     text{owned: value},
	}
}

// Value returns the token's textual spelling.
func (t PPToken) Value() string {
	return t.text.Value()
}

// WithCategory returns a copy of t with its category replaced, keeping
// the same underlying text storage. Used by the macro expander's blue
// painting (Identifier -> NotMacroIdentifier) and its inverse during
// cleanup.
func (t PPToken) WithCategory(c Category) PPToken {
	t.Category = c
	return t
}

// IsWhitespaceSignificant reports whether two adjacent tokens of these
// categories require a separating space to avoid an accidental token
// merge when re-lexed - the rule stringization and macro expansion
// output both need to respect.
func IsWhitespaceSignificant(left, right Category) bool {
	identifierLike := func(c Category) bool {
		return c == Identifier || c == NotMacroIdentifier || c == PPNumber
	}
	if identifierLike(left) && identifierLike(right) {
		return true
	}
	if left == OpOrPunc && right == OpOrPunc {
		return true
	}
	return false
}
