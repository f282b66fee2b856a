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

import "sort"

// punctuators lists every C++20 operator/punctuator lexeme, longest
// spelling first within each starting byte so a longest-match scan can
// simply walk the list in order. Digraphs (<%, %>, <:, :>, %:, %:%:)
// are included: they lex as their own spelling and keep that spelling
// in the assembled pp-token stream. The assembler does not translate
// them to their primary form; its only digraph rewrite is the <::
// exception (fixDigraphPairs in package parser).
var punctuators = func() []string {
	all := []string{
		"{", "}", "[", "]", "(", ")",
		"<:", ":>", "<%", "%>", "%:%:", "%:",
		";", ":", "...", "?", "::", ".", ".*",
		"->*", "->", "~",
		"!", "+", "-", "*", "/", "%", "^", "&", "|",
		"=", "+=", "-=", "*=", "/=", "%=", "^=", "&=", "|=",
		"==", "!=", "<", ">", "<=", ">=", "<=>",
		"&&", "||", "<<", ">>", "<<=", ">>=",
		"++", "--", ",",
		"and", "or", "xor", "not", "bitand", "bitor", "compl",
		"and_eq", "or_eq", "xor_eq", "not_eq",
		"#", "##", "%:%:",
	}
	sort.Slice(all, func(i, j int) bool { return len(all[i]) > len(all[j]) })
	return all
}()

// matchPunctuator returns the longest punctuator spelling that is a
// prefix of data, or "" if none matches. Alphabetic alternative
// operators (and, or, not, ...) are matched only when not immediately
// followed by an identifier-continuation character, so "android" is
// never mistaken for "and" + "roid".
func matchPunctuator(data []byte) string {
	for _, p := range punctuators {
		if len(p) > len(data) {
			continue
		}
		if string(data[:len(p)]) != p {
			continue
		}
		if isAlternativeToken(p) {
			if len(data) > len(p) && isIdentifierContinue(data[len(p)]) {
				continue
			}
		}
		return p
	}
	return ""
}

func isAlternativeToken(p string) bool {
	switch p {
	case "and", "or", "xor", "not", "bitand", "bitor", "compl",
		"and_eq", "or_eq", "xor_eq", "not_eq":
		return true
	}
	return false
}

// fixDigraphAngleBracketColon rewrites a "<:" "::" lexeme pair to "<"
// "::" unless next is : or >. The assembler does not call it: maximal
// munch lexes <:: as "<:" followed by a lone ":", so the <:: exception
// from [lex.pptoken]p3 is applied by fixDigraphPairs in package parser
// instead.
func fixDigraphAngleBracketColon(first, second string, next byte) (string, string, bool) {
	if first != "<:" || second != "::" {
		return first, second, false
	}
	if next == ':' || next == '>' {
		return first, second, false
	}
	return "<", "::", true
}
