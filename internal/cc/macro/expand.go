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

package macro

import (
	"fmt"
	"strings"

	"github.com/go-kusabira/kusabira/internal/cc/lexer"
	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
	"github.com/go-kusabira/kusabira/internal/collections"
)

// Expander runs the Steps A-D macro-replacement algorithm against a
// Table. It holds no state of its own beyond the table: the blue set
// that suppresses self-reference is threaded explicitly through every
// call rather than kept on the Expander, so one Expander can safely
// drive concurrently-rescanned branches (e.g. an argument's prescan and
// the enclosing call's rescan) without them observing each other's
// blue-painting.
type Expander struct {
	table *Table
}

func NewExpander(t *Table) *Expander {
	return &Expander{table: t}
}

// ExpandSequence runs full macro replacement over tokens - a single
// text line's (or a #if controlling expression's) assembled pp-token
// sequence - and returns the fully expanded, cleaned-up result.
func (ex *Expander) ExpandSequence(tokens []pptoken.PPToken) ([]pptoken.PPToken, error) {
	blue := collections.SetOf[string]()
	expanded, err := ex.expandTokens(tokens, blue)
	if err != nil {
		return nil, err
	}
	return cleanup(expanded), nil
}

// expandTokens is the rescan loop (Step C, and the outer driver for
// Step A/B): it walks tokens left to right, replacing every macro
// invocation whose name is not in blue, and leaving everything else -
// including macro names that ARE in blue, after painting them
// NotMacroIdentifier - untouched.
func (ex *Expander) expandTokens(tokens []pptoken.PPToken, blue collections.Set[string]) ([]pptoken.PPToken, error) {
	var out []pptoken.PPToken
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.Category != pptoken.Identifier {
			out = append(out, tok)
			i++
			continue
		}
		name := tok.Value()
		if blue.Contains(name) {
			out = append(out, tok.WithCategory(pptoken.NotMacroIdentifier))
			i++
			continue
		}
		if predef, ok := ex.table.expandPredefined(name, tok.Pos.PhysicalLine); ok {
			out = append(out, predef)
			i++
			continue
		}
		m, ok := ex.table.Lookup(name)
		if !ok {
			out = append(out, tok)
			i++
			continue
		}
		if m.Kind == ObjectLike {
			replaced, err := ex.expandObjectMacro(m, blue)
			if err != nil {
				return nil, err
			}
			out = append(out, replaced...)
			i++
			continue
		}
		// Function-like: only a call if immediately followed by '('.
		if i+1 < len(tokens) && isOpenParen(tokens[i+1]) {
			args, argsEnd, argErr := splitArgs(tokens, i+2)
			if argErr != nil {
				return nil, argErr
			}
			replaced, err := ex.expandFunctionMacro(m, args, blue)
			if err != nil {
				return nil, err
			}
			out = append(out, replaced...)
			i = argsEnd
			continue
		}
		out = append(out, tok)
		i++
	}
	return out, nil
}

func isOpenParen(t pptoken.PPToken) bool {
	return t.Category == pptoken.OpOrPunc && t.Value() == "("
}

func isCloseParen(t pptoken.PPToken) bool {
	return t.Category == pptoken.OpOrPunc && t.Value() == ")"
}

// splitArgs scans tokens starting at start (the first token after a
// function-like macro's opening paren) for the matching close paren,
// splitting top-level commas into argument token lists. It returns the
// raw (unexpanded) arguments and the index just past the closing paren.
func splitArgs(tokens []pptoken.PPToken, start int) ([][]pptoken.PPToken, int, error) {
	depth := 1
	argStart := start
	var args [][]pptoken.PPToken
	for i := start; i < len(tokens); i++ {
		t := tokens[i]
		if t.Category == pptoken.OpOrPunc {
			switch t.Value() {
			case "(":
				depth++
			case ")":
				depth--
				if depth == 0 {
					args = append(args, tokens[argStart:i])
					return args, i + 1, nil
				}
			case ",":
				if depth == 1 {
					args = append(args, tokens[argStart:i])
					argStart = i + 1
				}
			}
		}
	}
	return nil, 0, fmt.Errorf("macro call: missing closing ')'")
}

// bindArguments validates argument count against m's declared parameters
// and returns the per-parameter raw argument lists plus the raw
// variadic tail (nil if m is not variadic).
func bindArguments(m *Macro, args [][]pptoken.PPToken) ([][]pptoken.PPToken, []pptoken.PPToken, error) {
	if len(args) == 1 && len(args[0]) == 0 && m.ParamCount() == 0 {
		args = nil
	}
	if !m.Variadic {
		if len(args) != m.ParamCount() {
			return nil, nil, fmt.Errorf("macro %q expects %d argument(s), got %d", m.Name, m.ParamCount(), len(args))
		}
		return args, nil, nil
	}
	if len(args) < m.ParamCount() {
		return nil, nil, fmt.Errorf("macro %q expects at least %d argument(s), got %d", m.Name, m.ParamCount(), len(args))
	}
	named := args[:m.ParamCount()]
	var variadicTail []pptoken.PPToken
	for i := m.ParamCount(); i < len(args); i++ {
		if i > m.ParamCount() {
			variadicTail = append(variadicTail, pptoken.NewOwned(pptoken.OpOrPunc, pptoken.Position{}, ","))
		}
		variadicTail = append(variadicTail, args[i]...)
	}
	return named, variadicTail, nil
}

// expandObjectMacro implements Steps A/C/D for an object-like macro: its
// replacement list has no parameters, so Step A is just the
// already-built table's literal tokens plus ## pasting.
func (ex *Expander) expandObjectMacro(m *Macro, blue collections.Set[string]) ([]pptoken.PPToken, error) {
	body := literalTokens(m.table)
	pasted, err := paste(body)
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", m.Name, err)
	}
	newBlue := collections.SetOf[string]().Join(blue).Add(m.Name)
	return ex.expandTokens(pasted, newBlue)
}

// expandFunctionMacro implements Steps A/B/C for a function-like macro
// invocation.
func (ex *Expander) expandFunctionMacro(m *Macro, rawArgs [][]pptoken.PPToken, blue collections.Set[string]) ([]pptoken.PPToken, error) {
	named, variadicTail, err := bindArguments(m, rawArgs)
	if err != nil {
		return nil, err
	}

	prescanned := make([][]pptoken.PPToken, len(named))
	for i, arg := range named {
		expanded, err := ex.expandTokens(arg, blue)
		if err != nil {
			return nil, err
		}
		prescanned[i] = expanded
	}
	vaArgsPrescanned, err := ex.expandTokens(variadicTail, blue)
	if err != nil {
		return nil, err
	}

	ctx := &instantiateCtx{
		m:          m,
		rawArgs:    named,
		prescanned: prescanned,
		vaRaw:      variadicTail,
		vaExpanded: vaArgsPrescanned,
	}
	body, err := ctx.run(0, len(m.table))
	if err != nil {
		return nil, err
	}
	pasted, err := paste(body)
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", m.Name, err)
	}
	newBlue := collections.SetOf[string]().Join(blue).Add(m.Name)
	return ex.expandTokens(pasted, newBlue)
}

func literalTokens(table []correspondenceEntry) []pptoken.PPToken {
	out := make([]pptoken.PPToken, len(table))
	for i, e := range table {
		out[i] = e.token
	}
	return out
}

// instantiateCtx carries everything Step A needs to substitute a
// function-like macro's correspondence table into concrete tokens.
type instantiateCtx struct {
	m          *Macro
	rawArgs    [][]pptoken.PPToken
	prescanned [][]pptoken.PPToken
	vaRaw      []pptoken.PPToken
	vaExpanded []pptoken.PPToken
}

func (c *instantiateCtx) run(from, to int) ([]pptoken.PPToken, error) {
	var out []pptoken.PPToken
	table := c.m.table
	for i := from; i < to; i++ {
		e := table[i]
		switch e.role {
		case roleVAOpt:
			var inner []pptoken.PPToken
			if len(c.vaRaw) > 0 {
				var err error
				inner, err = c.run(e.vaOptBodyFrom, e.vaOptBodyTo)
				if err != nil {
					return nil, err
				}
			}
			switch {
			case e.stringize:
				out = append(out, stringize(inner, false))
			case len(inner) > 0:
				out = append(out, inner...)
			default:
				out = append(out, placemarker())
			}
			i = e.vaOptBodyTo
		case roleParam:
			if e.stringize {
				out = append(out, stringize(c.rawArgs[e.paramIndex], false))
				continue
			}
			var arg []pptoken.PPToken
			if e.pasteOperand {
				arg = c.rawArgs[e.paramIndex]
			} else {
				arg = c.prescanned[e.paramIndex]
			}
			if len(arg) == 0 {
				out = append(out, placemarker())
			} else {
				out = append(out, arg...)
			}
		case roleVAArgs:
			if e.stringize {
				out = append(out, stringize(c.vaRaw, true))
				continue
			}
			arg := c.vaExpanded
			if e.pasteOperand {
				arg = c.vaRaw
			}
			if len(arg) == 0 {
				out = append(out, placemarker())
			} else {
				out = append(out, arg...)
			}
		default:
			// The '#' of a stringize operation is elided: its operand's
			// stringize flag produced the single resulting string token.
			if e.token.Category == pptoken.OpOrPunc && e.token.Value() == "#" &&
				i+1 < to && table[i+1].stringize {
				continue
			}
			out = append(out, e.token)
		}
	}
	return out, nil
}

func placemarker() pptoken.PPToken {
	return pptoken.NewOwned(pptoken.Placemarker, pptoken.Position{}, "")
}

// paste performs ## concatenation over an instantiated (pre-rescan)
// token sequence: a left operand, a literal "##" token and a right
// operand combine into a single retokenized pp-token. Placemarkers
// vanish if concatenated with a real token, and two placemarkers paste
// into one placemarker.
func paste(tokens []pptoken.PPToken) ([]pptoken.PPToken, error) {
	var out []pptoken.PPToken
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Category == pptoken.OpOrPunc && t.Value() == "##" {
			if len(out) == 0 || i+1 >= len(tokens) {
				return nil, fmt.Errorf("## has no operand to paste")
			}
			left := out[len(out)-1]
			right := tokens[i+1]
			pasted, err := pasteTokens(left, right)
			if err != nil {
				return nil, err
			}
			out[len(out)-1] = pasted
			i++
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func pasteTokens(left, right pptoken.PPToken) (pptoken.PPToken, error) {
	if left.Category == pptoken.Placemarker {
		return right, nil
	}
	if right.Category == pptoken.Placemarker {
		return left, nil
	}
	combined := left.Value() + right.Value()
	lx := lexer.NewLexer([]byte(combined))
	first := lx.NextToken()
	if first.Kind.IsError() {
		return pptoken.PPToken{}, fmt.Errorf("## produced an invalid token: %q", combined)
	}
	rest := lx.NextToken()
	if rest.Kind != lexer.KindEmpty {
		return pptoken.PPToken{}, fmt.Errorf("## did not produce a single token: %q", combined)
	}
	return pptoken.NewOwned(lexKindToCategory(first.Kind), left.Pos, first.Content), nil
}

func lexKindToCategory(k lexer.Kind) pptoken.Category {
	switch k {
	case lexer.KindIdentifier:
		return pptoken.Identifier
	case lexer.KindPPNumber:
		return pptoken.PPNumber
	case lexer.KindCharacterLiteral:
		return pptoken.CharacterLiteral
	case lexer.KindStringLiteral:
		return pptoken.StringLiteral
	case lexer.KindRawStringLiteral:
		return pptoken.RawStringLiteral
	case lexer.KindOpOrPunc:
		return pptoken.OpOrPunc
	default:
		return pptoken.OtherChar
	}
}

// stringize implements the # operator: render toks as a single string
// literal, escaping \ and " within literal tokens and separating tokens
// that touched in the source by a single space only where the source
// actually had whitespace between them (PPToken.SpaceBefore, stamped in
// by the assembler's tokenizer). variadic additionally forces a space
// after every top-level comma, matching how __VA_ARGS__ is reassembled
// from its comma-joined argument list before ever reaching here.
func stringize(toks []pptoken.PPToken, variadic bool) pptoken.PPToken {
	var b strings.Builder
	b.WriteByte('"')
	forcedSpace := false
	depth := 0
	for i, t := range toks {
		if i > 0 && !forcedSpace && t.SpaceBefore {
			b.WriteByte(' ')
		}
		forcedSpace = false
		v := t.Value()
		if isLiteralCategory(t.Category) {
			for _, r := range v {
				if r == '\\' || r == '"' {
					b.WriteByte('\\')
				}
				b.WriteRune(r)
			}
		} else {
			b.WriteString(v)
		}
		if variadic && t.Category == pptoken.OpOrPunc {
			switch v {
			case "(":
				depth++
			case ")":
				depth--
			case ",":
				if depth == 0 {
					b.WriteByte(' ')
					forcedSpace = true
				}
			}
		}
	}
	b.WriteByte('"')
	return pptoken.NewOwned(pptoken.StringLiteral, pptoken.Position{}, b.String())
}

func isLiteralCategory(c pptoken.Category) bool {
	switch c {
	case pptoken.CharacterLiteral, pptoken.StringLiteral, pptoken.RawStringLiteral, pptoken.UserDefinedStringLiteral:
		return true
	}
	return false
}

// cleanup implements Step D: drop placemarkers and restore blue-painted
// identifiers to plain identifiers now that expansion of this
// invocation chain is finished.
func cleanup(tokens []pptoken.PPToken) []pptoken.PPToken {
	withoutPlacemarkers := collections.FilterSlice(tokens, func(t pptoken.PPToken) bool {
		return t.Category != pptoken.Placemarker
	})
	return collections.MapSlice(withoutPlacemarkers, func(t pptoken.PPToken) pptoken.PPToken {
		if t.Category == pptoken.NotMacroIdentifier {
			return t.WithCategory(pptoken.Identifier)
		}
		return t
	})
}
