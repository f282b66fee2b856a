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

// Package parser implements translation phases 3-4: it walks the
// logical lines produced by package source, groups each one's lexemes
// into preprocessing tokens, recognizes directive lines and drives
// conditional compilation and macro expansion (package macro) to
// produce the finished pp-token stream.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-kusabira/kusabira/internal/cc/lexer"
	"github.com/go-kusabira/kusabira/internal/cc/macro"
	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
	"github.com/go-kusabira/kusabira/internal/cc/source"
	"github.com/go-kusabira/kusabira/internal/diag"
)

// SourceInfo is the structural result of assembling one translation
// unit: its directive tree, the final expanded pp-token stream, and
// whether a main() definition was seen in reachable text.
type SourceInfo struct {
	Directives []Directive
	Tokens     []pptoken.PPToken
	HasMain    bool
}

// CollectIncludes recursively traverses the directive tree and returns
// every IncludeDirective, flattening the nested IfBlock structure.
func (si SourceInfo) CollectIncludes() []IncludeDirective {
	var result []IncludeDirective
	var walk func([]Directive)
	walk = func(directives []Directive) {
		for _, d := range directives {
			switch v := d.(type) {
			case IncludeDirective:
				result = append(result, v)
			case IfBlock:
				for _, branch := range v.Branches {
					walk(branch.Body)
				}
			}
		}
	}
	walk(si.Directives)
	return result
}

// CollectReachableIncludes walks the directive tree honoring #if/#elif
// conditions evaluated against env, returning only the includes found
// on a taken branch.
func (si SourceInfo) CollectReachableIncludes(env macro.Environment) []IncludeDirective {
	var result []IncludeDirective
	env = env.Clone()
	var walk func([]Directive, macro.Environment)
	walk = func(directives []Directive, env macro.Environment) {
		for _, d := range directives {
			switch v := d.(type) {
			case IncludeDirective:
				result = append(result, v)
			case DefineDirective:
				value := 1
				if len(v.Body) == 1 && v.Body[0].Category == pptoken.PPNumber {
					if n, err := strconv.Atoi(v.Body[0].Value()); err == nil {
						value = n
					}
				}
				env[v.Name] = value
			case UndefineDirective:
				delete(env, v.Name)
			case IfBlock:
				for _, branch := range v.Branches {
					taken := branch.Condition == nil
					if !taken {
						var err error
						taken, err = Evaluate(branch.Condition, env)
						if err != nil {
							continue
						}
					}
					if taken {
						walk(branch.Body, env.Clone())
						break
					}
				}
			}
		}
	}
	walk(si.Directives, env)
	return result
}

// Assembler drives phases 3-4 over a translation unit: directive
// recognition, conditional-compilation selection and macro expansion.
type Assembler struct {
	lines    []source.LogicalLine
	pos      int
	filename string
	table    *macro.Table
	expander *macro.Expander
	reporter diag.Reporter

	out     []pptoken.PPToken
	hasMain bool
}

// NewAssembler returns an Assembler for filename, seeded with env (the
// predefined and -D-style macros active before any #define is seen)
// and reporting diagnostics to reporter.
func NewAssembler(filename string, env macro.Environment, reporter diag.Reporter) *Assembler {
	table := macro.NewTable(filename)
	table.LoadEnvironment(env)
	return &Assembler{
		filename: filename,
		table:    table,
		expander: macro.NewExpander(table),
		reporter: reporter,
	}
}

// Table returns the macro table the assembler expands against, so a
// caller can inspect or extend it (e.g. to implement #include by
// feeding another file's logical lines through the same table).
func (a *Assembler) Table() *macro.Table { return a.table }

// Assemble reads logical lines from r and assembles them into a
// SourceInfo describing the whole translation unit.
func (a *Assembler) Assemble(r *source.Reader) (SourceInfo, error) {
	a.lines = r.All()
	a.pos = 0
	directives, err := a.parseDirectivesUntil(a.atEOF, true)
	return SourceInfo{Directives: directives, Tokens: a.out, HasMain: a.hasMain}, err
}

func (a *Assembler) atEOF() bool { return a.pos >= len(a.lines) }

func (a *Assembler) currentLine() source.LogicalLine { return a.lines[a.pos] }

// tokenizeLine lexes one logical line's text into pp-tokens, dropping
// whitespace, comments and the trailing newline - those never survive
// into a Directive's or a text line's token list, but whether each
// token was preceded by one of them is kept as PPToken.SpaceBefore.
// Adjacent literal-then-identifier pairs are glued into a single
// user-defined-literal token, and the <:: digraph exception is applied
// over the finished token list, before it is handed back. Inside a
// raw-string literal the backslash-newline splices that phase 2 removed
// (ll.ContinuationOffsets) are put back into the token's text.
func (a *Assembler) tokenizeLine(ll source.LogicalLine) []pptoken.PPToken {
	lx := lexer.NewLexer([]byte(ll.Text))
	var toks []pptoken.PPToken
	spaceBefore := false
	off := 0
	for lt := range lx.All() {
		start := off
		off += len(lt.Content)
		switch lt.Kind {
		case lexer.KindWhitespaceRun, lexer.KindNewline, lexer.KindLineComment, lexer.KindBlockComment:
			spaceBefore = true
			continue
		}
		if lt.Kind.IsError() {
			a.reporter.Report(diag.Position{File: a.filename, Line: ll.StartPhysicalLine, Column: lt.Location.Column}, lexErrorKind(lt.Kind), diag.SeverityError)
			spaceBefore = false
			continue
		}
		pos := pptoken.Position{File: a.filename, PhysicalLine: ll.StartPhysicalLine, Column: lt.Location.Column}
		content := lt.Content
		if lt.Kind == lexer.KindRawStringLiteral {
			content = ""
			prev := start
			for _, o := range ll.ContinuationOffsets {
				if o > start && o < off {
					content += ll.Text[prev:o] + "\\\n"
					prev = o
				}
			}
			content += ll.Text[prev:off]
		}
		tok := pptoken.NewOwned(lexKindToCategory(lt.Kind), pos, content)
		tok.SpaceBefore = spaceBefore
		spaceBefore = false
		toks = appendGlued(toks, tok)
	}
	return fixDigraphPairs(toks)
}

// isLiteralCategory reports whether c is one of the literal categories
// a trailing identifier can glue onto to form a user-defined-literal
// token (e.g. "cm"_s). A numeric suffix such as 3.0_deg needs no
// gluing: the lexer already scans it as part of the pp-number.
func isLiteralCategory(c pptoken.Category) bool {
	switch c {
	case pptoken.CharacterLiteral, pptoken.StringLiteral, pptoken.RawStringLiteral:
		return true
	}
	return false
}

// appendGlued appends tok to toks, gluing it onto an immediately
// preceding literal token when tok is an identifier with no
// intervening whitespace - the ud-suffix rule that makes "cm"_s one
// pp-token instead of two.
func appendGlued(toks []pptoken.PPToken, tok pptoken.PPToken) []pptoken.PPToken {
	if !tok.SpaceBefore && tok.Category == pptoken.Identifier && len(toks) > 0 {
		prev := toks[len(toks)-1]
		if isLiteralCategory(prev.Category) {
			merged := pptoken.NewOwned(pptoken.UserDefinedStringLiteral, prev.Pos, prev.Value()+tok.Value())
			merged.SpaceBefore = prev.SpaceBefore
			toks[len(toks)-1] = merged
			return toks
		}
	}
	return append(toks, tok)
}

// fixDigraphPairs implements the <:: exception from [lex.pptoken]p3:
// maximal munch lexes <:: as the digraph <: (meaning [) followed by a
// lone :, but when that pair is not itself immediately followed by
// another : or >, the three source characters must instead be relexed
// as < followed by :: - the scope-resolution operator a template
// argument list like Vector<::std::string> actually means.
func fixDigraphPairs(toks []pptoken.PPToken) []pptoken.PPToken {
	for i := 0; i+1 < len(toks); i++ {
		first, second := toks[i], toks[i+1]
		if first.Category != pptoken.OpOrPunc || first.Value() != "<:" {
			continue
		}
		if second.Category != pptoken.OpOrPunc || second.Value() != ":" || second.SpaceBefore {
			continue
		}
		if i+2 < len(toks) {
			third := toks[i+2]
			if !third.SpaceBefore && third.Category == pptoken.OpOrPunc && (third.Value() == ":" || third.Value() == ">") {
				continue
			}
		}
		lt := pptoken.NewOwned(pptoken.OpOrPunc, first.Pos, "<")
		lt.SpaceBefore = first.SpaceBefore
		cc := pptoken.NewOwned(pptoken.OpOrPunc, second.Pos, "::")
		cc.SpaceBefore = second.SpaceBefore
		toks[i], toks[i+1] = lt, cc
		i++
	}
	return toks
}

// endsInUnterminatedRawString reports whether lexing text to
// completion leaves a raw-string literal open at end of input - the
// lexer's signal that the literal's closing delimiter lies on a later
// logical line.
func endsInUnterminatedRawString(text string) bool {
	lx := lexer.NewLexer([]byte(text))
	var last lexer.Token
	for lt := range lx.All() {
		last = lt
	}
	return last.Kind == lexer.KindErrorRawStringUnterminated
}

// reassembleRawStringLine pulls in subsequent logical lines, joined by
// a literal newline, while ll's text ends in an unterminated raw
// string - mirroring how collectBalancedArgumentLists pulls lines to
// close a multi-line macro-call argument list. On success it advances
// a.pos past every line it consumed and returns a synthetic logical
// line holding the full reassembled text; on failure (the closing
// delimiter never shows up before EOF) it leaves a.pos untouched so the
// caller falls back to tokenizing - and erroring on - ll alone.
//
// This only runs from the main text-line parse loop, never from a
// peek like atBranchBoundary: pulling lines is a side effect that must
// not happen while a caller is merely checking whether the current
// line closes a branch.
func (a *Assembler) reassembleRawStringLine(ll source.LogicalLine) (source.LogicalLine, bool) {
	if !endsInUnterminatedRawString(ll.Text) {
		return ll, false
	}
	combined := ll.Text
	last := a.pos
	for last+1 < len(a.lines) {
		last++
		combined += "\n" + a.lines[last].Text
		if !endsInUnterminatedRawString(combined) {
			// Leave a.pos at the last line this literal's body consumed:
			// every caller of this helper still performs its own single
			// a.pos++ to consume "the current line" after tokenizing it,
			// which is what carries a.pos past every pulled line here.
			a.pos = last
			return source.LogicalLine{Text: combined, StartPhysicalLine: ll.StartPhysicalLine}, true
		}
	}
	return ll, false
}

func lexErrorKind(k lexer.Kind) diag.Kind {
	switch k {
	case lexer.KindErrorRawStringDelimiterInvalid:
		return diag.KindRawStringDelimiterInvalid
	case lexer.KindErrorRawStringDelimiterOver16Chars:
		return diag.KindRawStringDelimiterOver16Chars
	case lexer.KindErrorRawStringUnterminated:
		return diag.KindRawStringUnterminated
	case lexer.KindErrorUnterminatedBlockComment:
		return diag.KindUnterminatedBlockComment
	case lexer.KindErrorUnterminatedStringLiteral:
		return diag.KindUnterminatedStringLiteral
	case lexer.KindErrorUnterminatedCharLiteral:
		return diag.KindUnterminatedCharLiteral
	case lexer.KindErrorNewlineInLiteral:
		return diag.KindNewlineInLiteral
	default:
		return diag.KindUnknown
	}
}

// lexKindToCategory mirrors macro.lexKindToCategory: the assembler and
// the expander both sit downstream of the lexer and need the same
// lexeme-to-pp-token-category mapping, but package macro's is
// unexported, so the assembler keeps its own copy rather than widening
// that package's surface for one helper.
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

func isHash(t pptoken.PPToken) bool {
	return t.Category == pptoken.OpOrPunc && t.Value() == "#"
}

func parenDepthDelta(t pptoken.PPToken) int {
	if t.Category != pptoken.OpOrPunc {
		return 0
	}
	switch t.Value() {
	case "(":
		return 1
	case ")":
		return -1
	}
	return 0
}

// parseDirectivesUntil consumes logical lines, building a Directive
// list, until stop reports true or input is exhausted. Text lines are
// macro-expanded and appended to a.out only while active is true;
// #define/#undef/#line side effects on the macro table are likewise
// suppressed on a branch that was never taken.
func (a *Assembler) parseDirectivesUntil(stop func() bool, active bool) ([]Directive, error) {
	var directives []Directive
	for !a.atEOF() && !stop() {
		ll := a.currentLine()
		if reassembled, ok := a.reassembleRawStringLine(ll); ok {
			ll = reassembled
		}
		toks := a.tokenizeLine(ll)
		if len(toks) == 0 {
			a.pos++
			continue
		}
		if isHash(toks[0]) {
			if len(toks) < 2 {
				a.pos++
				continue
			}
			keyword := toks[1].Value()
			switch keyword {
			case "if", "ifdef", "ifndef":
				block, err := a.parseIfBlock(active)
				if err != nil {
					return directives, err
				}
				directives = append(directives, block)
				continue
			default:
				d := a.parseSimpleDirective(ll, keyword, toks[2:], active)
				a.pos++
				if d != nil {
					directives = append(directives, d)
				}
				continue
			}
		}
		// Consume ll before expanding it: processTextLine may itself pull
		// in following logical lines to complete a macro call's argument
		// list that spans multiple lines, and those pulls must continue
		// from the line after ll, not re-read ll.
		a.pos++
		a.processTextLine(ll, toks, active)
	}
	return directives, nil
}

// atBranchBoundary reports whether the current line opens #elif(def/ndef),
// #else or #endif - the set of lines that close the branch currently
// being parsed without consuming it.
func (a *Assembler) atBranchBoundary() bool {
	if a.atEOF() {
		return true
	}
	ll := a.currentLine()
	if endsInUnterminatedRawString(ll.Text) {
		// A line opening a raw string that continues past this logical
		// line can never itself be a directive line: defer to the main
		// loop's reassembly rather than tokenizing (and diagnosing) an
		// incomplete literal here.
		return false
	}
	toks := a.tokenizeLine(ll)
	if len(toks) < 2 || !isHash(toks[0]) {
		return false
	}
	switch toks[1].Value() {
	case "elif", "elifdef", "elifndef", "else", "endif":
		return true
	default:
		return false
	}
}

func (a *Assembler) parseIfBlock(parentActive bool) (IfBlock, error) {
	var branches []ConditionalBranch
	takenAlready := false
	for {
		if a.atEOF() {
			return IfBlock{}, fmt.Errorf("unterminated #if section")
		}
		toks := a.tokenizeLine(a.currentLine())
		keyword := toks[1].Value()

		if keyword == "endif" {
			a.pos++
			return IfBlock{Branches: branches}, nil
		}

		var kind BranchKind
		var cond Expr
		var err error
		switch keyword {
		case "if", "elif":
			kind = IfBranch
			if keyword == "elif" {
				kind = ElifBranch
			}
			cond, err = ParseIfExpression(toks[2:])
		case "ifdef", "elifdef":
			kind = IfBranch
			if keyword == "elifdef" {
				kind = ElifBranch
			}
			if len(toks) < 3 {
				err = fmt.Errorf("%s: missing identifier", keyword)
				break
			}
			cond = Defined{Name: Ident(toks[2].Value())}
		case "ifndef", "elifndef":
			kind = IfBranch
			if keyword == "elifndef" {
				kind = ElifBranch
			}
			if len(toks) < 3 {
				err = fmt.Errorf("%s: missing identifier", keyword)
				break
			}
			cond = Not{X: Defined{Name: Ident(toks[2].Value())}}
		case "else":
			kind = ElseBranch
			cond = nil
		default:
			err = fmt.Errorf("unexpected directive %q inside #if section", keyword)
		}
		if err != nil {
			return IfBlock{}, err
		}
		a.pos++

		branchActive := parentActive && !takenAlready
		taken := false
		if branchActive {
			if cond == nil {
				taken = true
			} else {
				taken, err = Evaluate(cond, a.table.Snapshot())
				if err != nil {
					return IfBlock{}, err
				}
			}
		}
		if taken {
			takenAlready = true
		}

		body, err := a.parseDirectivesUntil(a.atBranchBoundary, branchActive && taken)
		if err != nil {
			return IfBlock{}, err
		}
		branches = append(branches, ConditionalBranch{Kind: kind, Condition: cond, Body: body})
	}
}

func (a *Assembler) parseSimpleDirective(ll source.LogicalLine, keyword string, rest []pptoken.PPToken, active bool) Directive {
	switch keyword {
	case "define":
		return a.parseDefineDirective(rest, active)
	case "undef":
		if len(rest) == 0 {
			return nil
		}
		name := rest[0].Value()
		if active {
			a.table.Undef(name)
		}
		return UndefineDirective{Name: name}
	case "include", "include_next":
		return a.parseIncludeDirective(keyword == "include_next", rest)
	case "line":
		return a.parseLineDirective(ll, rest, active)
	case "error":
		msg := joinTokens(rest)
		if len(rest) > 0 {
			if runes := []rune(ll.Text); rest[0].Pos.Column-1 < len(runes) {
				msg = strings.TrimSpace(string(runes[rest[0].Pos.Column-1:]))
			}
		}
		if active {
			a.reporter.Print(diag.Position{File: a.filename, Line: ll.StartPhysicalLine}, "#error "+msg)
		}
		return ErrorDirective{Message: msg}
	case "pragma":
		return PragmaDirective{Text: joinTokens(rest)}
	default:
		if active {
			a.reporter.Report(diag.Position{File: a.filename, Line: ll.StartPhysicalLine}, diag.KindMalformedDirective, diag.SeverityError)
		}
		return nil
	}
}

func (a *Assembler) parseDefineDirective(rest []pptoken.PPToken, active bool) Directive {
	if len(rest) == 0 {
		return nil
	}
	name := rest[0].Value()
	functionLike := false
	if len(rest) > 1 {
		next := rest[1]
		if next.Category == pptoken.OpOrPunc && next.Value() == "(" &&
			next.Pos.Column == rest[0].Pos.Column+len(name) {
			functionLike = true
		}
	}

	var params []string
	var variadic bool
	var body []pptoken.PPToken
	if functionLike {
		i := 2
		for i < len(rest) && !(rest[i].Category == pptoken.OpOrPunc && rest[i].Value() == ")") {
			switch {
			case rest[i].Category == pptoken.OpOrPunc && rest[i].Value() == "...":
				variadic = true
			case rest[i].Category == pptoken.Identifier:
				params = append(params, rest[i].Value())
			}
			i++
		}
		if i < len(rest) {
			i++ // skip ')'
		}
		body = rest[i:]
	} else {
		body = rest[1:]
	}

	var m *macro.Macro
	var err error
	if functionLike {
		m, err = macro.NewFunctionLike(name, params, variadic, body)
	} else {
		m, err = macro.NewObjectLike(name, body)
	}
	if err != nil {
		return nil
	}
	if active {
		if defErr := a.table.Define(m); defErr != nil {
			pos := diag.Position{File: rest[0].Pos.File, Line: rest[0].Pos.PhysicalLine, Column: rest[0].Pos.Column}
			a.reporter.Report(pos, diag.KindMacroRedefinitionConflict, diag.SeverityError)
		}
	}
	return DefineDirective{Name: name, FunctionLike: functionLike, Args: params, Variadic: variadic, Body: body}
}

func (a *Assembler) parseIncludeDirective(next bool, rest []pptoken.PPToken) Directive {
	if len(rest) == 0 {
		return nil
	}
	if rest[0].Category == pptoken.StringLiteral {
		return IncludeDirective{Path: unquote(rest[0].Value()), IsSystem: false, Next: next}
	}
	if rest[0].Category == pptoken.OpOrPunc && rest[0].Value() == "<" {
		var b strings.Builder
		for _, t := range rest[1:] {
			if t.Category == pptoken.OpOrPunc && t.Value() == ">" {
				break
			}
			b.WriteString(t.Value())
		}
		return IncludeDirective{Path: b.String(), IsSystem: true, Next: next}
	}
	return nil
}

func (a *Assembler) parseLineDirective(ll source.LogicalLine, rest []pptoken.PPToken, active bool) Directive {
	if len(rest) == 0 || rest[0].Category != pptoken.PPNumber {
		return nil
	}
	reported, err := strconv.Atoi(rest[0].Value())
	if err != nil {
		return nil
	}
	filename := ""
	if len(rest) > 1 && rest[1].Category == pptoken.StringLiteral {
		filename = unquote(rest[1].Value())
	}
	if active {
		effectiveFile := filename
		if effectiveFile == "" {
			effectiveFile = a.filename
		}
		a.table.SetLine(ll.StartPhysicalLine+1, reported, effectiveFile)
	}
	return LineDirective{Line: reported, Filename: filename}
}

// processTextLine macro-expands a non-directive logical line's tokens
// and, if active, appends the result (plus a terminating newline
// marker) to the assembled pp-token stream. Function-like macro
// invocations whose argument list runs past this logical line's end
// are completed by pulling in following logical lines before
// expansion, so "FOO(\n  a, b\n)" (no continuing backslash needed)
// expands as one invocation.
func (a *Assembler) processTextLine(ll source.LogicalLine, toks []pptoken.PPToken, active bool) {
	if !active {
		return
	}
	if detectMain(toks) {
		a.hasMain = true
	}
	toks = a.collectBalancedArgumentLists(toks)
	expanded, err := a.expander.ExpandSequence(toks)
	if err != nil {
		a.reporter.Report(diag.Position{File: a.filename, Line: ll.StartPhysicalLine}, diag.KindMacroArgumentCountMismatch, diag.SeverityError)
		expanded = toks
	}
	a.out = append(a.out, expanded...)
	a.out = append(a.out, pptoken.NewOwned(pptoken.Newline, pptoken.Position{File: a.filename, PhysicalLine: ll.StartPhysicalLine}, "\n"))
}

// collectBalancedArgumentLists pulls in following logical lines' tokens
// while the trailing open-paren count from a macro invocation on this
// line is unbalanced, so a multi-line function-like macro call can be
// expanded as a single token sequence.
func (a *Assembler) collectBalancedArgumentLists(toks []pptoken.PPToken) []pptoken.PPToken {
	depth := 0
	sawCall := false
	for i, t := range toks {
		if t.Category == pptoken.Identifier {
			if _, ok := a.table.Lookup(t.Value()); ok && i+1 < len(toks) &&
				toks[i+1].Category == pptoken.OpOrPunc && toks[i+1].Value() == "(" {
				sawCall = true
			}
		}
		depth += parenDepthDelta(t)
	}
	for sawCall && depth > 0 && !a.atEOF() {
		next := a.currentLine()
		nextToks := a.tokenizeLine(next)
		if len(nextToks) > 0 && isHash(nextToks[0]) {
			break
		}
		a.pos++
		for _, t := range nextToks {
			depth += parenDepthDelta(t)
		}
		toks = append(toks, nextToks...)
	}
	return toks
}

func detectMain(toks []pptoken.PPToken) bool {
	for i := 0; i+2 < len(toks); i++ {
		if toks[i].Category == pptoken.Identifier && toks[i].Value() == "int" &&
			toks[i+1].Category == pptoken.Identifier && toks[i+1].Value() == "main" &&
			toks[i+2].Category == pptoken.OpOrPunc && toks[i+2].Value() == "(" {
			return true
		}
	}
	return false
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}
