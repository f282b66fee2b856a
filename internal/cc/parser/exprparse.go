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
	"fmt"
	"strconv"

	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
)

// precedence levels for the #if expression Pratt parser, lowest first.
type precedence int

const (
	precedenceLowest precedence = iota
	precedenceOr
	precedenceAnd
	precedenceCompare
	precedenceBang
	precedenceParens
)

type (
	prefixParseFn func(*exprTokens) (Expr, error)
	infixParseFn  func(*exprTokens, Expr) (Expr, error)

	parseRule struct {
		precedence precedence
		infix      infixParseFn
	}
)

var exprKeywordPrecedence map[string]parseRule

func init() {
	exprKeywordPrecedence = map[string]parseRule{
		"||": {precedenceOr, parseBinaryLogicOrOperator},
		"&&": {precedenceAnd, parseBinaryLogicAndOperator},
		"==": {precedenceCompare, parseBinaryCompareOperator},
		"!=": {precedenceCompare, parseBinaryCompareOperator},
		"<":  {precedenceCompare, parseBinaryCompareOperator},
		"<=": {precedenceCompare, parseBinaryCompareOperator},
		">":  {precedenceCompare, parseBinaryCompareOperator},
		">=": {precedenceCompare, parseBinaryCompareOperator},
	}
}

// exprTokens is a cursor over a flat []pptoken.PPToken slice, used only
// to parse one #if/#elif controlling expression.
type exprTokens struct {
	toks []pptoken.PPToken
	pos  int
}

func newExprTokens(toks []pptoken.PPToken) *exprTokens {
	return &exprTokens{toks: toks}
}

func (e *exprTokens) atEnd() bool { return e.pos >= len(e.toks) }

func (e *exprTokens) peek() (pptoken.PPToken, bool) {
	if e.atEnd() {
		return pptoken.PPToken{}, false
	}
	return e.toks[e.pos], true
}

func (e *exprTokens) next() (pptoken.PPToken, bool) {
	t, ok := e.peek()
	if ok {
		e.pos++
	}
	return t, ok
}

func (e *exprTokens) peekIs(value string) bool {
	t, ok := e.peek()
	return ok && t.Value() == value
}

func (e *exprTokens) consumeIf(value string) bool {
	if e.peekIs(value) {
		e.pos++
		return true
	}
	return false
}

// ParseIfExpression parses a complete #if/#elif controlling expression
// from toks.
func ParseIfExpression(toks []pptoken.PPToken) (Expr, error) {
	et := newExprTokens(toks)
	expr, err := parseExprPrecedence(et, precedenceLowest)
	if err != nil {
		return nil, err
	}
	if !et.atEnd() {
		extra, _ := et.peek()
		return nil, fmt.Errorf("unexpected trailing token %q in #if expression", extra.Value())
	}
	return expr, nil
}

func parseExprPrecedence(et *exprTokens, min precedence) (Expr, error) {
	left, err := parsePrefix(et)
	if err != nil {
		return nil, err
	}
	for {
		t, ok := et.peek()
		if !ok {
			break
		}
		rule, known := exprKeywordPrecedence[t.Value()]
		if !known || rule.precedence <= min {
			break
		}
		left, err = rule.infix(et, left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func parsePrefix(et *exprTokens) (Expr, error) {
	t, ok := et.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of #if expression")
	}
	switch {
	case t.Value() == "!":
		return parseUnaryBangOperator(et)
	case t.Value() == "(":
		return parseUnaryOpenParenthesis(et)
	case t.Category == pptoken.Identifier && t.Value() == "defined":
		return parseDefinedExpr(et)
	case t.Category == pptoken.Identifier:
		name := Ident(t.Value())
		if et.peekIs("(") {
			return parseApply(et, name)
		}
		return name, nil
	case t.Category == pptoken.PPNumber:
		n, err := strconv.ParseInt(trimIntSuffix(t.Value()), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q in #if expression: %w", t.Value(), err)
		}
		return ConstantInt(n), nil
	default:
		return nil, fmt.Errorf("unexpected token %q in #if expression", t.Value())
	}
}

func trimIntSuffix(lit string) string {
	end := len(lit)
	for end > 0 {
		c := lit[end-1]
		if c == 'u' || c == 'U' || c == 'l' || c == 'L' {
			end--
			continue
		}
		break
	}
	return lit[:end]
}

func parseUnaryBangOperator(et *exprTokens) (Expr, error) {
	x, err := parseExprPrecedence(et, precedenceBang)
	if err != nil {
		return nil, err
	}
	return Not{X: x}, nil
}

func parseUnaryOpenParenthesis(et *exprTokens) (Expr, error) {
	inner, err := parseExprPrecedence(et, precedenceLowest)
	if err != nil {
		return nil, err
	}
	if !et.consumeIf(")") {
		return nil, fmt.Errorf("expected ')' in #if expression")
	}
	return inner, nil
}

func parseDefinedExpr(et *exprTokens) (Expr, error) {
	paren := et.consumeIf("(")
	name, ok := et.next()
	if !ok || name.Category != pptoken.Identifier {
		return nil, fmt.Errorf("expected identifier after 'defined'")
	}
	if paren && !et.consumeIf(")") {
		return nil, fmt.Errorf("expected ')' after defined(%s", name.Value())
	}
	return Defined{Name: Ident(name.Value())}, nil
}

func parseApply(et *exprTokens, name Ident) (Expr, error) {
	et.consumeIf("(")
	var args []Expr
	if !et.peekIs(")") {
		for {
			arg, err := parseExprPrecedence(et, precedenceLowest)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !et.consumeIf(",") {
				break
			}
		}
	}
	if !et.consumeIf(")") {
		return nil, fmt.Errorf("expected ')' after %s(...)", name)
	}
	return Apply{Name: name, Args: args}, nil
}

func parseBinaryLogicOrOperator(et *exprTokens, left Expr) (Expr, error) {
	et.next()
	right, err := parseExprPrecedence(et, precedenceOr)
	if err != nil {
		return nil, err
	}
	return Or{L: left, R: right}, nil
}

func parseBinaryLogicAndOperator(et *exprTokens, left Expr) (Expr, error) {
	et.next()
	right, err := parseExprPrecedence(et, precedenceAnd)
	if err != nil {
		return nil, err
	}
	return And{L: left, R: right}, nil
}

func parseBinaryCompareOperator(et *exprTokens, left Expr) (Expr, error) {
	opTok, _ := et.next()
	right, err := parseExprPrecedence(et, precedenceCompare)
	if err != nil {
		return nil, err
	}
	return Compare{Left: left, Op: opTok.Value(), Right: right}, nil
}
