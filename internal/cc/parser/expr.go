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
	"log"
	"strings"

	"github.com/go-kusabira/kusabira/internal/cc/macro"
)

type (
	// Expr is a node of a #if/#elif controlling-expression AST. The full
	// C++ constant-expression grammar (bitwise operators, shifts,
	// ternary, sizeof) is out of scope; this shell covers defined(),
	// logical negation/and/or, comparisons and integer/identifier
	// primaries, which is enough to evaluate the conditions real headers
	// actually use for feature detection.
	Expr interface {
		fmt.Stringer
		Eval(env macro.Environment) (int, error)
	}

	// Defined represents defined(X) or defined X.
	Defined struct {
		Name Ident
	}

	// Not represents !X.
	Not struct {
		X Expr
	}

	// And represents X && Y, short-circuiting.
	And struct {
		L, R Expr
	}

	// Or represents X || Y, short-circuiting.
	Or struct {
		L, R Expr
	}

	// Compare represents a comparison X op Y.
	Compare struct {
		Left  Expr
		Op    string
		Right Expr
	}

	// Apply represents what looks like a function-like macro invocation
	// inside a controlling expression. Evaluating macro calls within #if
	// is out of scope: an Apply is treated as unconditionally true,
	// matching the stub behavior this AST shell has always had.
	Apply struct {
		Name Ident
		Args []Expr
	}
)

type (
	Value interface {
		Expr
	}
	Ident       string
	ConstantInt int
)

func (expr Defined) String() string { return fmt.Sprintf("defined(%s)", expr.Name) }
func (expr Compare) String() string { return fmt.Sprintf("%s %s %s", expr.Left, expr.Op, expr.Right) }
func (expr Apply) String() string {
	argStrings := make([]string, len(expr.Args))
	for i, arg := range expr.Args {
		argStrings[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", expr.Name, strings.Join(argStrings, ", "))
}
func (expr Not) String() string         { return "!(" + expr.X.String() + ")" }
func (expr And) String() string         { return expr.L.String() + " && " + expr.R.String() }
func (expr Or) String() string          { return expr.L.String() + " || " + expr.R.String() }
func (expr Ident) String() string       { return string(expr) }
func (expr ConstantInt) String() string { return fmt.Sprintf("%d", expr) }

// Evaluate reports whether expr evaluates to a nonzero value in env.
func Evaluate(expr Expr, env macro.Environment) (bool, error) {
	v, err := expr.Eval(env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate expression %s: %w", expr, err)
	}
	return v != 0, nil
}

func (expr Defined) Eval(env macro.Environment) (int, error) {
	_, exists := env[string(expr.Name)]
	return booleanToInt(exists), nil
}

func (expr Compare) Eval(env macro.Environment) (int, error) {
	lv, err := expr.Left.Eval(env)
	if err != nil {
		return 0, err
	}
	rv, err := expr.Right.Eval(env)
	if err != nil {
		return 0, err
	}
	switch expr.Op {
	case "==":
		return booleanToInt(lv == rv), nil
	case "!=":
		return booleanToInt(lv != rv), nil
	case "<":
		return booleanToInt(lv < rv), nil
	case "<=":
		return booleanToInt(lv <= rv), nil
	case ">":
		return booleanToInt(lv > rv), nil
	case ">=":
		return booleanToInt(lv >= rv), nil
	default:
		log.Panicf("unknown compare operator: %v", expr)
		return 0, nil
	}
}

func (expr Apply) Eval(env macro.Environment) (int, error) {
	return 1, nil
}

func (expr Not) Eval(env macro.Environment) (int, error) {
	result, err := expr.X.Eval(env)
	if err != nil {
		return 0, err
	}
	return booleanToInt(result == 0), nil
}

func (expr And) Eval(env macro.Environment) (int, error) {
	lValue, err := expr.L.Eval(env)
	if err != nil || lValue == 0 {
		return 0, err
	}
	rValue, err := expr.R.Eval(env)
	if err != nil || rValue == 0 {
		return 0, err
	}
	return 1, nil
}

func (expr Or) Eval(env macro.Environment) (int, error) {
	lValue, err := expr.L.Eval(env)
	if err != nil {
		return lValue, err
	}
	if lValue != 0 {
		return 1, nil
	}
	rValue, err := expr.R.Eval(env)
	if err != nil {
		return rValue, err
	}
	return booleanToInt(rValue != 0), nil
}

func (expr Ident) Eval(env macro.Environment) (int, error) {
	v, defined := env[string(expr)]
	if !defined {
		return 0, nil
	}
	return v, nil
}

func (expr ConstantInt) Eval(env macro.Environment) (int, error) { return int(expr), nil }

// Negate returns expr with its comparison operator logically inverted.
func (expr Compare) Negate() Compare {
	var op string
	switch expr.Op {
	case "==":
		op = "!="
	case "!=":
		op = "=="
	case "<":
		op = ">="
	case "<=":
		op = ">"
	case ">":
		op = "<="
	case ">=":
		op = "<"
	default:
		panic(fmt.Sprintf("unknown compare operator: %s", expr.Op))
	}
	return Compare{Left: expr.Left, Op: op, Right: expr.Right}
}

func booleanToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
