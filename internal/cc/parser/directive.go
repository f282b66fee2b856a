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
	"strings"

	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
)

type (
	// Directive represents a single preprocessing directive parsed from
	// one logical line.
	Directive interface {
		fmt.Stringer
	}

	// IncludeDirective represents a #include or #include_next directive.
	// Resolving Path to file content is explicitly an external
	// collaborator's job; this package only records what was written.
	IncludeDirective struct {
		Path     string
		IsSystem bool
		Next     bool
	}

	// DefineDirective represents a #define directive. Args is nil for an
	// object-like macro; for a function-like macro it holds the declared
	// parameter names, and Variadic records whether the parameter list
	// ended in a ... or a named variadic parameter.
	DefineDirective struct {
		Name           string
		FunctionLike   bool
		Args           []string
		Variadic       bool
		Body           []pptoken.PPToken
	}

	// UndefineDirective represents a #undef directive.
	UndefineDirective struct {
		Name string
	}

	// LineDirective represents a #line directive, optionally rebinding
	// the reported filename.
	LineDirective struct {
		Line     int
		Filename string // empty if not given
	}

	// ErrorDirective represents a #error directive; Message is the
	// directive's raw remaining text.
	ErrorDirective struct {
		Message string
	}

	// PragmaDirective represents a #pragma directive, accepted and
	// otherwise ignored per [cpp.pragma].
	PragmaDirective struct {
		Text string
	}

	// IfBlock represents a full conditional-compilation group: an #if,
	// #ifdef or #ifndef branch, zero or more #elif/#elifdef/#elifndef
	// branches, an optional #else branch, and the terminating #endif.
	IfBlock struct {
		Branches []ConditionalBranch
	}

	// ConditionalBranch is one branch of an IfBlock. Condition is nil
	// for an #else branch.
	ConditionalBranch struct {
		Kind      BranchKind
		Condition Expr
		Body      []Directive
	}

	BranchKind int
)

const (
	IfBranch BranchKind = iota
	ElifBranch
	ElseBranch
)

func (d IncludeDirective) String() string {
	name := "#include"
	if d.Next {
		name = "#include_next"
	}
	if d.IsSystem {
		return fmt.Sprintf("%s <%s>", name, d.Path)
	}
	return fmt.Sprintf("%s \"%s\"", name, d.Path)
}

func (d DefineDirective) String() string {
	if !d.FunctionLike {
		return fmt.Sprintf("#define %s %s", d.Name, joinTokens(d.Body))
	}
	args := strings.Join(d.Args, ", ")
	if d.Variadic {
		if args != "" {
			args += ", "
		}
		args += "..."
	}
	return fmt.Sprintf("#define %s(%s) %s", d.Name, args, joinTokens(d.Body))
}

func (d UndefineDirective) String() string { return fmt.Sprintf("#undef %s", d.Name) }

func (d LineDirective) String() string {
	if d.Filename == "" {
		return fmt.Sprintf("#line %d", d.Line)
	}
	return fmt.Sprintf("#line %d %q", d.Line, d.Filename)
}

func (d ErrorDirective) String() string  { return "#error " + d.Message }
func (d PragmaDirective) String() string { return "#pragma " + d.Text }

func (d IfBlock) String() string {
	var out strings.Builder
	for _, br := range d.Branches {
		out.WriteString(br.String())
	}
	out.WriteString("#endif\n")
	return out.String()
}

func (b ConditionalBranch) String() string {
	var prefix string
	switch b.Kind {
	case IfBranch:
		prefix = "#if"
	case ElifBranch:
		prefix = "#elif"
	case ElseBranch:
		prefix = "#else"
	}
	var cond string
	if b.Condition != nil {
		cond = " " + b.Condition.String()
	}
	var body strings.Builder
	for _, d := range b.Body {
		body.WriteString(d.String())
		body.WriteString("\n")
	}
	return fmt.Sprintf("%s%s\n%s", prefix, cond, body.String())
}

func joinTokens(toks []pptoken.PPToken) string {
	values := make([]string, len(toks))
	for i, t := range toks {
		values[i] = t.Value()
	}
	return strings.Join(values, " ")
}
