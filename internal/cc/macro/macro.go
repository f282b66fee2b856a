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

// Package macro implements translation phase 4's macro replacement: the
// macro table, a definition-time correspondence table used to drive
// replacement without repeated parameter lookups, and the Steps A-D
// expansion algorithm with blue-set rescan tracking.
package macro

import (
	"fmt"

	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
)

// Kind distinguishes object-like macros (#define NAME body) from
// function-like macros (#define NAME(params) body).
type Kind int

const (
	ObjectLike Kind = iota
	FunctionLike
)

// paramRole classifies one entry of a replacement list at definition
// time, so expansion never needs to re-scan the parameter list.
type paramRole int

const (
	roleNone paramRole = iota
	roleParam
	roleVAArgs
	roleVAOpt
)

// correspondenceEntry is one slot of the correspondence table built from
// a macro's replacement list at definition time (see buildTable). It
// records everything the expansion algorithm needs
// about that slot without re-parsing it.
type correspondenceEntry struct {
	token pptoken.PPToken

	role          paramRole
	paramIndex    int  // valid when role == roleParam
	stringize     bool // preceded by #
	pasteOperand  bool // operand (left or right) of ##
	insideVAOpt   bool // lexically inside a __VA_OPT__(...) group
	vaOptBodyFrom int  // for role == roleVAOpt: index of first token inside the group
	vaOptBodyTo   int  // for role == roleVAOpt: index one past the last token inside the group
}

// Macro is one #define'd macro: its name, kind, parameter list and the
// correspondence table describing how to rebuild its replacement on
// every expansion.
type Macro struct {
	Name        string
	Kind        Kind
	Params      []string
	Variadic    bool
	Replacement []pptoken.PPToken
	table       []correspondenceEntry
}

// ParamCount returns how many named (non-variadic) parameters the macro
// declares.
func (m *Macro) ParamCount() int {
	return len(m.Params)
}

func (m *Macro) paramIndex(name string) (int, bool) {
	for i, p := range m.Params {
		if p == name {
			return i, true
		}
	}
	return 0, false
}

// sameDefinition implements the "benign redefinition" rule: a macro may
// be redefined without error only if the parameter list and replacement
// list are textually identical (whitespace-equivalent) to the prior
// definition.
func (m *Macro) sameDefinition(other *Macro) bool {
	if m.Kind != other.Kind || m.Variadic != other.Variadic {
		return false
	}
	if len(m.Params) != len(other.Params) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != other.Params[i] {
			return false
		}
	}
	if len(m.Replacement) != len(other.Replacement) {
		return false
	}
	for i := range m.Replacement {
		if m.Replacement[i].Category != other.Replacement[i].Category {
			return false
		}
		if m.Replacement[i].Value() != other.Replacement[i].Value() {
			return false
		}
	}
	return true
}

// RedefinitionError is returned by Table.Define when a macro is
// redefined with a conflicting (not benign) definition.
type RedefinitionError struct {
	Name string
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("macro %q redefined with a different replacement list", e.Name)
}
