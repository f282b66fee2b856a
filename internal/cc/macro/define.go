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

	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
)

const variadicParamName = "__VA_ARGS__"
const vaOptName = "__VA_OPT__"

// NewObjectLike builds an object-like macro definition from its
// replacement list, computing the correspondence table in one
// left-to-right walk.
func NewObjectLike(name string, replacement []pptoken.PPToken) (*Macro, error) {
	m := &Macro{Name: name, Kind: ObjectLike, Replacement: replacement}
	if err := m.buildTable(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewFunctionLike builds a function-like macro definition. params is the
// declared parameter name list (not including __VA_ARGS__); variadic
// indicates the parameter list ended in ... or ,  ...name.
func NewFunctionLike(name string, params []string, variadic bool, replacement []pptoken.PPToken) (*Macro, error) {
	m := &Macro{Name: name, Kind: FunctionLike, Params: params, Variadic: variadic, Replacement: replacement}
	if err := m.buildTable(); err != nil {
		return nil, err
	}
	return m, nil
}

// buildTable walks Replacement left to right, assigning each slot its
// paramRole and __VA_OPT__ group bounds, then makes a second pass that
// sets the stringize/pasteOperand flags from each # and ## token's
// neighbors. The expansion algorithm (instantiateCtx.run) later walks
// the finished table forward, building a fresh output slice, so no
// substitution shifts the index of a slot still to be visited.
func (m *Macro) buildTable() error {
	n := len(m.Replacement)
	table := make([]correspondenceEntry, n)

	vaOptDepth := 0
	var vaOptStack []int // indices of open __VA_OPT__ tokens, for nesting rejection

	for i := 0; i < n; i++ {
		tok := m.Replacement[i]
		entry := correspondenceEntry{token: tok, insideVAOpt: vaOptDepth > 0}

		switch {
		case tok.Category == pptoken.Identifier && tok.Value() == variadicParamName:
			if !m.Variadic {
				return fmt.Errorf("%s used in non-variadic macro %q", variadicParamName, m.Name)
			}
			entry.role = roleVAArgs
		case tok.Category == pptoken.Identifier && tok.Value() == vaOptName:
			if !m.Variadic {
				return fmt.Errorf("%s used in non-variadic macro %q", vaOptName, m.Name)
			}
			if vaOptDepth > 0 {
				return fmt.Errorf("%s may not nest in macro %q", vaOptName, m.Name)
			}
			if i+1 >= n || table0Value(m.Replacement, i+1) != "(" || m.Replacement[i+1].SpaceBefore {
				return fmt.Errorf("%s must be followed directly by ( in macro %q", vaOptName, m.Name)
			}
			// Open the group: find its matching close paren.
			depth := 0
			close := -1
			for j := i + 1; j < n; j++ {
				v := m.Replacement[j].Value()
				if m.Replacement[j].Category != pptoken.OpOrPunc {
					continue
				}
				if v == "(" {
					depth++
				} else if v == ")" {
					depth--
					if depth == 0 {
						close = j
						break
					}
				}
			}
			if close == -1 {
				return fmt.Errorf("unterminated %s in macro %q", vaOptName, m.Name)
			}
			entry.role = roleVAOpt
			entry.vaOptBodyFrom = i + 2 // skip __VA_OPT__ and (
			entry.vaOptBodyTo = close
			vaOptDepth++
			vaOptStack = append(vaOptStack, i)
		case tok.Category == pptoken.Identifier:
			if idx, ok := m.paramIndex(tok.Value()); ok {
				entry.role = roleParam
				entry.paramIndex = idx
			}
		}

		// Track leaving a __VA_OPT__ group's closing paren.
		if len(vaOptStack) > 0 && tok.Category == pptoken.OpOrPunc && tok.Value() == ")" {
			open := vaOptStack[len(vaOptStack)-1]
			if table[open].role == roleVAOpt && table[open].vaOptBodyTo == i {
				vaOptStack = vaOptStack[:len(vaOptStack)-1]
				vaOptDepth--
			}
		}

		table[i] = entry
	}

	// Second lightweight pass: mark stringize/paste-operand flags, which
	// look at a token's immediate neighbors rather than at accumulated
	// state, so they are easiest to assign once the role pass above has
	// located every parameter/VA_ARGS/VA_OPT slot.
	for i := 0; i < n; i++ {
		tok := m.Replacement[i]
		if tok.Category != pptoken.OpOrPunc {
			continue
		}
		switch tok.Value() {
		case "#":
			if m.Kind == FunctionLike && i+1 < n && isStringizableOperand(table[i+1]) {
				table[i+1].stringize = true
			}
		case "##":
			if i > 0 {
				table[i-1].pasteOperand = true
			}
			if i+1 < n {
				table[i+1].pasteOperand = true
			}
		}
	}

	m.table = table
	return nil
}

func isStringizableOperand(e correspondenceEntry) bool {
	return e.role == roleParam || e.role == roleVAArgs || e.role == roleVAOpt
}

func table0Value(toks []pptoken.PPToken, i int) string {
	if i < 0 || i >= len(toks) {
		return ""
	}
	return toks[i].Value()
}
