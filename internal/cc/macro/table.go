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
	"time"

	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
)

// Table holds every macro currently defined, plus the #line overrides
// needed to resolve __LINE__/__FILE__.
type Table struct {
	macros    map[string]*Macro
	lines     lineMap
	file      string
	startTime time.Time
}

// NewTable returns an empty macro table reporting filename as the
// initial value of __FILE__.
func NewTable(filename string) *Table {
	return &Table{macros: make(map[string]*Macro), file: filename}
}

// Define installs m, applying the benign-redefinition rule: redefining
// an existing macro with a textually identical definition is silently
// accepted, a conflicting redefinition is reported via
// RedefinitionError.
func (t *Table) Define(m *Macro) error {
	if existing, ok := t.macros[m.Name]; ok {
		if !existing.sameDefinition(m) {
			return &RedefinitionError{Name: m.Name}
		}
		return nil
	}
	t.macros[m.Name] = m
	return nil
}

// Undef removes a macro definition, if any. Undefining a macro that was
// never (or no longer) defined is not an error.
func (t *Table) Undef(name string) {
	delete(t.macros, name)
}

// Lookup returns the macro named name, if defined.
func (t *Table) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// IsDefined reports whether name names a currently-defined macro,
// including the always-on predefined identifiers.
func (t *Table) IsDefined(name string) bool {
	if _, ok := t.macros[name]; ok {
		return true
	}
	return isPredefinedName(name)
}

// Snapshot builds the flat integer Environment the #if/#elif expression
// evaluator operates over: every currently-defined macro is considered
// "defined" regardless of its replacement list shape, and contributes
// its value if that replacement list is a single pp-number token,
// or 1 otherwise (mirroring "#define NAME" meaning "#define NAME 1").
func (t *Table) Snapshot() Environment {
	env := make(Environment, len(t.macros))
	for name, m := range t.macros {
		value := 1
		if len(m.Replacement) == 1 && m.Replacement[0].Category == pptoken.PPNumber {
			if v, err := parseIntLiteral(m.Replacement[0].Value()); err == nil {
				value = v
			}
		}
		env[name] = value
	}
	return env
}

// LoadEnvironment seeds the table with a set of object-like macros
// expanding to fixed integer values, as produced by -D-style
// command-line definitions or a predefined platform environment.
func (t *Table) LoadEnvironment(env Environment) {
	for name, value := range env {
		tok := pptoken.NewOwned(pptoken.PPNumber, pptoken.Position{}, formatInt(value))
		m, err := NewObjectLike(name, []pptoken.PPToken{tok})
		if err != nil {
			continue
		}
		t.macros[name] = m
	}
}

func formatInt(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Environment is a flat name->integer-value macro environment, used for
// -D-style command-line definitions and for predefined platform macro
// sets. It intentionally mirrors the shape the #if expression evaluator
// expects, distinct from the full Macro/Table pair used for textual
// replacement.
type Environment map[string]int

// Clone returns an independent copy of env.
func (env Environment) Clone() Environment {
	out := make(Environment, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
