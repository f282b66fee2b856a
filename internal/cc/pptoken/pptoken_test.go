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

package pptoken

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-kusabira/kusabira/internal/cc/source"
)

func TestViewTokenReadsFromBackingLine(t *testing.T) {
	ll := &source.LogicalLine{Text: "int foo;"}
	tok := NewView(Identifier, Position{}, ll, 4, 7)
	assert.Equal(t, "foo", tok.Value())
}

func TestOwnedTokenIsIndependentOfLine(t *testing.T) {
	tok := NewOwned(StringLiteral, Position{}, `"hello"`)
	assert.Equal(t, `"hello"`, tok.Value())
}

func TestWithCategoryPreservesText(t *testing.T) {
	ll := &source.LogicalLine{Text: "FOO"}
	tok := NewView(Identifier, Position{}, ll, 0, 3)
	painted := tok.WithCategory(NotMacroIdentifier)
	assert.Equal(t, NotMacroIdentifier, painted.Category)
	assert.Equal(t, "FOO", painted.Value())
	assert.Equal(t, Identifier, tok.Category, "original token must be unaffected")
}

func TestIsWhitespaceSignificant(t *testing.T) {
	cases := []struct {
		left, right Category
		want        bool
	}{
		{Identifier, Identifier, true},
		{Identifier, PPNumber, true},
		{NotMacroIdentifier, Identifier, true},
		{OpOrPunc, OpOrPunc, true},
		{Identifier, OpOrPunc, false},
		{StringLiteral, Identifier, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsWhitespaceSignificant(c.left, c.right),
			"IsWhitespaceSignificant(%v, %v)", c.left, c.right)
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "pp-number", PPNumber.String())
	assert.Equal(t, "unknown", Category(999).String())
}
