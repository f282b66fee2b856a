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

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Cursor is a position within a single logical line. Column is 1-based;
// the line number itself lives on the LogicalLine being scanned, not
// here, since the lexer operates one logical line at a time.
type Cursor struct {
	Column int
}

// CursorInit is the cursor at the start of a logical line's text.
var CursorInit = Cursor{Column: 1}

func (c Cursor) String() string {
	return fmt.Sprintf("col %d", c.Column)
}

// AdvancedBy returns a new Cursor advanced past lookAhead, assuming the
// current cursor points at its first byte. Embedded newlines (possible
// inside a raw-string-literal body) advance the column by the length of
// the text following the last newline, matching how the rest of the
// lexer treats raw-string bodies as opaque spans rather than as
// contributing new physical lines of their own.
func (c Cursor) AdvancedBy(lookAhead string) Cursor {
	tailBegin := 1 + strings.LastIndex(lookAhead, "\n")
	tailLength := utf8.RuneCountInString(lookAhead[tailBegin:])
	if tailBegin == 0 {
		c.Column += tailLength
	} else {
		c.Column = 1 + tailLength
	}
	return c
}
