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

package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allLines(t *testing.T, src string) []LogicalLine {
	t.Helper()
	r, err := NewReader(strings.NewReader(src))
	require.NoError(t, err)
	return r.All()
}

func TestReaderStripsBOM(t *testing.T) {
	lines := allLines(t, "\xef\xbb\xbfint x;\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "int x;", lines[0].Text)
}

func TestReaderNormalizesCRLF(t *testing.T) {
	lines := allLines(t, "int x;\r\nint y;\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "int x;", lines[0].Text)
	assert.Equal(t, "int y;", lines[1].Text)
}

func TestReaderSplicesContinuation(t *testing.T) {
	lines := allLines(t, "int x = 1 + \\\n2;\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "int x = 1 + 2;", lines[0].Text)
	assert.Equal(t, 2, lines[0].PhysicalLineCount())
	require.Len(t, lines[0].ContinuationOffsets, 1)
}

func TestReaderSplicesMultipleContinuations(t *testing.T) {
	lines := allLines(t, "int x = 1 + \\\n2 + \\\n3;\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "int x = 1 + 2 + 3;", lines[0].Text)
	assert.Equal(t, 3, lines[0].PhysicalLineCount())
}

func TestReaderEscapedBackslashIsNotContinuation(t *testing.T) {
	// A trailing \\ (e.g. an escaped backslash ending a comment) is an
	// even run and must not be treated as a line-continuation marker.
	lines := allLines(t, `char c = '\\'; // \\` + "\n" + `int y;` + "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `char c = '\\'; // \\`, lines[0].Text)
	assert.Equal(t, `int y;`, lines[1].Text)
}

func TestReaderDanglingContinuationAtEOF(t *testing.T) {
	lines := allLines(t, "int x = 1 + \\")
	require.Len(t, lines, 1)
	assert.Equal(t, "int x = 1 + \\", lines[0].Text)
}

func TestReaderTracksLineNumbers(t *testing.T) {
	lines := allLines(t, "a;\nb = 1 + \\\n2;\nc;\n")
	require.Len(t, lines, 3)
	assert.Equal(t, 1, lines[0].StartPhysicalLine)
	assert.Equal(t, 2, lines[1].StartPhysicalLine)
	assert.Equal(t, 4, lines[2].StartPhysicalLine)
	assert.Equal(t, 1, lines[0].LogicalLineNumber)
	assert.Equal(t, 2, lines[1].LogicalLineNumber)
	assert.Equal(t, 3, lines[2].LogicalLineNumber)
}
