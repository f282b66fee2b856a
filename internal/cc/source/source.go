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

// Package source implements translation phases 1-2: reading raw bytes as
// UTF-8 text and splicing backslash-continued physical lines into logical
// lines.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// LogicalLine is one or more physical source lines joined by line
// splicing. Offsets records, in ascending order, the byte offset into
// Text immediately after each physical line that was joined - i.e. the
// position a continuation backslash+newline pair was removed from.
type LogicalLine struct {
	Text               string
	StartPhysicalLine  int
	LogicalLineNumber  int
	ContinuationOffsets []int
}

// PhysicalLineCount returns how many physical source lines this logical
// line spans.
func (l LogicalLine) PhysicalLineCount() int {
	return len(l.ContinuationOffsets) + 1
}

var errNoBOM = fmt.Errorf("source: no byte-order mark present")

const utf8BOM = "\xef\xbb\xbf"

// Reader produces LogicalLines from an underlying byte stream. It owns
// phase 1 (BOM stripping, CRLF normalization) and phase 2 (backslash line
// splicing).
type Reader struct {
	scanner      *bufio.Scanner
	physicalLine int
	logicalLine  int
	pending      bool
	pendingText  string
	eof          bool
}

// NewReader wraps r, skipping a leading UTF-8 BOM if present.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(len(utf8BOM))
	if err == nil && string(peeked) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	} else if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanLines)
	return &Reader{scanner: scanner}, nil
}

func stripCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}

func (r *Reader) readPhysicalLine() (string, bool) {
	if r.eof {
		return "", false
	}
	if !r.scanner.Scan() {
		r.eof = true
		return "", false
	}
	r.physicalLine++
	return stripCR(r.scanner.Text()), true
}

// endsWithOddBackslashes reports whether s ends with an odd run of
// backslashes - only an odd run is a genuine continuation marker, since
// each pair of backslashes is itself an escaped backslash.
func endsWithOddBackslashes(s string) bool {
	count := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		count++
	}
	return count%2 == 1
}

// Next reads the next logical line, splicing away trailing backslash
// continuations. It returns false once the underlying stream is
// exhausted.
func (r *Reader) Next() (LogicalLine, bool) {
	line, ok := r.readPhysicalLine()
	if !ok {
		return LogicalLine{}, false
	}
	r.logicalLine++
	ll := LogicalLine{
		Text:              line,
		StartPhysicalLine: r.physicalLine,
		LogicalLineNumber: r.logicalLine,
	}

	var buf bytes.Buffer
	buf.WriteString(ll.Text)
	for strings.HasSuffix(buf.String(), "\\") && endsWithOddBackslashes(buf.String()) {
		spliced := buf.String()[:buf.Len()-1]
		next, ok := r.readPhysicalLine()
		if !ok {
			// Dangling continuation at end of file: keep the backslash,
			// there is nothing left to splice with.
			break
		}
		ll.ContinuationOffsets = append(ll.ContinuationOffsets, len(spliced))
		buf.Reset()
		buf.WriteString(spliced)
		buf.WriteString(next)
	}
	ll.Text = buf.String()
	return ll, true
}

// All returns every logical line in the stream, in order.
func (r *Reader) All() []LogicalLine {
	var lines []LogicalLine
	for {
		ll, ok := r.Next()
		if !ok {
			return lines
		}
		lines = append(lines, ll)
	}
}
