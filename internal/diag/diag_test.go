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

package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterReporterFormatsReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewWriterReporter(&buf)
	r.Report(Position{File: "a.cpp", Line: 3, Column: 5}, KindMacroRedefinitionConflict, SeverityError)
	assert.Equal(t, "a.cpp:3:5: error: macro redefinition is not identical to prior definition\n", buf.String())
}

func TestWriterReporterFormatsPrint(t *testing.T) {
	var buf bytes.Buffer
	r := NewWriterReporter(&buf)
	r.Print(Position{File: "a.cpp", Line: 1, Column: 1}, "custom message")
	assert.Equal(t, "a.cpp:1:1: custom message\n", buf.String())
}

func TestCountingReporterTallies(t *testing.T) {
	var buf bytes.Buffer
	counting := NewCountingReporter(NewWriterReporter(&buf))

	counting.Report(Position{}, KindMalformedDirective, SeverityError)
	counting.Report(Position{}, KindMacroInvalidVaOpt, SeverityWarning)
	counting.Report(Position{}, KindUnexpectedDirective, SeverityNote)
	counting.Report(Position{}, KindMalformedDirective, SeverityError)

	assert.Equal(t, 2, counting.Errors)
	assert.Equal(t, 1, counting.Warnings)
	assert.Equal(t, 1, counting.Notes)
	assert.True(t, counting.HasErrors())
	assert.NotEmpty(t, buf.String(), "should still forward to the wrapped reporter")
}

func TestCountingReporterWithoutErrorsReportsFalse(t *testing.T) {
	counting := NewCountingReporter(nil)
	counting.Report(Position{}, KindMacroInvalidVaOpt, SeverityWarning)
	assert.False(t, counting.HasErrors())
}
