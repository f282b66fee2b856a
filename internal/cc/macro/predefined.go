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
	"sort"
	"time"

	"github.com/go-kusabira/kusabira/internal/cc/pptoken"
)

// fixedPredefined lists the predefined macros whose expansion never
// depends on the current position: expandPredefined looks their values
// up here instead of computing them, as it does for __LINE__, __FILE__,
// __DATE__ and __TIME__.
var fixedPredefined = map[string]string{
	"__cplusplus":                       "202002L",
	"__STDC_HOSTED__":                   "1",
	"__STDCPP_DEFAULT_NEW_ALIGNMENT__":  "16ull",
	"__STDCPP_THREADS__":                "1",
}

func isPredefinedName(name string) bool {
	switch name {
	case "__LINE__", "__FILE__", "__DATE__", "__TIME__":
		return true
	}
	_, ok := fixedPredefined[name]
	return ok
}

// lineMap implements the #line override table from
// pp_directive_manager.hpp: a sorted list of markers, each holding the
// first physical line a #line directive applies to (the line after the
// directive) and the line number it asserted for that line. __LINE__ at
// a later physical line is then reported as asserted + (current -
// marker), where marker is the nearest marker line at or before current.
type lineMap struct {
	markers []lineMarker
}

type lineMarker struct {
	physicalLine int
	reportedLine int
	filename     string // "" means no filename override at this marker
}

// SetLine records a #line directive: physicalLine is the first physical
// line the directive applies to (the line following the directive
// itself), reportedLine is the line number reported for that line, and
// filename (if non-empty) rebinds __FILE__ from that point on.
func (t *Table) SetLine(physicalLine, reportedLine int, filename string) {
	t.lines.markers = append(t.lines.markers, lineMarker{physicalLine, reportedLine, filename})
	sort.Slice(t.lines.markers, func(i, j int) bool {
		return t.lines.markers[i].physicalLine < t.lines.markers[j].physicalLine
	})
}

// resolveLine returns the __LINE__ value and __FILE__ override (if any)
// that apply at physicalLine.
func (t *Table) resolveLine(physicalLine int) (int, string) {
	marker := lineMarker{reportedLine: 0, filename: t.file}
	found := false
	for _, m := range t.lines.markers {
		if m.physicalLine > physicalLine {
			break
		}
		marker = m
		found = true
	}
	if !found {
		return physicalLine, t.file
	}
	diff := physicalLine - marker.physicalLine
	file := t.file
	if marker.filename != "" {
		file = marker.filename
	}
	return marker.reportedLine + diff, file
}

// startTime is the fixed point in time __DATE__/__TIME__ report,
// matching a single preprocessor invocation observing a constant clock
// the way a real compiler captures its start time once.
var startTime = time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)

// SetStartTime overrides the fixed timestamp __DATE__/__TIME__ expand
// to. Exposed for deterministic testing; production callers may leave
// the zero value to use the package default.
func (t *Table) SetStartTime(when time.Time) {
	t.startTime = when
}

var monthNames = [...]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// dateString renders __DATE__'s "Mmm dd yyyy" form, space-padding
// single-digit days per [cpp.predefined].
func dateString(when time.Time) string {
	day := when.Day()
	dayField := fmt.Sprintf("%2d", day)
	return fmt.Sprintf("%s %s %04d", monthNames[when.Month()-1], dayField, when.Year())
}

// timeString renders __TIME__'s "hh:mm:ss" form, zero-padded.
func timeString(when time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d", when.Hour(), when.Minute(), when.Second())
}

// expandPredefined resolves one of the always-on predefined identifiers
// at the given physical line, returning the replacement token and true,
// or false if name does not name a predefined macro.
func (t *Table) expandPredefined(name string, physicalLine int) (pptoken.PPToken, bool) {
	switch name {
	case "__LINE__":
		line, _ := t.resolveLine(physicalLine)
		return pptoken.NewOwned(pptoken.PPNumber, pptoken.Position{}, formatInt(line)), true
	case "__FILE__":
		_, file := t.resolveLine(physicalLine)
		return pptoken.NewOwned(pptoken.StringLiteral, pptoken.Position{}, quoteString(file)), true
	case "__DATE__":
		when := t.startTime
		if when.IsZero() {
			when = startTime
		}
		return pptoken.NewOwned(pptoken.StringLiteral, pptoken.Position{}, quoteString(dateString(when))), true
	case "__TIME__":
		when := t.startTime
		if when.IsZero() {
			when = startTime
		}
		return pptoken.NewOwned(pptoken.StringLiteral, pptoken.Position{}, quoteString(timeString(when))), true
	}
	if v, ok := fixedPredefined[name]; ok {
		return pptoken.NewOwned(pptoken.PPNumber, pptoken.Position{}, v), true
	}
	return pptoken.PPToken{}, false
}

func quoteString(s string) string {
	return `"` + s + `"`
}
