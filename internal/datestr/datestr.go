// Package datestr parses the date-range queries ("datestrs") that bind an
// analysis case to a slice of a data source's time axis.
//
// A query is either a bounded textual range such as "0271-0300" (model years
// 271 through 300, inclusive) or the null sentinel, which selects all
// available time slices and is used for static climatologies like the World
// Ocean Atlas.
package datestr

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryError reports a date-range query that could not be parsed.
type QueryError struct {
	Query string
	Cause string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid date query %q: %s", e.Query, e.Cause)
}

// Selector is a resolved date-range query. The zero value is not meaningful;
// construct selectors via Parse or All.
type Selector struct {
	start int
	end   int
	width int
	all   bool
}

// All returns the selector that places no restriction on the time axis.
func All() Selector {
	return Selector{all: true}
}

// Parse resolves a textual date-range query to a Selector. The empty string
// and the YAML null literals ("null", "~") resolve to the all-available
// sentinel; anything else must be a "START-END" year range with START <= END.
func Parse(query string) (Selector, error) {
	switch strings.TrimSpace(query) {
	case "", "null", "~", "Null", "NULL":
		return All(), nil
	}

	lo, hi, ok := strings.Cut(query, "-")
	if !ok {
		return Selector{}, &QueryError{Query: query, Cause: "expected START-END"}
	}
	start, err := strconv.Atoi(lo)
	if err != nil {
		return Selector{}, &QueryError{Query: query, Cause: "start year is not numeric"}
	}
	end, err := strconv.Atoi(hi)
	if err != nil {
		return Selector{}, &QueryError{Query: query, Cause: "end year is not numeric"}
	}
	if start < 0 || end < 0 {
		return Selector{}, &QueryError{Query: query, Cause: "years must be non-negative"}
	}
	if start > end {
		return Selector{}, &QueryError{Query: query, Cause: "start year after end year"}
	}
	if len(lo) != len(hi) {
		return Selector{}, &QueryError{Query: query, Cause: "start and end widths differ"}
	}
	return Selector{start: start, end: end, width: len(lo)}, nil
}

// MustParse is Parse for statically known queries in tests and tables.
func MustParse(query string) Selector {
	s, err := Parse(query)
	if err != nil {
		panic(err)
	}
	return s
}

// All reports whether the selector is the no-restriction sentinel.
func (s Selector) All() bool { return s.all }

// Bounds returns the closed [start, end] year interval. It is only
// meaningful when All reports false.
func (s Selector) Bounds() (start, end int) { return s.start, s.end }

// Contains reports whether the given year falls inside the selection.
// The all-available sentinel contains every year.
func (s Selector) Contains(year int) bool {
	if s.all {
		return true
	}
	return year >= s.start && year <= s.end
}

// Years enumerates the selected years in ascending order, rendered at the
// query's original zero-padded width. These labels are what history file
// names are globbed with. The sentinel yields nil.
func (s Selector) Years() []string {
	if s.all {
		return nil
	}
	years := make([]string, 0, s.end-s.start+1)
	for y := s.start; y <= s.end; y++ {
		years = append(years, fmt.Sprintf("%0*d", s.width, y))
	}
	return years
}

// String re-renders the selector in its query form. Parse(q).String() == q
// for every well-formed bounded range q; the sentinel renders as "ALL".
func (s Selector) String() string {
	if s.all {
		return "ALL"
	}
	return fmt.Sprintf("%0*d-%0*d", s.width, s.start, s.width, s.end)
}
