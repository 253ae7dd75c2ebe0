// Package resolver turns a validated configuration document into the
// ordered execution plan the rest of the tool consumes.
//
// Resolution is a pure, single-pass transformation: merge each analysis
// type's settings, check every data-source and reference binding, parse the
// date-range queries, and emit one immutable execution unit per case in
// document order. Any structural or referential problem aborts the whole
// resolution before a single dataset is opened.
package resolver
