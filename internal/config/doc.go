// Package config defines the typed, format-agnostic model of the diagnostics
// configuration document, plus the Loader interface that format-specific
// front ends (YAML, HCL) implement to produce it.
//
// The model deliberately preserves document order for analysis types, cases,
// and data bindings: the resolved execution plan is contractually ordered by
// order of appearance so that reruns produce plots in a stable order.
package config
