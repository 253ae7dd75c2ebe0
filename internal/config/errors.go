package config

import "fmt"

// Error reports a structural or referential problem with the configuration
// document: an unrecognized key, a dangling data-source reference, a
// namespace collision between obs and datasets, and so on. Resolution stops
// at the first Error; no partial plan is ever produced from a document that
// does not validate.
type Error struct {
	// Section locates the problem, e.g. "data_sources" or
	// "analysis.3d_ann_climo_maps_on_levels.PI_vs_FV2".
	Section string
	Reason  string
}

func (e *Error) Error() string {
	if e.Section == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s: %s", e.Section, e.Reason)
}

// Errorf constructs an Error for the given document section.
func Errorf(section, format string, args ...any) *Error {
	return &Error{Section: section, Reason: fmt.Sprintf(format, args...)}
}
