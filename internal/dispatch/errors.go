package dispatch

import "fmt"

// ConfigAbsentError is returned when no peers are configured at all
// (spec.md §7 error kind 1).
type ConfigAbsentError struct{}

func (ConfigAbsentError) Error() string {
	return "no LSP peers are configured; add a config file declaring at least one peer"
}

// NoMatchingPeerError is returned when no configured glob matches the file
// (spec.md §7 error kind 2), whether because no peer covers it or because
// the matching peer failed to start and is now Dead.
type NoMatchingPeerError struct {
	File string
}

func (e NoMatchingPeerError) Error() string {
	return fmt.Sprintf("no LSP peer is configured for file %q", e.File)
}

// ValidationError is returned when a required tool parameter is missing or
// malformed (spec.md §7 error kind 3).
type ValidationError struct {
	Param string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid parameter %q", e.Param)
}

// UnknownToolError is returned when callTool names a tool outside the
// catalog and the configured extensions (spec.md §7 error kind 4). It is also
// returned for a configured extension tool while no Ready peer serves it.
type UnknownToolError struct {
	Tool string
}

func (e UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}
