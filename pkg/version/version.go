package version

import (
	_ "embed"
)

// Version is the release string embedded at build time from the VERSION file.
//
//go:embed VERSION
var Version string

// Get returns the running wai-bee version
func Get() string {
	return Version
}
