// Package buildinfo carries version metadata stamped in with -ldflags:
//
//	-X github.com/modoterra/devconsole/internal/buildinfo.Version=v0.1.0
package buildinfo

import "runtime/debug"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func init() {
	if Version != "dev" {
		return
	}
	// go install module@version leaves the version in the binary.
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

// String formats the metadata for version commands.
func String(program string) string {
	return program + " " + Version + " (" + Commit + ") built " + Date
}
