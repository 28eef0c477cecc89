// Package version tells which build of sketchhub is running. Release builds
// set Version with the linker:
//
//	go build -ldflags "-X github.com/vsariola/sketch/version.Version=v0.3.0" ./cmd/sketchhub
//
// Other builds fall back to the VCS revision recorded by the go command.
package version

import "runtime/debug"

var Version string

// Revision is the short commit hash of the build, suffixed with "-dirty"
// when the working tree had local changes, or "" if unknown.
var Revision = revision(debug.ReadBuildInfo)

func revision(read func() (*debug.BuildInfo, bool)) string {
	info, ok := read()
	if !ok {
		return ""
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

// String returns Version if set, Revision otherwise, or "devel".
func String() string {
	switch {
	case Version != "":
		return Version
	case Revision != "":
		return Revision
	}
	return "devel"
}
