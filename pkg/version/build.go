package version

import "runtime/debug"

// Build-time variables set via ldflags:
//
//	-X github.com/getmockd/mockd-contract/pkg/version.build=1.4.0
var (
	build     = ""
	gitCommit = ""
)

// Current returns the module version of this binary: the ldflags value when
// set, else the version recorded in the build info, else "dev".
func Current() string {
	if build != "" {
		return build
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Commit returns the source revision the binary was built from, if known.
func Commit() string {
	if gitCommit != "" {
		return gitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}
