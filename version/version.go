// Package version exposes build information, overridable at link time with
// -ldflags "-X github.com/farcloser/critic/version.version=...".
package version

import "runtime/debug"

//nolint:gochecknoglobals // set by the linker
var (
	name    = "critic"
	version = ""
	commit  = ""
)

func Name() string {
	return name
}

func Version() string {
	if version != "" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}

	return "dev"
}

func Commit() string {
	if commit != "" {
		return commit
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}

	return "unknown"
}
