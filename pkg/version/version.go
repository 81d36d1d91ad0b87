package version

import "runtime/debug"

// Version is overridden at build time with -ldflags "-X .../pkg/version.Version=v1.2.3"
var Version = ""

// Get returns build version information
func Get() string {
	if Version != "" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7] // Short commit hash
				}
				return setting.Value
			}
		}

		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}

	return "dev"
}
