// Package version carries build identification for the redblack binary.
package version

import "runtime/debug"

const (
	devVersion     = "dev"
	unknownValue   = "<unknown>"
	shortHashLen   = 12
	settingVCSRev  = "vcs.revision"
	settingVCSTime = "vcs.time"
)

// Version, Commit and Date are injected with -ldflags "-X" at release time.
var (
	Version = devVersion
	Commit  = unknownValue
	Date    = unknownValue
)

// InitBinaryVersion fills whatever the linker left unset from the module
// build info embedded by the Go toolchain.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	applyBuildInfo(info)
}

func applyBuildInfo(info *debug.BuildInfo) {
	if Version == devVersion && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingVCSRev:
			if Commit == unknownValue && setting.Value != "" {
				Commit = setting.Value
				if len(Commit) > shortHashLen {
					Commit = Commit[:shortHashLen]
				}
			}
		case settingVCSTime:
			if Date == unknownValue && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}

// String formats the version line printed by the version command.
func String() string {
	return "redblack " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
