package version

import "runtime/debug"

// The version can be set at build time using something like:
// go build -ldflags "-X github.com/kirosynth/kiro/version.Version=$(git describe --dirty)"

var Version string

// Hash is the short vcs revision the binary was built from, with "-dirty"
// appended if the tree had modifications.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	revision, modified := "", false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		revision += "-dirty"
	}
	return revision
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()
