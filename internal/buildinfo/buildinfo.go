// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X stoprouter/internal/buildinfo.Version=v1.2.0 -X stoprouter/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "runtime/debug"

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

// Info reports the stamped values. A missing commit is filled from the VCS
// data the Go toolchain embeds, when present.
func Info() map[string]string {
	commit, goVersion := Commit, ""
	if bi, ok := debug.ReadBuildInfo(); ok {
		goVersion = bi.GoVersion
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && commit == "" {
				commit = s.Value
			}
		}
	}
	return map[string]string{
		"version":   Version,
		"commit":    commit,
		"builtAt":   BuiltAt,
		"goVersion": goVersion,
	}
}
