package config

import (
	"fmt"
	"log"
	"runtime/debug"
)

// Go toolchain version, main module path and Git revision from build metadata.
type VersionInfo struct {
	GoVersion string `json:"go"`
	Package   string `json:"package"`
	Revision  string `json:"revision"`
}

var Version VersionInfo

func init() {
	// read build information compiled into the binary
	// https://pkg.go.dev/runtime/debug#ReadBuildInfo
	info, ok := debug.ReadBuildInfo()
	if !ok {
		log.Fatalf("failed reading build information from binary")
	}
	Version.GoVersion = info.GoVersion
	Version.Package = info.Path
	Version.Revision = "devel"

	// pick the git revision out of the build settings, with a dirty marker
	revision, dirty := "", ""
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			if setting.Value == "true" {
				dirty = "-dirty"
			}
		}
	}
	if revision != "" {
		Version.Revision = fmt.Sprintf("%.*s%s", 7, revision, dirty)
	}
}
