package respkit

import (
	"runtime"
	"strconv"

	"github.com/raniellyferreira/respkit/protocol"
)

// Version is the respkit release, reported by HELLO, INFO and respd version
const Version = "0.1.0"

// Build metadata, set with -ldflags "-X"
var (
	GitCommit string
	BuildTime string
)

// VersionInfo returns the release, the supported RESP versions and the
// build metadata that is known
func VersionInfo() map[string]string {
	info := map[string]string{
		"version":   Version,
		"protocols": strconv.Itoa(protocol.RESP2) + "," + strconv.Itoa(protocol.RESP3),
		"go":        runtime.Version(),
	}

	if GitCommit != "" {
		info["commit"] = GitCommit
	}
	if BuildTime != "" {
		info["buildTime"] = BuildTime
	}

	return info
}
