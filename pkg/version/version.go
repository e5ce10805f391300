// Package version derives the running build's identity from build metadata.
package version

import "runtime/debug"

// AppName identifies the server in logs and upstream user-agent strings.
const AppName = "rinkside"

// commitOverride is injected with -ldflags for container builds where the
// .git directory is unavailable.
var commitOverride string

// GitCommit is the short commit hash, or "dev" when no VCS metadata is
// available (go test, non-git builds).
var GitCommit = resolveCommit()

// Full returns "rinkside/<commit>", the form used on log lines and as the
// User-Agent towards the league backends.
func Full() string {
	return AppName + "/" + GitCommit
}

func resolveCommit() string {
	if commitOverride != "" {
		return shorten(commitOverride)
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return shorten(s.Value)
			}
		}
	}
	return "dev"
}

func shorten(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
