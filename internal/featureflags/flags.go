package featureflags

import (
	"os"
	"strings"
)

// Known flags.
const (
	// SignupRole lets signup payloads choose a role other than "user".
	SignupRole = "signup_role"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	return parse(os.Getenv(envName(name)))
}

// Set is a snapshot of flag values taken at startup.
type Set map[string]bool

// Snapshot reads the given flags once.
func Snapshot(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = Enabled(n)
	}
	return s
}

// Enabled reports a snapshotted flag; unknown flags are off.
func (s Set) Enabled(name string) bool { return s[name] }

func envName(name string) string {
	return "FLAG_" + strings.ToUpper(name)
}

func parse(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
