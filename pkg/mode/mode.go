// Package mode resolves the service operating mode (simulate or live).
//
// The mode is read from the VCT_SIMULATE environment variable exactly once,
// at process startup, and the resolved value is passed to every consumer as
// an immutable constructor argument. Nothing re-reads the environment per
// request, so the mode cannot drift underneath in-flight requests.
package mode

import (
	"os"
	"strings"
)

// EnvVar is the environment variable that selects simulate mode.
const EnvVar = "VCT_SIMULATE"

// Mode is the resolved execution mode for the running process.
type Mode int

const (
	// Live is the default: requests are fulfilled against real back-end
	// integrations (cloud speech APIs, hardware actuators). Live mode
	// requires its credentials to be present at startup.
	Live Mode = iota

	// Simulate fulfills every request locally, without any external
	// dependency, credential, or network resource.
	Simulate
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	if m == Simulate {
		return "simulate"
	}
	return "live"
}

// IsSimulate reports whether the mode is Simulate.
func (m Mode) IsSimulate() bool { return m == Simulate }

// truthy values recognized for VCT_SIMULATE, compared case-insensitively.
var truthy = map[string]bool{
	"1":    true,
	"true": true,
	"yes":  true,
}

// Resolve maps a raw flag value to a Mode. Recognized truthy values
// ("1", "true", "yes", case-insensitive) select Simulate; anything else,
// including the empty string, selects Live. The second return value is true
// when a non-empty value was not recognized, so the caller can emit a
// warning — an unrecognized flag never fails, it falls back to Live because
// simulate is an explicit opt-in.
func Resolve(raw string) (Mode, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Live, false
	}
	if truthy[strings.ToLower(trimmed)] {
		return Simulate, false
	}
	return Live, true
}

// ResolveFromEnv resolves the mode from the process environment. Call it
// once at startup and inject the result; do not call it per request.
func ResolveFromEnv() (Mode, bool) {
	return Resolve(os.Getenv(EnvVar))
}
