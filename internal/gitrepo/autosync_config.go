package gitrepo

import (
	"os"
	"strconv"
	"strings"
)

func boolEnvDefault(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	switch strings.ToLower(v) {
	case "y", "yes", "on":
		return true
	case "n", "no", "off":
		return false
	default:
		return def
	}
}

// AutoCommitEnabled reports whether saves are committed to git.
// HANDYMAN_AUTOCOMMIT overrides the configured default.
func AutoCommitEnabled(def bool) bool {
	return boolEnvDefault("HANDYMAN_AUTOCOMMIT", def)
}

// AutoPushEnabled reports whether commits are pushed when an upstream exists.
// Default: false. Enable with HANDYMAN_AUTOPUSH=1.
func AutoPushEnabled() bool {
	return boolEnvDefault("HANDYMAN_AUTOPUSH", false)
}
