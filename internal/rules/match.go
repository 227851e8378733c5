// Package rules implements the pattern rule engine: previewing the
// transactions a pattern would match and applying all active rules to the
// transaction set.
package rules

import (
	"strings"

	"github.com/ryanuber/go-glob"
)

// Matches reports whether the transaction name contains the pattern.
// Matching is case-insensitive.
func Matches(pattern, name string) bool {
	if pattern == "" {
		return false
	}

	return glob.Glob("*"+strings.ToLower(pattern)+"*", strings.ToLower(name))
}
