package config

import (
	"os"
	"strings"
)

// EnvBool reads a boolean env var with a default.
// Accepts true/false, 1/0, yes/no, y/n, on/off (case-insensitive).
func EnvBool(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

// SkipMigrations disables AutoMigrate on startup.
// AutoMigrate can run DDL that blocks tables; run migrations as a separate
// job when this is set.
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return EnvBool("SKIP_MIGRATIONS", false)
}
