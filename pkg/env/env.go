// Package env reads process environment variables with fallbacks.
package env

import "os"

// Get looks up key in the process environment. Unset or empty variables
// resolve to the fallback.
func Get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
