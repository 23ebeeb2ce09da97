package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "CATALOG_WORKERS"

// Count returns the number of workers for a task, scaled from GOMAXPROCS by
// multiplier and capped at limit (0 means uncapped). A positive integer in
// CATALOG_WORKERS replaces the computed value; the cap still applies.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			return capAt(n, limit)
		}
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	return capAt(n, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForIO returns the worker count for network-bound work such as fetching
// UPnP device descriptions.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
