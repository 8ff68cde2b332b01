package preflight

import (
	"context"

	"fieldsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are advisory: the daemon starts even when the backend is down,
// since queuing offline is the whole point.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDiskSpace("Data disk space", cfg.Paths.DataDir))

	if cfg.Backend.BaseURL != "" {
		results = append(results, CheckBackend(ctx, cfg))
	}

	return results
}

// AllPassed reports whether every non-advisory check succeeded. Backend
// reachability never blocks startup.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed && result.Name != "Backend" {
			return false
		}
	}
	return true
}
