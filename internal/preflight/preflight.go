package preflight

import (
	"context"
	"fmt"
	"strings"

	"cineboard/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCredentials(cfg),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	if cfg.Storage.Backend == config.StorageFile {
		results = append(results, CheckDirectoryAccess("Asset directory", cfg.Paths.AssetDir))
	}
	if cfg.Analyzer.Provider == config.ProviderLLM {
		results = append(results, CheckLLM(ctx, "Analyzer LLM", cfg.GetLLM()))
	}
	return results
}

// Failures folds failed results into one error, or nil when all passed.
func Failures(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("preflight checks failed: %s", strings.Join(failed, "; "))
}
