package config

import (
	"fmt"
	"os"
	"strings"

	"stepgrade/internal/oracle"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders one issue per line.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// Validate checks a normalized config. Relative paths resolve against base.
func Validate(cfg *Config, base string) error {
	issues := &issueCollector{}
	if cfg.Version != 1 {
		issues.add("version", "must be 1")
	}
	validateRoot(cfg.Root, base, issues)
	if _, err := oracle.ParseLocale(cfg.Locale); err != nil {
		issues.add("locale", `must be "en" or "zh"`)
	}
	validateOracle(cfg.Oracle, issues)
	validateArtifacts(cfg.Artifacts, issues)

	credentials := len(cfg.Oracle.Credentials)
	switch {
	case cfg.Workers < 1:
		issues.add("workers", "must be at least 1")
	case credentials > 0 && cfg.Workers > credentials:
		issues.add("workers", fmt.Sprintf("must not exceed the %d configured credentials", credentials))
	}

	switch cfg.Store.Driver {
	case StoreDriverDuckDB, StoreDriverSQLite:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			issues.add("store.path", "is required")
		}
	case StoreDriverNone:
	default:
		issues.add("store.driver", `must be "duckdb", "sqlite" or "none"`)
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		issues.add("output_dir", "is required")
	}
	return issues.result()
}

func validateRoot(root, base string, issues *issueCollector) {
	if strings.TrimSpace(root) == "" {
		issues.add("root", "is required")
		return
	}
	path := ResolvePath(base, root)
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		issues.add("root", fmt.Sprintf("directory %q does not exist", path))
	case err != nil:
		issues.add("root", err.Error())
	case !info.IsDir():
		issues.add("root", fmt.Sprintf("%q is not a directory", path))
	}
}

func validateOracle(o OracleConfig, issues *issueCollector) {
	switch o.Provider {
	case oracle.ProviderOpenAI, oracle.ProviderOpenRouter:
	default:
		issues.add("oracle.provider", fmt.Sprintf("must be %q or %q", oracle.ProviderOpenAI, oracle.ProviderOpenRouter))
	}
	if strings.TrimSpace(o.Model) == "" {
		issues.add("oracle.model", "is required")
	}
	if len(o.Credentials) == 0 {
		issues.add("oracle.credentials", "at least one credential is required")
	}
	seen := make(map[string]struct{}, len(o.Credentials))
	for i, cred := range o.Credentials {
		field := fmt.Sprintf("oracle.credentials[%d]", i)
		id := strings.TrimSpace(cred.ID)
		if id == "" {
			issues.add(field+".id", "is required")
		} else if _, dup := seen[id]; dup {
			issues.add(field+".id", fmt.Sprintf("duplicate credential id %q", id))
		} else {
			seen[id] = struct{}{}
		}
		if strings.TrimSpace(cred.APIKeyEnv) == "" {
			issues.add(field+".api_key_env", "is required")
		}
	}
	if o.RetryDelayMs < 0 {
		issues.add("oracle.retry_delay_ms", "must not be negative")
	}
	if o.AnswerAttempts < 1 {
		issues.add("oracle.answer_attempts", "must be at least 1")
	}
	if o.TimeoutSeconds < 1 {
		issues.add("oracle.timeout_seconds", "must be at least 1")
	}
}

func validateArtifacts(a ArtifactsConfig, issues *issueCollector) {
	fields := []struct {
		name  string
		value string
	}{
		{"artifacts.raw", a.Raw},
		{"artifacts.formatted", a.Formatted},
		{"artifacts.step_eval", a.StepEval},
		{"artifacts.answer_eval", a.AnswerEval},
	}
	seen := make(map[string]string, len(fields))
	for _, field := range fields {
		value := strings.TrimSpace(field.value)
		if value == "" {
			issues.add(field.name, "is required")
			continue
		}
		if other, dup := seen[value]; dup {
			issues.add(field.name, fmt.Sprintf("must differ from %s", other))
			continue
		}
		seen[value] = field.name
	}
	if strings.TrimSpace(a.ModelName) == "" {
		issues.add("artifacts.model_name", "is required")
	}
}
