package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig(root string) Config {
	cfg := Config{
		Version: 1,
		Root:    root,
		Oracle: OracleConfig{
			Model: "deepseek-chat",
			Credentials: []CredentialConfig{
				{ID: "a", APIKeyEnv: "KEY_A"},
				{ID: "b", APIKeyEnv: "KEY_B"},
			},
		},
	}
	Normalize(&cfg)
	return cfg
}

func issueFields(t *testing.T, err error) []string {
	t.Helper()
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}
	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig(".")

	if cfg.Locale != "en" || cfg.Oracle.Provider != "openai" {
		t.Fatalf("unexpected locale/provider: %q %q", cfg.Locale, cfg.Oracle.Provider)
	}
	if cfg.Oracle.RetryDelayMs != 1000 || cfg.Oracle.AnswerAttempts != 3 || cfg.Oracle.TimeoutSeconds != 120 {
		t.Fatalf("unexpected oracle defaults: %+v", cfg.Oracle)
	}
	if cfg.Artifacts.Formatted != DefaultFormattedArtifact || cfg.Artifacts.ModelName != "deepseek_r1" {
		t.Fatalf("unexpected artifacts: %+v", cfg.Artifacts)
	}
	if cfg.Workers != 2 {
		t.Fatalf("expected one worker per credential, got %d", cfg.Workers)
	}
	if cfg.Store.Driver != StoreDriverSQLite || cfg.Store.Path != DefaultStorePath {
		t.Fatalf("unexpected store: %+v", cfg.Store)
	}
	if cfg.Oracle.RetryDelay().Milliseconds() != 1000 || cfg.Oracle.Timeout().Seconds() != 120 {
		t.Fatalf("unexpected durations")
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Workers: 1,
		Store:   StoreConfig{Driver: StoreDriverNone},
		Oracle:  OracleConfig{RetryDelayMs: -5},
	}
	Normalize(&cfg)
	if cfg.Workers != 1 || cfg.Oracle.RetryDelayMs != -5 {
		t.Fatalf("explicit values overwritten: %+v", cfg)
	}
	if cfg.Store.Path != "" || cfg.Store.Enabled() {
		t.Fatalf("disabled store should stay without a path: %+v", cfg.Store)
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig(t.TempDir())
	if err := Validate(&cfg, "."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAggregatesIssues(t *testing.T) {
	cfg := validConfig(filepath.Join(t.TempDir(), "missing"))
	cfg.Version = 2
	cfg.Locale = "fr"
	cfg.Oracle.Provider = "anthropic"
	cfg.Oracle.Credentials = append(cfg.Oracle.Credentials, CredentialConfig{ID: "a"})
	cfg.Oracle.AnswerAttempts = -1
	cfg.Artifacts.StepEval = cfg.Artifacts.Formatted
	cfg.Workers = 9
	cfg.Store.Driver = "postgres"

	fields := issueFields(t, Validate(&cfg, "."))
	want := []string{
		"version",
		"root",
		"locale",
		"oracle.provider",
		"oracle.credentials[2].id",
		"oracle.credentials[2].api_key_env",
		"oracle.answer_attempts",
		"artifacts.step_eval",
		"workers",
		"store.driver",
	}
	if strings.Join(fields, ",") != strings.Join(want, ",") {
		t.Fatalf("issues = %v, want %v", fields, want)
	}
}

func TestValidateRootResolvesAgainstBase(t *testing.T) {
	base := t.TempDir()
	if err := os.Mkdir(filepath.Join(base, "data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := validConfig("data")
	if err := Validate(&cfg, base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file := filepath.Join(base, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.Root = "file.txt"
	err := Validate(&cfg, base)
	if err == nil || !strings.Contains(err.Error(), "is not a directory") {
		t.Fatalf("expected not a directory, got %v", err)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	cfg := validConfig(t.TempDir())
	cfg.Oracle.Credentials = nil
	cfg.Workers = 0

	fields := issueFields(t, Validate(&cfg, "."))
	if strings.Join(fields, ",") != "oracle.credentials,workers" {
		t.Fatalf("unexpected issues: %v", fields)
	}
}

func TestParseRejectsUnknownFieldsAndMultipleDocuments(t *testing.T) {
	if _, err := Parse([]byte("version: 1\nrepo: {}\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := Parse([]byte("version: 1\n---\nversion: 1\n")); err == nil || !strings.Contains(err.Error(), "multiple") {
		t.Fatalf("expected multiple documents error, got %v", err)
	}
	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected empty file error")
	}
}

func TestScaffoldedConfigLoads(t *testing.T) {
	workspace := t.TempDir()
	if err := os.Mkdir(filepath.Join(workspace, "data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := ConfigPath(workspace)
	if err := Scaffold(path, ""); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	if err := Scaffold(path, ""); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Root != "./data" || cfg.ProblemPrefix != "cal_problem_" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := strings.Join(cfg.Oracle.CredentialIDs(), ","); got != "primary" {
		t.Fatalf("credential ids = %q", got)
	}
	if got := strings.Join(cfg.Oracle.CredentialEnvVars(), ","); got != "DEEPSEEK_API_KEY" {
		t.Fatalf("credential env = %q", got)
	}
	if cfg.Workers != 1 {
		t.Fatalf("workers = %d", cfg.Workers)
	}
}

func TestFindConfigPathSearchesParents(t *testing.T) {
	workspace := t.TempDir()
	path := ConfigPath(workspace)
	if err := Scaffold(path, ""); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	nested := filepath.Join(workspace, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, err := FindConfigPath(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want, _ := filepath.EvalSymlinks(path)
	got, _ := filepath.EvalSymlinks(found)
	if got != want {
		t.Fatalf("found %q, want %q", found, path)
	}
	if RepoRootFromConfigPath(found) != filepath.Dir(filepath.Dir(found)) {
		t.Fatalf("unexpected repo root for %q", found)
	}

	if _, err := FindConfigPath(t.TempDir()); err == nil {
		t.Fatalf("expected missing config error")
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/base", "x/y"); got != filepath.Join("/base", "x/y") {
		t.Fatalf("relative: %q", got)
	}
	if got := ResolvePath("/base", "/abs"); got != "/abs" {
		t.Fatalf("absolute: %q", got)
	}
	if got := ResolvePath("/base", ""); got != "" {
		t.Fatalf("empty: %q", got)
	}
}
