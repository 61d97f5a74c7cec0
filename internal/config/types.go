package config

import "time"

// Config is the stepgrade configuration file.
type Config struct {
	Version       int             `yaml:"version"`
	Root          string          `yaml:"root"`
	ProblemPrefix string          `yaml:"problem_prefix"`
	Locale        string          `yaml:"locale"`
	Oracle        OracleConfig    `yaml:"oracle"`
	Artifacts     ArtifactsConfig `yaml:"artifacts"`
	Workers       int             `yaml:"workers"`
	Store         StoreConfig     `yaml:"store"`
	OutputDir     string          `yaml:"output_dir"`
}

// OracleConfig selects the judging model and its credentials.
type OracleConfig struct {
	Provider       string             `yaml:"provider"`
	Model          string             `yaml:"model"`
	BaseURL        string             `yaml:"base_url"`
	Credentials    []CredentialConfig `yaml:"credentials"`
	RetryDelayMs   int                `yaml:"retry_delay_ms"`
	AnswerAttempts int                `yaml:"answer_attempts"`
	TimeoutSeconds int                `yaml:"timeout_seconds"`
}

// CredentialConfig names an API key held in an environment variable.
type CredentialConfig struct {
	ID        string `yaml:"id"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// ArtifactsConfig holds artifact paths relative to each problem directory.
type ArtifactsConfig struct {
	Raw        string `yaml:"raw"`
	Formatted  string `yaml:"formatted"`
	StepEval   string `yaml:"step_eval"`
	AnswerEval string `yaml:"answer_eval"`
	ModelName  string `yaml:"model_name"`
}

// StoreConfig selects the results database.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Enabled reports whether results are ingested into a database.
func (s StoreConfig) Enabled() bool {
	return s.Driver != StoreDriverNone
}

// RetryDelay returns the pause between oracle retries.
func (o OracleConfig) RetryDelay() time.Duration {
	return time.Duration(o.RetryDelayMs) * time.Millisecond
}

// Timeout returns the per-call oracle timeout.
func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// CredentialIDs returns the credential ids in file order.
func (o OracleConfig) CredentialIDs() []string {
	ids := make([]string, len(o.Credentials))
	for i, cred := range o.Credentials {
		ids[i] = cred.ID
	}
	return ids
}

// CredentialEnvVars returns the credential environment variables in file order.
func (o OracleConfig) CredentialEnvVars() []string {
	vars := make([]string, len(o.Credentials))
	for i, cred := range o.Credentials {
		vars[i] = cred.APIKeyEnv
	}
	return vars
}
