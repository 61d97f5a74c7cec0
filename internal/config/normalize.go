package config

// Defaults applied by Normalize.
const (
	DefaultLocale         = "en"
	DefaultProvider       = "openai"
	DefaultRetryDelayMs   = 1000
	DefaultAnswerAttempts = 3
	DefaultTimeoutSeconds = 120

	DefaultRawArtifact        = "result/deepseek_r1.txt"
	DefaultFormattedArtifact  = "txt/deepseek_r1_ds.txt"
	DefaultStepEvalArtifact   = "evaluation/deepseek_ds.json"
	DefaultAnswerEvalArtifact = "score/evaluation_deepseek_r1_ds.json"
	DefaultModelName          = "deepseek_r1"

	StoreDriverDuckDB = "duckdb"
	StoreDriverSQLite = "sqlite"
	StoreDriverNone   = "none"
	DefaultStorePath  = ".stepgrade/results.db"
	DefaultOutputDir  = ".stepgrade/runs"
)

// Normalize fills unset fields with their defaults. Explicitly invalid values
// such as negative numbers are left for Validate to report.
func Normalize(cfg *Config) {
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}
	o := &cfg.Oracle
	if o.Provider == "" {
		o.Provider = DefaultProvider
	}
	if o.RetryDelayMs == 0 {
		o.RetryDelayMs = DefaultRetryDelayMs
	}
	if o.AnswerAttempts == 0 {
		o.AnswerAttempts = DefaultAnswerAttempts
	}
	if o.TimeoutSeconds == 0 {
		o.TimeoutSeconds = DefaultTimeoutSeconds
	}

	a := &cfg.Artifacts
	setDefault(&a.Raw, DefaultRawArtifact)
	setDefault(&a.Formatted, DefaultFormattedArtifact)
	setDefault(&a.StepEval, DefaultStepEvalArtifact)
	setDefault(&a.AnswerEval, DefaultAnswerEvalArtifact)
	setDefault(&a.ModelName, DefaultModelName)

	if cfg.Workers == 0 {
		cfg.Workers = len(o.Credentials)
	}
	setDefault(&cfg.Store.Driver, StoreDriverSQLite)
	if cfg.Store.Driver != StoreDriverNone {
		setDefault(&cfg.Store.Path, DefaultStorePath)
	}
	setDefault(&cfg.OutputDir, DefaultOutputDir)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
