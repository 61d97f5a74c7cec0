package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfig = `version: 1

# Directory holding one sub-directory per problem, relative to this workspace.
root: %q
problem_prefix: "cal_problem_"
locale: "en"

oracle:
  provider: "openai"
  model: "deepseek-chat"
  # base_url: "https://api.deepseek.com"
  credentials:
    - id: primary
      api_key_env: "DEEPSEEK_API_KEY"
  retry_delay_ms: 1000
  answer_attempts: 3
  timeout_seconds: 120

artifacts:
  raw: "result/deepseek_r1.txt"
  formatted: "txt/deepseek_r1_ds.txt"
  step_eval: "evaluation/deepseek_ds.json"
  answer_eval: "score/evaluation_deepseek_r1_ds.json"
  model_name: "deepseek_r1"

# Defaults to one worker per credential.
# workers: 1

store:
  driver: "sqlite"
  path: ".stepgrade/results.db"

output_dir: ".stepgrade/runs"
`

// DefaultRoot is the benchmark root written by Scaffold when none is given.
const DefaultRoot = "./data"

// RenderDefault returns the starter config for a benchmark root.
func RenderDefault(root string) string {
	if root == "" {
		root = DefaultRoot
	}
	return fmt.Sprintf(defaultConfig, root)
}

// Scaffold writes a starter config file, refusing to overwrite one.
func Scaffold(configPath, root string) error {
	if configPath == "" {
		return fmt.Errorf("config path is required")
	}
	if info, err := os.Stat(configPath); err == nil {
		if info.IsDir() {
			return fmt.Errorf("config path %q is a directory", configPath)
		}
		return fmt.Errorf("config file already exists at %q", configPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(RenderDefault(root)), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
