package config

import (
	"testing"
	"time"

	"ruletree/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "LLM_MODEL", "OPENAI_BASE_URL", "MAX_TOKENS",
		"TEMPERATURE", "ORACLE_TIMEOUT", "MAX_REPAIR_ITERATIONS", "TASKS_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Oracle.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini", cfg.Oracle.Model)
	}
	if cfg.Oracle.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", cfg.Oracle.Temperature)
	}
	if cfg.Oracle.MaxTokens != 4000 {
		t.Errorf("MaxTokens = %d, want 4000", cfg.Oracle.MaxTokens)
	}
	if cfg.Oracle.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Oracle.Timeout)
	}
	if cfg.Merge.MaxRepairIterations != 3 {
		t.Errorf("MaxRepairIterations = %d, want 3", cfg.Merge.MaxRepairIterations)
	}
	if cfg.Paths.TasksDir != "./tasks" {
		t.Errorf("TasksDir = %q, want ./tasks", cfg.Paths.TasksDir)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("TEMPERATURE", "0.7")
	t.Setenv("ORACLE_TIMEOUT", "30s")
	t.Setenv("MAX_REPAIR_ITERATIONS", "5")
	t.Setenv("TASKS_DIR", "/opt/tasks")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Oracle.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.Oracle.APIKey)
	}
	if cfg.Oracle.Model != "gpt-4o" {
		t.Errorf("Model = %q", cfg.Oracle.Model)
	}
	if cfg.Oracle.Temperature != 0.7 {
		t.Errorf("Temperature = %v", cfg.Oracle.Temperature)
	}
	if cfg.Oracle.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Oracle.Timeout)
	}
	if cfg.Merge.MaxRepairIterations != 5 {
		t.Errorf("MaxRepairIterations = %d", cfg.Merge.MaxRepairIterations)
	}
	if cfg.Paths.TasksDir != "/opt/tasks" {
		t.Errorf("TasksDir = %q", cfg.Paths.TasksDir)
	}
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_TOKENS", "lots")
	t.Setenv("TEMPERATURE", "warm")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Oracle.MaxTokens != 4000 {
		t.Errorf("MaxTokens = %d, want default 4000", cfg.Oracle.MaxTokens)
	}
	if cfg.Oracle.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want default 0.1", cfg.Oracle.Temperature)
	}
}

func TestLoadRejectsBadIterations(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_REPAIR_ITERATIONS", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected an error for zero repair iterations")
	}
}

func TestLoadRejectsBadTemperature(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEMPERATURE", "3.5")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected an error for out-of-range temperature")
	}
}

func TestOracleConfigValidate(t *testing.T) {
	cfg := OracleConfig{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected an error without an API key")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("Code = %q, want %q", errors.GetCode(err), errors.CodeConfigInvalid)
	}

	cfg = OracleConfig{APIKey: "sk-test", Model: "gpt-4o-mini"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed on a complete config: %v", err)
	}
}
