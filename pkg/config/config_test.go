package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	ModelName string        `split_words:"true"`
	Retries   int           `default:"1"`
	Timeout   time.Duration `default:"8s"`
}

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("Unsetenv(%s) error = %v", key, err)
	}
}

func TestProcess(t *testing.T) {
	t.Setenv("TRAVELCFG_MODEL_NAME", "deepseek-chat")
	t.Setenv("TRAVELCFG_RETRIES", "3")
	unsetEnv(t, "TRAVELCFG_TIMEOUT")

	conf, err := Process[sampleConfig]("TRAVELCFG")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if conf.ModelName != "deepseek-chat" || conf.Retries != 3 || conf.Timeout != 8*time.Second {
		t.Fatalf("Process() = %+v", conf)
	}
}

func TestProcessRejectsBadValues(t *testing.T) {
	t.Setenv("TRAVELCFG_RETRIES", "many")

	if _, err := Process[sampleConfig]("TRAVELCFG"); err == nil {
		t.Fatal("expected error for non-numeric retries")
	}
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "travel.env")
	body := "TRAVELENV_FROM_FILE=file\nTRAVELENV_SHARED=file\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	unsetEnv(t, "TRAVELENV_FROM_FILE")
	t.Setenv("TRAVELENV_SHARED", "process")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("TRAVELENV_FROM_FILE"); got != "file" {
		t.Fatalf("TRAVELENV_FROM_FILE = %q, want file", got)
	}
	if got := os.Getenv("TRAVELENV_SHARED"); got != "process" {
		t.Fatalf("TRAVELENV_SHARED = %q, want process", got)
	}
}

func TestLoadEnvFileMissingPath(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for an explicit missing env file")
	}
}
