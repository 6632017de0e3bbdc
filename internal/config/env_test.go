package config

import (
	"os"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("DETSIM_DB_PATH", "/tmp/events.db")
	t.Setenv("DETSIM_CONFIG", "analysis.json")
	t.Setenv("DETSIM_WORKERS", "6")

	e, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if e.DBPath != "/tmp/events.db" || e.ConfigPath != "analysis.json" {
		t.Errorf("LoadEnv() = %+v", e)
	}
	if e.Workers == nil || *e.Workers != 6 {
		t.Fatalf("Workers = %v, want 6", e.Workers)
	}

	cfg := &AnalysisConfig{Workers: ptrInt(2)}
	cfg.ApplyEnv(e)
	if cfg.GetWorkers() != 6 {
		t.Errorf("GetWorkers() after ApplyEnv = %d, want 6", cfg.GetWorkers())
	}
}

func TestLoadEnv_Unset(t *testing.T) {
	if _, ok := os.LookupEnv("DETSIM_WORKERS"); ok {
		t.Skip("DETSIM_WORKERS is set in the test environment")
	}

	e, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	cfg := &AnalysisConfig{Workers: ptrInt(2)}
	cfg.ApplyEnv(e)
	if cfg.GetWorkers() != 2 {
		t.Errorf("GetWorkers() = %d, want 2", cfg.GetWorkers())
	}
}

func TestLoadEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"not a number": "many",
		"negative":     "-1",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DETSIM_WORKERS", value)
			if _, err := LoadEnv(); err == nil {
				t.Errorf("LoadEnv() with DETSIM_WORKERS=%q: expected error", value)
			}
		})
	}
}
