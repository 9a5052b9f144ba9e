package config

import (
	"os"
	"testing"
)

func TestValidate_PortRange(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}

	cfg = Config{HTTP: HTTPConfig{Port: 70000}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 70000")
	}

	cfg = Config{HTTP: HTTPConfig{Port: 8080}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for valid port: %v", err)
	}
}

func TestValidate_WeightsMustCoverAllModalities(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Matching: MatchingConfig{
			Weights: map[string]float64{"text": 0.5, "image": 0.5},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing preference weight")
	}

	expected := `matching.weights must set "preference" when overriding weights`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_WeightsMustBePositive(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Matching: MatchingConfig{
			Weights: map[string]float64{"text": 0.5, "image": -1, "preference": 0.5},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestValidate_WeightsRejectUnknownModality(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Matching: MatchingConfig{
			Weights: map[string]float64{
				"text": 1, "image": 1, "preference": 1, "audio": 1,
			},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown modality weight")
	}
}

func TestValidate_EmptyWeightsAllowed(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with engine-default weights: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected read timeout 10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected write timeout 60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Analysis.Provider != "openai" {
		t.Errorf("expected default provider openai, got %q", cfg.Analysis.Provider)
	}
	if cfg.Analysis.TextModel == "" || cfg.Analysis.ImageModel == "" {
		t.Error("expected default models to be set")
	}
	if cfg.Cache.TTLSec != 3600 {
		t.Errorf("expected default TTL 3600, got %d", cfg.Cache.TTLSec)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{WriteTimeoutSec: 120},
		Analysis: AnalysisConfig{TextModel: "gpt-4o"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("explicit write timeout overwritten: %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Analysis.TextModel != "gpt-4o" {
		t.Errorf("explicit model overwritten: %q", cfg.Analysis.TextModel)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("MATCHSVC_TEST_KEY", "secret")
	defer os.Unsetenv("MATCHSVC_TEST_KEY")

	got := string(expandEnvVars([]byte("api_key: ${MATCHSVC_TEST_KEY}")))
	if got != "api_key: secret" {
		t.Errorf("expected substitution, got %q", got)
	}
}

func TestExpandEnvVarsDefault(t *testing.T) {
	os.Unsetenv("MATCHSVC_TEST_MISSING")

	got := string(expandEnvVars([]byte("port: ${MATCHSVC_TEST_MISSING:-8080}")))
	if got != "port: 8080" {
		t.Errorf("expected default value, got %q", got)
	}
}

func TestGetEnvDefaultsToLocal(t *testing.T) {
	os.Unsetenv("ENV")
	if env := GetEnv(); env != "local" {
		t.Errorf("expected local, got %q", env)
	}

	os.Setenv("ENV", "prod")
	defer os.Unsetenv("ENV")
	if env := GetEnv(); env != "prod" {
		t.Errorf("expected prod, got %q", env)
	}
}
