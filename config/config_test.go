package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	configContent := `
server:
  port: 9090
log:
  level: "debug"
  format: "json"
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
store:
  max_sessions: 50
solver:
  tie_break: "company"
  default_confidence: 0.7
schema:
  catalog_path: "catalog.yaml"
market:
  dataset_path: "benchmarks.yaml"
citations:
  base_url: "https://citations.test"
  api_token: "test-token"
  seed: "test-seed"
  timeout_seconds: 5
archive:
  enabled: true
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "round-audit"
  use_ssl: false
users:
  - username: "testuser"
    password: "testpass"
    tenant: "testtenant"
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	// Test loading config
	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format json, got %s", cfg.Log.Format)
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token_expire_hours 48, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Store.MaxSessions != 50 {
		t.Errorf("Expected max_sessions 50, got %d", cfg.Store.MaxSessions)
	}
	if cfg.Solver.TieBreak != "company" {
		t.Errorf("Expected tie_break company, got %s", cfg.Solver.TieBreak)
	}
	if cfg.Solver.DefaultConfidence != 0.7 {
		t.Errorf("Expected default_confidence 0.7, got %v", cfg.Solver.DefaultConfidence)
	}
	if cfg.Schema.CatalogPath != "catalog.yaml" {
		t.Errorf("Expected catalog_path catalog.yaml, got %s", cfg.Schema.CatalogPath)
	}
	if cfg.Market.DatasetPath != "benchmarks.yaml" {
		t.Errorf("Expected dataset_path benchmarks.yaml, got %s", cfg.Market.DatasetPath)
	}
	if cfg.Citations.BaseURL != "https://citations.test" {
		t.Errorf("Expected citations base_url, got %s", cfg.Citations.BaseURL)
	}
	if cfg.Citations.TimeoutSeconds != 5 {
		t.Errorf("Expected timeout_seconds 5, got %d", cfg.Citations.TimeoutSeconds)
	}
	if !cfg.Archive.Enabled {
		t.Error("Expected archive enabled")
	}
	if cfg.Archive.Bucket != "round-audit" {
		t.Errorf("Expected bucket round-audit, got %s", cfg.Archive.Bucket)
	}
	if len(cfg.Users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(cfg.Users))
	}
	if cfg.Users[0].Username != "testuser" {
		t.Errorf("Expected username testuser, got %s", cfg.Users[0].Username)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Create minimal config to test defaults
	configContent := `
auth:
  jwt_secret: "test-secret"
`
	tmpFile, err := os.CreateTemp("", "config-defaults-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Auth.TokenExpireHours != 24 {
		t.Errorf("Expected default token_expire_hours 24, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format text, got %s", cfg.Log.Format)
	}
	if cfg.Store.MaxSessions != 200 {
		t.Errorf("Expected default max_sessions 200, got %d", cfg.Store.MaxSessions)
	}
	if cfg.Solver.TieBreak != "investor" {
		t.Errorf("Expected default tie_break investor, got %s", cfg.Solver.TieBreak)
	}
	if cfg.Solver.DefaultConfidence != 0.85 {
		t.Errorf("Expected default confidence 0.85, got %v", cfg.Solver.DefaultConfidence)
	}
	if cfg.Citations.TimeoutSeconds != 30 {
		t.Errorf("Expected default timeout_seconds 30, got %d", cfg.Citations.TimeoutSeconds)
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config-invalid-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString("invalid: yaml: content:"); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	_, err = Load(tmpFile.Name())
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestFindUser(t *testing.T) {
	cfg := &Config{
		Users: []User{
			{Username: "user1", Password: "pass1", Tenant: "tenant1"},
			{Username: "user2", Password: "pass2", Tenant: "tenant2"},
		},
	}

	// Test finding existing user
	user := cfg.FindUser("user1")
	if user == nil {
		t.Fatal("Expected to find user1")
	}
	if user.Password != "pass1" {
		t.Errorf("Expected password pass1, got %s", user.Password)
	}
	if user.Tenant != "tenant1" {
		t.Errorf("Expected tenant tenant1, got %s", user.Tenant)
	}

	// Test finding non-existent user
	if cfg.FindUser("nonexistent") != nil {
		t.Error("Expected nil for non-existent user")
	}
}
