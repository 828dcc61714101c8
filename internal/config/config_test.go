package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DBPath != "resett.db" {
		t.Errorf("db path = %q, want %q", cfg.DBPath, "resett.db")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q, want %q", cfg.BaseURL, "http://localhost:8080")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RESETT_PORT", "9001")
	t.Setenv("RESETT_BASE_URL", "https://getresett.com")
	t.Setenv("RESETT_ALLOWLIST", "ops@getresett.com,qa@getresett.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9001" {
		t.Errorf("port = %q, want %q", cfg.Port, "9001")
	}
	if cfg.BaseURL != "https://getresett.com" {
		t.Errorf("base url = %q, want %q", cfg.BaseURL, "https://getresett.com")
	}
	if len(cfg.AllowList) != 2 {
		t.Fatalf("allow list len = %d, want 2", len(cfg.AllowList))
	}
	if cfg.AllowList[1] != "qa@getresett.com" {
		t.Errorf("allow list[1] = %q", cfg.AllowList[1])
	}
}

func TestBackupEnabled(t *testing.T) {
	var cfg Config
	if cfg.BackupEnabled() {
		t.Error("empty backup config should be disabled")
	}
	cfg.Backup = Backup{Bucket: "b", AccessKey: "a", SecretKey: "s", Passphrase: "p"}
	if !cfg.BackupEnabled() {
		t.Error("full backup config should be enabled")
	}
}
