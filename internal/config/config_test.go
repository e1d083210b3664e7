package config

import "testing"

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("PG_DATABASE", "tasksync_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("storage driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "tasksync_test" {
		t.Errorf("database name = %q, want tasksync_test", cfg.Database.Name)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("openai model = %q, want default gpt-4o", cfg.OpenAI.Model)
	}
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without SESSION_SECRET")
	}
}

func TestDSNAndAddr(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host: "db.internal", Port: 5433, User: "app",
			Password: "pw", Name: "tasksync", SSLMode: "require",
		},
		Server: ServerConfig{Host: "127.0.0.1", Port: 5000},
	}

	wantDSN := "host=db.internal port=5433 user=app password=pw dbname=tasksync sslmode=require"
	if got := cfg.GetDatabaseDSN(); got != wantDSN {
		t.Errorf("dsn = %q, want %q", got, wantDSN)
	}
	if got := cfg.ServerAddr(); got != "127.0.0.1:5000" {
		t.Errorf("addr = %q, want 127.0.0.1:5000", got)
	}
}
