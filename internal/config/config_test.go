package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.Storage.Driver)
	}
	if cfg.History.Limit != 40 {
		t.Errorf("expected history limit 40, got %d", cfg.History.Limit)
	}
	if !cfg.Autosave.Enabled || cfg.Autosave.Schedule != "@every 30s" {
		t.Errorf("unexpected autosave defaults %+v", cfg.Autosave)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
data_dir: /srv/invitopia
storage:
  driver: postgres
  host: db.internal
  database: invites
  username: app
log:
  level: debug
  format: json
history:
  limit: 10
`)
	t.Setenv("INVITOPIA_HISTORY_LIMIT", "25")
	t.Setenv("INVITOPIA_AUTOSAVE", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/invitopia" || cfg.Storage.Host != "db.internal" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log config: %+v", cfg.Log)
	}
	if cfg.History.Limit != 25 {
		t.Errorf("env override not applied, limit=%d", cfg.History.Limit)
	}
	if cfg.Autosave.Enabled {
		t.Error("expected autosave disabled by env")
	}
	if cfg.Assets.ImageDir != filepath.Join("/srv/invitopia", "images") {
		t.Errorf("image dir should follow data_dir, got %s", cfg.Assets.ImageDir)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "storage:\n  driver: oracle\n"},
		{"postgres without host", "storage:\n  driver: postgres\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"bad yaml", "storage: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		s    StorageConfig
		want string
	}{
		{
			"explicit dsn wins",
			StorageConfig{Driver: DriverPostgres, DSN: "postgres://x"},
			"postgres://x",
		},
		{
			"postgres defaults",
			StorageConfig{Driver: DriverPostgres, Host: "db", Username: "app", Database: "inv"},
			"host=db port=5432 user=app password=pw dbname=inv sslmode=disable",
		},
		{
			"mysql",
			StorageConfig{Driver: DriverMySQL, Host: "db", Port: 3307, Username: "app", Database: "inv"},
			"app:pw@tcp(db:3307)/inv?parseTime=true&charset=utf8mb4",
		},
		{
			"mongo without user",
			StorageConfig{Driver: DriverMongo, Host: "mongo", Database: "inv"},
			"mongodb://mongo:27017/inv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.BuildDSN("pw"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
