package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every variable Load looks at for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_PATH", "ENV", "PORT", "HTTP_SERVER_ADDR", "SHUTDOWN_TIMEOUT",
		"STORAGE_DRIVER", "STORAGE_PATH", "MONGODB_URI", "MONGODB_DATABASE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.Storage.Driver != DriverMongo || cfg.Storage.MongoDatabase != "students" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Addr() != ":4000" {
		t.Errorf("Addr() = %q, want :4000", cfg.Addr())
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PORT", "8080")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory || cfg.Addr() != ":8080" {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("HTTP_SERVER_ADDR", "127.0.0.1:9000")
	cfg, err = Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "local.yaml")
	yaml := `env: prod
storage:
  driver: sqlite
  path: /tmp/students.db
http_server:
  address: localhost:8082
  shutdown_timeout: 2s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "prod" || cfg.Storage.Driver != DriverSQLite || cfg.Storage.Path != "/tmp/students.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Addr() != "localhost:8082" || cfg.ShutdownTimeout != 2*time.Second {
		t.Errorf("HTTPServer = %+v", cfg.HTTPServer)
	}

	// CONFIG_PATH wins over the flag.
	t.Setenv("CONFIG_PATH", path)
	if _, err := Load([]string{"--config", "/does/not/exist.yaml"}); err != nil {
		t.Errorf("CONFIG_PATH should take precedence: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(nil); err == nil {
		t.Error("mongo driver without MONGODB_URI should fail")
	}

	t.Setenv("STORAGE_DRIVER", "postgres")
	if _, err := Load(nil); err == nil {
		t.Error("unknown driver should fail")
	}

	t.Setenv("STORAGE_DRIVER", "memory")
	if _, err := Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("missing config file should fail")
	}
}
