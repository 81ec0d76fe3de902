package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/janelia-flyem/cleave/pkg/cleave"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cleave.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8500" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Strategy != cleave.StrategyRegionGrowing {
		t.Errorf("Strategy = %q", cfg.Strategy)
	}
	if cfg.Cache.TTL.Duration != cleave.DefaultCacheTTL {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL.Duration)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8500" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen = ":9000"
strategy = "min-cut"
max_graph_nodes = 5000
lock_timeout = "10s"

[dvid]
server = "http://emdata.example.org:8900"
uuid = "a77b"

[cache]
ttl = "30s"
redis_addr = "localhost:6379"

[audit]
mongo_uri = "mongodb://localhost:27017"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.DVID.Server != "http://emdata.example.org:8900" || cfg.DVID.UUID != "a77b" {
		t.Errorf("DVID = %+v", cfg.DVID)
	}
	if cfg.DVID.Instance != "segmentation" {
		t.Errorf("unset keys must keep defaults, Instance = %q", cfg.DVID.Instance)
	}
	if cfg.Cache.TTL.Duration != 30*time.Second {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL.Duration)
	}
	if cfg.Audit.MongoURI == "" {
		t.Error("Audit.MongoURI not loaded")
	}

	ec := cfg.Engine()
	if ec.Strategy != cleave.StrategyMinCut || ec.MaxGraphNodes != 5000 || ec.LockTimeout != 10*time.Second {
		t.Errorf("Engine() = %+v", ec)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `max_graf_nodes = 100`)

	_, err := Load(path)
	if !cerrors.Is(err, cerrors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `lock_timeout = "fast"`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("bad duration accepted")
	}
}
