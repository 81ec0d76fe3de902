// Package config loads service configuration from a TOML file.
//
// Every field has a sane default; a missing file is not an error, so the
// one-shot CLI works with flags alone and the service works with a single
// small config file:
//
//	listen = ":8500"
//	strategy = "region-growing"
//	max_graph_nodes = 100000
//
//	[dvid]
//	server = "http://emdata.example.org:8900"
//	uuid = "a77b"
//	instance = "segmentation"
//
//	[cache]
//	ttl = "5m"
//	redis_addr = "localhost:6379"
//
//	[audit]
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/cleave/pkg/cleave"
	"github.com/janelia-flyem/cleave/pkg/dvid"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
)

// Config is the full service configuration.
type Config struct {
	Listen        string   `toml:"listen"`
	Strategy      string   `toml:"strategy"`
	MaxGraphNodes int      `toml:"max_graph_nodes"`
	LockTimeout   duration `toml:"lock_timeout"`
	MaxInFlight   int64    `toml:"max_in_flight"`

	DVID  DVIDConfig  `toml:"dvid"`
	Cache CacheConfig `toml:"cache"`
	Audit AuditConfig `toml:"audit"`
}

// DVIDConfig selects the segmentation store node.
type DVIDConfig struct {
	Server   string   `toml:"server"`
	UUID     string   `toml:"uuid"`
	Instance string   `toml:"instance"`
	Timeout  duration `toml:"timeout"`
}

// CacheConfig selects the graph cache backend. An empty RedisAddr means the
// in-process cache.
type CacheConfig struct {
	TTL       duration `toml:"ttl"`
	MaxBodies int      `toml:"max_bodies"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	RedisPass string   `toml:"redis_password"`
	Namespace string   `toml:"namespace"`
	Disabled  bool     `toml:"disabled"`
}

// AuditConfig selects the audit backend. An empty MongoURI disables
// persistent auditing.
type AuditConfig struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Listen:        ":8500",
		Strategy:      cleave.StrategyRegionGrowing,
		MaxGraphNodes: cleave.DefaultMaxGraphNodes,
		LockTimeout:   duration{cleave.DefaultLockTimeout},
		MaxInFlight:   16,
		DVID: DVIDConfig{
			Instance: "segmentation",
			Timeout:  duration{60 * time.Second},
		},
		Cache: CacheConfig{
			TTL:       duration{cleave.DefaultCacheTTL},
			MaxBodies: 256,
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file (or an
// empty path) returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "load config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, cerrors.New(cerrors.ErrCodeInvalidInput,
			"config %s has unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// Engine converts the loaded file into engine options.
func (c Config) Engine() cleave.Config {
	return cleave.Config{
		MaxGraphNodes: c.MaxGraphNodes,
		Strategy:      c.Strategy,
		CacheTTL:      c.Cache.TTL.Duration,
		LockTimeout:   c.LockTimeout.Duration,
	}
}

// Store converts the DVID section into client options.
func (c Config) Store() dvid.Config {
	return dvid.Config{
		Server:   c.DVID.Server,
		UUID:     c.DVID.UUID,
		Instance: c.DVID.Instance,
		Timeout:  c.DVID.Timeout.Duration,
	}
}

// duration wraps time.Duration so TOML files can say ttl = "5m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}
