// Package settings loads and saves waypoint configuration.
//
// Values are resolved in this order, highest first:
//  1. Environment variables with the WAYPOINT_ prefix, nested keys joined
//     by "_" (e.g. WAYPOINT_STORE_BACKEND=redis)
//  2. The YAML file passed to [Load]
//  3. [Default]
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "WAYPOINT"

// DefaultFile is the settings file looked up in the working directory.
const DefaultFile = ".waypoint.yaml"

// Settings is the root configuration.
type Settings struct {
	// Markers is the directive vocabulary. Changing it lets the same engine
	// read documents written for other comment syntaxes.
	Markers domain.Markers `mapstructure:"markers" yaml:"markers"`

	Render    RenderSettings   `mapstructure:"render" yaml:"render"`
	Store     StoreSettings    `mapstructure:"store" yaml:"store"`
	Documents DocumentSettings `mapstructure:"documents" yaml:"documents"`
	Server    ServerSettings   `mapstructure:"server" yaml:"server"`
	Log       LogSettings      `mapstructure:"log" yaml:"log"`
}

// RenderSettings controls terminal output.
type RenderSettings struct {
	// Style is a glamour style name ("auto", "dark", "light", "notty").
	Style string `mapstructure:"style" yaml:"style"`
	// Width wraps rendered Markdown; 0 uses the renderer default.
	Width int `mapstructure:"width" yaml:"width"`
	// Plain disables Markdown rendering entirely.
	Plain bool `mapstructure:"plain" yaml:"plain"`
}

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendLoam   = "loam"
)

// StoreSettings selects where session snapshots live.
type StoreSettings struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is the snapshot directory of the file backend.
	Path string `mapstructure:"path" yaml:"path"`

	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password,omitempty"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// EncryptionKey is a base64 AES-256 key sealing stored snapshots.
	// Empty leaves snapshots in clear text.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key,omitempty"`
	// FallbackKeys still open snapshots sealed before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys,omitempty"`
	// Mask lists regular expressions; matching variable names are masked
	// in stored snapshots.
	Mask []string `mapstructure:"mask" yaml:"mask,omitempty"`
}

// DocumentSettings selects where workflow documents are read from.
type DocumentSettings struct {
	// Backend is "file" (plain directory tree) or "loam" (notes vault).
	Backend string `mapstructure:"backend" yaml:"backend"`
	Root    string `mapstructure:"root" yaml:"root"`
}

// ServerSettings configures `waypoint serve`.
type ServerSettings struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	Metrics bool   `mapstructure:"metrics" yaml:"metrics"`
}

// LogSettings configures the application logger.
type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Settings {
	return &Settings{
		Markers: domain.DefaultMarkers(),
		Render:  RenderSettings{Style: "auto"},
		Store: StoreSettings{
			Backend:   BackendFile,
			Path:      filepath.Join(".waypoint", "sessions"),
			RedisAddr: "localhost:6379",
		},
		Documents: DocumentSettings{Backend: BackendFile, Root: "."},
		Server:    ServerSettings{Addr: ":8080"},
		Log:       LogSettings{Level: "info", Format: "text"},
	}
}

// Load resolves settings from defaults, the optional file at path and the
// environment. A missing file is not an error.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects unusable combinations.
func (s *Settings) Validate() error {
	m := s.Markers
	if m.Open == "" || m.Keyword == "" {
		return fmt.Errorf("markers.open and markers.keyword must be set")
	}
	if m.Start == "" || m.End == "" || m.Resume == "" || m.Answered == "" {
		return fmt.Errorf("markers.start, end, resume and answered must be set")
	}
	switch s.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", s.Store.Backend)
	}
	switch s.Documents.Backend {
	case BackendFile, BackendLoam:
	default:
		return fmt.Errorf("unknown document backend %q", s.Documents.Backend)
	}
	return nil
}

// Save writes s as YAML, replacing path atomically.
func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// setDefaults registers every key so environment overrides apply to
// values the file does not mention.
func setDefaults(v *viper.Viper, d *Settings) {
	v.SetDefault("markers.open", d.Markers.Open)
	v.SetDefault("markers.close", d.Markers.Close)
	v.SetDefault("markers.keyword", d.Markers.Keyword)
	v.SetDefault("markers.start", d.Markers.Start)
	v.SetDefault("markers.end", d.Markers.End)
	v.SetDefault("markers.resume", d.Markers.Resume)
	v.SetDefault("markers.answered", d.Markers.Answered)

	v.SetDefault("render.style", d.Render.Style)
	v.SetDefault("render.width", d.Render.Width)
	v.SetDefault("render.plain", d.Render.Plain)

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	v.SetDefault("store.redis_password", d.Store.RedisPassword)
	v.SetDefault("store.redis_db", d.Store.RedisDB)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("store.encryption_key", d.Store.EncryptionKey)
	v.SetDefault("store.fallback_keys", d.Store.FallbackKeys)
	v.SetDefault("store.mask", d.Store.Mask)

	v.SetDefault("documents.backend", d.Documents.Backend)
	v.SetDefault("documents.root", d.Documents.Root)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.metrics", d.Server.Metrics)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
