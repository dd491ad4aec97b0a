// Package config loads the learnpath configuration.
//
// Values are layered, later layers winning: built-in defaults, an optional YAML file,
// an optional .env file, then LEARNPATH_* environment variables. The merged tree is
// decoded with mapstructure and checked with validator struct tags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. LEARNPATH_STORAGE_REDIS_ADDR sets storage.redis.addr.
const EnvPrefix = "LEARNPATH_"

// Config is the whole application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Tracking   TrackingConfig   `mapstructure:"tracking" yaml:"tracking"`
	Catalog    CatalogConfig    `mapstructure:"catalog" yaml:"catalog"`
	Sessions   SessionConfig    `mapstructure:"sessions" yaml:"sessions"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Encryption EncryptionConfig `mapstructure:"encryption" yaml:"encryption"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	CORSOrigins  []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

type StorageConfig struct {
	Driver   string         `mapstructure:"driver" yaml:"driver" validate:"oneof=memory file redis postgres"`
	Dir      string         `mapstructure:"dir" yaml:"dir"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db" validate:"gte=0"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	// TTL expires idle documents; zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
	// Locking coordinates session access across server instances.
	Locking bool `mapstructure:"locking" yaml:"locking"`
}

type PostgresConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Migrate bool   `mapstructure:"migrate" yaml:"migrate"`
}

type TrackingConfig struct {
	// BaseURL roots the activity ids of paths and nodes.
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	SendTimeout time.Duration `mapstructure:"send_timeout" yaml:"send_timeout" validate:"gt=0"`
	ActorName   string        `mapstructure:"actor_name" yaml:"actor_name"`
}

type CatalogConfig struct {
	// File is an optional YAML catalog of extra node types.
	File string `mapstructure:"file" yaml:"file"`
}

type SessionConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"gte=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval" validate:"gte=0"`
	LockTTL       time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl" validate:"gt=0"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" validate:"gte=0"`
}

type EncryptionConfig struct {
	// Key is the hex AES-256 key sealing record-store secrets. Empty disables encryption.
	Key          string   `mapstructure:"key" yaml:"key" validate:"omitempty,hexadecimal,len=64"`
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys" validate:"dive,hexadecimal,len=64"`
}

// Enabled reports whether secrets are sealed at rest.
func (c EncryptionConfig) Enabled() bool {
	return c.Key != ""
}

func defaults() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"addr":          ":8080",
			"read_timeout":  "15s",
			"write_timeout": "30s",
			"cors_origins":  []any{"*"},
		},
		"storage": map[string]any{
			"driver": "memory",
			"dir":    "./data/paths",
			"redis": map[string]any{
				"addr":    "localhost:6379",
				"db":      0,
				"prefix":  "learnpath:",
				"ttl":     "0s",
				"locking": false,
			},
			"postgres": map[string]any{
				"url":     "",
				"migrate": true,
			},
		},
		"tracking": map[string]any{
			"base_url":     "http://localhost:8080",
			"timeout":      "10s",
			"send_timeout": "15s",
		},
		"catalog": map[string]any{},
		"sessions": map[string]any{
			"idle_timeout":   "2h",
			"sweep_interval": "5m",
			"lock_ttl":       "30s",
		},
		"log": map[string]any{
			"level":       "info",
			"format":      "text",
			"max_size_mb": 50,
			"max_backups": 3,
		},
		"encryption": map[string]any{},
	}
}

// Default returns the configuration with no file and no environment applied.
func Default() *Config {
	cfg, err := decode(defaults())
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

type loader struct {
	envFile string
	environ func() []string
}

// Option configures Load.
type Option func(*loader)

// WithEnvFile reads overrides from a dotenv file. A missing file is ignored. Default ".env".
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithEnviron replaces os.Environ as the source of process variables.
func WithEnviron(fn func() []string) Option {
	return func(l *loader) {
		l.environ = fn
	}
}

// Load builds the configuration. path is an optional YAML file; empty skips it.
func Load(path string, opts ...Option) (*Config, error) {
	l := &loader{envFile: ".env", environ: os.Environ}
	for _, opt := range opts {
		opt(l)
	}

	tree := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		merge(tree, file)
	}

	env, err := l.env()
	if err != nil {
		return nil, err
	}
	applyEnv(tree, env)

	return decode(tree)
}

// env merges the dotenv file under the process environment; the process wins.
func (l *loader) env() (map[string]string, error) {
	out := map[string]string{}
	if l.envFile != "" {
		vars, err := godotenv.Read(l.envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file %s: %w", l.envFile, err)
		}
		for k, v := range vars {
			out[k] = v
		}
	}
	for _, kv := range l.environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out, nil
}

// applyEnv sets every key whose LEARNPATH_ name is present in env.
func applyEnv(tree map[string]any, env map[string]string) {
	for name, path := range envBindings(reflect.TypeOf(Config{}), nil) {
		v, ok := env[name]
		if !ok {
			continue
		}
		node := tree
		for _, key := range path[:len(path)-1] {
			child, ok := node[key].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[key] = child
			}
			node = child
		}
		node[path[len(path)-1]] = v
	}
}

// envBindings maps LEARNPATH_* names to mapstructure key paths.
func envBindings(t reflect.Type, prefix []string) map[string][]string {
	out := map[string][]string{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		path := append(append([]string{}, prefix...), key)
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			for k, v := range envBindings(f.Type, path) {
				out[k] = v
			}
			continue
		}
		out[EnvPrefix+strings.ToUpper(strings.Join(path, "_"))] = path
	}
	return out
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

var validate = validator.New()

func decode(tree map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result: &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(tree); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the per-driver requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Storage.Driver {
	case "file":
		if c.Storage.Dir == "" {
			return errors.New("invalid configuration: storage.dir is required for the file driver")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return errors.New("invalid configuration: storage.redis.addr is required for the redis driver")
		}
	case "postgres":
		if c.Storage.Postgres.URL == "" {
			return errors.New("invalid configuration: storage.postgres.url is required for the postgres driver")
		}
	}
	return nil
}
