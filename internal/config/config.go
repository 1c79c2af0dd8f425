// Package config loads BeatPilot settings from a YAML file, the environment
// and built-in defaults, in increasing order of precedence: defaults, file,
// environment. Command-line flags are applied by the caller.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/beatpilot/internal/logging"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Inference InferenceConfig `mapstructure:"inference" yaml:"inference"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadLimit       int64         `mapstructure:"read_limit" yaml:"read_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type SessionConfig struct {
	MaxInputSize int           `mapstructure:"max_input_size" yaml:"max_input_size"`
	LockTTL      time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

type InferenceConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	AccountID   string        `mapstructure:"account_id" yaml:"account_id"`
	APIToken    string        `mapstructure:"api_token" yaml:"api_token"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
}

type StorageConfig struct {
	Driver        string      `mapstructure:"driver" yaml:"driver"`
	Dir           string      `mapstructure:"dir" yaml:"dir"`
	EncryptionKey string      `mapstructure:"encryption_key" yaml:"encryption_key"`
	FallbackKeys  []string    `mapstructure:"fallback_keys" yaml:"fallback_keys"`
	Redis         RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Lock     bool          `mapstructure:"lock" yaml:"lock"`
}

// Default returns the built-in configuration: an in-memory store and the
// mock model, listening on :8787.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8787",
			ReadLimit:       64 << 10,
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Session: SessionConfig{
			MaxInputSize: 4096,
			LockTTL:      30 * time.Second,
		},
		Inference: InferenceConfig{
			Provider:    "mock",
			Model:       "@cf/meta/llama-2-7b-chat-int8",
			MaxTokens:   300,
			Temperature: 0.7,
			HTTPTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
			Dir:    ".beatpilot/sessions",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "beatpilot:session:",
			},
		},
	}
}

// envBindings maps environment variables to dotted config keys.
var envBindings = map[string]string{
	"BEATPILOT_ADDR":           "server.addr",
	"BEATPILOT_LOG_LEVEL":      "log.level",
	"BEATPILOT_LOG_FORMAT":     "log.format",
	"BEATPILOT_MAX_INPUT_SIZE": "session.max_input_size",
	"BEATPILOT_PROVIDER":       "inference.provider",
	"BEATPILOT_MODEL":          "inference.model",
	"CLOUDFLARE_ACCOUNT_ID":    "inference.account_id",
	"CLOUDFLARE_API_TOKEN":     "inference.api_token",
	"GEMINI_API_KEY":           "inference.api_key",
	"BEATPILOT_STORAGE_DRIVER": "storage.driver",
	"BEATPILOT_STORAGE_DIR":    "storage.dir",
	"BEATPILOT_REDIS_ADDR":     "storage.redis.addr",
	"BEATPILOT_REDIS_PASSWORD": "storage.redis.password",
	"BEATPILOT_ENCRYPTION_KEY": "storage.encryption_key",
	"BEATPILOT_FALLBACK_KEYS":  "storage.fallback_keys",
}

// Load reads path (if non-empty and present), overlays the environment and
// decodes the result over Default. A missing file is not an error.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	raw := map[string]interface{}{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	for env, key := range envBindings {
		if v, ok := lookup(env); ok && v != "" {
			setPath(raw, key, v)
		}
	}

	cfg := Default()
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode decodes a generic map onto out. Scalars are weakly typed, so "30s"
// becomes a duration and "4096" an int.
func Decode(raw map[string]interface{}, out *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setPath(m map[string]interface{}, dotted string, value interface{}) {
	parts := strings.Split(dotted, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

var (
	validDrivers   = []string{DriverMemory, DriverFile, DriverRedis}
	validProviders = []string{"none", "mock", "workersai", "gemini"}
	validFormats   = []string{"text", "json"}
)

// Validate reports every problem in the configuration at once.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.ReadLimit <= 0 {
		errs = append(errs, errors.New("server.read_limit must be positive"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !oneOf(c.Log.Format, validFormats) {
		errs = append(errs, fmt.Errorf("log.format %q is not one of %v", c.Log.Format, validFormats))
	}
	if c.Session.MaxInputSize <= 0 {
		errs = append(errs, errors.New("session.max_input_size must be positive"))
	}
	if !oneOf(c.Inference.Provider, validProviders) {
		errs = append(errs, fmt.Errorf("inference.provider %q is not one of %v", c.Inference.Provider, validProviders))
	}
	if c.Inference.MaxTokens <= 0 {
		errs = append(errs, errors.New("inference.max_tokens must be positive"))
	}
	if c.Inference.Timeout < 0 {
		errs = append(errs, errors.New("inference.timeout must not be negative"))
	}
	if !oneOf(c.Storage.Driver, validDrivers) {
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of %v", c.Storage.Driver, validDrivers))
	}
	if c.Storage.Driver == DriverFile && c.Storage.Dir == "" {
		errs = append(errs, errors.New("storage.dir is required for the file driver"))
	}
	if c.Storage.Redis.Lock && c.Storage.Driver != DriverRedis {
		errs = append(errs, errors.New("storage.redis.lock requires the redis driver"))
	}
	if c.Storage.EncryptionKey != "" {
		if _, _, err := c.Storage.Keys(); err != nil {
			errs = append(errs, err)
		}
	} else if len(c.Storage.FallbackKeys) > 0 {
		errs = append(errs, errors.New("storage.fallback_keys requires storage.encryption_key"))
	}

	return errors.Join(errs...)
}

// Keys decodes the base64 encryption keys. active is nil when encryption is off.
func (s StorageConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey("storage.encryption_key", s.EncryptionKey)
	if err != nil {
		return nil, nil, err
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(fmt.Sprintf("storage.fallback_keys[%d]", i), k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(name, encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(key))
	}
	return key, nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
