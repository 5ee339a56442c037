// Package config loads platform configuration from a YAML file, overlays
// environment variables, and validates the merged result against an
// embedded CUE schema before anything touches a backend.
package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/parlor/internal/store"
)

// schema is the CUE contract every loaded configuration must satisfy.
// Durations are validated in milliseconds, after parsing.
const schema = `
#Config: {
	store: {backend: "memory", path: string} |
		{backend: "appendlog" | "sqlite", path: !=""}
	sweep: {
		interval_ms:      int & >0
		expiry_budget_ms: int & >0
		turn_timeout_ms:  int & >=0
	}
}
`

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	// Backend is one of memory, appendlog, sqlite.
	Backend string `yaml:"backend" json:"backend"`
	// Path is the sqlite file or appendlog directory. Unused by memory.
	Path string `yaml:"path" json:"path"`
}

// SweepConfig tunes the deadline sweeper.
type SweepConfig struct {
	Interval     time.Duration `yaml:"interval" json:"-"`
	ExpiryBudget time.Duration `yaml:"expiry_budget" json:"-"`
	// TurnTimeout re-arms a match deadline after every accepted move.
	// Zero disables turn deadlines.
	TurnTimeout time.Duration `yaml:"turn_timeout" json:"-"`
}

// UnmarshalYAML accepts go duration strings ("30s", "2m") for the sweep
// fields. Fields absent from the file keep their prior (default) values.
func (s *SweepConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Interval     string `yaml:"interval"`
		ExpiryBudget string `yaml:"expiry_budget"`
		TurnTimeout  string `yaml:"turn_timeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	for _, d := range []struct {
		field string
		value string
		dst   *time.Duration
	}{
		{"interval", raw.Interval, &s.Interval},
		{"expiry_budget", raw.ExpiryBudget, &s.ExpiryBudget},
		{"turn_timeout", raw.TurnTimeout, &s.TurnTimeout},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("sweep.%s: %w", d.field, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Config is the full platform configuration.
type Config struct {
	Store StoreConfig `yaml:"store" json:"store"`
	Sweep SweepConfig `yaml:"sweep" json:"sweep"`
}

// Default returns the configuration used when no file is given: a
// volatile in-memory store swept every ten seconds, no turn clock.
func Default() Config {
	return Config{
		Store: StoreConfig{Backend: string(store.KindMemory)},
		Sweep: SweepConfig{
			Interval:     10 * time.Second,
			ExpiryBudget: 5 * time.Second,
		},
	}
}

// StoreOptions converts the store section to backend open options.
func (c Config) StoreOptions() store.Options {
	return store.Options{Kind: store.Kind(c.Store.Backend), Path: c.Store.Path}
}

// Load reads the YAML file at path (empty path keeps defaults), overlays
// PARLOR_* environment variables, and validates the result. A .env file
// in the working directory is honored if present.
func Load(path string) (Config, error) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := overlayEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overlayEnv applies PARLOR_* variables on top of the file values. The
// environment wins, matching how deployments inject per-host paths.
func overlayEnv(cfg *Config) error {
	if v := os.Getenv("PARLOR_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("PARLOR_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	for _, d := range []struct {
		env string
		dst *time.Duration
	}{
		{"PARLOR_SWEEP_INTERVAL", &cfg.Sweep.Interval},
		{"PARLOR_SWEEP_EXPIRY_BUDGET", &cfg.Sweep.ExpiryBudget},
		{"PARLOR_TURN_TIMEOUT", &cfg.Sweep.TurnTimeout},
	} {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", d.env, err)
		}
		*d.dst = parsed
	}
	return nil
}

// wireConfig is the shape handed to CUE: durations flattened to
// millisecond integers so the schema can bound them numerically.
type wireConfig struct {
	Store StoreConfig `json:"store"`
	Sweep struct {
		IntervalMS     int64 `json:"interval_ms"`
		ExpiryBudgetMS int64 `json:"expiry_budget_ms"`
		TurnTimeoutMS  int64 `json:"turn_timeout_ms"`
	} `json:"sweep"`
}

// Validate checks the configuration against the embedded CUE schema.
func (c Config) Validate() error {
	var wire wireConfig
	wire.Store = c.Store
	wire.Sweep.IntervalMS = c.Sweep.Interval.Milliseconds()
	wire.Sweep.ExpiryBudgetMS = c.Sweep.ExpiryBudget.Milliseconds()
	wire.Sweep.TurnTimeoutMS = c.Sweep.TurnTimeout.Milliseconds()

	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("config: schema: %w", err)
	}

	unified := schemaVal.Unify(ctx.Encode(wire))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
