package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by every setting.
const envPrefix = "DIMPAT"

// DefaultConfigName is the file searched for when no path is given.
const DefaultConfigName = "dimpat.yaml"

// SearchPaths returns the files Load tries, in order, when no path is given:
// ./dimpat.yaml then ~/.dimpat/config.yaml.
func SearchPaths() []string {
	paths := []string{DefaultConfigName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".dimpat", "config.yaml"))
	}
	return paths
}

// newViper builds a Viper instance with the standard settings: YAML file
// type, DIMPAT_ env prefix and a key replacer mapping "." to "_" so that
// "dimensions.api_key" resolves to DIMPAT_DIMENSIONS_API_KEY.  A .env file
// in the working directory is loaded first; variables already set win.
func newViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, reflect.TypeOf(Config{}), "")
	return v
}

// bindEnvs registers every mapstructure key so that Unmarshal sees values
// that exist only in the environment.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, f.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges DIMPAT_* environment
// overrides, applies defaults and validates the result.  With an empty
// configPath the SearchPaths are tried and a missing file is not an error.
func Load(configPath string) (*Config, error) {
	if configPath != "" {
		return LoadFromFile(configPath)
	}
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	return LoadFromEnv()
}

// LoadFromFile reads the file at path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from DIMPAT_* environment variables alone.
//
//	DIMPAT_<SECTION>_<FIELD>   e.g.  DIMPAT_DIMENSIONS_API_KEY, DIMPAT_EXPORT_SINKS=localfs,postgres
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
