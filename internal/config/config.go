// Package config resolves the process configuration in three layers:
// built-in defaults, the JSON config file at $XDG_CONFIG_HOME/numbase/
// config.json, and NUMBASE_* environment variables, later layers
// overriding earlier ones.
package config

import "path/filepath"

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Catalogue CatalogueConfig
	Ingest    IngestConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type StorageConfig struct {
	DataDir string
}

type CatalogueConfig struct {
	Dir string
}

type IngestConfig struct {
	SourceDir    string
	Workers      int
	OCRLanguages string
}

type LogConfig struct {
	Level string
}

// DatabasePath is the corpus database location under the data directory.
func (c Config) DatabasePath() string {
	return filepath.Join(c.Storage.DataDir, "knowledge.db")
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port:    4000,
			MCPPort: 4001,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Catalogue: CatalogueConfig{
			Dir: filepath.Join(dataDir, "catalogue"),
		},
		Ingest: IngestConfig{
			SourceDir:    filepath.Join(dataDir, "sources"),
			Workers:      1,
			OCRLanguages: "rus+eng",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the config file and environment.
// Environment variables (NUMBASE_*) override file values.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
