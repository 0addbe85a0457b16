package config

import (
	"os"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
	} `yaml:"logger"`
	Device struct {
		Backend     string `yaml:"backend"`
		MemoryLimit int64  `yaml:"memoryLimit"`
	} `yaml:"device"`
	Engine struct {
		ChunkElements int `yaml:"chunkElements"`
		Workers       int `yaml:"workers"`
	} `yaml:"engine"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var config Config
	config.Logger.Verbosity = "warn"
	config.Device.Backend = "auto"
	config.Engine.ChunkElements = cascaded.DefaultChunkElements
	return &config
}

// LoadConfig reads a YAML file over the defaults, so keys missing from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
