package core

import (
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "homepages.config.yml"

type Config struct {
	OutputDir    string   `yaml:"outputDir"`
	CacheEnabled bool     `yaml:"cache"`
	DebugHeaders bool     `yaml:"debugHeaders"`
	DebugLogs    bool     `yaml:"debugLogs"`
	Mode         PageMode `yaml:"mode"`
	TemplatesDir string   `yaml:"templatesDir"`
	PublicDir    string   `yaml:"publicDir"`
	LogLevel     string   `yaml:"logLevel"`
	LogFormat    string   `yaml:"logFormat"`
}

func DefaultConfig() Config {
	return Config{
		OutputDir: "./cache",
		Mode:      ModeText,
		PublicDir: "public",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig never fails: a missing or unreadable file yields the defaults
// and blank fields in a valid file are filled in from them.
func LoadConfig(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}

	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.PublicDir == "" {
		c.PublicDir = def.PublicDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}

	return c
}
