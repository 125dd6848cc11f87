package config

import (
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// S3Config describes the optional upload of merged output files to S3.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
}

// KafkaConfig describes the optional re-publish of merged records to a
// Kafka topic.
type KafkaConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	KeyField string   `yaml:"keyField"`
}

// AppConfig is the application-level configuration shared by every merge
// job. Per-job settings (site, item kind, cleaning) come from the CLI.
type AppConfig struct {
	Paths struct {
		Feeds string `yaml:"feeds"` // scraped feed files, one dir per site/item
		Data  string `yaml:"data"`  // cleaned output data
	} `yaml:"paths"`

	Dedup struct {
		SpillDir       string `yaml:"spillDir"`
		SpillThreshold int    `yaml:"spillThreshold"`
	} `yaml:"dedup"`

	Sinks struct {
		S3    S3Config    `yaml:"s3"`
		Kafka KafkaConfig `yaml:"kafka"`
	} `yaml:"sinks"`
}

const defaultSpillThreshold = 100_000

// Default returns the configuration used when no config file is given.
func Default() AppConfig {
	var cfg AppConfig
	cfg.Paths.Feeds = "feeds"
	cfg.Paths.Data = "data"
	cfg.Dedup.SpillDir = filepath.Join(os.TempDir(), "board-game-merger", "spill")
	cfg.Dedup.SpillThreshold = defaultSpillThreshold
	return cfg
}

// Load reads and parses a YAML config file on top of the defaults.
// It will terminate the program if the file is not found or invalid.
func Load(path string) AppConfig {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Fatalf("Config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Error parsing config file: %v", err)
	}

	return cfg
}
