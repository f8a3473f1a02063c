package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Store engine names accepted in StoreEngine.
const (
	EngineSQLite   = "sqlite"
	EngineBigQuery = "bigquery"
)

// Config holds the runtime configuration for the fraud pipeline.
// Values come from FRAUD_-prefixed environment variables, with an
// optional config.yaml next to the binary.
type Config struct {
	StoreEngine string `mapstructure:"STORE_ENGINE"` // sqlite or bigquery
	SQLitePath  string `mapstructure:"SQLITE_PATH"`

	ProjectID string `mapstructure:"PROJECT_ID"` // GCP project, bigquery engine only
	Dataset   string `mapstructure:"DATASET"`

	GCSBucket string `mapstructure:"GCS_BUCKET"`

	NotionToken      string `mapstructure:"NOTION_TOKEN"`
	NotionDatabaseID string `mapstructure:"NOTION_DATABASE_ID"`
}

// Load reads configuration from the environment and an optional config file.
func Load() (*Config, error) {
	viper.SetEnvPrefix("fraud")
	viper.AutomaticEnv()

	viper.SetDefault("STORE_ENGINE", EngineSQLite)
	viper.SetDefault("SQLITE_PATH", "fraud_system.db")
	viper.SetDefault("PROJECT_ID", "")
	viper.SetDefault("DATASET", "fraud")
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("NOTION_TOKEN", "")
	viper.SetDefault("NOTION_DATABASE_ID", "")

	// Optional: read from config.yaml if present
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // ignore if no file

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.StoreEngine != EngineSQLite && cfg.StoreEngine != EngineBigQuery {
		return nil, fmt.Errorf("config: unknown store engine %q", cfg.StoreEngine)
	}
	if cfg.StoreEngine == EngineBigQuery && cfg.ProjectID == "" {
		return nil, fmt.Errorf("config: FRAUD_PROJECT_ID is required for the bigquery engine")
	}

	return &cfg, nil
}
