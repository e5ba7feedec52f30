package config

// Config represents the main configuration structure
type Config struct {
	Model   ModelConfig   `yaml:"model" mapstructure:"model"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ModelConfig contains model source and tokenization configuration
type ModelConfig struct {
	HubModel  string `yaml:"hub_model" mapstructure:"hub_model"`                     // "google-bert/bert-base-multilingual-cased"
	MaxSeqLen int    `yaml:"max_sequence_length" mapstructure:"max_sequence_length"` // 128
	CacheDir  string `yaml:"cache_dir" mapstructure:"cache_dir"`                     // per-user cache when empty
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// GetDefaults returns the default configuration
func GetDefaults() *Config {
	return &Config{
		Model: ModelConfig{
			HubModel:  "google-bert/bert-base-multilingual-cased",
			MaxSeqLen: 128,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
