package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Initial status modes for freshly built knowledge graphs.
const (
	StatusModeWeighted  = "weighted"
	StatusModeObjective = "objective"
)

type Config struct {
	Port string `yaml:"port" env:"PORT" env-default:"8090"`

	// Auth
	APIKey string `yaml:"-" env:"COURSEMAP_API_KEY"`

	// Storage
	DBPath string `yaml:"db_path" env:"DB_PATH" env-default:"coursemap.db"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count" env:"WORKER_COUNT" env-default:"4"`
	MaxQueueSize int `yaml:"max_queue_size" env:"MAX_QUEUE_SIZE" env-default:"100"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"52428800"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl" env:"JOB_TTL" env-default:"1h"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext" env:"PDF_FALLBACK_PDFTOTEXT" env-default:"true"`

	// Structure detection. Empty means the built-in pattern tables.
	PatternsFile string `yaml:"patterns_file" env:"PATTERNS_FILE"`

	// Knowledge graph seeding
	InitialStatusMode string `yaml:"initial_status_mode" env:"INITIAL_STATUS_MODE" env-default:"weighted"`
	RandomSeed        uint64 `yaml:"random_seed" env:"RANDOM_SEED" env-default:"0"`

	// Analysis latency window for /api/stats/analysis
	StatsWindow time.Duration `yaml:"stats_window" env:"STATS_WINDOW" env-default:"1h"`

	LogMode string `yaml:"log_mode" env:"LOG_MODE" env-default:"prod"`
}

// Load reads path (if non-empty) as YAML, then applies environment
// overrides. With no path only the environment and defaults are used.
func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("COURSEMAP_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	switch c.InitialStatusMode {
	case StatusModeWeighted, StatusModeObjective:
	default:
		return fmt.Errorf("INITIAL_STATUS_MODE must be %q or %q, got %q",
			StatusModeWeighted, StatusModeObjective, c.InitialStatusMode)
	}
	return nil
}
