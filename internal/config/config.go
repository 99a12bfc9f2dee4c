package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

// Backend selects the conversation store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendBolt   Backend = "bolt"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Storage
	StorageBackend Backend `env:"STORAGE_BACKEND" envDefault:"file"`
	DataFilePath   string  `env:"DATA_FILE_PATH" envDefault:"data/user_data.json"`
	BoltFilePath   string  `env:"BOLT_FILE_PATH" envDefault:"data/users.db"`
	HistoryLimit   int     `env:"HISTORY_LIMIT" envDefault:"200"`

	// Reply tables override (optional YAML file)
	ContentFilePath string `env:"CONTENT_FILE_PATH"`

	// Telegram transport (disabled when the token is empty)
	TelegramBotToken     string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAllowedUsers []int64 `env:"TELEGRAM_ALLOWED_USERS" envSeparator:":"`

	// Maintenance
	PruneSchedule      string `env:"PRUNE_SCHEDULE" envDefault:"0 4 * * *"`
	PruneRetentionDays int    `env:"PRUNE_RETENTION_DAYS" envDefault:"90"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
