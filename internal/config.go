package internal

import (
	"time"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	// LimitMessages caps one history page; nil means the store default.
	LimitMessages   *int `env:"LIMIT_MESSAGES"`
	SearchBatchSize int  `env:"SEARCH_BATCH_SIZE,required=true"`

	DirectoryBaseURL string        `env:"DIRECTORY_BASE_URL,required=true"`
	DirectoryTimeout time.Duration `env:"DIRECTORY_TIMEOUT,required=true"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,required=true"`
}
