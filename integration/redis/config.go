package redis

import "time"

// Config contains Redis connection settings with environment variable mapping.
// Defaults suit local development; production deployments override them through
// the environment.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	Channel        string        `env:"REDIS_EVENTS_CHANNEL" envDefault:"events"`
}
