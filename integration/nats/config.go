package nats

import "time"

// Config contains NATS connection settings with environment variable mapping.
// Reconnect defaults match the nats.go client defaults.
type Config struct {
	URL            string        `env:"NATS_URL,required" envDefault:"nats://localhost:4222"`
	ClientName     string        `env:"NATS_CLIENT_NAME" envDefault:"eventkit"`
	ConnectTimeout time.Duration `env:"NATS_CONNECT_TIMEOUT" envDefault:"5s"`
	MaxReconnects  int           `env:"NATS_MAX_RECONNECTS" envDefault:"60"`
	ReconnectWait  time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
	Subject        string        `env:"NATS_EVENTS_SUBJECT" envDefault:"events"`
}
