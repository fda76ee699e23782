package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Connect establishes a NATS connection configured from cfg. Additional
// nats.Option values are applied after the config-derived ones, so callers
// can override any of them. Zero config values keep the nats.go defaults.
func Connect(cfg Config, opts ...nats.Option) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}

	base := make([]nats.Option, 0, 4+len(opts))
	if cfg.ClientName != "" {
		base = append(base, nats.Name(cfg.ClientName))
	}
	if cfg.ConnectTimeout > 0 {
		base = append(base, nats.Timeout(cfg.ConnectTimeout))
	}
	if cfg.MaxReconnects != 0 {
		base = append(base, nats.MaxReconnects(cfg.MaxReconnects))
	}
	if cfg.ReconnectWait > 0 {
		base = append(base, nats.ReconnectWait(cfg.ReconnectWait))
	}
	base = append(base, opts...)

	nc, err := nats.Connect(cfg.URL, base...)
	if err != nil {
		return nil, errors.Join(ErrNATSNotReady, err)
	}
	return nc, nil
}

// Healthcheck returns a function that verifies the NATS connection with a
// server round trip. The returned function is suitable for readiness probes
// and HTTP health endpoints.
func Healthcheck(nc *nats.Conn) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !nc.IsConnected() {
			return errors.Join(ErrHealthcheckFailed, fmt.Errorf("connection status %s", nc.Status()))
		}
		if err := nc.FlushWithContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
