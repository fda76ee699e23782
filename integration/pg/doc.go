// Package pg provides PostgreSQL connection pool management and a
// LISTEN/NOTIFY backed event bus for cross-instance event distribution.
//
// The package wraps the pgx driver with application-level retry logic,
// connection pool tuning, and health checking, and builds a broker-backed
// implementation of the event bus surface on top of LISTEN/NOTIFY. It lets
// services that already run PostgreSQL distribute events between instances
// without operating a separate broker.
//
// # Key Features
//
//   - Connect: creates a connection pool with retry logic and connection
//     verification
//   - Healthcheck: returns a health check function for monitoring
//     connectivity
//   - Bus: an event bus that publishes through pg_notify and re-broadcasts
//     incoming notifications to local observers
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		Channel           string        `env:"PG_EVENTS_CHANNEL" envDefault:"events"`
//	}
//
// # Usage Example
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	bus := pg.NewBus(pool, pg.WithChannel(cfg.Channel))
//	defer bus.Close()
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(func() error { return bus.Run(ctx) })
//
//	stream, err := bus.Observe()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer stream.Close()
//
//	_ = bus.Publish(ctx, InvoiceIssued{InvoiceID: "inv_42"})
//
// # Delivery Semantics
//
// Publish sends events through pg_notify only. Local observers receive events
// exclusively through Run's listening connection, so the publishing instance
// sees its own events in the same commit order as every other instance.
// Notifications reach only instances connected at publish time; there is no
// replay. The default NOTIFY payload ceiling is 8000 bytes, and Publish
// rejects larger envelopes with ErrPayloadTooLarge, which makes this bus
// suited to small control-plane events rather than bulk payloads.
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked using
// errors.Is():
//
//   - ErrEmptyConnectionString: no connection string was provided
//   - ErrFailedToParseConnString: the connection string is malformed
//   - ErrPostgresNotReady: the database did not become ready within the
//     timeout period
//   - ErrHealthcheckFailed: health check ping failed
//   - ErrPayloadTooLarge: the encoded envelope exceeds the NOTIFY limit
//
// Bus operations return event.ErrBusClosed and event.ErrInvalidPayload for
// lifecycle and payload validation failures, keeping error handling uniform
// across bus implementations.
package pg
