// Package nats provides NATS connection management and a subject-backed
// event bus for cross-instance event distribution.
//
// The package wraps the nats.go client with configuration mapping and health
// checking, and builds a broker-backed implementation of the event bus
// surface on top of core NATS publish/subscribe. Instances that share a
// subject observe the same event sequence regardless of which instance
// published each event.
//
// # Key Features
//
//   - Connect: establishes a NATS connection from environment-driven
//     configuration with reconnect tuning
//   - Healthcheck: returns a health check function that performs a server
//     round trip
//   - Bus: an event bus that publishes through a NATS subject and
//     re-broadcasts incoming messages to local observers
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		URL            string        `env:"NATS_URL,required" envDefault:"nats://localhost:4222"`
//		ClientName     string        `env:"NATS_CLIENT_NAME" envDefault:"eventkit"`
//		ConnectTimeout time.Duration `env:"NATS_CONNECT_TIMEOUT" envDefault:"5s"`
//		MaxReconnects  int           `env:"NATS_MAX_RECONNECTS" envDefault:"60"`
//		ReconnectWait  time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
//		Subject        string        `env:"NATS_EVENTS_SUBJECT" envDefault:"events"`
//	}
//
// Additional nats.Option values passed to Connect override the config-derived
// ones, so TLS, credentials, and custom handlers plug in without new config
// fields.
//
// # Usage Example
//
//	var cfg nats.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	nc, err := nats.Connect(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer nc.Close()
//
//	bus := nats.NewBus(nc, nats.WithSubject(cfg.Subject))
//	defer bus.Close()
//
//	g, ctx := errgroup.WithContext(context.Background())
//	g.Go(func() error { return bus.Run(ctx) })
//
//	stream, err := bus.Observe()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer stream.Close()
//
//	_ = bus.Publish(ctx, DeploymentFinished{Service: "api"})
//
// # Delivery Semantics
//
// Publish sends events to the server only. Local observers receive events
// exclusively through Run's subscription loop, so the publishing instance
// sees its own events in the same server order as every other instance. Core
// NATS delivery is at-most-once: events published while an instance is
// disconnected are not replayed.
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked using
// errors.Is():
//
//   - ErrEmptyURL: no server URL was provided
//   - ErrNATSNotReady: the connection could not be established
//   - ErrHealthcheckFailed: the connection is down or the round trip failed
//
// Bus operations return event.ErrBusClosed and event.ErrInvalidPayload for
// lifecycle and payload validation failures, keeping error handling uniform
// across bus implementations.
package nats
