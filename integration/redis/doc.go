// Package redis provides Redis client initialization and a Redis Pub/Sub
// backed event bus for cross-instance event distribution.
//
// The package wraps the go-redis client with connection validation, retry
// logic, and health checking, and builds a broker-backed implementation of
// the event bus surface on top of Redis Pub/Sub. Instances that share a
// channel observe the same event sequence regardless of which instance
// published each event.
//
// # Key Features
//
//   - Connect: creates a Redis client with retry logic and connection
//     verification
//   - Healthcheck: returns a health check function for monitoring Redis
//     connectivity
//   - Bus: an event bus that publishes through Redis Pub/Sub and re-broadcasts
//     incoming messages to local observers
//
// Connection establishment validates the Redis URL format, attempts
// connection with retries, and verifies connectivity with a ping operation
// before returning the client.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		Channel        string        `env:"REDIS_EVENTS_CHANNEL" envDefault:"events"`
//	}
//
// Both redis:// and rediss:// (TLS) URL schemes are supported.
//
// # Usage Example
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	bus := redis.NewBus(client, redis.WithChannel(cfg.Channel))
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
//	_ = bus.Publish(ctx, OrderPlaced{OrderID: "ord_123"})
//
// # Delivery Semantics
//
// Publish sends events to the broker only. Local observers receive events
// exclusively through Run's subscription loop, so the publishing instance
// sees its own events in the same broker order as every other instance.
// Redis Pub/Sub is fire-and-forget: events published while no subscriber is
// connected are dropped, and there is no replay after reconnection.
//
// # Health Checking
//
// Both the raw client and the bus expose health checks suitable for
// Kubernetes readiness/liveness probes:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil {
//		// report unhealthy
//	}
//
//	if err := bus.Healthcheck(ctx); err != nil {
//		// bus closed or broker unreachable
//	}
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked using
// errors.Is():
//
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrFailedToParseRedisConnString: the Redis connection URL is malformed
//   - ErrRedisNotReady: Redis did not become ready within the timeout period
//   - ErrHealthcheckFailed: health check ping failed
//
// Bus operations return event.ErrBusClosed and event.ErrInvalidPayload for
// lifecycle and payload validation failures, keeping error handling uniform
// across bus implementations.
package redis
