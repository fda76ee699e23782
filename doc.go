// Package eventkit provides a toolkit for type-safe event broadcasting in Go
// services. It is built around a generic broadcaster with ordered delivery,
// per-observer buffering and filtering, a typed event bus and processor layer
// on top of it, and broker-backed bus implementations for distributing events
// across instances. The library implements modern Go patterns including
// generics for type safety, functional options for configuration, and
// interface-based design for flexibility and testability.
//
// # Package Organization
//
// The library is organized into two main categories:
//
//   - Core: the in-process broadcasting and event-processing building blocks
//   - Integrations: broker and transport adapters for external systems
//
// # Getting Documentation
//
// For detailed documentation on any package, use the go doc command:
//
//	go doc github.com/dmitrymomot/eventkit/core/broadcast
//	go doc -all github.com/dmitrymomot/eventkit/core/event
//
// # Core Packages
//
// These packages provide the fundamental building blocks:
//
//	github.com/dmitrymomot/eventkit/core/broadcast - Generic ordered broadcaster with per-observer streams, buffering, and filters
//	github.com/dmitrymomot/eventkit/core/event     - Typed event bus, handler registry, processor, and handler decorators
//	github.com/dmitrymomot/eventkit/core/config    - Type-safe environment variable loading
//	github.com/dmitrymomot/eventkit/core/health    - HTTP handlers for service health monitoring
//
// # Integration Packages
//
// External service integrations for cross-instance event distribution:
//
//	github.com/dmitrymomot/eventkit/integration/redis     - Redis client setup and a Pub/Sub backed event bus
//	github.com/dmitrymomot/eventkit/integration/pg        - PostgreSQL pool setup and a LISTEN/NOTIFY backed event bus
//	github.com/dmitrymomot/eventkit/integration/nats      - NATS connection setup and a subject-backed event bus
//	github.com/dmitrymomot/eventkit/integration/websocket - Hub streaming events to websocket clients
//
// # Quick Start
//
// The in-process bus covers a single instance:
//
//	bus := event.NewBus()
//	defer bus.Close()
//
//	stream, err := bus.Observe()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer stream.Close()
//
//	go func() {
//		for evt := range stream.Events() {
//			log.Printf("received %s", evt.Name)
//		}
//	}()
//
//	_ = bus.Publish(ctx, UserRegistered{UserID: "user_123"})
//
// Swapping the bus for a broker-backed implementation from integration/redis,
// integration/pg, or integration/nats extends the same surface across
// instances; processors and the websocket hub accept any of them through the
// broadcast.Observable interface.
package eventkit
