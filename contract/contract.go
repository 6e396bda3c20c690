// Package contract holds the small interfaces shared between the messaging
// services and their consumers.
package contract

import "context"

// Unsubscribe releases a live subscription. Views must call it on teardown;
// a forgotten handle leaks the underlying listener for the lifetime of the
// process.
type Unsubscribe func()

// Sink receives the full refreshed result set of a live subscription: the
// initial load first, then one delivery per underlying change. A transport
// error shows up as an empty batch, never as a missing delivery.
type Sink[T any] interface {
	Consume(ctx context.Context, batch []T)
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc[T any] func(ctx context.Context, batch []T)

func (f SinkFunc[T]) Consume(ctx context.Context, batch []T) {
	f(ctx, batch)
}
