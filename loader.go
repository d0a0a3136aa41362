// loader.go: L8 async loader — at-most-once concurrent population on miss.
//
// A per-cache sync.Map of inflight entries, a sync.WaitGroup, and an
// atomic.Value per key would get the same at-most-once behavior (see
// cache.go's GetOrLoad); golang.org/x/sync/singleflight exists
// precisely to replace that pattern, so this file adopts it directly
// instead of re-deriving the coordination by hand.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// loadGroup wraps a singleflight.Group to give a Cache[K,V] at-most-once
// concurrent loading per key, translating between K and the string keys
// singleflight requires.
type loadGroup[K comparable, V any] struct {
	cache  *Cache[K, V]
	loader Loader[K, V]
	group  singleflight.Group
}

func newLoadGroup[K comparable, V any](c *Cache[K, V], loader Loader[K, V]) *loadGroup[K, V] {
	return &loadGroup[K, V]{cache: c, loader: loader}
}

// load runs the configured Loader for key, sharing one in-flight call
// across every concurrent caller requesting the same key, then stores
// the result in the cache on success.
func (g *loadGroup[K, V]) load(ctx context.Context, key K) (V, error) {
	return g.doLoad(ctx, key, false)
}

// refresh is like load but skips the already-cached short-circuit, since
// it is called on a key that is already present (just stale) and must
// still reach the Loader. It shares the same singleflight group as load,
// so a refresh and a concurrent miss on the same key do not both call
// the Loader.
func (g *loadGroup[K, V]) refresh(ctx context.Context, key K) (V, error) {
	return g.doLoad(ctx, key, true)
}

func (g *loadGroup[K, V]) doLoad(ctx context.Context, key K, forceReload bool) (V, error) {
	var zero V
	if g.loader == nil {
		return zero, NewErrInvalidLoader()
	}

	start := g.cache.config.TimeProvider.Now()
	groupKey := fmt.Sprintf("%v", key)
	breaker := g.cache.config.CircuitBreaker

	v, err, _ := g.group.Do(groupKey, func() (interface{}, error) {
		if !forceReload {
			// Re-check the cache: another goroutine may have populated it
			// while this call waited to be scheduled as the singleflight
			// leader.
			if cached, ok := g.cache.Get(key); ok {
				return cached, nil
			}
		}

		if !breaker.Allow() {
			return nil, NewErrLoaderFailed(key, fmt.Errorf("circuit breaker open"))
		}

		value, loadErr := g.loader(ctx, key)
		if loadErr != nil {
			breaker.RecordFailure()
			if ctx.Err() == context.Canceled {
				return nil, NewErrLoaderCancelled(key)
			}
			if ctx.Err() == context.DeadlineExceeded {
				return nil, NewErrLoaderTimeout(key, ctx.Err())
			}
			return nil, NewErrLoaderFailed(key, loadErr)
		}

		if g.cache.config.Validator != nil {
			if verr := g.cache.config.Validator.Validate(key, value); verr != nil {
				breaker.RecordFailure()
				return nil, NewErrInvalidValue(fmt.Sprintf("key %v: %v", key, verr))
			}
		}

		breaker.RecordSuccess()
		g.cache.Put(key, value)
		return value, nil
	})

	elapsed := g.cache.config.TimeProvider.Now() - start
	if g.cache.stats != nil {
		g.cache.stats.recordLoad(err == nil, elapsed)
	}

	if err != nil {
		return zero, err
	}
	return v.(V), nil
}

// Future represents an in-flight asynchronous load, returned by
// GetOrLoadAsync so callers can wait on it without blocking the caller
// goroutine immediately.
type Future[V any] struct {
	done  chan struct{}
	value V
	err   error
}

func newFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

func (f *Future[V]) complete(v V, err error) {
	f.value = v
	f.err = err
	close(f.done)
}

// Await blocks until the load completes or ctx is cancelled, whichever
// comes first.
func (f *Future[V]) Await(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// OnComplete invokes fn once the load completes, from a new goroutine. fn
// must not block.
func (f *Future[V]) OnComplete(fn func(V, error)) {
	go func() {
		<-f.done
		fn(f.value, f.err)
	}()
}

// GetOrLoadAsync starts a load for key (or returns the already-cached
// value immediately through a pre-completed Future) without blocking the
// calling goroutine on the loader's completion. The returned Future
// completes with InvalidState immediately once the cache is closed.
func (c *Cache[K, V]) GetOrLoadAsync(ctx context.Context, key K) *Future[V] {
	future := newFuture[V]()
	if c.isClosed() {
		var zero V
		future.complete(zero, NewErrInvalidState("cache closed"))
		return future
	}
	if v, ok := c.Get(key); ok {
		future.complete(v, nil)
		return future
	}
	ctx, cancel := c.cancelOnClose(ctx)
	go func() {
		defer cancel()
		v, err := c.loader.load(ctx, key)
		future.complete(v, err)
	}()
	return future
}
