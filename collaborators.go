// collaborators.go: optional external seams a Cache[K,V] can be wired to.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

// Validator is consulted by Cache.PutValidated and after a successful
// Loader call. Returning an error rejects the write: PutValidated returns
// it to the caller instead of installing the entry. Put and Get do not
// consult it.
type Validator[K comparable, V any] interface {
	Validate(key K, value V) error
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc[K comparable, V any] func(key K, value V) error

func (f ValidatorFunc[K, V]) Validate(key K, value V) error { return f(key, value) }

// CircuitBreaker gates calls into a configured Loader, letting callers
// fail fast once a downstream source has been unhealthy for long enough
// rather than piling up timeouts under singleflight.
type CircuitBreaker interface {
	// Allow reports whether a new load attempt should proceed.
	Allow() bool
	// RecordSuccess reports a completed load that did not error.
	RecordSuccess()
	// RecordFailure reports a completed load that errored.
	RecordFailure()
}

// noOpCircuitBreaker always allows the call through; used when no
// CircuitBreaker is configured.
type noOpCircuitBreaker struct{}

func (noOpCircuitBreaker) Allow() bool    { return true }
func (noOpCircuitBreaker) RecordSuccess() {}
func (noOpCircuitBreaker) RecordFailure() {}
