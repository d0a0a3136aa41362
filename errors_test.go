// errors_test.go: tests for the structured error constructors and the
// predicate helpers built on top of them.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"errors"
	"testing"
)

func TestNewErrInvalidConfigHasCode(t *testing.T) {
	err := NewErrInvalidConfig("window ratio out of range")
	if GetErrorCode(err) != ErrCodeInvalidConfig {
		t.Errorf("code = %v, want %v", GetErrorCode(err), ErrCodeInvalidConfig)
	}
	if !IsConfigError(err) {
		t.Error("IsConfigError should be true")
	}
}

func TestNewErrInvalidMaxSizeContext(t *testing.T) {
	err := NewErrInvalidMaxSize(-1)
	ctx := GetErrorContext(err)
	if ctx["provided_size"] != int64(-1) {
		t.Errorf("context[provided_size] = %v, want -1", ctx["provided_size"])
	}
	if !IsConfigError(err) {
		t.Error("IsConfigError should be true for an invalid max size")
	}
}

func TestNewErrInvalidWindowRatioContext(t *testing.T) {
	err := NewErrInvalidWindowRatio(1.5)
	ctx := GetErrorContext(err)
	if ctx["provided_ratio"] != 1.5 {
		t.Errorf("context[provided_ratio] = %v, want 1.5", ctx["provided_ratio"])
	}
	if !IsConfigError(err) {
		t.Error("IsConfigError should be true")
	}
}

func TestNewErrInvalidCounterBitsContext(t *testing.T) {
	err := NewErrInvalidCounterBits(6)
	ctx := GetErrorContext(err)
	if ctx["provided_bits"] != 6 {
		t.Errorf("context[provided_bits] = %v, want 6", ctx["provided_bits"])
	}
}

func TestNewErrInvalidTTLContext(t *testing.T) {
	err := NewErrInvalidTTL(-1)
	if GetErrorCode(err) != ErrCodeInvalidTTL {
		t.Errorf("code = %v, want %v", GetErrorCode(err), ErrCodeInvalidTTL)
	}
}

func TestNewErrInvalidKey(t *testing.T) {
	err := NewErrInvalidKey("empty key not allowed")
	if !IsInvalidKey(err) {
		t.Error("IsInvalidKey should be true")
	}
	if IsInvalidValue(err) {
		t.Error("IsInvalidValue should be false for an invalid-key error")
	}
}

func TestNewErrInvalidValue(t *testing.T) {
	err := NewErrInvalidValue("nil value not allowed")
	if !IsInvalidValue(err) {
		t.Error("IsInvalidValue should be true")
	}
}

func TestNewErrInvalidState(t *testing.T) {
	err := NewErrInvalidState("closed")
	if !IsInvalidState(err) {
		t.Error("IsInvalidState should be true")
	}
	ctx := GetErrorContext(err)
	if ctx["state"] != "closed" {
		t.Errorf("context[state] = %v, want closed", ctx["state"])
	}
}

func TestNewErrKeyNotFound(t *testing.T) {
	err := NewErrKeyNotFound("missing-key")
	if !IsNotFound(err) {
		t.Error("IsNotFound should be true")
	}
	ctx := GetErrorContext(err)
	if ctx["key"] != "missing-key" {
		t.Errorf("context[key] = %v, want missing-key", ctx["key"])
	}
}

func TestNewErrEvictionFailedIsRetryable(t *testing.T) {
	err := NewErrEvictionFailed("storage CAS failed")
	if !IsRetryable(err) {
		t.Error("eviction failure should be retryable")
	}
}

func TestNewErrLoaderFailedWrapsCauseAndIsRetryable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewErrLoaderFailed("user:42", cause)
	if !IsLoaderError(err) {
		t.Error("IsLoaderError should be true")
	}
	if !IsRetryable(err) {
		t.Error("loader failure should be retryable")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to the original cause")
	}
}

func TestNewErrLoaderTimeoutIsRetryable(t *testing.T) {
	err := NewErrLoaderTimeout("user:42", "5s")
	if !IsLoaderError(err) || !IsRetryable(err) {
		t.Error("loader timeout should be a loader error and retryable")
	}
}

func TestNewErrLoaderCancelledIsNotRetryable(t *testing.T) {
	err := NewErrLoaderCancelled("user:42")
	if !IsLoaderError(err) {
		t.Error("IsLoaderError should be true")
	}
	if IsRetryable(err) {
		t.Error("a cancelled load should not be reported as retryable")
	}
}

func TestNewErrInvalidLoader(t *testing.T) {
	err := NewErrInvalidLoader()
	if GetErrorCode(err) != ErrCodeInvalidLoader {
		t.Errorf("code = %v, want %v", GetErrorCode(err), ErrCodeInvalidLoader)
	}
}

func TestNewErrSerializationFailedWrapsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := NewErrSerializationFailed(cause, "distributed.Overlay.Get")
	if GetErrorCode(err) != ErrCodeSerializationFailed {
		t.Errorf("code = %v, want %v", GetErrorCode(err), ErrCodeSerializationFailed)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to the original cause")
	}
	ctx := GetErrorContext(err)
	if ctx["operation"] != "distributed.Overlay.Get" {
		t.Errorf("context[operation] = %v, want distributed.Overlay.Get", ctx["operation"])
	}
}

func TestNewErrNetworkPartitionIsRetryable(t *testing.T) {
	err := NewErrNetworkPartition(1, 3)
	if !IsDistributedError(err) {
		t.Error("IsDistributedError should be true")
	}
	if !IsRetryable(err) {
		t.Error("a network partition should be retryable")
	}
	ctx := GetErrorContext(err)
	if ctx["reachable_nodes"] != 1 || ctx["total_nodes"] != 3 {
		t.Errorf("context = %v, want reachable_nodes=1 total_nodes=3", ctx)
	}
}

func TestNewErrNodeUnreachableWithAndWithoutCause(t *testing.T) {
	cause := errors.New("i/o timeout")
	withCause := NewErrNodeUnreachable("node-2", cause)
	if !errors.Is(withCause, cause) {
		t.Error("wrapped error should unwrap to the original cause")
	}
	if !IsRetryable(withCause) {
		t.Error("node-unreachable should be retryable")
	}

	withoutCause := NewErrNodeUnreachable("node-2", nil)
	if !IsDistributedError(withoutCause) || !IsRetryable(withoutCause) {
		t.Error("node-unreachable without a cause should still be a retryable distributed error")
	}
}

func TestNewErrQuorumFailedContext(t *testing.T) {
	err := NewErrQuorumFailed(2, 1, 3)
	if !IsDistributedError(err) || !IsRetryable(err) {
		t.Error("quorum failure should be a retryable distributed error")
	}
	ctx := GetErrorContext(err)
	if ctx["required"] != 2 || ctx["acked"] != 1 || ctx["total"] != 3 {
		t.Errorf("context = %v, want required=2 acked=1 total=3", ctx)
	}
}

func TestNewErrInternalWithAndWithoutCause(t *testing.T) {
	cause := errors.New("nil pointer dereference")
	withCause := NewErrInternal("Cache.Put", cause)
	if !errors.Is(withCause, cause) {
		t.Error("wrapped error should unwrap to the original cause")
	}

	withoutCause := NewErrInternal("Cache.Put", nil)
	if GetErrorCode(withoutCause) != ErrCodeInternalError {
		t.Errorf("code = %v, want %v", GetErrorCode(withoutCause), ErrCodeInternalError)
	}
}

func TestNewErrPanicRecoveredContext(t *testing.T) {
	err := NewErrPanicRecovered("Cache.loadFromSource", "runtime error: index out of range")
	if GetErrorCode(err) != ErrCodePanicRecovered {
		t.Errorf("code = %v, want %v", GetErrorCode(err), ErrCodePanicRecovered)
	}
	ctx := GetErrorContext(err)
	if ctx["operation"] != "Cache.loadFromSource" {
		t.Errorf("context[operation] = %v, want Cache.loadFromSource", ctx["operation"])
	}
}

func TestPredicatesRejectUnrelatedCodes(t *testing.T) {
	notFound := NewErrKeyNotFound("x")
	if IsConfigError(notFound) || IsLoaderError(notFound) || IsDistributedError(notFound) {
		t.Error("a not-found error should not match any other error-family predicate")
	}
}

func TestPredicatesOnNilError(t *testing.T) {
	if IsNotFound(nil) || IsInvalidKey(nil) || IsInvalidValue(nil) || IsInvalidState(nil) {
		t.Error("simple code predicates should report false for a nil error")
	}
	if IsConfigError(nil) || IsLoaderError(nil) || IsDistributedError(nil) || IsRetryable(nil) {
		t.Error("compound predicates should report false for a nil error")
	}
	if GetErrorCode(nil) != "" {
		t.Error("GetErrorCode(nil) should return the empty code")
	}
	if GetErrorContext(nil) != nil {
		t.Error("GetErrorContext(nil) should return nil")
	}
}

func TestPredicatesOnPlainGoError(t *testing.T) {
	plain := errors.New("not a jcachex error")
	if IsNotFound(plain) || IsConfigError(plain) || IsRetryable(plain) {
		t.Error("predicates should report false for an error with no attached code")
	}
	if GetErrorCode(plain) != "" {
		t.Error("GetErrorCode should return the empty code for a plain error")
	}
}
