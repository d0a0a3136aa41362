// errors.go: structured error types for cache operations.
//
// Builds structured errors on github.com/agilira/go-errors (codes,
// context, retryability, severity) rather than plain fmt.Errorf/sentinel
// values. Error codes use a JCACHEX_* prefix and are extended with the
// distributed-overlay codes (network partition, node unreachable,
// serialization failure) that a single in-process cache never needed.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for jcachex operations.
const (
	// Configuration errors (1xxx)
	ErrCodeInvalidConfig      errors.ErrorCode = "JCACHEX_INVALID_CONFIG"
	ErrCodeInvalidMaxSize     errors.ErrorCode = "JCACHEX_INVALID_MAX_SIZE"
	ErrCodeInvalidWindowRatio errors.ErrorCode = "JCACHEX_INVALID_WINDOW_RATIO"
	ErrCodeInvalidCounterBits errors.ErrorCode = "JCACHEX_INVALID_COUNTER_BITS"
	ErrCodeInvalidTTL         errors.ErrorCode = "JCACHEX_INVALID_TTL"

	// Operation errors (2xxx)
	ErrCodeInvalidKey     errors.ErrorCode = "JCACHEX_INVALID_KEY"
	ErrCodeInvalidValue   errors.ErrorCode = "JCACHEX_INVALID_VALUE"
	ErrCodeInvalidState   errors.ErrorCode = "JCACHEX_INVALID_STATE"
	ErrCodeKeyNotFound    errors.ErrorCode = "JCACHEX_KEY_NOT_FOUND"
	ErrCodeEvictionFailed errors.ErrorCode = "JCACHEX_EVICTION_FAILED"

	// Loader errors (3xxx)
	ErrCodeLoaderFailed    errors.ErrorCode = "JCACHEX_LOADER_FAILED"
	ErrCodeLoaderTimeout   errors.ErrorCode = "JCACHEX_LOADER_TIMEOUT"
	ErrCodeLoaderCancelled errors.ErrorCode = "JCACHEX_LOADER_CANCELLED"
	ErrCodeInvalidLoader   errors.ErrorCode = "JCACHEX_INVALID_LOADER"

	// Serialization errors (4xxx)
	ErrCodeSerializationFailed errors.ErrorCode = "JCACHEX_SERIALIZATION_FAILED"

	// Distributed overlay errors (5xxx)
	ErrCodeNetworkPartition errors.ErrorCode = "JCACHEX_NETWORK_PARTITION"
	ErrCodeNodeUnreachable  errors.ErrorCode = "JCACHEX_NODE_UNREACHABLE"
	ErrCodeQuorumFailed     errors.ErrorCode = "JCACHEX_QUORUM_FAILED"

	// Internal errors (6xxx)
	ErrCodeInternalError  errors.ErrorCode = "JCACHEX_INTERNAL_ERROR"
	ErrCodePanicRecovered errors.ErrorCode = "JCACHEX_PANIC_RECOVERED"
)

const (
	msgInvalidMaxSize        = "invalid max size: must be greater than 0"
	msgInvalidWindowRatio    = "invalid window ratio: must be between 0.0 and 1.0"
	msgInvalidCounterBits    = "invalid counter bits: must be 4 or 8"
	msgInvalidTTL            = "invalid TTL: must be non-negative"
	msgInvalidKey            = "key is invalid for this operation"
	msgInvalidValue          = "value is invalid for this operation"
	msgInvalidState          = "cache is not in a state that permits this operation"
	msgKeyNotFound           = "key not found in cache"
	msgEvictionFailed        = "failed to evict entry from cache"
	msgLoaderFailed          = "loader function failed"
	msgLoaderTimeout         = "loader function timed out"
	msgLoaderCancelled       = "loader function was cancelled"
	msgInvalidLoader         = "loader function cannot be nil"
	msgSerializationFailed   = "failed to serialize or deserialize value"
	msgNetworkPartition      = "replica set is partitioned and quorum cannot be reached"
	msgNodeUnreachable       = "remote node did not respond within the deadline"
	msgQuorumFailed          = "operation did not reach the required quorum"
	msgInternalError         = "internal cache error"
	msgPanicRecovered        = "panic recovered in cache operation"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

func NewErrInvalidConfig(reason string) error {
	return errors.NewWithField(ErrCodeInvalidConfig, msgInvalidMaxSize, "reason", reason)
}

func NewErrInvalidMaxSize(size int64) error {
	return errors.NewWithContext(ErrCodeInvalidMaxSize, msgInvalidMaxSize, map[string]interface{}{
		"provided_size":    size,
		"minimum_required": 1,
	})
}

func NewErrInvalidWindowRatio(ratio float64) error {
	return errors.NewWithContext(ErrCodeInvalidWindowRatio, msgInvalidWindowRatio, map[string]interface{}{
		"provided_ratio": ratio,
		"valid_range":    "0.0 < ratio < 1.0",
	})
}

func NewErrInvalidCounterBits(bits int) error {
	return errors.NewWithContext(ErrCodeInvalidCounterBits, msgInvalidCounterBits, map[string]interface{}{
		"provided_bits": bits,
		"valid_values":  "4 or 8",
	})
}

func NewErrInvalidTTL(ttl interface{}) error {
	return errors.NewWithContext(ErrCodeInvalidTTL, msgInvalidTTL, map[string]interface{}{
		"provided_ttl": ttl,
	})
}

// =============================================================================
// OPERATION ERRORS
// =============================================================================

func NewErrInvalidKey(reason string) error {
	return errors.NewWithField(ErrCodeInvalidKey, msgInvalidKey, "reason", reason)
}

func NewErrInvalidValue(reason string) error {
	return errors.NewWithField(ErrCodeInvalidValue, msgInvalidValue, "reason", reason)
}

func NewErrInvalidState(state string) error {
	return errors.NewWithField(ErrCodeInvalidState, msgInvalidState, "state", state)
}

func NewErrKeyNotFound(key interface{}) error {
	return errors.NewWithContext(ErrCodeKeyNotFound, msgKeyNotFound, map[string]interface{}{
		"key": fmt.Sprintf("%v", key),
	})
}

func NewErrEvictionFailed(reason string) error {
	return errors.NewWithField(ErrCodeEvictionFailed, msgEvictionFailed, "reason", reason).
		AsRetryable()
}

// =============================================================================
// LOADER ERRORS
// =============================================================================

func NewErrLoaderFailed(key interface{}, cause error) error {
	return errors.Wrap(cause, ErrCodeLoaderFailed, msgLoaderFailed).
		WithContext("key", fmt.Sprintf("%v", key)).
		AsRetryable()
}

func NewErrLoaderTimeout(key interface{}, timeout interface{}) error {
	return errors.NewWithContext(ErrCodeLoaderTimeout, msgLoaderTimeout, map[string]interface{}{
		"key":     fmt.Sprintf("%v", key),
		"timeout": timeout,
	}).AsRetryable()
}

func NewErrLoaderCancelled(key interface{}) error {
	return errors.NewWithContext(ErrCodeLoaderCancelled, msgLoaderCancelled, map[string]interface{}{
		"key": fmt.Sprintf("%v", key),
	})
}

func NewErrInvalidLoader() error {
	return errors.New(ErrCodeInvalidLoader, msgInvalidLoader)
}

// =============================================================================
// SERIALIZATION ERRORS
// =============================================================================

func NewErrSerializationFailed(cause error, op string) error {
	return errors.Wrap(cause, ErrCodeSerializationFailed, msgSerializationFailed).
		WithContext("operation", op)
}

// =============================================================================
// DISTRIBUTED OVERLAY ERRORS
// =============================================================================

func NewErrNetworkPartition(reachable, total int) error {
	return errors.NewWithContext(ErrCodeNetworkPartition, msgNetworkPartition, map[string]interface{}{
		"reachable_nodes": reachable,
		"total_nodes":     total,
	}).AsRetryable()
}

func NewErrNodeUnreachable(nodeID string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeNodeUnreachable, msgNodeUnreachable).
			WithContext("node_id", nodeID).
			AsRetryable()
	}
	return errors.NewWithField(ErrCodeNodeUnreachable, msgNodeUnreachable, "node_id", nodeID).
		AsRetryable()
}

func NewErrQuorumFailed(required, acked, total int) error {
	return errors.NewWithContext(ErrCodeQuorumFailed, msgQuorumFailed, map[string]interface{}{
		"required": required,
		"acked":    acked,
		"total":    total,
	}).AsRetryable()
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

func IsNotFound(err error) bool {
	return errors.HasCode(err, ErrCodeKeyNotFound)
}

func IsInvalidKey(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidKey)
}

func IsInvalidValue(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidValue)
}

func IsInvalidState(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidState)
}

func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeInvalidConfig || code == ErrCodeInvalidMaxSize ||
			code == ErrCodeInvalidWindowRatio || code == ErrCodeInvalidCounterBits ||
			code == ErrCodeInvalidTTL
	}
	return false
}

func IsLoaderError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeLoaderFailed || code == ErrCodeLoaderTimeout ||
			code == ErrCodeLoaderCancelled || code == ErrCodeInvalidLoader
	}
	return false
}

func IsDistributedError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeNetworkPartition || code == ErrCodeNodeUnreachable || code == ErrCodeQuorumFailed
	}
	return false
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var jerr *errors.Error
	if goerrors.As(err, &jerr) {
		return jerr.Context
	}
	return nil
}
