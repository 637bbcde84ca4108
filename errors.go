package multiton

import (
	"errors"
	"fmt"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================

var (
	// Scope errors.
	ErrScopeDisposed = errors.New("scope has been disposed")
	ErrScopeNotFound = errors.New("no scope in context")

	// Key errors.
	ErrKeyNotComparable = errors.New("key is not comparable")
	ErrKeyNotSelfEqual  = errors.New("key is not equal to itself")
)

var (
	_ error = KeyError{}
	_ error = HookPanicError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// KeyError indicates a key that cannot identify a multiton instance.
type KeyError struct {
	Key   any
	Cause error
}

func (e KeyError) Error() string {
	return fmt.Sprintf("invalid multiton key %T: %v", e.Key, e.Cause)
}

func (e KeyError) Unwrap() error {
	return e.Cause
}

// HookPanicError indicates a destruction hook panicked while its scope was
// closing. The remaining hooks still run.
type HookPanicError struct {
	ScopeID string
	Panic   any
}

func (e HookPanicError) Error() string {
	return fmt.Sprintf("destroy hook panicked in scope %s: %v", e.ScopeID, e.Panic)
}
