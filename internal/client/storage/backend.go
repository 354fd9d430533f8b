// Package storage implements the credential store: durable key/value
// persistence of the token pair and the cached user profile over a
// pluggable backend chosen once at startup.
//
// Values live in two namespaces. The secure namespace holds the access and
// refresh tokens and is encrypted at rest by persistent backends; the plain
// namespace holds the cached profile JSON. Absent keys are reported as nil
// values with a nil error, never as failures.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Namespace separates confidential values from plain cached data.
type Namespace string

const (
	Plain  Namespace = "plain"
	Secure Namespace = "secure"
)

// Valid reports whether ns is a known namespace.
func (ns Namespace) Valid() bool {
	return ns == Plain || ns == Secure
}

// Op is a single write inside an atomic batch. Delete removes the key and
// ignores Value.
type Op struct {
	Namespace Namespace
	Key       string
	Value     []byte
	Delete    bool
}

// Put builds a write op.
func Put(ns Namespace, key string, value []byte) Op {
	return Op{Namespace: ns, Key: key, Value: value}
}

// Del builds a delete op.
func Del(ns Namespace, key string) Op {
	return Op{Namespace: ns, Key: key, Delete: true}
}

// Backend is the storage capability every medium provides.
type Backend interface {
	// Get returns the value stored under key, or nil when it is absent.
	Get(ctx context.Context, ns Namespace, key string) ([]byte, error)
	// Apply performs all ops atomically: either every op is visible
	// afterwards or none is.
	Apply(ctx context.Context, ops ...Op) error
	Close() error
}

var (
	ErrUnknownNamespace = errors.New("unknown namespace")
	ErrIncompletePair   = errors.New("token pair is incomplete")
	ErrUnknownBackend   = errors.New("unknown storage backend")
	ErrNoSecret         = errors.New("secure namespace requires a passphrase or key file")
)

// Error describes a failed storage operation.
type Error struct {
	Op  string // "get", "apply", "open"
	Key string
	Err error
}

func (e *Error) Error() string {
	msg := "storage " + e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validateOps(ops []Op) error {
	for _, op := range ops {
		if !op.Namespace.Valid() {
			return &Error{Op: "apply", Key: op.Key, Err: ErrUnknownNamespace}
		}
	}
	return nil
}
