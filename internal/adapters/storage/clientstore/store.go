// Package clientstore holds the per-browser key-value storage behind the
// client cookie. Each browser owns one namespace; items expire after a TTL.
package clientstore

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long an item lives after its last write.
const DefaultTTL = 24 * time.Hour

// ErrEmptyNamespace is returned when a call has no client namespace.
var ErrEmptyNamespace = errors.New("client namespace is empty")

// Store persists string items per client namespace.
type Store interface {
	// GetItem returns the value and whether it exists.
	GetItem(ctx context.Context, namespace, key string) (string, bool, error)
	SetItem(ctx context.Context, namespace, key, value string) error
	RemoveItem(ctx context.Context, namespace, key string) error
}

func checkArgs(namespace string) error {
	if namespace == "" {
		return ErrEmptyNamespace
	}
	return nil
}
