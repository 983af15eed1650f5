// Package storage persists engine state as named JSON documents.
//
// The engine loads every key at startup and saves a key after every
// mutation. Backends only need to get and put opaque values by name.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Fixed document names.
const (
	KeyVotes         = "votes"
	KeyGroups        = "groups"
	KeyCurrentGroup  = "currentGroup"
	KeyUserID        = "userId"
	KeySchemaVersion = "schemaVersion"
)

// SchemaVersion is the layout version written next to the documents.
const SchemaVersion = 1

// Store is a key-value persistence backend.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Close releases backend resources.
	Close() error
}

// GetJSON decodes the document under key into v. It reports false when the
// key does not exist.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}

// CheckSchema verifies the stored layout version and writes the current one
// when none exists. A newer stored version is refused.
func CheckSchema(ctx context.Context, s Store) error {
	var version int
	found, err := GetJSON(ctx, s, KeySchemaVersion, &version)
	if err != nil {
		return err
	}
	if !found {
		return PutJSON(ctx, s, KeySchemaVersion, SchemaVersion)
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: stored %d, supported %d", ErrSchemaVersion, version, SchemaVersion)
	}
	return nil
}
