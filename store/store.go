// Package store is the key-value record store every service persists through.
// Values are whole JSON documents; callers read a collection, change it and
// write it back.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"droidfolio/apperrors"
	"droidfolio/pkg/metrics"
)

// ErrNotFound is returned by Get when a key has never been written or was deleted
var ErrNotFound = errors.New("store: record not found")

// Store reads and writes raw JSON documents under string keys.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by backends that can report their own health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks s if it supports health checks, otherwise it reports healthy
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Load decodes the JSON document under key into T. The bool is false when the
// key is absent, in which case the zero T is returned with a nil error.
func Load[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var v T

	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, apperrors.NewCorruptRecordError(key, err)
	}
	return v, true, nil
}

// Save encodes v as JSON and stores it under key
func Save[T any](ctx context.Context, s Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewStorageError("encode", key, err)
	}
	return s.Put(ctx, key, data)
}

// observe records one backend call
func observe(backend, op string, start time.Time, err error) {
	ok := err == nil || errors.Is(err, ErrNotFound)
	metrics.RecordStoreOperation(backend, op, time.Since(start).Seconds(), ok)
}

// wrap turns a backend failure into a STORAGE_ERROR, leaving ErrNotFound and
// context errors untouched so callers can still match them.
func wrap(op, key string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.NewStorageError(op, key, err)
}
