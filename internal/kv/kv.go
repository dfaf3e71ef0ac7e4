// Package kv is the device-local durable key/value store. It plays the role
// a browser's localStorage plays for the web client: string keys, string
// values, every Set persisted before it returns.
package kv

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Store is a string-keyed persistent store
type Store interface {
	// Get returns the value for key and whether it exists
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

const (
	EngineJSON   = "json"
	EngineSQLite = "sqlite"
)

// Open returns a store for the configured engine
func Open(engine, path string, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineSQLite:
		return NewSQLiteStore(path)
	case EngineJSON:
		return NewJSONStore(path, logger)
	default:
		return nil, errors.New("unsupported local store engine: " + engine)
	}
}
