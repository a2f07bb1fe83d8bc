package storage

import (
	"errors"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
)

// TTL results for keys without a remaining lifetime
const (
	TTLKeyMissing time.Duration = -2
	TTLNoExpiry   time.Duration = -1
)

var (
	// ErrNilValue is returned when storing a nil frame
	ErrNilValue = errors.New("storage: nil value")

	// ErrClosed is returned by writes after Close
	ErrClosed = errors.New("storage: closed")
)

// Storage defines the keyspace served to clients. Values are RESP frames and
// are returned as stored; callers must not modify them.
type Storage interface {
	// Value operations
	Get(key string) (protocol.Frame, bool)
	Set(key string, value protocol.Frame, expiry *time.Time) error
	Del(keys ...string) int64
	Exists(keys ...string) int64

	// Expiration operations
	Expire(key string, expiry time.Time) bool
	Persist(key string) bool
	TTL(key string) time.Duration

	// Key operations
	Keys(pattern string) []string
	KeyCount() int64
	FlushAll() error

	// Type returns the Redis type name of the value, or "none"
	Type(key string) string

	// Info and stats
	Info() map[string]interface{}

	// Shutdown
	Close() error
}

// StorageObserver provides hooks for storage events. Hooks run on the
// goroutine that caused the event, after the shard lock is released.
type StorageObserver interface {
	OnKeySet(key string, value protocol.Frame)
	OnKeyDeleted(key string)
	OnKeyExpired(key string)
}

// CleanupConfig holds configuration for incremental expiry cleanup
type CleanupConfig struct {
	// SampleSize is the number of keys to sample per round
	SampleSize int
	// MaxRounds is the maximum number of rounds per shard and cycle
	MaxRounds int
	// ExpiredThreshold continues cleanup if this share of sampled keys expired
	ExpiredThreshold float64
}

// CleanupConfigDefault mirrors the Redis active expiry cycle
var CleanupConfigDefault = CleanupConfig{
	SampleSize:       20,
	MaxRounds:        4,
	ExpiredThreshold: 0.25,
}

// CleanupConfigLowLatency keeps each cleanup cycle short
var CleanupConfigLowLatency = CleanupConfig{
	SampleSize:       10,
	MaxRounds:        2,
	ExpiredThreshold: 0.5,
}
