package respkit

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
	"github.com/raniellyferreira/respkit/storage"
)

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// Logger interface for custom logging implementations
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// MetricsCollector interface for metrics collection
type MetricsCollector interface {
	// RecordCommandProcessed records a processed command with its duration
	RecordCommandProcessed(cmd string, duration time.Duration)

	// RecordError records a command answered with an error reply
	RecordError(cmd string)

	// RecordConnection records a client connecting (open) or disconnecting
	RecordConnection(open bool)
}

// KeyspaceStats counts keyspace events of a node. It is registered as a
// storage observer.
type KeyspaceStats struct {
	mu sync.RWMutex

	KeysSet     int64
	KeysDeleted int64
	KeysExpired int64
	LastWrite   time.Time

	// SetsByType counts writes per Redis type name
	SetsByType map[string]int64
}

// OnKeySet implements storage.StorageObserver
func (s *KeyspaceStats) OnKeySet(_ string, value protocol.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.KeysSet++
	s.LastWrite = time.Now()
	if s.SetsByType == nil {
		s.SetsByType = make(map[string]int64)
	}
	s.SetsByType[storage.TypeName(value)]++
}

// OnKeyDeleted implements storage.StorageObserver
func (s *KeyspaceStats) OnKeyDeleted(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.KeysDeleted++
	s.LastWrite = time.Now()
}

// OnKeyExpired implements storage.StorageObserver
func (s *KeyspaceStats) OnKeyExpired(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.KeysExpired++
}

// GetKeysSet returns the number of writes (thread-safe)
func (s *KeyspaceStats) GetKeysSet() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.KeysSet
}

// GetKeysDeleted returns the number of deleted keys (thread-safe)
func (s *KeyspaceStats) GetKeysDeleted() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.KeysDeleted
}

// GetKeysExpired returns the number of expired keys (thread-safe)
func (s *KeyspaceStats) GetKeysExpired() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.KeysExpired
}

// GetSetsByType returns the writes for a Redis type name (thread-safe)
func (s *KeyspaceStats) GetSetsByType(typeName string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SetsByType[typeName]
}

func (s *KeyspaceStats) snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType := make(map[string]int64, len(s.SetsByType))
	for k, v := range s.SetsByType {
		byType[k] = v
	}
	return map[string]interface{}{
		"keys_set":     s.KeysSet,
		"keys_deleted": s.KeysDeleted,
		"keys_expired": s.KeysExpired,
		"last_write":   s.LastWrite,
		"sets_by_type": byType,
	}
}

// defaultLogger is a simple logger implementation using the standard log package
type defaultLogger struct{}

func (l *defaultLogger) Debug(msg string, fields ...Field) {
	l.logWithFields("DEBUG", msg, fields...)
}

func (l *defaultLogger) Info(msg string, fields ...Field) {
	l.logWithFields("INFO", msg, fields...)
}

func (l *defaultLogger) Error(msg string, fields ...Field) {
	l.logWithFields("ERROR", msg, fields...)
}

func (l *defaultLogger) logWithFields(level, msg string, fields ...Field) {
	logMsg := level + ": " + msg
	for _, field := range fields {
		logMsg += " " + field.Key + "=" + formatValue(field.Value)
	}
	log.Println(logMsg)
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", val)
	}
}
