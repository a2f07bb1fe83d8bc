// Package storage provides the keyspace served by the respkit server.
//
// Values are stored as protocol frames, so whatever a client or a script
// writes is returned exactly, RESP3 types included. Keys are spread over
// independently locked shards chosen by xxhash.
//
// Basic usage:
//
//	s := storage.NewMemory(storage.WithShardCount(32))
//	defer s.Close()
//	err := s.Set("key", protocol.BulkString("value"), nil)
//	value, exists := s.Get("key")
//
// The package supports:
//   - Thread-safe operations
//   - Lazy and sampled background expiration
//   - Redis glob patterns for key enumeration
//   - Observers for keyspace events
package storage
