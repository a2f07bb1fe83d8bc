package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
)

func benchStorage(b *testing.B, keys int, opts ...MemoryOption) *MemoryStorage {
	b.Helper()
	s := NewMemory(append(opts, WithCleanupInterval(0))...)
	b.Cleanup(func() { _ = s.Close() })
	for i := 0; i < keys; i++ {
		if err := s.Set(fmt.Sprintf("key:%d", i), protocol.BulkString("value"), nil); err != nil {
			b.Fatal(err)
		}
	}
	return s
}

// BenchmarkStorageGet benchmarks reads of existing and missing keys
func BenchmarkStorageGet(b *testing.B) {
	s := benchStorage(b, 10000)

	b.Run("Hit", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			s.Get("key:42")
		}
	})
	b.Run("Miss", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			s.Get("missing")
		}
	})
}

// BenchmarkStorageSet benchmarks writes with and without expiry
func BenchmarkStorageSet(b *testing.B) {
	s := benchStorage(b, 0)
	value := protocol.BulkString("value")
	expiry := time.Now().Add(time.Hour)

	b.Run("NoExpiry", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = s.Set("key", value, nil)
		}
	})
	b.Run("WithExpiry", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = s.Set("key", value, &expiry)
		}
	})
}

// BenchmarkStorageKeys benchmarks sorted key enumeration
func BenchmarkStorageKeys(b *testing.B) {
	s := benchStorage(b, 10000)

	for _, pattern := range []string{"*", "key:1*", "key:[0-4]?"} {
		b.Run(pattern, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s.Keys(pattern)
			}
		})
	}
}

// BenchmarkStorageConcurrentMixed benchmarks parallel reads and writes over
// different shard counts
func BenchmarkStorageConcurrentMixed(b *testing.B) {
	for _, shards := range []int{1, 16, 64, 256} {
		b.Run(fmt.Sprintf("Shards_%d", shards), func(b *testing.B) {
			s := benchStorage(b, 1000, WithShardCount(shards))
			value := protocol.BulkString("value")

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					key := fmt.Sprintf("key:%d", i%1000)
					if i%10 == 0 {
						_ = s.Set(key, value, nil)
					} else {
						s.Get(key)
					}
					i++
				}
			})
		})
	}
}
