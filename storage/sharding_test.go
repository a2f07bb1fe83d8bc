package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
)

// TestShardedStorageConcurrency tests concurrent access to sharded storage
func TestShardedStorageConcurrency(t *testing.T) {
	stor := NewMemory()
	defer func() { _ = stor.Close() }()

	numGoroutines := 50
	numOperations := 100

	var wg sync.WaitGroup

	t.Run("ConcurrentSet", func(t *testing.T) {
		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < numOperations; j++ {
					key := fmt.Sprintf("key_%d_%d", id, j)
					value := protocol.BulkString(fmt.Sprintf("value_%d_%d", id, j))
					if err := stor.Set(key, value, nil); err != nil {
						t.Errorf("Set failed: %v", err)
					}
				}
			}(i)
		}
		wg.Wait()
	})

	t.Run("ConcurrentGet", func(t *testing.T) {
		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < numOperations; j++ {
					key := fmt.Sprintf("key_%d_%d", id, j)
					want := protocol.BulkString(fmt.Sprintf("value_%d_%d", id, j))
					if got, ok := stor.Get(key); !ok || !protocol.Equal(got, want) {
						t.Errorf("Get(%s) = (%v, %v)", key, got, ok)
					}
				}
			}(i)
		}
		wg.Wait()
	})

	if count := stor.KeyCount(); count != int64(numGoroutines*numOperations) {
		t.Errorf("KeyCount() = %d, want %d", count, numGoroutines*numOperations)
	}
}

// TestShardedStorageMixedOperations runs writers, readers and deleters at once
func TestShardedStorageMixedOperations(t *testing.T) {
	stor := NewMemory(WithShardCount(4))
	defer func() { _ = stor.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = stor.Set(fmt.Sprintf("k%d", j%50), protocol.Integer(id), nil)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				stor.Get(fmt.Sprintf("k%d", j%50))
				stor.Exists(fmt.Sprintf("k%d", j%50))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				stor.Del(fmt.Sprintf("k%d", j))
				stor.Keys("k1*")
			}
		}()
	}
	wg.Wait()

	if count := stor.KeyCount(); count > 50 {
		t.Errorf("KeyCount() = %d, want at most 50", count)
	}
}

func TestMemoryOptions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []MemoryOption
		expected int
	}{
		{"default", nil, DefaultShardCount},
		{"exact power of two", []MemoryOption{WithShardCount(16)}, 16},
		{"rounded up", []MemoryOption{WithShardCount(17)}, 32},
		{"one", []MemoryOption{WithShardCount(1)}, 1},
		{"ignored zero", []MemoryOption{WithShardCount(0)}, DefaultShardCount},
		{"ignored negative", []MemoryOption{WithShardCount(-4)}, DefaultShardCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stor := NewMemory(append(tt.opts, WithCleanupInterval(0))...)
			defer func() { _ = stor.Close() }()

			if stor.ShardCount() != tt.expected {
				t.Errorf("ShardCount() = %d, want %d", stor.ShardCount(), tt.expected)
			}
			if stor.shardMask != uint64(tt.expected-1) {
				t.Errorf("shardMask = %d, want %d", stor.shardMask, tt.expected-1)
			}
		})
	}
}

func TestNextPowerOf2(t *testing.T) {
	tests := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 63: 64, 64: 64, 65: 128, 1000: 1024}
	for in, want := range tests {
		if got := nextPowerOf2(in); got != want {
			t.Errorf("nextPowerOf2(%d) = %d, want %d", in, got, want)
		}
	}
}

// TestShardDistribution checks that xxhash spreads keys over all shards
func TestShardDistribution(t *testing.T) {
	stor := NewMemory(WithShardCount(16), WithCleanupInterval(0))
	defer func() { _ = stor.Close() }()

	numKeys := 16000
	for i := 0; i < numKeys; i++ {
		if err := stor.Set(fmt.Sprintf("user:%d", i), protocol.Integer(i), nil); err != nil {
			t.Fatal(err)
		}
	}

	expected := numKeys / len(stor.shards)
	for i := range stor.shards {
		n := len(stor.shards[i].data)
		if n < expected/2 || n > expected*2 {
			t.Errorf("shard %d holds %d keys, expected about %d", i, n, expected)
		}
	}
}

// TestShardedCleanup runs the expiry cycle directly on a controlled clock
func TestShardedCleanup(t *testing.T) {
	stor := NewMemory(WithShardCount(4), WithCleanupInterval(0))
	defer func() { _ = stor.Close() }()

	base := time.Now()
	stor.now = func() time.Time { return base }

	expiry := base.Add(time.Minute)
	for i := 0; i < 400; i++ {
		if err := stor.Set(fmt.Sprintf("temp:%d", i), protocol.Integer(i), &expiry); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 10; i++ {
		if err := stor.Set(fmt.Sprintf("keep:%d", i), protocol.Integer(i), nil); err != nil {
			t.Fatal(err)
		}
	}

	stor.performCleanup()
	if count := stor.KeyCount(); count != 410 {
		t.Fatalf("KeyCount() = %d before expiry, want 410", count)
	}

	stor.now = func() time.Time { return base.Add(2 * time.Minute) }
	stor.SetCleanupConfig(CleanupConfig{SampleSize: 20, MaxRounds: 100, ExpiredThreshold: 0.2})

	for i := 0; i < 20 && stor.KeyCount() > 10; i++ {
		stor.performCleanup()
	}

	if count := stor.KeyCount(); count != 10 {
		t.Errorf("KeyCount() = %d after cleanup, want 10", count)
	}
	if got := stor.expiredKeys.Load(); got != 400 {
		t.Errorf("expiredKeys = %d, want 400", got)
	}
}

func TestFrameSize(t *testing.T) {
	small := frameSize(protocol.BulkString("ab"))
	large := frameSize(protocol.BulkString("abcdefgh"))
	if large-small != 6 {
		t.Errorf("frameSize difference = %d, want 6", large-small)
	}

	nested := frameSize(protocol.Array{protocol.BulkString("ab"), protocol.NewMap().Set("k", protocol.BulkString("ab"))})
	if nested <= 2*small {
		t.Errorf("frameSize(nested) = %d, want more than %d", nested, 2*small)
	}
}
