package storage

import (
	randv2 "math/rand/v2"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/raniellyferreira/respkit/protocol"
)

const (
	// DefaultShardCount is the number of shards used by NewMemory
	DefaultShardCount = 64

	// DefaultCleanupInterval is how often expired keys are sampled
	DefaultCleanupInterval = time.Second
)

// shard represents a single shard of data with its own lock
type shard struct {
	mu   sync.RWMutex
	data map[string]*entry
}

// MemoryStorage implements Storage with a fixed number of independently
// locked shards. Keys are assigned to shards by xxhash.
type MemoryStorage struct {
	// Guards observers and cleanupConfig
	mu            sync.RWMutex
	observers     []StorageObserver
	cleanupConfig CleanupConfig

	shards    []shard
	shardMask uint64

	// Background cleanup, disabled when cleanupInterval is 0
	cleanupInterval time.Duration
	cleanupStop     chan struct{}
	cleanupDone     chan struct{}
	closeOnce       sync.Once
	closed          atomic.Bool

	// Owned by the cleanup goroutine
	rng *randv2.Rand

	expiredKeys atomic.Int64
	now         func() time.Time
}

// MemoryOption is a function that configures a MemoryStorage instance
type MemoryOption func(*MemoryStorage)

// WithShardCount sets the number of shards for the storage.
// The number is rounded up to the next power of 2.
func WithShardCount(count int) MemoryOption {
	return func(s *MemoryStorage) {
		if count > 0 {
			s.shards = make([]shard, nextPowerOf2(count))
			s.shardMask = uint64(len(s.shards) - 1)
		}
	}
}

// WithCleanupConfig sets how aggressively expired keys are sampled
func WithCleanupConfig(config CleanupConfig) MemoryOption {
	return func(s *MemoryStorage) {
		s.cleanupConfig = config
	}
}

// WithCleanupInterval sets the period of the background expiry cycle.
// Zero disables it; expired keys are then only removed when accessed.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStorage) {
		if d >= 0 {
			s.cleanupInterval = d
		}
	}
}

// NewMemory creates a new in-memory storage instance with DefaultShardCount
// shards
func NewMemory(opts ...MemoryOption) *MemoryStorage {
	s := &MemoryStorage{
		shards:          make([]shard, DefaultShardCount),
		shardMask:       DefaultShardCount - 1,
		cleanupConfig:   CleanupConfigDefault,
		cleanupInterval: DefaultCleanupInterval,
		cleanupStop:     make(chan struct{}),
		cleanupDone:     make(chan struct{}),
		rng:             randv2.New(randv2.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	for i := range s.shards {
		s.shards[i].data = make(map[string]*entry)
	}

	if s.cleanupInterval > 0 {
		go s.cleanupExpiredKeys()
	} else {
		close(s.cleanupDone)
	}

	return s
}

// nextPowerOf2 returns the next power of 2 >= n
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// shardFor returns the shard that owns key
func (s *MemoryStorage) shardFor(key string) *shard {
	return &s.shards[xxhash.Sum64String(key)&s.shardMask]
}

// ShardCount returns the number of shards
func (s *MemoryStorage) ShardCount() int {
	return len(s.shards)
}

// Get retrieves a value by key
func (s *MemoryStorage) Get(key string) (protocol.Frame, bool) {
	sh := s.shardFor(key)

	sh.mu.RLock()
	e, exists := sh.data[key]
	if !exists {
		sh.mu.RUnlock()
		return nil, false
	}
	if e.isExpired(s.now()) {
		sh.mu.RUnlock()
		s.deleteExpiredKey(key)
		return nil, false
	}
	value := e.value
	sh.mu.RUnlock()

	return value, true
}

// Set stores a value with optional expiration, replacing any previous value
// and its expiry
func (s *MemoryStorage) Set(key string, value protocol.Frame, expiry *time.Time) error {
	if value == nil {
		return ErrNilValue
	}
	if s.closed.Load() {
		return ErrClosed
	}

	e := &entry{value: value}
	if expiry != nil {
		at := *expiry
		e.expiry = &at
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.data[key] = e
	sh.mu.Unlock()

	for _, observer := range s.snapshotObservers() {
		observer.OnKeySet(key, value)
	}
	return nil
}

// Del deletes one or more keys and returns how many existed
func (s *MemoryStorage) Del(keys ...string) int64 {
	now := s.now()
	deleted := make([]string, 0, len(keys))

	for _, key := range keys {
		sh := s.shardFor(key)
		sh.mu.Lock()
		if e, exists := sh.data[key]; exists {
			delete(sh.data, key)
			if !e.isExpired(now) {
				deleted = append(deleted, key)
			}
		}
		sh.mu.Unlock()
	}

	observers := s.snapshotObservers()
	for _, key := range deleted {
		for _, observer := range observers {
			observer.OnKeyDeleted(key)
		}
	}
	return int64(len(deleted))
}

// Exists counts the given keys that exist. A key named twice counts twice.
func (s *MemoryStorage) Exists(keys ...string) int64 {
	now := s.now()
	count := int64(0)

	for _, key := range keys {
		sh := s.shardFor(key)
		sh.mu.RLock()
		if e, exists := sh.data[key]; exists && !e.isExpired(now) {
			count++
		}
		sh.mu.RUnlock()
	}

	return count
}

// Expire sets the expiration time of an existing key
func (s *MemoryStorage) Expire(key string, expiry time.Time) bool {
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, exists := sh.data[key]
	if !exists || e.isExpired(s.now()) {
		return false
	}

	e.expiry = &expiry
	return true
}

// Persist removes the expiration of a key. It reports whether an expiry was
// removed.
func (s *MemoryStorage) Persist(key string) bool {
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, exists := sh.data[key]
	if !exists || e.expiry == nil || e.isExpired(s.now()) {
		return false
	}

	e.expiry = nil
	return true
}

// TTL returns the remaining time to live of a key, TTLNoExpiry for keys
// without expiry and TTLKeyMissing for missing keys
func (s *MemoryStorage) TTL(key string) time.Duration {
	sh := s.shardFor(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	now := s.now()
	e, exists := sh.data[key]
	if !exists || e.isExpired(now) {
		return TTLKeyMissing
	}
	if e.expiry == nil {
		return TTLNoExpiry
	}
	return e.expiry.Sub(now)
}

// Keys returns all live keys matching the glob pattern, in ascending order.
// An empty pattern matches every key.
func (s *MemoryStorage) Keys(pattern string) []string {
	now := s.now()
	matchAll := pattern == "" || pattern == "*"
	keys := make([]string, 0)

	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for key, e := range sh.data {
			if e.isExpired(now) {
				continue
			}
			if matchAll || MatchPattern(key, pattern) {
				keys = append(keys, key)
			}
		}
		sh.mu.RUnlock()
	}

	sort.Strings(keys)
	return keys
}

// KeyCount returns the number of keys held, including expired keys that
// have not been removed yet
func (s *MemoryStorage) KeyCount() int64 {
	count := int64(0)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		count += int64(len(sh.data))
		sh.mu.RUnlock()
	}
	return count
}

// FlushAll removes all keys
func (s *MemoryStorage) FlushAll() error {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.data = make(map[string]*entry)
		sh.mu.Unlock()
	}
	return nil
}

// Type returns the Redis type name of a key, or "none" if it does not exist
func (s *MemoryStorage) Type(key string) string {
	value, ok := s.Get(key)
	if !ok {
		return "none"
	}
	return TypeName(value)
}

// MemoryUsage estimates the bytes held by keys and values
func (s *MemoryStorage) MemoryUsage() int64 {
	usage := int64(0)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for key, e := range sh.data {
			usage += int64(len(key)) + frameSize(e.value)
		}
		sh.mu.RUnlock()
	}
	return usage
}

// Info returns storage information
func (s *MemoryStorage) Info() map[string]interface{} {
	now := s.now()
	keys, expires := int64(0), int64(0)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		keys += int64(len(sh.data))
		for _, e := range sh.data {
			if e.expiry != nil && !e.isExpired(now) {
				expires++
			}
		}
		sh.mu.RUnlock()
	}

	return map[string]interface{}{
		"keys":         keys,
		"expires":      expires,
		"expired_keys": s.expiredKeys.Load(),
		"memory_usage": s.MemoryUsage(),
		"shards":       len(s.shards),
	}
}

// Close stops the background cleanup. Reads keep working; writes fail with
// ErrClosed.
func (s *MemoryStorage) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.cleanupStop)
	})
	<-s.cleanupDone
	return nil
}

// AddObserver adds a storage observer
func (s *MemoryStorage) AddObserver(observer StorageObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// SetCleanupConfig updates the cleanup configuration
func (s *MemoryStorage) SetCleanupConfig(config CleanupConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupConfig = config
}

// GetCleanupConfig returns the current cleanup configuration
func (s *MemoryStorage) GetCleanupConfig() CleanupConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cleanupConfig
}

func (s *MemoryStorage) snapshotObservers() []StorageObserver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observers
}

// cleanupExpiredKeys runs in background to clean up expired keys
func (s *MemoryStorage) cleanupExpiredKeys() {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.cleanupStop:
			return
		case <-ticker.C:
			s.performCleanup()
		}
	}
}

// performCleanup removes expired keys by sampling every shard
func (s *MemoryStorage) performCleanup() {
	config := s.GetCleanupConfig()
	if config.SampleSize <= 0 || config.MaxRounds <= 0 {
		return
	}

	for i := range s.shards {
		s.cleanupShard(&s.shards[i], config)
	}
}

// cleanupShard samples a shard repeatedly while a large enough share of the
// sample turns out to be expired
func (s *MemoryStorage) cleanupShard(sh *shard, config CleanupConfig) {
	for round := 0; round < config.MaxRounds; round++ {
		expired := s.sampleExpired(sh, config.SampleSize)
		if len(expired) == 0 {
			return
		}

		s.deleteExpired(sh, expired)

		if float64(len(expired))/float64(config.SampleSize) < config.ExpiredThreshold {
			return
		}
		runtime.Gosched()
	}
}

// sampleExpired picks up to sampleSize keys of a shard with reservoir
// sampling and returns the expired ones
func (s *MemoryStorage) sampleExpired(sh *shard, sampleSize int) []string {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	if len(sh.data) == 0 {
		return nil
	}

	sample := make([]string, 0, min(sampleSize, len(sh.data)))
	i := 0
	for key := range sh.data {
		if i < sampleSize {
			sample = append(sample, key)
		} else if j := s.rng.IntN(i + 1); j < sampleSize {
			sample[j] = key
		}
		i++
	}

	now := s.now()
	expired := sample[:0]
	for _, key := range sample {
		if sh.data[key].isExpired(now) {
			expired = append(expired, key)
		}
	}
	return expired
}

// deleteExpired removes keys that are still expired under the write lock
func (s *MemoryStorage) deleteExpired(sh *shard, keys []string) {
	now := s.now()
	removed := make([]string, 0, len(keys))

	sh.mu.Lock()
	for _, key := range keys {
		if e, exists := sh.data[key]; exists && e.isExpired(now) {
			delete(sh.data, key)
			removed = append(removed, key)
		}
	}
	sh.mu.Unlock()

	s.notifyExpired(removed)
}

// deleteExpiredKey removes a single key found expired on access
func (s *MemoryStorage) deleteExpiredKey(key string) {
	s.deleteExpired(s.shardFor(key), []string{key})
}

func (s *MemoryStorage) notifyExpired(keys []string) {
	if len(keys) == 0 {
		return
	}
	s.expiredKeys.Add(int64(len(keys)))

	observers := s.snapshotObservers()
	for _, key := range keys {
		for _, observer := range observers {
			observer.OnKeyExpired(key)
		}
	}
}

var _ Storage = (*MemoryStorage)(nil)
