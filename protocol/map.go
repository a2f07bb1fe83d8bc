package protocol

import (
	"sort"
	"strings"
)

// MapEntry is a single key/value pair of a Map
type MapEntry struct {
	Key   string
	Value Frame
}

// Map is a RESP3 map from text keys to frames. Keys are unique and every
// iteration, including encoding, visits them in ascending byte order.
//
// A Map is built by the code that produces it; the codec never mutates a
// Map it has been handed.
type Map struct {
	entries map[string]Frame
}

// NewMap creates a map holding the given entries. Later entries replace
// earlier ones with the same key.
func NewMap(entries ...MapEntry) *Map {
	m := &Map{entries: make(map[string]Frame, len(entries))}
	for _, e := range entries {
		m.entries[e.Key] = e.Value
	}
	return m
}

func (*Map) Kind() Kind { return KindMap }
func (*Map) isFrame()   {}

// Set stores value under key and returns the map for chaining
func (m *Map) Set(key string, value Frame) *Map {
	if m.entries == nil {
		m.entries = make(map[string]Frame)
	}
	m.entries[key] = value
	return m
}

// Get returns the value stored under key
func (m *Map) Get(key string) (Frame, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.entries[key]
	return v, ok
}

// Delete removes key from the map
func (m *Map) Delete(key string) {
	if m != nil {
		delete(m.entries, key)
	}
}

// Len returns the number of entries
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the keys in ascending order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns the entries in ascending key order
func (m *Map) Entries() []MapEntry {
	keys := m.Keys()
	entries := make([]MapEntry, len(keys))
	for i, k := range keys {
		entries[i] = MapEntry{Key: k, Value: m.entries[k]}
	}
	return entries
}

// Range calls fn for each entry in ascending key order until fn returns false
func (m *Map) Range(fn func(key string, value Frame) bool) {
	for _, k := range m.Keys() {
		if !fn(k, m.entries[k]) {
			return
		}
	}
}

// String returns the entries in braces
func (m *Map) String() string {
	entries := m.Entries()
	parts := make([]string, len(entries))
	for i, e := range entries {
		value := "<nil>"
		if e.Value != nil {
			value = e.Value.String()
		}
		parts[i] = e.Key + ": " + value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
