package storage

import "testing"

// Test cases for Redis glob matching
var matchTestCases = []struct {
	name     string
	str      string
	pattern  string
	expected bool
}{
	// Empty patterns
	{"empty pattern, empty string", "", "", true},
	{"empty pattern, non-empty string", "test", "", false},
	{"non-empty pattern, empty string", "", "test", false},

	// Exact matches
	{"exact match", "hello", "hello", true},
	{"exact match case sensitive", "Hello", "hello", false},
	{"exact match different", "hello", "world", false},

	// Single wildcard pattern "*"
	{"single wildcard, non-empty string", "test", "*", true},
	{"single wildcard, empty string", "", "*", true},

	// Prefix and suffix patterns
	{"prefix match", "hello world", "hello*", true},
	{"prefix no match", "hi world", "hello*", false},
	{"prefix exact", "hello", "hello*", true},
	{"suffix match", "hello world", "*world", true},
	{"suffix no match", "hello universe", "*world", false},
	{"suffix exact", "world", "*world", true},

	// Middle wildcard patterns
	{"middle wildcard match", "hello world", "hello*world", true},
	{"middle wildcard no match", "hello universe", "hello*world", false},
	{"middle wildcard empty middle", "helloworld", "hello*world", true},

	// Single character wildcard (?)
	{"single char wildcard", "hello", "hell?", true},
	{"single char wildcard no match", "hello", "hell??", false},
	{"single char wildcard multiple", "hello", "h?ll?", true},

	// Multiple wildcards
	{"multiple wildcards", "hello world test", "hello*world*", true},
	{"multiple wildcards no match", "hello universe test", "hello*world*", false},
	{"mixed wildcards", "hello world", "h?llo*", true},
	{"backtracking", "aaab", "*a*b", true},
	{"backtracking no match", "aaa", "*a*b", false},

	// Character classes
	{"class match", "hallo", "h[ae]llo", true},
	{"class no match", "hillo", "h[ae]llo", false},
	{"negated class", "hillo", "h[^e]llo", true},
	{"negated class no match", "hello", "h[^e]llo", false},
	{"range", "key7", "key[0-9]", true},
	{"range no match", "keyx", "key[0-9]", false},
	{"reversed range", "key7", "key[9-0]", true},
	{"escaped bracket in class", "a]", "a[\\]]", true},
	{"unterminated class", "ab", "a[b", true},

	// Escapes
	{"escaped star", "a*", "a\\*", true},
	{"escaped star literal only", "ab", "a\\*", false},
	{"escaped question mark", "a?", "a\\?", true},
	{"trailing backslash", "a\\", "a\\", true},

	// Edge cases
	{"only stars", "anything", "***", true},
	{"only question marks", "abc", "???", true},
	{"only question marks no match", "abcd", "???", false},
	{"pattern longer than string", "hi", "hello", false},
	{"string longer than pattern", "hello", "hi", false},

	// Real-world Redis key patterns
	{"redis key prefix", "user:123:profile", "user:*", true},
	{"redis key suffix", "user:123:profile", "*:profile", true},
	{"redis key middle", "user:123:profile", "user:*:profile", true},
	{"redis key complex", "cache:user:123:data", "cache:*:*:data", true},
	{"redis key slash", "path/to/key", "path*key", true},
}

func TestMatchPattern(t *testing.T) {
	for _, tc := range matchTestCases {
		t.Run(tc.name, func(t *testing.T) {
			result := MatchPattern(tc.str, tc.pattern)
			if result != tc.expected {
				t.Errorf("MatchPattern(%q, %q) = %v, expected %v",
					tc.str, tc.pattern, result, tc.expected)
			}
		})
	}
}

func BenchmarkMatchPattern(b *testing.B) {
	patterns := []string{"user:*", "*:profile", "user:*:profile", "user:[0-9]*", "u?er:*:p*e"}
	key := "user:123456:profile"

	for _, pattern := range patterns {
		b.Run(pattern, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				MatchPattern(key, pattern)
			}
		})
	}
}
