package storage

// MatchPattern reports whether key matches a Redis glob pattern:
//
//	*      any run of bytes, including none
//	?      exactly one byte
//	[abc]  one byte from the set, [^abc] one byte outside it
//	[a-z]  one byte from the range
//	\x     the literal byte x
//
// An empty pattern matches nothing but the empty key.
func MatchPattern(key, pattern string) bool {
	// Backtrack to the most recent star only; earlier stars never need to
	// be revisited.
	k, p := 0, 0
	starP, starK := -1, 0
	for k < len(key) {
		if p < len(pattern) {
			switch c := pattern[p]; c {
			case '*':
				for p < len(pattern) && pattern[p] == '*' {
					p++
				}
				if p == len(pattern) {
					return true
				}
				starP, starK = p, k
				continue
			case '?':
				p++
				k++
				continue
			case '[':
				if ok, next := matchClass(key[k], pattern, p); ok {
					p = next
					k++
					continue
				}
			case '\\':
				if p+1 < len(pattern) {
					if pattern[p+1] == key[k] {
						p += 2
						k++
						continue
					}
					break
				}
				fallthrough
			default:
				if c == key[k] {
					p++
					k++
					continue
				}
			}
		}
		if starP < 0 {
			return false
		}
		starK++
		p, k = starP, starK
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchClass matches c against the bracket expression starting at
// pattern[p]. It returns whether c matched and the offset after the class.
// An unterminated class extends to the end of the pattern.
func matchClass(c byte, pattern string, p int) (bool, int) {
	p++
	negate := false
	if p < len(pattern) && pattern[p] == '^' {
		negate = true
		p++
	}

	matched := false
	for p < len(pattern) && pattern[p] != ']' {
		switch {
		case pattern[p] == '\\' && p+1 < len(pattern):
			if pattern[p+1] == c {
				matched = true
			}
			p += 2
		case p+2 < len(pattern) && pattern[p+1] == '-' && pattern[p+2] != ']':
			lo, hi := pattern[p], pattern[p+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			p += 3
		default:
			if pattern[p] == c {
				matched = true
			}
			p++
		}
	}
	if p < len(pattern) {
		p++ // closing bracket
	}

	return matched != negate, p
}
