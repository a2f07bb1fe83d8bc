package protocol

import (
	"math"
	"strconv"
)

// parseLength parses a bulk length or aggregate count: plain ASCII digits
// without sign or leading zeros, or exactly "-1".
func parseLength(b []byte) (int64, bool) {
	if len(b) == 2 && b[0] == '-' && b[1] == '1' {
		return -1, true
	}
	if len(b) == 0 || (len(b) > 1 && b[0] == '0') {
		return 0, false
	}

	var n int64
	for _, c := range b {
		if !isDigit(c) {
			return 0, false
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

// parseInteger parses an int64 from a byte slice without allocation.
// An optional leading sign is followed by one or more digits.
func parseInteger(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, strconv.ErrSyntax
	}

	var neg bool
	var i int

	switch b[0] {
	case '-':
		neg = true
		i = 1
	case '+':
		i = 1
	}

	if i >= len(b) {
		return 0, strconv.ErrSyntax
	}

	limit := uint64(math.MaxInt64)
	if neg {
		limit++
	}

	var n uint64
	for ; i < len(b); i++ {
		if !isDigit(b[i]) {
			return 0, strconv.ErrSyntax
		}
		d := uint64(b[i] - '0')
		if n > (limit-d)/10 {
			return 0, strconv.ErrRange
		}
		n = n*10 + d
	}

	if neg {
		return -int64(n), nil
	}
	return int64(n), nil
}

// parseDouble parses the RESP3 double grammar:
//
//	[+|-]<digits>[.<digits>][(e|E)[+|-]<digits>]
//
// plus the special forms inf, +inf, -inf and nan. Finite text that does not
// fit a float64 is rejected.
func parseDouble(b []byte) (float64, bool) {
	switch string(b) {
	case "inf", "+inf":
		return math.Inf(1), true
	case "-inf":
		return math.Inf(-1), true
	case "nan":
		return math.NaN(), true
	}
	if !validDouble(b) {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func validDouble(b []byte) bool {
	i := 0
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		i++
	}
	if i = skipDigits(b, i); i < 0 {
		return false
	}
	if i < len(b) && b[i] == '.' {
		if i = skipDigits(b, i+1); i < 0 {
			return false
		}
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
		if i = skipDigits(b, i); i < 0 {
			return false
		}
	}
	return i == len(b)
}

// skipDigits returns the offset after a run of at least one digit starting
// at i, or -1 if there is none.
func skipDigits(b []byte, i int) int {
	start := i
	for i < len(b) && isDigit(b[i]) {
		i++
	}
	if i == start {
		return -1
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
