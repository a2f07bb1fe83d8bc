package protocol

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{"0", 0, true},
		{"7", 7, true},
		{"1024", 1024, true},
		{"-1", -1, true},
		{"9223372036854775807", math.MaxInt64, true},
		{"9223372036854775808", 0, false},
		{"", 0, false},
		{"00", 0, false},
		{"01", 0, false},
		{"+1", 0, false},
		{"-2", 0, false},
		{"-0", 0, false},
		{"1a", 0, false},
		{" 1", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseLength([]byte(tt.input))
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseLength(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseInteger(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		err   error
	}{
		{"0", 0, nil},
		{"-0", 0, nil},
		{"+15", 15, nil},
		{"-15", -15, nil},
		{"007", 7, nil},
		{"9223372036854775807", math.MaxInt64, nil},
		{"-9223372036854775808", math.MinInt64, nil},
		{"9223372036854775808", 0, strconv.ErrRange},
		{"-9223372036854775809", 0, strconv.ErrRange},
		{"99999999999999999999", 0, strconv.ErrRange},
		{"", 0, strconv.ErrSyntax},
		{"-", 0, strconv.ErrSyntax},
		{"+", 0, strconv.ErrSyntax},
		{"1.5", 0, strconv.ErrSyntax},
		{"--1", 0, strconv.ErrSyntax},
	}

	for _, tt := range tests {
		got, err := parseInteger([]byte(tt.input))
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("parseInteger(%q) = (%d, %v), want (%d, %v)", tt.input, got, err, tt.want, tt.err)
		}
	}
}

func TestParseDouble(t *testing.T) {
	valid := map[string]float64{
		"0":       0,
		"-0.5":    -0.5,
		"+2":      2,
		"1.25":    1.25,
		"1e3":     1000,
		"1E-2":    0.01,
		"1.5e+2":  150,
		"007.5":   7.5,
		"inf":     math.Inf(1),
		"+inf":    math.Inf(1),
		"-inf":    math.Inf(-1),
		"2.5e-07": 2.5e-7,
	}
	for input, want := range valid {
		got, ok := parseDouble([]byte(input))
		if !ok || got != want {
			t.Errorf("parseDouble(%q) = (%v, %v), want %v", input, got, ok, want)
		}
	}

	if got, ok := parseDouble([]byte("nan")); !ok || !math.IsNaN(got) {
		t.Errorf("parseDouble(nan) = (%v, %v)", got, ok)
	}

	invalid := []string{"", ".", "1.", ".5", "1e", "1e+", "e5", "--1", "1..2", "0x10", "Infinity", "NaN", "1e400", "-1e400", " 1", "1_000"}
	for _, input := range invalid {
		if got, ok := parseDouble([]byte(input)); ok {
			t.Errorf("parseDouble(%q) = %v, want failure", input, got)
		}
	}
}

func TestAppendDoubleRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 0.1, 1.0 / 3, math.Pi, 1e21, 1e-21, math.MaxFloat64, math.SmallestNonzeroFloat64}
	for _, v := range values {
		text := appendDouble(nil, v)
		got, ok := parseDouble(text)
		if !ok || got != v {
			t.Errorf("parseDouble(appendDouble(%v)) = (%v, %v) from %q", v, got, ok, text)
		}
	}
}
