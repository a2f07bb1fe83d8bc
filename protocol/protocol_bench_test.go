package protocol

import (
	"bytes"
	"strconv"
	"testing"
	"testing/iotest"
)

// BenchmarkDecode benchmarks decoding single frames of each shape
func BenchmarkDecode(b *testing.B) {
	scenarios := []struct {
		name  string
		input []byte
	}{
		{"SimpleString", []byte("+OK\r\n")},
		{"Error", []byte("-ERR unknown command\r\n")},
		{"Integer", []byte(":1234567890\r\n")},
		{"Double", []byte(",3.141592653589793\r\n")},
		{"BulkString_1KB", MustEncode(BulkString(bytes.Repeat([]byte("x"), 1024)))},
		{"Command_SET", []byte("*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n")},
		{"Map_10", MustEncode(benchMap(10))},
		{"Nested_16", MustEncode(benchNested(16))},
	}

	for _, sc := range scenarios {
		b.Run(sc.name, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.input)))

			for i := 0; i < b.N; i++ {
				if _, _, err := Decode(sc.input); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkEncode benchmarks appending frames into a reused buffer
func BenchmarkEncode(b *testing.B) {
	scenarios := []struct {
		name  string
		frame Frame
	}{
		{"SimpleString", SimpleString("OK")},
		{"Integer", Integer(1234567890)},
		{"Double", Double(3.141592653589793)},
		{"BulkString_1KB", BulkString(bytes.Repeat([]byte("x"), 1024))},
		{"Command_SET", NewCommand("SET", "key", "value")},
		{"Map_10", benchMap(10)},
		{"Nested_16", benchNested(16)},
	}

	for _, sc := range scenarios {
		b.Run(sc.name, func(b *testing.B) {
			buf := make([]byte, 0, 4096)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				var err error
				if buf, err = AppendFrame(buf[:0], sc.frame); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkReaderPipeline benchmarks reading a pipeline of commands
func BenchmarkReaderPipeline(b *testing.B) {
	for _, size := range []int{10, 100} {
		input := buildPipeline(size)

		b.Run("SET_"+strconv.Itoa(size), func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(len(input)))

			for i := 0; i < b.N; i++ {
				r := NewReader(bytes.NewReader(input))
				for j := 0; j < size; j++ {
					if _, err := r.ReadFrame(); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}

// BenchmarkReaderByteByByte measures the cost of re-scanning a pending frame
// when the transport delivers one byte per read
func BenchmarkReaderByteByByte(b *testing.B) {
	scenarios := []struct {
		name  string
		input []byte
	}{
		{"Command_SET", MustEncode(NewCommand("SET", "key", "value"))},
		{"Array_100", MustEncode(benchIntegers(100))},
	}

	for _, sc := range scenarios {
		b.Run(sc.name, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.input)))

			for i := 0; i < b.N; i++ {
				r := NewReader(iotest.OneByteReader(bytes.NewReader(sc.input)))
				if _, err := r.ReadFrame(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkWriterBatch benchmarks writing batches of replies and downgrading
// them for RESP2 clients
func BenchmarkWriterBatch(b *testing.B) {
	scenarios := []struct {
		name      string
		version   int
		batchSize int
		frame     Frame
	}{
		{"RESP3_Integer_100", RESP3, 100, Integer(42)},
		{"RESP3_Map_10", RESP3, 10, benchMap(10)},
		{"RESP2_Map_10", RESP2, 10, benchMap(10)},
		{"RESP2_Set_10", RESP2, 10, Set(benchIntegers(10))},
	}

	for _, sc := range scenarios {
		b.Run(sc.name, func(b *testing.B) {
			var buf bytes.Buffer

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				buf.Reset()
				w := NewWriter(&buf)
				if err := w.SetProtocol(sc.version); err != nil {
					b.Fatal(err)
				}
				for j := 0; j < sc.batchSize; j++ {
					if err := w.WriteFrame(sc.frame); err != nil {
						b.Fatal(err)
					}
				}
				if err := w.Flush(); err != nil {
					b.Fatal(err)
				}
			}

			b.SetBytes(int64(buf.Len()))
		})
	}
}

func buildPipeline(size int) []byte {
	var buf []byte
	for i := 0; i < size; i++ {
		buf = append(buf, MustEncode(NewCommand("SET", "key"+strconv.Itoa(i), "value"))...)
	}
	return buf
}

func benchMap(n int) *Map {
	m := NewMap()
	for i := 0; i < n; i++ {
		m.Set("field"+strconv.Itoa(i), Integer(i))
	}
	return m
}

func benchIntegers(n int) Array {
	arr := make(Array, n)
	for i := range arr {
		arr[i] = Integer(i)
	}
	return arr
}

func benchNested(depth int) Frame {
	var f Frame = Integer(1)
	for i := 0; i < depth; i++ {
		f = Array{f, BulkString("x")}
	}
	return f
}
