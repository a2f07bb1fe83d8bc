package lua

import (
	"context"
	"strconv"
	"testing"
)

func BenchmarkLuaEngine_SimpleScript(b *testing.B) {
	engine, _ := newTestEngine(b)
	script := "return 'hello world'"
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Eval(ctx, script, nil, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLuaEngine_ScriptWithKeys(b *testing.B) {
	engine, _ := newTestEngine(b)
	script := "return KEYS[1] .. ':' .. ARGV[1]"
	keys := []string{"user"}
	args := []string{"123"}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Eval(ctx, script, keys, args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLuaEngine_RedisCommands(b *testing.B) {
	engine, _ := newTestEngine(b)
	script := "redis.call('SET', KEYS[1], ARGV[1]); return redis.call('GET', KEYS[1])"
	keys := []string{"benchkey"}
	args := []string{"benchvalue"}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Eval(ctx, script, keys, args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLuaEngine_EvalSHA(b *testing.B) {
	engine, _ := newTestEngine(b)
	sha, err := engine.LoadScript("return ARGV[1]")
	if err != nil {
		b.Fatal(err)
	}
	args := []string{"value"}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.EvalSHA(ctx, sha, nil, args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLuaEngine_TableResult(b *testing.B) {
	engine, _ := newTestEngine(b)
	script := "local t = {} for i = 1, 100 do t[i] = i end return t"
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Eval(ctx, script, nil, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLuaEngine_ManyKeys(b *testing.B) {
	engine, _ := newTestEngine(b)
	script := "for i = 1, #KEYS do redis.call('SET', KEYS[i], ARGV[1]) end return #KEYS"
	keys := make([]string, 50)
	for i := range keys {
		keys[i] = "key:" + strconv.Itoa(i)
	}
	args := []string{"v"}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Eval(ctx, script, keys, args); err != nil {
			b.Fatal(err)
		}
	}
}
