// Package lua provides Redis-compatible Lua script execution over frames.
//
// Scripts run in a fresh gopher-lua state per call with KEYS and ARGV set and
// a redis table exposing call, pcall, status_reply, error_reply and sha1hex.
// Commands issued by a script are handed to an Executor as parsed commands
// and their reply frames are converted to Lua values the way Redis does:
//
//	bulk string      -> string
//	integer          -> number
//	status reply     -> {ok = "..."}
//	error reply      -> {err = "..."} (raised by redis.call)
//	null             -> false
//	array, set       -> sequence table
//	map              -> {map = {...}}
//	double           -> {double = n}
//	boolean          -> boolean
//
// Script results are converted back with the same table conventions.
// Only the base, table, string and math libraries are loaded and file
// access through dofile, loadfile and require is removed.
package lua
