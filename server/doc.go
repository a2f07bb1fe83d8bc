// Package server serves a storage.Storage to Redis clients over TCP.
//
// Each connection gets its own goroutine with a protocol.Reader and
// protocol.Writer. Connections start on RESP2 and switch with HELLO 3;
// replies are built as frames and downgraded by the writer for RESP2
// clients. The server supports:
//   - Connection commands (AUTH, HELLO, PING, ECHO, QUIT, SELECT 0, CLIENT)
//   - Keyspace commands (GET, SET with EX/PX/EXAT/PXAT/NX/XX/GET/KEEPTTL,
//     DEL, EXISTS, TYPE, EXPIRE, PEXPIRE, TTL, PTTL, PERSIST, DBSIZE, KEYS,
//     FLUSHALL, FLUSHDB, INFO)
//   - Lua scripting (EVAL, EVALSHA, SCRIPT LOAD, SCRIPT EXISTS, SCRIPT FLUSH)
//
// Scripts run exclusively: no other command executes while a script does.
// The Server is the script executor, so redis.call reaches the same command
// table as clients do.
package server
