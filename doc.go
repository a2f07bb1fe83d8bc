// Package respkit provides an in-memory key/value node that speaks the Redis
// serialization protocol, versions 2 and 3.
//
// The protocol package holds the frame model and the codec used by the rest
// of the module; this package wires storage, Lua scripting and the TCP
// server into a Node.
//
// Basic usage:
//
//	node, err := respkit.New(
//		respkit.WithAddr(":6380"),
//		respkit.WithPassword("secret"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer node.Close()
//
//	if err := node.Start(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
//	// Values are frames; clients see them through GET, scripts and HELLO 3
//	_ = node.Storage().Set("greeting", protocol.BulkString("hello"), nil)
//
// The node supports:
//
//   - RESP2 and RESP3 clients, negotiated per connection with HELLO
//   - String keys with expiry (SET EX/PX, EXPIRE, TTL, PERSIST)
//   - Lua scripting with EVAL, EVALSHA and SCRIPT
//   - Structured logging through the Logger interface
//   - Keyspace statistics through Node.Stats and Node.Info
package respkit
