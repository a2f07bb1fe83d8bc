/*
Package client provides a minimal RESP client connection.

A Client owns one TCP (or TLS) connection. Dial negotiates the protocol
version with HELLO, authenticating and naming the connection in the same
round trip. Servers that do not know HELLO are still served over RESP2, with
AUTH and CLIENT SETNAME sent separately.

	c, err := client.Dial(ctx, "localhost:6379",
		client.WithProtocol(protocol.RESP3),
		client.WithPassword("secret"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	reply, err := c.Do(ctx, "GET", "key")

Error replies are returned as a *ReplyError together with the reply frame.
Transport failures close the connection; every later call returns
ErrClosed.

A Client is safe for concurrent use. Calls are serialized on the
connection; use Pipeline to send several commands in one round trip.
*/
package client
