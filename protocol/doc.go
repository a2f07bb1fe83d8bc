// Package protocol implements the Redis Serialization Protocol (RESP)
// versions 2 and 3 as a closed frame model and a byte-level codec.
//
// Every RESP value is a Frame. The set of frame types is closed: SimpleString,
// SimpleError, BulkError, Integer, BulkString, NullBulkString, Array,
// NullArray, Null, Boolean, Double, Map and Set.
//
// Encoding is deterministic. Map entries are always written in ascending key
// order, so the same frame always produces the same bytes:
//
//	data, err := protocol.Encode(protocol.Array{
//		protocol.BulkString("GET"),
//		protocol.BulkString("key"),
//	})
//
// Decoding works on a buffer that may hold only part of a frame, as delivered
// by a streaming transport. When the buffer does not yet contain a complete
// frame, Decode returns ErrIncomplete and consumes nothing:
//
//	frame, n, err := protocol.Decode(buf)
//	switch {
//	case errors.Is(err, protocol.ErrIncomplete):
//		// read more bytes and call Decode again on the same buffer
//	case err != nil:
//		// *MalformedError: the stream is broken, close the connection
//	default:
//		buf = buf[n:]
//		// process frame
//	}
//
// Reader and Writer wrap the codec for use over an io.Reader / io.Writer.
package protocol
