// Package protocol defines the message set exchanged between nodes and the
// bootstrap node, and its line-delimited JSON wire encoding.
//
// # Messages
//
// A Message is a closed tagged union: Join, Ping, Pong, Store, Lookup,
// FileRequest, FileData and Ack. Constructors build each variant:
//
//	protocol.Store("alpha", "1")
//	protocol.Lookup("alpha")
//	protocol.LookupResult("alpha", "1") // Store-shaped reply to a Lookup hit
//
// # Wire Format
//
// Each message is one externally tagged JSON value followed by '\n':
//
//	"Ack"
//	{"Store":{"key":"alpha","value":"1"}}
//	{"FileData":{"data":[0,255,10],"file_id":"f1"}}
//
// FileData payloads are arrays of integers, so arbitrary bytes round-trip
// and never introduce a raw newline into the frame. Decoding rejects unknown
// tags and unknown or missing fields.
//
// # Errors
//
// Failures are marked with ErrConnect, ErrIO, ErrDecode or ErrAccept and can
// be classified with errors.Is.
package protocol
