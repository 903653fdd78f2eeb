// Package client provides the outbound calls a node makes against the
// bootstrap node.
//
// Every call opens a fresh TCP connection, writes exactly one message,
// reads exactly one reply line and closes the connection.
//
// # Basic Usage
//
//	c := client.New("127.0.0.1:8080", client.WithDialTimeout(5*time.Second))
//
//	if _, err := c.Join(ctx, ""); err != nil { // empty id: random UUID
//	    log.Fatal(err)
//	}
//	if err := c.Store(ctx, "alpha", "1"); err != nil {
//	    log.Fatal(err)
//	}
//	value, found, err := c.Lookup(ctx, "alpha")
//
// Call sends an arbitrary message and returns the raw reply.
//
// # Errors
//
// Failures are marked with protocol.ErrConnect, protocol.ErrIO or
// protocol.ErrDecode. A reply of the wrong variant yields ErrUnexpectedReply.
// Nothing is retried; deadlines come from the context.
package client
