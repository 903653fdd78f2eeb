// Package events provides an event stream of protocol activity on the
// bootstrap node.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventJoin is emitted when a node sends a Join message
	EventJoin EventType = "join"
	// EventStore is emitted after a Store message has been applied
	EventStore EventType = "store"
	// EventLookup is emitted after a Lookup message has been answered
	EventLookup EventType = "lookup"
	// EventDecodeError is emitted when a connection sent an undecodable line
	EventDecodeError EventType = "decode_error"
	// EventIOError is emitted when a connection failed mid-exchange
	EventIOError EventType = "io_error"
	// EventAcceptError is emitted when the listener failed to accept a connection
	EventAcceptError EventType = "accept_error"
)

// Event represents one protocol event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Peer      string    `json:"peer,omitempty"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	NodeID string `json:"node_id,omitempty"`
	Key    string `json:"key,omitempty"`
	Found  bool   `json:"found,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewJoinEvent creates a join event
func NewJoinEvent(peer, nodeID string) Event {
	return Event{
		Type:      EventJoin,
		Timestamp: time.Now(),
		Peer:      peer,
		Data:      EventData{NodeID: nodeID},
	}
}

// NewStoreEvent creates a store event. Values are not included.
func NewStoreEvent(peer, key string) Event {
	return Event{
		Type:      EventStore,
		Timestamp: time.Now(),
		Peer:      peer,
		Data:      EventData{Key: key},
	}
}

// NewLookupEvent creates a lookup event
func NewLookupEvent(peer, key string, found bool) Event {
	return Event{
		Type:      EventLookup,
		Timestamp: time.Now(),
		Peer:      peer,
		Data:      EventData{Key: key, Found: found},
	}
}

// NewErrorEvent creates a decode, io or accept error event
func NewErrorEvent(typ EventType, peer string, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      typ,
		Timestamp: time.Now(),
		Peer:      peer,
		Data:      EventData{Error: errMsg},
	}
}
