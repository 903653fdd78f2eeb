package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"dhtshare/internal/events"
	"dhtshare/internal/metrics"
	"dhtshare/internal/store"
)

type fakeNode struct {
	addr    net.Addr
	metrics *metrics.Metrics
}

func (n *fakeNode) Addr() net.Addr            { return n.addr }
func (n *fakeNode) Metrics() *metrics.Metrics { return n.metrics }

func newTestServer(t *testing.T) (*Server, *fakeNode, *store.Store, *events.Bus, *httptest.Server) {
	t.Helper()

	node := &fakeNode{
		addr:    &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080},
		metrics: metrics.New(),
	}
	st := store.New()
	bus := events.NewBus()
	s := NewServer("127.0.0.1:0", node, st, bus)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, node, st, bus, ts
}

func TestStatus(t *testing.T) {
	_, _, st, _, ts := newTestServer(t)
	st.Put("alpha", "1")
	st.Put("beta", "2")

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "127.0.0.1:8080", status.Listen)
	assert.Equal(t, 2, status.Entries)
	assert.NotEmpty(t, status.Uptime)
}

func TestStatusBeforeListening(t *testing.T) {
	_, node, _, _, ts := newTestServer(t)
	node.addr = nil

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Empty(t, status.Listen)
}

func TestMetrics(t *testing.T) {
	_, node, _, _, ts := newTestServer(t)
	node.metrics.RecordRequest("Store", time.Millisecond)
	node.metrics.RecordRequest("Lookup", time.Millisecond)
	node.metrics.RecordLookup(false)
	node.metrics.RecordDecodeError()

	resp, err := http.Get(ts.URL + "/api/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap metrics.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, uint64(2), snap.TotalRequests)
	assert.Equal(t, uint64(1), snap.ByKind["Store"])
	assert.Equal(t, uint64(1), snap.LookupMisses)
	assert.Equal(t, uint64(1), snap.DecodeErrors)
}

func TestMethodAndRouteMatching(t *testing.T) {
	_, _, _, _, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/status", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/nothing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, err := websocket.Dial(url, "", ts.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestWebSocketStreamsEvents(t *testing.T) {
	_, _, _, bus, ts := newTestServer(t)
	ws := dialWS(t, ts)

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 },
		time.Second, 5*time.Millisecond)

	bus.Publish(events.NewStoreEvent("10.0.0.1:5000", "alpha"))
	bus.Publish(events.NewLookupEvent("10.0.0.1:5001", "alpha", true))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev events.Event
	require.NoError(t, websocket.JSON.Receive(ws, &ev))
	assert.Equal(t, events.EventStore, ev.Type)
	assert.Equal(t, "alpha", ev.Data.Key)

	require.NoError(t, websocket.JSON.Receive(ws, &ev))
	assert.Equal(t, events.EventLookup, ev.Type)
	assert.True(t, ev.Data.Found)
}

func TestWebSocketUnsubscribesOnDisconnect(t *testing.T) {
	_, _, _, bus, ts := newTestServer(t)
	ws := dialWS(t, ts)

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 },
		time.Second, 5*time.Millisecond)

	require.NoError(t, ws.Close())

	assert.Eventually(t, func() bool { return bus.SubscriberCount() == 0 },
		2*time.Second, 5*time.Millisecond)
}

func TestWebSocketClosedOnShutdown(t *testing.T) {
	s, _, _, bus, ts := newTestServer(t)
	ws := dialWS(t, ts)

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 },
		time.Second, 5*time.Millisecond)

	s.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg string
	err := websocket.Message.Receive(ws, &msg)
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return bus.SubscriberCount() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	node := &fakeNode{metrics: metrics.New()}
	s := NewServer("127.0.0.1:0", node, store.New(), nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/status")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestStartBadAddress(t *testing.T) {
	node := &fakeNode{metrics: metrics.New()}
	s := NewServer("256.0.0.1:http", node, nil, nil)

	err := s.Start(context.Background())
	assert.Error(t, err)
}
