package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}
}

func recvMessage(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case msg := <-client.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub)
	client2 := mockClient(hub)
	hub.register <- client1
	hub.register <- client2

	hub.Broadcast(Event{Type: "kitchen.ticket", Payload: json.RawMessage(`{"quantity":3}`)})

	for _, client := range []*Client{client1, client2} {
		var event Event
		if err := json.Unmarshal(recvMessage(t, client), &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if event.Type != "kitchen.ticket" {
			t.Errorf("event type: got %q, want kitchen.ticket", event.Type)
		}
	}
}

func TestUnregisteredClientStopsReceiving(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)
	hub.register <- client
	hub.unregister <- client

	// Unregister closes the send channel.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected closed channel, got a message")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Unbuffered send channel that nobody reads: first broadcast cannot
	// be delivered, so the hub must evict the client.
	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.register <- slow

	hub.Broadcast(Event{Type: "kitchen.ticket", Payload: json.RawMessage(`{}`)})

	select {
	case _, ok := <-slow.send:
		if ok {
			t.Fatal("expected closed channel, got a message")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for eviction")
	}
}
