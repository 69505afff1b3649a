package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastEventReachesOwnerOnly(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	ownerA := uuid.New()
	ownerB := uuid.New()

	clientA := &Client{Hub: hub, OwnerID: ownerA, Send: make(chan []byte, 1)}
	clientB := &Client{Hub: hub, OwnerID: ownerB, Send: make(chan []byte, 1)}
	hub.register <- clientA
	hub.register <- clientB

	hub.BroadcastEvent(ownerA, "payment.verified", map[string]string{"invoice_no": "INV-WH1-202608-0001"})

	select {
	case msg := <-clientA.Send:
		assert.Contains(t, string(msg), "payment.verified")
		assert.Contains(t, string(msg), "INV-WH1-202608-0001")
	case <-time.After(time.Second):
		t.Fatal("expected the owner's client to receive the event")
	}

	select {
	case msg := <-clientB.Send:
		t.Fatalf("event leaked to another owner's client: %s", msg)
	default:
	}
}

func TestBroadcastEventMultipleClientsSameOwner(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	owner := uuid.New()
	first := &Client{Hub: hub, OwnerID: owner, Send: make(chan []byte, 1)}
	second := &Client{Hub: hub, OwnerID: owner, Send: make(chan []byte, 1)}
	hub.register <- first
	hub.register <- second

	hub.BroadcastEvent(owner, "payment.slip_received", nil)

	for _, client := range []*Client{first, second} {
		select {
		case msg := <-client.Send:
			require.Contains(t, string(msg), "payment.slip_received")
		case <-time.After(time.Second):
			t.Fatal("expected every client of the owner to receive the event")
		}
	}
}
