package api

import (
    "testing"
    "time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewBroker()
    topic := "backtracking"
    ch := b.Subscribe(topic)

    evt := Event{Type: "incumbent", Data: map[string]any{"costo": 12.5}}
    b.Publish(topic, evt)

    select {
    case got := <-ch:
        if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
        if got.Data["costo"].(float64) != 12.5 { t.Fatalf("bad payload: %+v", got.Data) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for event")
    }

    b.Unsubscribe(topic, ch)
    select {
    case _, ok := <-ch:
        if ok { t.Fatal("channel should be closed after unsubscribe") }
    case <-time.After(50 * time.Millisecond):
        // acceptable if already drained and closed
    }
}

func TestBrokerTopicsIsolated(t *testing.T) {
    b := NewBroker()
    chA := b.Subscribe("bellman_ford")
    chB := b.Subscribe("backtracking")
    defer b.Unsubscribe("bellman_ford", chA)
    defer b.Unsubscribe("backtracking", chB)

    b.Publish("backtracking", Event{Type: "started"})

    select {
    case <-chA:
        t.Fatal("event leaked to other topic")
    case <-time.After(50 * time.Millisecond):
    }
    select {
    case got := <-chB:
        if got.Type != "started" { t.Fatalf("got %s", got.Type) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout on subscribed topic")
    }
}

func TestBrokerDropsWhenSubscriberSlow(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe("backtracking")
    defer b.Unsubscribe("backtracking", ch)

    // Buffer is 8; publishing more must not block.
    done := make(chan struct{})
    go func() {
        for i := 0; i < 100; i++ {
            b.Publish("backtracking", Event{Type: "incumbent"})
        }
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("publish blocked on slow subscriber")
    }
}
