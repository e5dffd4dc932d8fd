// Package webhooks delivers signed run notifications to an external URL.
package webhooks

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "sync"
    "time"
)

type delivery struct {
    eventType string
    payload   []byte
    attempts  int
    notBefore time.Time
}

// Notifier posts events to a single configured endpoint, signing each body
// with the shared secret. Failed deliveries are retried with exponential
// backoff up to MaxAttempts.
type Notifier struct {
    URL         string
    Secret      string
    HTTP        *http.Client
    MaxAttempts int
    Stop        chan struct{}

    mu      sync.Mutex
    pending []*delivery
}

func NewNotifier(url, secret string, maxAttempts int) *Notifier {
    if maxAttempts < 1 {
        maxAttempts = 1
    }
    return &Notifier{
        URL:         url,
        Secret:      secret,
        HTTP:        &http.Client{Timeout: 5 * time.Second},
        MaxAttempts: maxAttempts,
        Stop:        make(chan struct{}),
    }
}

// Start launches the delivery loop. Call Stop's close via Close to end it.
func (n *Notifier) Start() {
    go func() {
        ticker := time.NewTicker(1 * time.Second)
        defer ticker.Stop()
        for {
            select {
            case <-n.Stop:
                return
            case <-ticker.C:
                n.processOnce(time.Now())
            }
        }
    }()
}

func (n *Notifier) Close() { close(n.Stop) }

// Emit queues an event for delivery. The payload wraps data with an id,
// event type and timestamp.
func (n *Notifier) Emit(eventType string, data any) {
    payload := map[string]any{
        "id":    fmt.Sprintf("evt_%d", time.Now().UnixNano()),
        "tipo":  eventType,
        "ts":    time.Now().UTC().Format(time.RFC3339),
        "datos": data,
    }
    body, err := json.Marshal(payload)
    if err != nil {
        log.Printf("webhooks: marshal %s event: %v", eventType, err)
        return
    }
    n.mu.Lock(); defer n.mu.Unlock()
    n.pending = append(n.pending, &delivery{eventType: eventType, payload: body, notBefore: time.Now()})
}

func (n *Notifier) processOnce(now time.Time) {
    n.mu.Lock()
    var due, later []*delivery
    for _, d := range n.pending {
        if d.notBefore.After(now) {
            later = append(later, d)
        } else {
            due = append(due, d)
        }
    }
    n.pending = later
    n.mu.Unlock()
    if len(due) == 0 {
        return
    }

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    for _, d := range due {
        if n.attempt(ctx, d) {
            continue
        }
        d.attempts++
        if d.attempts >= n.MaxAttempts {
            log.Printf("webhooks: dropping %s event after %d attempts", d.eventType, d.attempts)
            continue
        }
        d.notBefore = now.Add(nextBackoff(d.attempts))
        n.mu.Lock()
        n.pending = append(n.pending, d)
        n.mu.Unlock()
    }
}

func (n *Notifier) attempt(ctx context.Context, d *delivery) bool {
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(d.payload))
    if err != nil {
        return false
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Event-Type", d.eventType)
    if n.Secret != "" {
        req.Header.Set("X-Signature", SignHMAC(n.Secret, d.payload))
    }
    resp, err := n.HTTP.Do(req)
    if err != nil {
        return false
    }
    if resp.Body != nil {
        _ = resp.Body.Close()
    }
    return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func nextBackoff(attempts int) time.Duration {
    if attempts < 0 {
        attempts = 0
    }
    if attempts > 10 {
        attempts = 10
    }
    base := time.Second * time.Duration(1<<attempts)
    if base > time.Hour {
        base = time.Hour
    }
    return base
}
