package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

const (
	// GenesisHash is the HashPrev of the first event in a chain.
	GenesisHash = "sha256:genesis"

	// HashPrefix is prepended to all hash values.
	HashPrefix = "sha256:"
)

// Writer persists audit events.
//
// Implementations must:
//   - Return an error if the write fails (audit fails = operation fails)
//   - Set HashPrev and Hash on the event before persisting it
//   - Flush to stable storage before returning from Write
type Writer interface {
	Write(event *Event) error
	Close() error

	// LastHash returns the hash of the last written event, or GenesisHash.
	LastHash() string
}

// NopWriter discards all events. Used when auditing is disabled.
type NopWriter struct{}

var _ Writer = NopWriter{}

func (NopWriter) Write(*Event) error { return nil }
func (NopWriter) Close() error       { return nil }
func (NopWriter) LastHash() string   { return GenesisHash }

// chain links events: HashPrev = previous Hash and
// Hash = SHA256(canonical JSON || HashPrev).
type chain struct {
	last string
}

func newChain(last string) chain {
	if last == "" {
		last = GenesisHash
	}
	return chain{last: last}
}

// seal sets HashPrev and Hash on event without advancing the chain.
func (c *chain) seal(event *Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	event.HashPrev = c.last
	canonical, err := event.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}
	event.Hash = chainHash(canonical, c.last)
	return nil
}

func chainHash(canonical []byte, prev string) string {
	h := sha256.New()
	_, _ = h.Write(canonical)
	_, _ = h.Write([]byte(prev))
	return HashPrefix + hex.EncodeToString(h.Sum(nil))
}

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("audit writer closed")

// MemoryWriter keeps a hash-chained log in memory.
type MemoryWriter struct {
	mu     sync.Mutex
	chain  chain
	events []Event
	closed bool
}

var _ Writer = (*MemoryWriter)(nil)

// NewMemoryWriter returns an empty in-memory writer.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{chain: newChain("")}
}

func (w *MemoryWriter) Write(event *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if err := w.chain.seal(event); err != nil {
		return err
	}
	w.events = append(w.events, *event)
	w.chain.last = event.Hash
	return nil
}

func (w *MemoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *MemoryWriter) LastHash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chain.last
}

// Events returns a copy of the recorded events.
func (w *MemoryWriter) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Event(nil), w.events...)
}
