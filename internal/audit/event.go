// Package audit records signing operations in a tamper-evident log.
//
// Audit logs are separate from technical logs. Each JSONL entry carries
// the SHA-256 of the previous entry so that edits and deletions break
// the chain.
//
// Rules:
//   - Audit failure = operation failure
//   - Never log key material or passphrases, only paths and fingerprints
//   - All timestamps in UTC
package audit

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// EventType represents the category of audit event.
type EventType string

const (
	// EventKeyLoaded is emitted when a key file is read.
	EventKeyLoaded EventType = "KEY_LOADED"

	// EventSignatureCreated is emitted by sign operations.
	EventSignatureCreated EventType = "SIGNATURE_CREATED"

	// EventSignatureVerified is emitted by verify operations, whatever
	// the outcome.
	EventSignatureVerified EventType = "SIGNATURE_VERIFIED"

	// EventVectorRun is emitted once per test-vector batch.
	EventVectorRun EventType = "VECTOR_RUN"
)

// Result represents the outcome of an audited operation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// ResultOf maps a boolean outcome to a Result.
func ResultOf(ok bool) Result {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// Actor is who performed the action.
type Actor struct {
	Type string `json:"type"` // "user" or "service"
	ID   string `json:"id"`
	Host string `json:"host,omitempty"`
}

// Object is what was acted upon.
type Object struct {
	Type        string `json:"type"` // "key", "message", "vectors"
	Path        string `json:"path,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"` // SHA-256 of the public key
	Digest      string `json:"digest,omitempty"`      // hex digest of the signed message
}

// Context carries operation details.
type Context struct {
	Algorithm string `json:"algorithm,omitempty"`
	KeyBits   int    `json:"key_bits,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"` // key was passphrase protected
	Verified  bool   `json:"verified,omitempty"`
	Envelope  string `json:"envelope,omitempty"` // "raw" or "cose"
	Passed    int    `json:"passed,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	Skipped   int    `json:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Event is a single audit log entry.
type Event struct {
	EventType EventType `json:"event_type"`
	Timestamp string    `json:"timestamp"` // RFC3339 UTC
	Actor     Actor     `json:"actor"`
	Object    Object    `json:"object"`
	Context   Context   `json:"context"`
	Result    Result    `json:"result"`
	HashPrev  string    `json:"hash_prev"`
	Hash      string    `json:"hash"`
}

// now is replaced in tests.
var now = time.Now

// NewEvent creates an event stamped with the current time and the local
// user as actor.
func NewEvent(eventType EventType, result Result) *Event {
	return &Event{
		EventType: eventType,
		Timestamp: now().UTC().Format(time.RFC3339),
		Actor:     localActor(),
		Result:    result,
	}
}

func localActor() Actor {
	host, _ := os.Hostname()
	id := os.Getenv("USER")
	if id == "" {
		id = os.Getenv("USERNAME")
	}
	if id == "" {
		id = "unknown"
	}
	return Actor{Type: "user", ID: id, Host: host}
}

// WithObject sets the object field.
func (e *Event) WithObject(obj Object) *Event {
	e.Object = obj
	return e
}

// WithContext sets the context field.
func (e *Event) WithContext(ctx Context) *Event {
	e.Context = ctx
	return e
}

// WithActor overrides the default actor.
func (e *Event) WithActor(actor Actor) *Event {
	e.Actor = actor
	return e
}

// Validate checks that required fields are present.
func (e *Event) Validate() error {
	switch {
	case e.EventType == "":
		return errors.New("event_type is required")
	case e.Timestamp == "":
		return errors.New("timestamp is required")
	case e.Actor.Type == "" || e.Actor.ID == "":
		return errors.New("actor type and id are required")
	case e.Result == "":
		return errors.New("result is required")
	}
	return nil
}

// hashedEvent is the event without its own hash.
type hashedEvent struct {
	EventType EventType `json:"event_type"`
	Timestamp string    `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Object    Object    `json:"object"`
	Context   Context   `json:"context"`
	Result    Result    `json:"result"`
	HashPrev  string    `json:"hash_prev"`
}

// CanonicalJSON returns the bytes that are hashed: the event without
// its Hash field, with fields in declaration order.
func (e *Event) CanonicalJSON() ([]byte, error) {
	return json.Marshal(hashedEvent{
		EventType: e.EventType,
		Timestamp: e.Timestamp,
		Actor:     e.Actor,
		Object:    e.Object,
		Context:   e.Context,
		Result:    e.Result,
		HashPrev:  e.HashPrev,
	})
}
