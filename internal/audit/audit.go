package audit

import (
	"fmt"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalWriter Writer = NopWriter{}
	enabled      bool
)

// Init installs w as the process-wide audit writer. A nil writer
// disables auditing.
func Init(w Writer) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter, enabled = NopWriter{}, false
		return
	}
	globalWriter, enabled = w, true
}

// InitFile installs a FileWriter for path. An empty path disables
// auditing.
func InitFile(path string) error {
	if path == "" {
		Init(nil)
		return nil
	}
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	Init(w)
	return nil
}

// Close closes the global writer and disables auditing.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter, enabled = NopWriter{}, false
	return err
}

// Enabled reports whether an audit writer is installed.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Log writes event to the global writer. When auditing is enabled and
// Log fails, the calling operation must fail too.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	if err := w.Write(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// LogKeyLoaded records a key file read.
func LogKeyLoaded(path, fingerprint string, bits int, private, encrypted bool, err error) error {
	kind := "public key"
	if private {
		kind = "private key"
	}
	event := NewEvent(EventKeyLoaded, ResultOf(err == nil)).
		WithObject(Object{Type: "key", Path: path, Fingerprint: fingerprint}).
		WithContext(Context{KeyBits: bits, Encrypted: encrypted, Reason: reasonOf(kind, err)})
	return Log(event)
}

// LogSignatureCreated records a sign operation.
func LogSignatureCreated(fingerprint, algorithm, digestHex, envelope string, err error) error {
	event := NewEvent(EventSignatureCreated, ResultOf(err == nil)).
		WithObject(Object{Type: "message", Fingerprint: fingerprint, Digest: digestHex}).
		WithContext(Context{Algorithm: algorithm, Envelope: envelope, Reason: reasonOf("", err)})
	return Log(event)
}

// LogSignatureVerified records a verify operation. A clean negative
// result is logged as a failure without a reason.
func LogSignatureVerified(fingerprint, algorithm, digestHex, envelope string, verified bool, err error) error {
	event := NewEvent(EventSignatureVerified, ResultOf(verified && err == nil)).
		WithObject(Object{Type: "message", Fingerprint: fingerprint, Digest: digestHex}).
		WithContext(Context{Algorithm: algorithm, Envelope: envelope, Verified: verified, Reason: reasonOf("", err)})
	return Log(event)
}

// LogVectorRun records the outcome of a test-vector batch.
func LogVectorRun(source string, passed, failed, skipped int) error {
	event := NewEvent(EventVectorRun, ResultOf(failed == 0)).
		WithObject(Object{Type: "vectors", Path: source}).
		WithContext(Context{Passed: passed, Failed: failed, Skipped: skipped})
	return Log(event)
}

func reasonOf(prefix string, err error) string {
	switch {
	case err != nil && prefix != "":
		return prefix + ": " + err.Error()
	case err != nil:
		return err.Error()
	default:
		return prefix
	}
}
