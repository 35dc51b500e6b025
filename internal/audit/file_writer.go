package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// maxLineSize bounds a single JSONL entry.
const maxLineSize = 1 << 20

// FileWriter appends hash-chained events to a JSONL file.
type FileWriter struct {
	mu    sync.Mutex
	file  *os.File
	chain chain
	path  string
}

var _ Writer = (*FileWriter)(nil)

// NewFileWriter opens path for appending. An existing log is continued
// from its last hash; the existing chain itself is not re-verified.
func NewFileWriter(path string) (*FileWriter, error) {
	last, err := lastHashOf(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // operator-chosen log path
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileWriter{file: file, chain: newChain(last), path: path}, nil
}

// lastHashOf returns the hash of the last entry in path, or GenesisHash
// when the file is missing or empty.
func lastHashOf(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // operator-chosen log path
	if errors.Is(err, os.ErrNotExist) {
		return GenesisHash, nil
	}
	if err != nil {
		return "", fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lastLine []byte
	err = scanLines(f, func(_ int, line []byte) error {
		lastLine = append(lastLine[:0], line...)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read audit log: %w", err)
	}
	if lastLine == nil {
		return GenesisHash, nil
	}

	var tail struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(lastLine, &tail); err != nil {
		return "", fmt.Errorf("parse last audit event: %w", err)
	}
	if tail.Hash == "" {
		return "", errors.New("last audit event has no hash")
	}
	return tail.Hash, nil
}

// Write seals event into the chain, appends it and fsyncs the file.
func (w *FileWriter) Write(event *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return ErrClosed
	}
	if err := w.chain.seal(event); err != nil {
		return err
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}
	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}

	w.chain.last = event.Hash
	return nil
}

// Close syncs and closes the file. Closing twice is a no-op.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LastHash returns the hash of the last written event.
func (w *FileWriter) LastHash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chain.last
}

// Path returns the log file path.
func (w *FileWriter) Path() string {
	return w.path
}

// ChainError reports the first entry that breaks the hash chain.
type ChainError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ChainError) Error() string {
	msg := fmt.Sprintf("audit chain broken at line %d: %s", e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ChainError) Unwrap() error { return e.Err }

// VerifyChain checks every entry of the log at path and returns the
// number of valid events. On failure the count covers the events before
// the broken one and the error is a *ChainError.
func VerifyChain(path string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // operator-chosen log path
	if err != nil {
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()
	return verifyReader(f)
}

func verifyReader(r io.Reader) (int, error) {
	expected := GenesisHash
	valid := 0

	err := scanLines(r, func(lineNum int, line []byte) error {
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return &ChainError{Line: lineNum, Reason: "invalid JSON", Err: err}
		}
		if event.HashPrev != expected {
			return &ChainError{Line: lineNum, Reason: fmt.Sprintf("hash_prev is %s, want %s", event.HashPrev, expected)}
		}
		canonical, err := event.CanonicalJSON()
		if err != nil {
			return &ChainError{Line: lineNum, Reason: "cannot serialize", Err: err}
		}
		if sum := chainHash(canonical, event.HashPrev); event.Hash != sum {
			return &ChainError{Line: lineNum, Reason: fmt.Sprintf("hash is %s, want %s", event.Hash, sum)}
		}
		expected = event.Hash
		valid++
		return nil
	})
	return valid, err
}

// scanLines calls fn for each non-blank line with its 1-based number.
func scanLines(r io.Reader, fn func(lineNum int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
