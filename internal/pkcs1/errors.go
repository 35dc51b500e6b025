// Package pkcs1 implements RSASSA-PKCS1-v1_5 signatures (RFC 8017 §8.2).
//
// All functions are stateless and safe for concurrent use with shared keys.
package pkcs1

import (
	"errors"
	"fmt"

	"github.com/remiblancher/signature/internal/digest"
)

// SignatureError represents a sign or verify failure with its operation.
// It supports errors.Is() and errors.As() through Unwrap.
type SignatureError struct {
	Op  string // "sign" or "verify"
	Err error
}

// Error implements the error interface.
func (e *SignatureError) Error() string {
	return fmt.Sprintf("pkcs1 %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SignatureError) Unwrap() error { return e.Err }

func opErr(op string, err error) error {
	return &SignatureError{Op: op, Err: err}
}

// Sentinel errors for signature operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrMessageTooLong indicates the DigestInfo does not fit the modulus.
	ErrMessageTooLong = errors.New("message too long")

	// ErrInvalidSignatureLength indicates a signature that is not k bytes.
	ErrInvalidSignatureLength = errors.New("invalid signature length")

	// ErrPadding indicates a malformed EMSA-PKCS1-v1_5 block.
	ErrPadding = errors.New("invalid signature padding")

	// ErrMissingKey indicates a nil key.
	ErrMissingKey = errors.New("missing key")
)

// MessageTooLongError is returned when len(T) > k - 11.
type MessageTooLongError struct {
	Algorithm  digest.Algorithm
	EncodedLen int // len(T)
	ModulusLen int // k
}

func (e *MessageTooLongError) Error() string {
	return fmt.Sprintf("message too long: %s DigestInfo is %d bytes, a %d-byte modulus allows %d",
		e.Algorithm, e.EncodedLen, e.ModulusLen, e.ModulusLen-minPadding)
}

// Is matches ErrMessageTooLong.
func (e *MessageTooLongError) Is(target error) bool { return target == ErrMessageTooLong }

// InvalidSignatureLengthError is returned when len(signature) != k.
type InvalidSignatureLengthError struct {
	Got, Want int
}

func (e *InvalidSignatureLengthError) Error() string {
	return fmt.Sprintf("invalid signature length: got %d bytes, want %d", e.Got, e.Want)
}

// Is matches ErrInvalidSignatureLength.
func (e *InvalidSignatureLengthError) Is(target error) bool {
	return target == ErrInvalidSignatureLength
}

// PaddingError is returned when a recovered block does not have the
// 0x00 0x01 FF..FF 0x00 T structure.
type PaddingError struct {
	Reason string
}

func (e *PaddingError) Error() string {
	return "invalid signature padding: " + e.Reason
}

// Is matches ErrPadding.
func (e *PaddingError) Is(target error) bool { return target == ErrPadding }
