package keys

import (
	"errors"
	"fmt"
)

// Sentinel errors for key loading.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrKeyNotFound indicates the key file does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyFormat indicates malformed PEM, DER or ASN.1 content.
	ErrKeyFormat = errors.New("invalid key format")

	// ErrPassphrase indicates a missing or wrong passphrase.
	ErrPassphrase = errors.New("invalid passphrase")

	// ErrUnsupportedKeyType indicates a well-formed key that is not RSA.
	ErrUnsupportedKeyType = errors.New("unsupported key type")
)

// KeyNotFoundError is returned when a key file is absent.
type KeyNotFoundError struct {
	Path string
	Err  error
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.Path)
}

func (e *KeyNotFoundError) Unwrap() error { return e.Err }

// Is matches ErrKeyNotFound.
func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }

// KeyFormatError is returned when PEM, DER or ASN.1 parsing fails.
type KeyFormatError struct {
	Path   string // empty for in-memory data
	Reason string
	Err    error
}

func (e *KeyFormatError) Error() string {
	msg := "invalid key format"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *KeyFormatError) Unwrap() error { return e.Err }

// Is matches ErrKeyFormat.
func (e *KeyFormatError) Is(target error) bool { return target == ErrKeyFormat }

// PassphraseError is returned when an encrypted key cannot be decrypted.
type PassphraseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PassphraseError) Error() string {
	msg := "cannot decrypt private key"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PassphraseError) Unwrap() error { return e.Err }

// Is matches ErrPassphrase.
func (e *PassphraseError) Is(target error) bool { return target == ErrPassphrase }

// UnsupportedKeyTypeError is returned for well-formed non-RSA keys.
type UnsupportedKeyTypeError struct {
	Path    string
	KeyType string // e.g. "EC", "Ed25519" or a dotted OID
}

func (e *UnsupportedKeyTypeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("unsupported key type %s in %s", e.KeyType, e.Path)
	}
	return fmt.Sprintf("unsupported key type %s", e.KeyType)
}

// Is matches ErrUnsupportedKeyType.
func (e *UnsupportedKeyTypeError) Is(target error) bool { return target == ErrUnsupportedKeyType }

func formatErr(reason string, err error) *KeyFormatError {
	return &KeyFormatError{Reason: reason, Err: err}
}

// withPath attaches a file path to the outermost typed key error.
func withPath(err error, path string) error {
	var (
		fe *KeyFormatError
		pe *PassphraseError
		ue *UnsupportedKeyTypeError
	)
	switch {
	case errors.As(err, &pe):
		pe.Path = path
	case errors.As(err, &fe):
		fe.Path = path
	case errors.As(err, &ue):
		ue.Path = path
	}
	return err
}
