// Package signature provides the public API for RSASSA-PKCS1-v1_5 signing
// and verification over PEM key files.
//
// Operations record audit events when an audit writer is installed with
// audit.Init; an audit failure fails the operation.
package signature

import (
	"github.com/remiblancher/signature/internal/bigint"
	"github.com/remiblancher/signature/internal/cose"
	"github.com/remiblancher/signature/internal/digest"
	"github.com/remiblancher/signature/internal/keys"
	"github.com/remiblancher/signature/internal/pkcs1"
)

// Re-export types from internal packages
type (
	// Algorithm identifies a message digest.
	Algorithm = digest.Algorithm

	// PublicKey is an RSA public key (n, e).
	PublicKey = keys.PublicKey

	// PrivateKey is an RSA private key, with CRT values when available.
	PrivateKey = keys.PrivateKey

	// KeyNotFoundError reports a key file that does not exist.
	KeyNotFoundError = keys.KeyNotFoundError

	// KeyFormatError reports undecodable PEM, DER or ASN.1 content.
	KeyFormatError = keys.KeyFormatError

	// PassphraseError reports a missing or wrong passphrase.
	PassphraseError = keys.PassphraseError

	// UnsupportedKeyTypeError reports a key that is not RSA.
	UnsupportedKeyTypeError = keys.UnsupportedKeyTypeError

	// MessageTooLongError reports a DigestInfo too large for the modulus.
	MessageTooLongError = pkcs1.MessageTooLongError

	// InvalidSignatureLengthError reports a signature that is not k bytes.
	InvalidSignatureLengthError = pkcs1.InvalidSignatureLengthError

	// PaddingError reports a malformed encoded message.
	PaddingError = pkcs1.PaddingError

	// ArithmeticError reports a failed big-integer operation.
	ArithmeticError = bigint.ArithmeticError

	// EnvelopeError reports a COSE_Sign1 failure.
	EnvelopeError = cose.EnvelopeError

	// EnvelopeInfo describes a COSE_Sign1 message.
	EnvelopeInfo = cose.Info
)

// Re-export digest algorithms
const (
	MD4       = digest.MD4
	MD5       = digest.MD5
	SHA1      = digest.SHA1
	SHA224    = digest.SHA224
	SHA256    = digest.SHA256
	SHA384    = digest.SHA384
	SHA512    = digest.SHA512
	RIPEMD160 = digest.RIPEMD160
)

// Re-export sentinel errors
var (
	ErrKeyNotFound            = keys.ErrKeyNotFound
	ErrKeyFormat              = keys.ErrKeyFormat
	ErrPassphrase             = keys.ErrPassphrase
	ErrUnsupportedKeyType     = keys.ErrUnsupportedKeyType
	ErrUnsupportedAlgorithm   = digest.ErrUnsupportedAlgorithm
	ErrMessageTooLong         = pkcs1.ErrMessageTooLong
	ErrInvalidSignatureLength = pkcs1.ErrInvalidSignatureLength
	ErrPadding                = pkcs1.ErrPadding
	ErrMissingKey             = pkcs1.ErrMissingKey
	ErrEnvelopeVerification   = cose.ErrVerification
	ErrEnvelopeAlgorithm      = cose.ErrUnsupportedAlgorithm
	ErrEnvelopeKeyMismatch    = cose.ErrKeyMismatch
)

// ParseAlgorithm returns the algorithm for a name such as "SHA-256" or
// "ripemd160".
func ParseAlgorithm(name string) (Algorithm, error) {
	return digest.Parse(name)
}

// Algorithms returns every supported digest algorithm.
func Algorithms() []Algorithm {
	return digest.Algorithms()
}
