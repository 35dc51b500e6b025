package signature

import (
	"encoding/hex"
	"errors"

	"github.com/remiblancher/signature/internal/audit"
	"github.com/remiblancher/signature/internal/cose"
	"github.com/remiblancher/signature/internal/digest"
	"github.com/remiblancher/signature/internal/keys"
	"github.com/remiblancher/signature/internal/pkcs1"
)

// Envelope names recorded in audit events.
const (
	envelopeRaw  = "raw"
	envelopeCOSE = "cose"
)

// LoadPublicKey reads an RSA public key from a PEM file. A private key file
// yields its public half.
func LoadPublicKey(path string) (*PublicKey, error) {
	pub, err := keys.LoadPublicKey(path)
	if aerr := audit.LogKeyLoaded(path, fingerprintOf(pub), bitsOf(pub), false, false, err); aerr != nil {
		return nil, aerr
	}
	return pub, err
}

// LoadPrivateKey reads an RSA private key from a PEM file. passphrase is
// nil for unencrypted keys and is ignored when the key is not encrypted.
func LoadPrivateKey(path string, passphrase *string) (*PrivateKey, error) {
	var pass []byte
	if passphrase != nil {
		pass = []byte(*passphrase)
	}
	withPassphrase := len(pass) > 0
	priv, err := keys.LoadPrivateKey(path, pass)
	clear(pass)

	var pub *PublicKey
	if priv != nil {
		pub = priv.Public()
	}
	if aerr := audit.LogKeyLoaded(path, fingerprintOf(pub), bitsOf(pub), true, withPassphrase, err); aerr != nil {
		return nil, aerr
	}
	return priv, err
}

// Sign produces the k-byte RSASSA-PKCS1-v1_5 signature of message.
func Sign(priv *PrivateKey, alg Algorithm, message []byte) ([]byte, error) {
	sig, err := pkcs1.Sign(priv, alg, message)
	if aerr := logSigned(priv, alg, message, envelopeRaw, err); aerr != nil {
		return nil, aerr
	}
	return sig, err
}

// Verify reports whether signature is a valid RSASSA-PKCS1-v1_5 signature
// of message. A well-formed signature that does not match returns
// (false, nil); malformed input returns an error.
func Verify(pub *PublicKey, alg Algorithm, message, signature []byte) (bool, error) {
	ok, err := pkcs1.Verify(pub, alg, message, signature)
	if aerr := logVerified(pub, alg, message, envelopeRaw, ok, err); aerr != nil {
		return false, aerr
	}
	return ok, err
}

// SignCOSE wraps the signature of payload in a COSE_Sign1 message. Only
// SHA-1 and the SHA-2 digests of 256 bits or more have COSE identifiers.
func SignCOSE(priv *PrivateKey, alg Algorithm, payload []byte) ([]byte, error) {
	msg, err := cose.Sign1(priv, alg, payload)
	if aerr := logSigned(priv, alg, payload, envelopeCOSE, err); aerr != nil {
		return nil, aerr
	}
	return msg, err
}

// VerifyCOSE verifies a COSE_Sign1 message and returns its payload.
func VerifyCOSE(pub *PublicKey, msg []byte) ([]byte, error) {
	payload, err := cose.VerifySign1(pub, msg)

	var alg Algorithm
	if info, ierr := cose.Inspect(msg); ierr == nil {
		alg = info.Digest
	}
	if aerr := logVerified(pub, alg, payload, envelopeCOSE, err == nil, err); aerr != nil {
		return nil, aerr
	}
	return payload, err
}

// InspectCOSE decodes the headers of a COSE_Sign1 message without
// verifying it.
func InspectCOSE(msg []byte) (*EnvelopeInfo, error) {
	return cose.Inspect(msg)
}

func logSigned(priv *PrivateKey, alg Algorithm, message []byte, envelope string, err error) error {
	if !audit.Enabled() {
		return nil
	}
	var pub *PublicKey
	if priv != nil {
		pub = priv.Public()
	}
	return audit.LogSignatureCreated(fingerprintOf(pub), algName(alg), digestHex(alg, message), envelope, err)
}

func logVerified(pub *PublicKey, alg Algorithm, message []byte, envelope string, verified bool, err error) error {
	if !audit.Enabled() {
		return nil
	}
	// A clean mismatch is an outcome, not an error.
	if err != nil && errors.Is(err, cose.ErrVerification) && !errors.Is(err, pkcs1.ErrPadding) {
		err = nil
	}
	return audit.LogSignatureVerified(fingerprintOf(pub), algName(alg), digestHex(alg, message), envelope, verified, err)
}

func digestHex(alg Algorithm, message []byte) string {
	if message == nil {
		return ""
	}
	sum, err := digest.Sum(alg, message)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(sum)
}

func algName(alg Algorithm) string {
	if !alg.IsValid() {
		return ""
	}
	return alg.String()
}

func fingerprintOf(pub *PublicKey) string {
	if pub == nil {
		return ""
	}
	return pub.Fingerprint()
}

func bitsOf(pub *PublicKey) int {
	if pub == nil {
		return 0
	}
	return pub.BitLen()
}
