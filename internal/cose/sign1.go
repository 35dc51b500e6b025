package cose

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	gocose "github.com/veraison/go-cose"

	"github.com/remiblancher/signature/internal/digest"
	"github.com/remiblancher/signature/internal/keys"
)

// CBORTagSign1 is the CBOR tag of COSE_Sign1.
const CBORTagSign1 = 18

// Sentinel errors for envelope operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrVerification indicates a signature that does not verify.
	ErrVerification = gocose.ErrVerification

	// ErrMalformed indicates data that is not a COSE_Sign1 message.
	ErrMalformed = errors.New("malformed COSE_Sign1 message")

	// ErrKeyMismatch indicates a kid header naming a different key.
	ErrKeyMismatch = errors.New("key ID does not match verification key")
)

// EnvelopeError represents a COSE operation failure.
type EnvelopeError struct {
	Op  string // "sign", "verify" or "inspect"
	Err error
}

// Error implements the error interface.
func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("cose %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *EnvelopeError) Unwrap() error { return e.Err }

// Sign1 signs payload into a tagged COSE_Sign1 message. The protected
// header carries the algorithm and the key fingerprint as kid.
func Sign1(priv *keys.PrivateKey, alg digest.Algorithm, payload []byte) ([]byte, error) {
	signer, err := NewSigner(priv, alg)
	if err != nil {
		return nil, &EnvelopeError{Op: "sign", Err: err}
	}

	msg := gocose.NewSign1Message()
	msg.Headers.Protected[gocose.HeaderLabelAlgorithm] = signer.Algorithm()
	msg.Headers.Protected[gocose.HeaderLabelKeyID] = keyID(priv.Public())
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, &EnvelopeError{Op: "sign", Err: err}
	}
	data, err := msg.MarshalCBOR()
	if err != nil {
		return nil, &EnvelopeError{Op: "sign", Err: err}
	}
	return data, nil
}

// VerifySign1 verifies a COSE_Sign1 message with pub and returns its
// payload. A kid header, when present, must match pub.
func VerifySign1(pub *keys.PublicKey, data []byte) ([]byte, error) {
	var msg gocose.Sign1Message
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return nil, &EnvelopeError{Op: "verify", Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		return nil, &EnvelopeError{Op: "verify", Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	verifier, err := NewVerifier(pub, alg)
	if err != nil {
		return nil, &EnvelopeError{Op: "verify", Err: err}
	}

	if kid, ok := msg.Headers.Protected[gocose.HeaderLabelKeyID].([]byte); ok {
		if !bytes.Equal(kid, keyID(pub)) {
			return nil, &EnvelopeError{Op: "verify", Err: fmt.Errorf("%w: %s", ErrKeyMismatch, hex.EncodeToString(kid))}
		}
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return nil, &EnvelopeError{Op: "verify", Err: err}
	}
	return msg.Payload, nil
}

// Info describes a COSE_Sign1 message without verifying it.
type Info struct {
	Algorithm     gocose.Algorithm
	AlgorithmName string
	Digest        digest.Algorithm // zero when the algorithm is not an RS* one
	KeyID         string           // hex
	Payload       []byte           // nil when detached
	SignatureSize int
}

// sign1Body is the array inside the COSE_Sign1 tag.
type sign1Body struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected map[int64]cbor.RawMessage
	Payload     []byte
	Signature   []byte
}

// Inspect decodes the headers of a tagged COSE_Sign1 message.
func Inspect(data []byte) (*Info, error) {
	var tag cbor.RawTag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return nil, &EnvelopeError{Op: "inspect", Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	if tag.Number != CBORTagSign1 {
		return nil, &EnvelopeError{Op: "inspect", Err: fmt.Errorf("%w: CBOR tag %d", ErrMalformed, tag.Number)}
	}

	var body sign1Body
	if err := cbor.Unmarshal(tag.Content, &body); err != nil {
		return nil, &EnvelopeError{Op: "inspect", Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	headers := map[int64]cbor.RawMessage{}
	if len(body.Protected) > 0 {
		if err := cbor.Unmarshal(body.Protected, &headers); err != nil {
			return nil, &EnvelopeError{Op: "inspect", Err: fmt.Errorf("%w: protected header: %v", ErrMalformed, err)}
		}
	}

	info := &Info{Payload: body.Payload, SignatureSize: len(body.Signature)}

	raw, ok := headers[int64(gocose.HeaderLabelAlgorithm)]
	if !ok {
		return nil, &EnvelopeError{Op: "inspect", Err: fmt.Errorf("%w: no algorithm header", ErrMalformed)}
	}
	var alg int64
	if err := cbor.Unmarshal(raw, &alg); err != nil {
		return nil, &EnvelopeError{Op: "inspect", Err: fmt.Errorf("%w: algorithm: %v", ErrMalformed, err)}
	}
	info.Algorithm = gocose.Algorithm(alg)
	info.AlgorithmName = AlgorithmName(info.Algorithm)
	if d, err := DigestFromAlgorithm(info.Algorithm); err == nil {
		info.Digest = d
	}

	if raw, ok := headers[int64(gocose.HeaderLabelKeyID)]; ok {
		var kid []byte
		if err := cbor.Unmarshal(raw, &kid); err != nil {
			return nil, &EnvelopeError{Op: "inspect", Err: fmt.Errorf("%w: kid: %v", ErrMalformed, err)}
		}
		info.KeyID = hex.EncodeToString(kid)
	}
	return info, nil
}
