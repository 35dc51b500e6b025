package cose

import (
	"encoding/hex"
	"fmt"
	"io"

	gocose "github.com/veraison/go-cose"

	"github.com/remiblancher/signature/internal/digest"
	"github.com/remiblancher/signature/internal/keys"
	"github.com/remiblancher/signature/internal/pkcs1"
)

// Signer implements gocose.Signer over a PKCS#1 v1.5 private key.
// go-cose hands it the raw Sig_structure, which is hashed by pkcs1.Sign.
type Signer struct {
	key       *keys.PrivateKey
	hash      digest.Algorithm
	algorithm gocose.Algorithm
}

// NewSigner creates a COSE signer for priv using the digest alg.
func NewSigner(priv *keys.PrivateKey, alg digest.Algorithm) (*Signer, error) {
	if priv == nil {
		return nil, pkcs1.ErrMissingKey
	}
	coseAlg, err := AlgorithmFromDigest(alg)
	if err != nil {
		return nil, err
	}
	return &Signer{key: priv, hash: alg, algorithm: coseAlg}, nil
}

// Algorithm returns the COSE algorithm identifier.
func (s *Signer) Algorithm() gocose.Algorithm {
	return s.algorithm
}

// Sign signs the to-be-signed bytes. PKCS#1 v1.5 is deterministic, so the
// random source is ignored.
func (s *Signer) Sign(_ io.Reader, data []byte) ([]byte, error) {
	return pkcs1.Sign(s.key, s.hash, data)
}

// Verifier implements gocose.Verifier over a PKCS#1 v1.5 public key.
type Verifier struct {
	key       *keys.PublicKey
	hash      digest.Algorithm
	algorithm gocose.Algorithm
}

// NewVerifier creates a COSE verifier for pub and the COSE algorithm alg.
func NewVerifier(pub *keys.PublicKey, alg gocose.Algorithm) (*Verifier, error) {
	if pub == nil {
		return nil, pkcs1.ErrMissingKey
	}
	hash, err := DigestFromAlgorithm(alg)
	if err != nil {
		return nil, err
	}
	return &Verifier{key: pub, hash: hash, algorithm: alg}, nil
}

// Algorithm returns the COSE algorithm identifier.
func (v *Verifier) Algorithm() gocose.Algorithm {
	return v.algorithm
}

// Verify checks sig over the to-be-signed bytes. Every rejection wraps
// gocose.ErrVerification.
func (v *Verifier) Verify(data, sig []byte) error {
	ok, err := pkcs1.Verify(v.key, v.hash, data, sig)
	if err != nil {
		return fmt.Errorf("%w: %w", gocose.ErrVerification, err)
	}
	if !ok {
		return gocose.ErrVerification
	}
	return nil
}

// keyID is the binary form of the key fingerprint, used as the kid header.
func keyID(pub *keys.PublicKey) []byte {
	kid, err := hex.DecodeString(pub.Fingerprint())
	if err != nil {
		return nil
	}
	return kid
}
