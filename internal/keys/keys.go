// Package keys holds the RSA key model and the PEM/DER loaders.
//
// Keys are immutable once loaded and may be shared across goroutines.
// Nothing is cached: every Load call reads and parses the file again.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/remiblancher/signature/internal/bigint"
)

// MinModulusBits is the smallest modulus accepted by Validate.
const MinModulusBits = 512

// PublicKey is an RSA public key.
type PublicKey struct {
	N *bigint.Nat
	E int
}

// NewPublicKey builds and validates a public key.
func NewPublicKey(n *bigint.Nat, e int) (*PublicKey, error) {
	pub := &PublicKey{N: n, E: e}
	if err := pub.Validate(); err != nil {
		return nil, err
	}
	return pub, nil
}

// Size returns the modulus length in bytes, which is also the signature
// length.
func (k *PublicKey) Size() int {
	return k.N.ByteLen()
}

// BitLen returns the modulus length in bits.
func (k *PublicKey) BitLen() int {
	return k.N.BitLen()
}

// Validate checks the modulus and exponent.
func (k *PublicKey) Validate() error {
	if k == nil || k.N == nil {
		return formatErr("missing modulus", nil)
	}
	if !k.N.IsOdd() {
		return formatErr("modulus is even", nil)
	}
	if k.N.BitLen() < MinModulusBits {
		return formatErr(fmt.Sprintf("modulus is %d bits (minimum %d)", k.N.BitLen(), MinModulusBits), nil)
	}
	if k.E < 3 || k.E > math.MaxInt32 || k.E%2 == 0 {
		return formatErr(fmt.Sprintf("invalid public exponent %d", k.E), nil)
	}
	return nil
}

// Exponent returns E as a Nat.
func (k *PublicKey) Exponent() *bigint.Nat {
	return bigint.FromUint64(uint64(k.E))
}

// Equal reports whether k and other hold the same values.
func (k *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && k.E == other.E && k.N.Equal(other.N)
}

// Fingerprint returns the hex SHA-256 of the PKCS#1 DER encoding.
func (k *PublicKey) Fingerprint() string {
	der, err := MarshalPKCS1PublicKey(k)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// CRTValues are the Chinese Remainder Theorem parameters of a private key.
type CRTValues struct {
	P, Q   *bigint.Nat
	DP, DQ *bigint.Nat
	QInv   *bigint.Nat
}

// PrivateKey is an RSA private key. CRT is nil when the key only carries
// the private exponent.
type PrivateKey struct {
	PublicKey
	D   *bigint.Nat
	CRT *CRTValues
}

// NewPrivateKey builds a private key from n, e and d. When p and q are both
// non-nil the CRT parameters are derived from them.
func NewPrivateKey(n *bigint.Nat, e int, d, p, q *bigint.Nat) (*PrivateKey, error) {
	priv := &PrivateKey{PublicKey: PublicKey{N: n, E: e}, D: d}
	if p != nil && q != nil {
		dP, dQ, qInv, err := bigint.CRTParams(d, p, q)
		if err != nil {
			return nil, formatErr("invalid CRT parameters", err)
		}
		priv.CRT = &CRTValues{P: p, Q: q, DP: dP, DQ: dQ, QInv: qInv}
	}
	if err := priv.Validate(); err != nil {
		return nil, err
	}
	return priv, nil
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey {
	pub := k.PublicKey
	return &pub
}

var errCRTMismatch = errors.New("p*q does not equal the modulus")

// Validate checks the public half, the private exponent and, when present,
// that p*q == n.
func (k *PrivateKey) Validate() error {
	if k == nil {
		return formatErr("missing private key", nil)
	}
	if err := k.PublicKey.Validate(); err != nil {
		return err
	}
	if k.D == nil || k.D.IsZero() || k.D.Cmp(k.N) >= 0 {
		return formatErr("invalid private exponent", nil)
	}
	if k.CRT != nil {
		c := k.CRT
		if c.P == nil || c.Q == nil || c.DP == nil || c.DQ == nil || c.QInv == nil {
			return formatErr("incomplete CRT parameters", nil)
		}
		if !c.P.Mul(c.Q).Equal(k.N) {
			return formatErr("inconsistent CRT parameters", errCRTMismatch)
		}
	}
	return nil
}
