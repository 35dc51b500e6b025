package pkcs1

import (
	"crypto/subtle"

	"github.com/remiblancher/signature/internal/bigint"
	"github.com/remiblancher/signature/internal/digest"
	"github.com/remiblancher/signature/internal/keys"
)

// Verify reports whether signature is a valid signature of message.
//
// A well-formed signature over a different message returns (false, nil).
// Malformed input returns false with an error: a wrong length yields
// InvalidSignatureLengthError and a bad block structure yields PaddingError.
func Verify(pub *keys.PublicKey, alg digest.Algorithm, message, signature []byte) (bool, error) {
	sum, err := digest.Sum(alg, message)
	if err != nil {
		return false, opErr("verify", err)
	}
	return VerifyDigest(pub, alg, sum, signature)
}

// VerifyDigest is Verify for a digest computed by the caller with alg.
func VerifyDigest(pub *keys.PublicKey, alg digest.Algorithm, sum, signature []byte) (bool, error) {
	if pub == nil || pub.N == nil {
		return false, opErr("verify", ErrMissingKey)
	}
	k := pub.Size()

	if len(signature) != k {
		return false, opErr("verify", &InvalidSignatureLengthError{Got: len(signature), Want: k})
	}

	want, err := digest.DigestInfo(alg, sum)
	if err != nil {
		return false, opErr("verify", err)
	}

	s := bigint.FromBytes(signature)
	if s.Cmp(pub.N) >= 0 {
		// Not a signature representative for this key.
		return false, nil
	}

	m, err := bigint.ModPow(s, pub.Exponent(), pub.N)
	if err != nil {
		return false, opErr("verify", err)
	}
	em, err := m.FillBytes(k)
	if err != nil {
		return false, opErr("verify", err)
	}

	got, err := DecodeEMSA(em)
	if err != nil {
		return false, opErr("verify", err)
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
