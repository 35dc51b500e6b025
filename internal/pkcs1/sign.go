package pkcs1

import (
	"github.com/remiblancher/signature/internal/bigint"
	"github.com/remiblancher/signature/internal/digest"
	"github.com/remiblancher/signature/internal/keys"
)

// Sign hashes message with alg and returns the k-byte signature.
// The result is deterministic for a given key, algorithm and message.
func Sign(priv *keys.PrivateKey, alg digest.Algorithm, message []byte) ([]byte, error) {
	sum, err := digest.Sum(alg, message)
	if err != nil {
		return nil, opErr("sign", err)
	}
	return SignDigest(priv, alg, sum)
}

// SignDigest signs a digest computed by the caller with alg.
func SignDigest(priv *keys.PrivateKey, alg digest.Algorithm, sum []byte) ([]byte, error) {
	if priv == nil || priv.N == nil || priv.D == nil {
		return nil, opErr("sign", ErrMissingKey)
	}
	k := priv.Size()

	em, err := EncodeEMSA(alg, sum, k)
	if err != nil {
		return nil, opErr("sign", err)
	}

	s, err := privateTransform(priv, bigint.FromBytes(em))
	if err != nil {
		return nil, opErr("sign", err)
	}

	sig, err := s.FillBytes(k)
	if err != nil {
		return nil, opErr("sign", err)
	}
	return sig, nil
}

// privateTransform computes m^d mod n. With CRT values it uses Garner's
// method and checks the result against the public exponent, falling back
// to the direct exponentiation on mismatch.
func privateTransform(priv *keys.PrivateKey, m *bigint.Nat) (*bigint.Nat, error) {
	if c := priv.CRT; c != nil {
		s, err := bigint.CRTExp(m, c.P, c.Q, c.DP, c.DQ, c.QInv)
		if err == nil {
			check, err := bigint.ModPow(s, priv.Exponent(), priv.N)
			if err == nil && check.Equal(m) {
				return s, nil
			}
		}
	}
	return bigint.ModPow(m, priv.D, priv.N)
}
