// Package cose wraps RSASSA-PKCS1-v1_5 signatures in COSE_Sign1 envelopes
// (RFC 9052) with the RS* algorithm identifiers of RFC 8812.
package cose

import (
	"errors"
	"fmt"

	gocose "github.com/veraison/go-cose"

	"github.com/remiblancher/signature/internal/digest"
)

// COSE Algorithm IDs (IANA COSE Algorithms registry, RFC 8812).
const (
	AlgRS256 gocose.Algorithm = -257   // RSASSA-PKCS1-v1_5 w/ SHA-256
	AlgRS384 gocose.Algorithm = -258   // RSASSA-PKCS1-v1_5 w/ SHA-384
	AlgRS512 gocose.Algorithm = -259   // RSASSA-PKCS1-v1_5 w/ SHA-512
	AlgRS1   gocose.Algorithm = -65535 // RSASSA-PKCS1-v1_5 w/ SHA-1, deprecated
)

// ErrUnsupportedAlgorithm indicates a digest with no COSE RS* identifier.
var ErrUnsupportedAlgorithm = errors.New("algorithm not available in COSE")

// AlgorithmFromDigest returns the COSE identifier for alg.
func AlgorithmFromDigest(alg digest.Algorithm) (gocose.Algorithm, error) {
	switch alg {
	case digest.SHA256:
		return AlgRS256, nil
	case digest.SHA384:
		return AlgRS384, nil
	case digest.SHA512:
		return AlgRS512, nil
	case digest.SHA1:
		return AlgRS1, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}

// DigestFromAlgorithm is the inverse of AlgorithmFromDigest.
func DigestFromAlgorithm(alg gocose.Algorithm) (digest.Algorithm, error) {
	switch alg {
	case AlgRS256:
		return digest.SHA256, nil
	case AlgRS384:
		return digest.SHA384, nil
	case AlgRS512:
		return digest.SHA512, nil
	case AlgRS1:
		return digest.SHA1, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, int64(alg))
	}
}

// AlgorithmName returns a display name for a COSE algorithm.
func AlgorithmName(alg gocose.Algorithm) string {
	switch alg {
	case AlgRS256:
		return "RS256"
	case AlgRS384:
		return "RS384"
	case AlgRS512:
		return "RS512"
	case AlgRS1:
		return "RS1"
	default:
		return fmt.Sprintf("unknown(%d)", int64(alg))
	}
}
