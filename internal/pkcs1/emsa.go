package pkcs1

import (
	"github.com/remiblancher/signature/internal/digest"
)

const (
	// minPadding is the fixed overhead: 0x00 0x01, eight 0xFF, 0x00.
	minPadding = 11

	// minPS is the minimum number of 0xFF padding bytes.
	minPS = 8
)

// EncodeEMSA builds the k-byte block 0x00 || 0x01 || PS || 0x00 || T where
// T is the DigestInfo of sum and PS is k - len(T) - 3 bytes of 0xFF.
func EncodeEMSA(alg digest.Algorithm, sum []byte, k int) ([]byte, error) {
	t, err := digest.DigestInfo(alg, sum)
	if err != nil {
		return nil, err
	}
	if len(t) > k-minPadding {
		return nil, &MessageTooLongError{Algorithm: alg, EncodedLen: len(t), ModulusLen: k}
	}

	em := make([]byte, k)
	em[1] = 0x01
	sep := k - len(t) - 1
	for i := 2; i < sep; i++ {
		em[i] = 0xff
	}
	copy(em[sep+1:], t)
	return em, nil
}

// DecodeEMSA checks the structure of a recovered block and returns T.
// It does not check T itself.
func DecodeEMSA(em []byte) ([]byte, error) {
	if len(em) < minPadding {
		return nil, &PaddingError{Reason: "block too short"}
	}
	if em[0] != 0x00 {
		return nil, &PaddingError{Reason: "leading byte is not zero"}
	}
	if em[1] != 0x01 {
		return nil, &PaddingError{Reason: "block type is not 1"}
	}

	i := 2
	for i < len(em) && em[i] == 0xff {
		i++
	}
	if i == len(em) || em[i] != 0x00 {
		return nil, &PaddingError{Reason: "missing zero separator"}
	}
	if i-2 < minPS {
		return nil, &PaddingError{Reason: "padding string shorter than 8 bytes"}
	}
	return em[i+1:], nil
}
