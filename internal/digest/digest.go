package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/md4"       //nolint:staticcheck // required by legacy vectors
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required by legacy vectors
)

// New returns a streaming hash for alg.
func New(alg Algorithm) (hash.Hash, error) {
	switch alg {
	case MD4:
		return md4.New(), nil
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA224:
		return sha256.New224(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	case RIPEMD160:
		return ripemd160.New(), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, alg)
	}
}

// Sum returns the digest of message under alg.
func Sum(alg Algorithm, message []byte) ([]byte, error) {
	h, err := New(alg)
	if err != nil {
		return nil, err
	}
	h.Write(message)
	return h.Sum(nil), nil
}

// SumReader hashes everything read from r.
func SumReader(alg Algorithm, r io.Reader) ([]byte, error) {
	h, err := New(alg)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	return h.Sum(nil), nil
}
