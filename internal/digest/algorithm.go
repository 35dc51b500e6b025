// Package digest maps the supported hash algorithms to their output size,
// object identifier and PKCS#1 v1.5 DigestInfo prefix.
package digest

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"strings"
)

// Algorithm identifies a hash algorithm usable with RSASSA-PKCS1-v1_5.
type Algorithm int

// Supported algorithms. The zero value is invalid.
const (
	MD4 Algorithm = iota + 1
	MD5
	SHA1
	SHA224
	SHA256
	SHA384
	SHA512
	RIPEMD160
)

var (
	// ErrUnsupportedAlgorithm indicates an unknown or unsupported hash algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")

	// ErrDigestLength indicates a pre-computed digest of the wrong size.
	ErrDigestLength = errors.New("digest length mismatch")
)

// algorithmInfo holds the immutable metadata of an algorithm.
type algorithmInfo struct {
	Name   string
	Size   int
	OID    asn1.ObjectIdentifier
	Prefix []byte // DER DigestInfo up to (and including) the OCTET STRING header
}

// algorithms is the compile-time table. Prefix bytes follow RFC 8017
// section 9.2, note 1. MD4 and RIPEMD-160 are not listed there; their
// prefixes use the RSADSI (1.2.840.113549.2.4) and TeleTrusT
// (1.3.36.3.2.1) identifiers.
var algorithms = map[Algorithm]algorithmInfo{
	MD4: {
		Name: "MD4",
		Size: 16,
		OID:  asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 4},
		Prefix: []byte{
			0x30, 0x20, 0x30, 0x0c, 0x06, 0x08, 0x2a, 0x86, 0x48, 0x86,
			0xf7, 0x0d, 0x02, 0x04, 0x05, 0x00, 0x04, 0x10,
		},
	},
	MD5: {
		Name: "MD5",
		Size: 16,
		OID:  asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 5},
		Prefix: []byte{
			0x30, 0x20, 0x30, 0x0c, 0x06, 0x08, 0x2a, 0x86, 0x48, 0x86,
			0xf7, 0x0d, 0x02, 0x05, 0x05, 0x00, 0x04, 0x10,
		},
	},
	SHA1: {
		Name: "SHA-1",
		Size: 20,
		OID:  asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26},
		Prefix: []byte{
			0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x0e, 0x03, 0x02,
			0x1a, 0x05, 0x00, 0x04, 0x14,
		},
	},
	SHA224: {
		Name: "SHA-224",
		Size: 28,
		OID:  asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 4},
		Prefix: []byte{
			0x30, 0x2d, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
			0x65, 0x03, 0x04, 0x02, 0x04, 0x05, 0x00, 0x04, 0x1c,
		},
	},
	SHA256: {
		Name: "SHA-256",
		Size: 32,
		OID:  asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1},
		Prefix: []byte{
			0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
			0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
		},
	},
	SHA384: {
		Name: "SHA-384",
		Size: 48,
		OID:  asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2},
		Prefix: []byte{
			0x30, 0x41, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
			0x65, 0x03, 0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30,
		},
	},
	SHA512: {
		Name: "SHA-512",
		Size: 64,
		OID:  asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3},
		Prefix: []byte{
			0x30, 0x51, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
			0x65, 0x03, 0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40,
		},
	},
	RIPEMD160: {
		Name: "RIPEMD-160",
		Size: 20,
		OID:  asn1.ObjectIdentifier{1, 3, 36, 3, 2, 1},
		Prefix: []byte{
			0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x24, 0x03, 0x02,
			0x01, 0x05, 0x00, 0x04, 0x14,
		},
	},
}

// ordered lists the algorithms in a stable order for iteration.
var ordered = []Algorithm{MD4, MD5, SHA1, SHA224, SHA256, SHA384, SHA512, RIPEMD160}

// Algorithms returns all supported algorithms in a stable order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, len(ordered))
	copy(out, ordered)
	return out
}

// IsValid reports whether a is a supported algorithm.
func (a Algorithm) IsValid() bool {
	_, ok := algorithms[a]
	return ok
}

// String returns the canonical name, e.g. "SHA-256".
func (a Algorithm) String() string {
	if info, ok := algorithms[a]; ok {
		return info.Name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Size returns the digest length in bytes, or 0 for an invalid algorithm.
func (a Algorithm) Size() int {
	return algorithms[a].Size
}

// OID returns the algorithm object identifier, or nil if a is invalid.
func (a Algorithm) OID() asn1.ObjectIdentifier {
	info, ok := algorithms[a]
	if !ok {
		return nil
	}
	return append(asn1.ObjectIdentifier(nil), info.OID...)
}

// DigestInfoPrefix returns a copy of the DER prefix that precedes the
// digest bytes in an EMSA-PKCS1-v1_5 DigestInfo.
func (a Algorithm) DigestInfoPrefix() ([]byte, error) {
	return DigestInfoPrefix(a)
}

// DigestInfoPrefix returns a copy of the DER prefix for alg.
func DigestInfoPrefix(alg Algorithm) ([]byte, error) {
	info, ok := algorithms[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, alg)
	}
	return append([]byte(nil), info.Prefix...), nil
}

// DigestInfo returns prefix || digest for alg. The digest length must
// match the algorithm output size.
func DigestInfo(alg Algorithm, sum []byte) ([]byte, error) {
	info, ok := algorithms[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, alg)
	}
	if len(sum) != info.Size {
		return nil, fmt.Errorf("%w: got %d bytes, %s produces %d", ErrDigestLength, len(sum), info.Name, info.Size)
	}
	t := make([]byte, 0, len(info.Prefix)+len(sum))
	t = append(t, info.Prefix...)
	return append(t, sum...), nil
}

// Parse returns the algorithm for a name such as "sha256", "SHA-256",
// "ripemd160" or "RIPEMD-160".
func Parse(name string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, "_", "")
	switch key {
	case "md4":
		return MD4, nil
	case "md5":
		return MD5, nil
	case "sha1":
		return SHA1, nil
	case "sha224":
		return SHA224, nil
	case "sha256":
		return SHA256, nil
	case "sha384":
		return SHA384, nil
	case "sha512":
		return SHA512, nil
	case "ripemd160":
		return RIPEMD160, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, a)
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}
