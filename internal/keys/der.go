package keys

import (
	"encoding/asn1"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/remiblancher/signature/internal/bigint"
)

// Object identifiers recognised in AlgorithmIdentifier fields.
var (
	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidECPublicKey   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidEd25519       = asn1.ObjectIdentifier{1, 3, 101, 112}
	oidEd448         = asn1.ObjectIdentifier{1, 3, 101, 113}
	oidDSA           = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	oidRSAPSS        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
)

// keyTypeName names the non-RSA key algorithms we can recognise.
func keyTypeName(oid asn1.ObjectIdentifier) string {
	switch {
	case oid.Equal(oidECPublicKey):
		return "EC"
	case oid.Equal(oidEd25519):
		return "Ed25519"
	case oid.Equal(oidEd448):
		return "Ed448"
	case oid.Equal(oidDSA):
		return "DSA"
	case oid.Equal(oidRSAPSS):
		return "RSASSA-PSS"
	default:
		return oid.String()
	}
}

// readNat reads an ASN.1 INTEGER that must be non-negative.
func readNat(s *cryptobyte.String, field string) (*bigint.Nat, error) {
	v := new(big.Int)
	if !s.ReadASN1Integer(v) {
		return nil, formatErr("malformed "+field, nil)
	}
	n, err := bigint.FromBig(v)
	if err != nil {
		return nil, formatErr("negative "+field, err)
	}
	return n, nil
}

func readExponent(s *cryptobyte.String) (int, error) {
	var e int64
	if !s.ReadASN1Integer(&e) {
		return 0, formatErr("malformed public exponent", nil)
	}
	if e <= 0 || e > 1<<31-1 {
		return 0, formatErr("public exponent out of range", nil)
	}
	return int(e), nil
}

// readAlgorithmIdentifier reads SEQUENCE { OID, parameters ANY OPTIONAL }
// and returns the OID plus the raw parameters element.
func readAlgorithmIdentifier(s *cryptobyte.String) (asn1.ObjectIdentifier, cryptobyte.String, error) {
	var (
		algID  cryptobyte.String
		oid    asn1.ObjectIdentifier
		params cryptobyte.String
	)
	if !s.ReadASN1(&algID, cbasn1.SEQUENCE) || !algID.ReadASN1ObjectIdentifier(&oid) {
		return nil, nil, formatErr("malformed algorithm identifier", nil)
	}
	if !algID.Empty() {
		var tag cbasn1.Tag
		if !algID.ReadAnyASN1Element(&params, &tag) {
			return nil, nil, formatErr("malformed algorithm parameters", nil)
		}
	}
	return oid, params, nil
}

// ParsePKCS1PublicKey parses RSAPublicKey ::= SEQUENCE { modulus, publicExponent }.
func ParsePKCS1PublicKey(der []byte) (*PublicKey, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, formatErr("malformed PKCS#1 public key", nil)
	}
	n, err := readNat(&seq, "modulus")
	if err != nil {
		return nil, err
	}
	e, err := readExponent(&seq)
	if err != nil {
		return nil, err
	}
	if !seq.Empty() {
		return nil, formatErr("trailing data in PKCS#1 public key", nil)
	}
	return NewPublicKey(n, e)
}

// ParsePKIXPublicKey parses a SubjectPublicKeyInfo holding an RSA key.
func ParsePKIXPublicKey(der []byte) (*PublicKey, error) {
	input := cryptobyte.String(der)
	var spki cryptobyte.String
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, formatErr("malformed SubjectPublicKeyInfo", nil)
	}
	oid, _, err := readAlgorithmIdentifier(&spki)
	if err != nil {
		return nil, err
	}
	if !oid.Equal(oidRSAEncryption) {
		return nil, &UnsupportedKeyTypeError{KeyType: keyTypeName(oid)}
	}
	var bits asn1.BitString
	if !spki.ReadASN1BitString(&bits) || !spki.Empty() {
		return nil, formatErr("malformed subjectPublicKey", nil)
	}
	if bits.BitLength%8 != 0 {
		return nil, formatErr("subjectPublicKey is not byte aligned", nil)
	}
	return ParsePKCS1PublicKey(bits.Bytes)
}

// ParsePKCS1PrivateKey parses a two-prime RSAPrivateKey:
//
//	RSAPrivateKey ::= SEQUENCE {
//	  version, modulus, publicExponent, privateExponent,
//	  prime1, prime2, exponent1, exponent2, coefficient,
//	  otherPrimeInfos OPTIONAL }
func ParsePKCS1PrivateKey(der []byte) (*PrivateKey, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, formatErr("malformed PKCS#1 private key", nil)
	}

	var version int
	if !seq.ReadASN1Integer(&version) {
		return nil, formatErr("malformed PKCS#1 version", nil)
	}
	if version != 0 {
		// version 1 carries otherPrimeInfos (multi-prime RSA).
		return nil, formatErr("multi-prime RSA keys are not supported", nil)
	}

	n, err := readNat(&seq, "modulus")
	if err != nil {
		return nil, err
	}
	e, err := readExponent(&seq)
	if err != nil {
		return nil, err
	}

	fields := make([]*bigint.Nat, 6)
	names := []string{"private exponent", "prime1", "prime2", "exponent1", "exponent2", "coefficient"}
	for i, name := range names {
		if fields[i], err = readNat(&seq, name); err != nil {
			return nil, err
		}
	}
	if !seq.Empty() {
		return nil, formatErr("trailing data in PKCS#1 private key", nil)
	}

	priv := &PrivateKey{
		PublicKey: PublicKey{N: n, E: e},
		D:         fields[0],
	}
	// Some encoders write zeros for the CRT values; fall back to d alone.
	if !fields[1].IsZero() && !fields[2].IsZero() {
		priv.CRT = &CRTValues{
			P:    fields[1],
			Q:    fields[2],
			DP:   fields[3],
			DQ:   fields[4],
			QInv: fields[5],
		}
	}
	if err := priv.Validate(); err != nil {
		return nil, err
	}
	return priv, nil
}

// ParsePKCS8PrivateKey parses an unencrypted PrivateKeyInfo (RFC 5208) or
// OneAsymmetricKey (RFC 5958) wrapping an RSA key.
func ParsePKCS8PrivateKey(der []byte) (*PrivateKey, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, formatErr("malformed PKCS#8 private key", nil)
	}

	var version int
	if !seq.ReadASN1Integer(&version) || version > 1 {
		return nil, formatErr("unsupported PKCS#8 version", nil)
	}
	oid, _, err := readAlgorithmIdentifier(&seq)
	if err != nil {
		return nil, err
	}
	if !oid.Equal(oidRSAEncryption) {
		return nil, &UnsupportedKeyTypeError{KeyType: keyTypeName(oid)}
	}

	var inner []byte
	if !seq.ReadASN1Bytes(&inner, cbasn1.OCTET_STRING) {
		return nil, formatErr("malformed PKCS#8 privateKey field", nil)
	}
	// attributes [0] and publicKey [1] are ignored.
	return ParsePKCS1PrivateKey(inner)
}

// MarshalPKCS1PublicKey encodes k as RSAPublicKey DER.
func MarshalPKCS1PublicKey(k *PublicKey) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(k.N.Big())
		b.AddASN1Int64(int64(k.E))
	})
	return b.Bytes()
}

// MarshalPKCS1PrivateKey encodes k as a two-prime RSAPrivateKey. The key
// must carry CRT values.
func MarshalPKCS1PrivateKey(k *PrivateKey) ([]byte, error) {
	if k.CRT == nil {
		return nil, formatErr("PKCS#1 encoding requires CRT parameters", nil)
	}
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddASN1BigInt(k.N.Big())
		b.AddASN1Int64(int64(k.E))
		for _, v := range []*bigint.Nat{k.D, k.CRT.P, k.CRT.Q, k.CRT.DP, k.CRT.DQ, k.CRT.QInv} {
			b.AddASN1BigInt(v.Big())
		}
	})
	return b.Bytes()
}

// MarshalPKIXPublicKey encodes k as a SubjectPublicKeyInfo.
func MarshalPKIXPublicKey(k *PublicKey) ([]byte, error) {
	inner, err := MarshalPKCS1PublicKey(k)
	if err != nil {
		return nil, err
	}
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidRSAEncryption)
			b.AddASN1NULL()
		})
		b.AddASN1BitString(inner)
	})
	return b.Bytes()
}
