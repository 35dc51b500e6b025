package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"hash"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// PEM type of a PKCS#8 EncryptedPrivateKeyInfo.
const pemTypeEncryptedPKCS8 = "ENCRYPTED PRIVATE KEY"

// PBES2 object identifiers (RFC 8018, RFC 7914).
var (
	oidPBES2  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
	oidPBKDF2 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	oidScrypt = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11591, 4, 11}

	oidHMACWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	oidHMACWithSHA224 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 8}
	oidHMACWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	oidHMACWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 10}
	oidHMACWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 11}

	oidAES128CBC  = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 2}
	oidAES192CBC  = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 22}
	oidAES256CBC  = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}
	oidDESEDE3CBC = asn1.ObjectIdentifier{1, 2, 840, 113549, 3, 7}
)

// pbes2Cipher describes a supported encryption scheme.
type pbes2Cipher struct {
	oid      asn1.ObjectIdentifier
	keyLen   int
	newBlock func(key []byte) (cipher.Block, error)
}

var pbes2Ciphers = []pbes2Cipher{
	{oidAES128CBC, 16, aes.NewCipher},
	{oidAES192CBC, 24, aes.NewCipher},
	{oidAES256CBC, 32, aes.NewCipher},
	{oidDESEDE3CBC, 24, des.NewTripleDESCipher},
}

func pbes2CipherFor(oid asn1.ObjectIdentifier) (pbes2Cipher, bool) {
	for _, c := range pbes2Ciphers {
		if c.oid.Equal(oid) {
			return c, true
		}
	}
	return pbes2Cipher{}, false
}

func prfFor(oid asn1.ObjectIdentifier) (func() hash.Hash, bool) {
	switch {
	case oid.Equal(oidHMACWithSHA1):
		return sha1.New, true
	case oid.Equal(oidHMACWithSHA224):
		return sha256.New224, true
	case oid.Equal(oidHMACWithSHA256):
		return sha256.New, true
	case oid.Equal(oidHMACWithSHA384):
		return sha512.New384, true
	case oid.Equal(oidHMACWithSHA512):
		return sha512.New, true
	}
	return nil, false
}

// Upper bounds on attacker-controlled KDF parameters.
const (
	maxPBKDF2Iterations = 1 << 24
	maxScryptN          = 1 << 20
	maxScryptR          = 32
	maxScryptP          = 16
)

// keyDeriver derives a keyLen-byte key from a passphrase.
type keyDeriver func(passphrase []byte, keyLen int) ([]byte, error)

// PBES2Decrypter handles PKCS#8 EncryptedPrivateKeyInfo blocks using
// PBES2 with PBKDF2 or scrypt, as written by "openssl pkcs8 -topk8".
type PBES2Decrypter struct{}

var _ Decrypter = PBES2Decrypter{}

// Handles implements Decrypter.
func (PBES2Decrypter) Handles(block *pem.Block) bool {
	return block.Type == pemTypeEncryptedPKCS8
}

// Decrypt implements Decrypter. The plaintext is a PKCS#8 PrivateKeyInfo.
func (PBES2Decrypter) Decrypt(block *pem.Block, passphrase []byte) ([]byte, string, error) {
	if len(passphrase) == 0 {
		return nil, "", &PassphraseError{Reason: "key is encrypted but no passphrase provided"}
	}

	derive, enc, iv, ciphertext, err := parseEncryptedPrivateKeyInfo(block.Bytes)
	if err != nil {
		return nil, "", err
	}

	key, err := derive(passphrase, enc.keyLen)
	if err != nil {
		return nil, "", formatErr("key derivation failed", err)
	}
	c, err := enc.newBlock(key)
	if err != nil {
		return nil, "", formatErr("invalid cipher key", err)
	}
	if len(iv) != c.BlockSize() {
		return nil, "", formatErr("invalid IV length", nil)
	}
	if len(ciphertext) == 0 || len(ciphertext)%c.BlockSize() != 0 {
		return nil, "", formatErr("ciphertext is not a multiple of the block size", nil)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c, iv).CryptBlocks(plain, ciphertext)

	out, ok := unpad(plain, c.BlockSize())
	if !ok {
		clear(plain)
		return nil, "", &PassphraseError{Reason: "wrong passphrase"}
	}
	return out, "PRIVATE KEY", nil
}

// unpad strips PKCS#7 padding.
func unpad(b []byte, blockSize int) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, false
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}

// parseEncryptedPrivateKeyInfo walks
//
//	EncryptedPrivateKeyInfo ::= SEQUENCE {
//	  encryptionAlgorithm AlgorithmIdentifier, -- PBES2
//	  encryptedData       OCTET STRING }
//	PBES2-params ::= SEQUENCE {
//	  keyDerivationFunc AlgorithmIdentifier,
//	  encryptionScheme  AlgorithmIdentifier }
func parseEncryptedPrivateKeyInfo(der []byte) (keyDeriver, pbes2Cipher, []byte, []byte, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, pbes2Cipher{}, nil, nil, formatErr("malformed EncryptedPrivateKeyInfo", nil)
	}

	oid, params, err := readAlgorithmIdentifier(&seq)
	if err != nil {
		return nil, pbes2Cipher{}, nil, nil, err
	}
	if !oid.Equal(oidPBES2) {
		return nil, pbes2Cipher{}, nil, nil, formatErr(fmt.Sprintf("unsupported encryption scheme %s", oid), nil)
	}

	var ciphertext []byte
	if !seq.ReadASN1Bytes(&ciphertext, cbasn1.OCTET_STRING) {
		return nil, pbes2Cipher{}, nil, nil, formatErr("malformed encryptedData", nil)
	}

	var pbes2 cryptobyte.String
	if !params.ReadASN1(&pbes2, cbasn1.SEQUENCE) {
		return nil, pbes2Cipher{}, nil, nil, formatErr("malformed PBES2 parameters", nil)
	}

	kdfOID, kdfParams, err := readAlgorithmIdentifier(&pbes2)
	if err != nil {
		return nil, pbes2Cipher{}, nil, nil, err
	}
	encOID, encParams, err := readAlgorithmIdentifier(&pbes2)
	if err != nil {
		return nil, pbes2Cipher{}, nil, nil, err
	}

	enc, ok := pbes2CipherFor(encOID)
	if !ok {
		return nil, pbes2Cipher{}, nil, nil, formatErr(fmt.Sprintf("unsupported cipher %s", encOID), nil)
	}
	var iv []byte
	if !encParams.ReadASN1Bytes(&iv, cbasn1.OCTET_STRING) {
		return nil, pbes2Cipher{}, nil, nil, formatErr("malformed cipher IV", nil)
	}

	var derive keyDeriver
	switch {
	case kdfOID.Equal(oidPBKDF2):
		derive, err = parsePBKDF2Params(kdfParams, enc.keyLen)
	case kdfOID.Equal(oidScrypt):
		derive, err = parseScryptParams(kdfParams, enc.keyLen)
	default:
		err = formatErr(fmt.Sprintf("unsupported key derivation function %s", kdfOID), nil)
	}
	if err != nil {
		return nil, pbes2Cipher{}, nil, nil, err
	}
	return derive, enc, iv, ciphertext, nil
}

// parsePBKDF2Params reads
//
//	PBKDF2-params ::= SEQUENCE {
//	  salt OCTET STRING, iterationCount INTEGER,
//	  keyLength INTEGER OPTIONAL, prf AlgorithmIdentifier DEFAULT hmacWithSHA1 }
func parsePBKDF2Params(params cryptobyte.String, keyLen int) (keyDeriver, error) {
	var (
		seq  cryptobyte.String
		salt []byte
		iter int
	)
	if !params.ReadASN1(&seq, cbasn1.SEQUENCE) ||
		!seq.ReadASN1Bytes(&salt, cbasn1.OCTET_STRING) ||
		!seq.ReadASN1Integer(&iter) {
		return nil, formatErr("malformed PBKDF2 parameters", nil)
	}
	if iter < 1 || iter > maxPBKDF2Iterations {
		return nil, formatErr("invalid PBKDF2 iteration count", nil)
	}
	if seq.PeekASN1Tag(cbasn1.INTEGER) {
		var declared int
		if !seq.ReadASN1Integer(&declared) {
			return nil, formatErr("malformed PBKDF2 key length", nil)
		}
		if declared != keyLen {
			return nil, formatErr("PBKDF2 key length does not match cipher", nil)
		}
	}
	prf := sha1.New
	if !seq.Empty() {
		prfOID, _, err := readAlgorithmIdentifier(&seq)
		if err != nil {
			return nil, err
		}
		var ok bool
		if prf, ok = prfFor(prfOID); !ok {
			return nil, formatErr(fmt.Sprintf("unsupported PBKDF2 PRF %s", prfOID), nil)
		}
	}
	return func(passphrase []byte, n int) ([]byte, error) {
		return pbkdf2.Key(passphrase, salt, iter, n, prf), nil
	}, nil
}

// parseScryptParams reads
//
//	scrypt-params ::= SEQUENCE {
//	  salt OCTET STRING, costParameter INTEGER, blockSize INTEGER,
//	  parallelizationParameter INTEGER, keyLength INTEGER OPTIONAL }
func parseScryptParams(params cryptobyte.String, keyLen int) (keyDeriver, error) {
	var (
		seq     cryptobyte.String
		salt    []byte
		n, r, p int
	)
	if !params.ReadASN1(&seq, cbasn1.SEQUENCE) ||
		!seq.ReadASN1Bytes(&salt, cbasn1.OCTET_STRING) ||
		!seq.ReadASN1Integer(&n) ||
		!seq.ReadASN1Integer(&r) ||
		!seq.ReadASN1Integer(&p) {
		return nil, formatErr("malformed scrypt parameters", nil)
	}
	if n < 2 || n > maxScryptN || r < 1 || r > maxScryptR || p < 1 || p > maxScryptP {
		return nil, formatErr("scrypt parameters out of range", nil)
	}
	if seq.PeekASN1Tag(cbasn1.INTEGER) {
		var declared int
		if !seq.ReadASN1Integer(&declared) || declared != keyLen {
			return nil, formatErr("scrypt key length does not match cipher", nil)
		}
	}
	return func(passphrase []byte, size int) ([]byte, error) {
		return scrypt.Key(passphrase, salt, n, r, p, size)
	}, nil
}
