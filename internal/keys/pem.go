package keys

import (
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// PEM block types.
const (
	pemTypePKCS1Public  = "RSA PUBLIC KEY"
	pemTypePKIXPublic   = "PUBLIC KEY"
	pemTypePKCS1Private = "RSA PRIVATE KEY"
	pemTypePKCS8Private = "PRIVATE KEY"
	pemTypeECPrivate    = "EC PRIVATE KEY"
	pemTypeDSAPrivate   = "DSA PRIVATE KEY"
	pemTypeOpenSSH      = "OPENSSH PRIVATE KEY"
)

// LoadPublicKey reads an RSA public key from a PEM file. A private key
// file is accepted too and its public half is returned.
func LoadPublicKey(path string) (*PublicKey, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	pub, err := ParsePublicKeyPEM(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return pub, nil
}

// LoadPrivateKey reads an RSA private key from a PEM file, decrypting it
// with passphrase when the block is encrypted. A nil or empty passphrase
// means none; it is ignored for unencrypted keys.
func LoadPrivateKey(path string, passphrase []byte) (*PrivateKey, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	priv, err := ParsePrivateKeyPEM(data, passphrase)
	if err != nil {
		return nil, withPath(err, path)
	}
	return priv, nil
}

func readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the caller
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &KeyNotFoundError{Path: path, Err: err}
	}
	if err != nil {
		return nil, &KeyFormatError{Path: path, Reason: "cannot read key file", Err: err}
	}
	return data, nil
}

// ParsePublicKeyPEM parses the first key block in data.
func ParsePublicKeyPEM(data []byte) (*PublicKey, error) {
	block, err := decodeKeyBlock(data)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case pemTypePKCS1Public:
		return ParsePKCS1PublicKey(block.Bytes)
	case pemTypePKIXPublic:
		return ParsePKIXPublicKey(block.Bytes)
	}
	priv, err := parsePrivateBlock(block, nil)
	if err != nil {
		return nil, err
	}
	return priv.Public(), nil
}

// ParsePrivateKeyPEM parses the first key block in data.
func ParsePrivateKeyPEM(data, passphrase []byte) (*PrivateKey, error) {
	block, err := decodeKeyBlock(data)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case pemTypePKCS1Public, pemTypePKIXPublic:
		return nil, formatErr("expected a private key, found "+block.Type, nil)
	}
	return parsePrivateBlock(block, passphrase)
}

// decodeKeyBlock returns the first PEM block whose type ends in "KEY",
// skipping things like "EC PARAMETERS".
func decodeKeyBlock(data []byte) (*pem.Block, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, formatErr("no PEM key block found", nil)
		}
		if strings.HasSuffix(block.Type, "KEY") {
			return block, nil
		}
	}
}

func parsePrivateBlock(block *pem.Block, passphrase []byte) (*PrivateKey, error) {
	der, pemType := block.Bytes, block.Type

	d := DecrypterFor(block)
	if d != nil {
		var err error
		if der, pemType, err = d.Decrypt(block, passphrase); err != nil {
			return nil, err
		}
		defer clear(der)
	}

	priv, err := parsePrivateDER(pemType, der)
	if err != nil && d != nil && errors.Is(err, ErrKeyFormat) {
		// Padding checks let roughly 1 in 256 wrong passphrases through.
		return nil, &PassphraseError{Reason: "decrypted data is not a valid key", Err: err}
	}
	return priv, err
}

func parsePrivateDER(pemType string, der []byte) (*PrivateKey, error) {
	switch pemType {
	case pemTypePKCS1Private:
		return ParsePKCS1PrivateKey(der)
	case pemTypePKCS8Private:
		return ParsePKCS8PrivateKey(der)
	case pemTypeECPrivate:
		return nil, &UnsupportedKeyTypeError{KeyType: "EC"}
	case pemTypeDSAPrivate:
		return nil, &UnsupportedKeyTypeError{KeyType: "DSA"}
	case pemTypeOpenSSH:
		return nil, formatErr("OpenSSH key format is not supported", nil)
	default:
		return nil, formatErr(fmt.Sprintf("unexpected PEM type %q", pemType), nil)
	}
}
