package keys

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
)

// Decrypter turns an encrypted PEM block into plaintext DER.
//
// Implementations never retain the passphrase.
type Decrypter interface {
	// Handles reports whether the decrypter understands block.
	Handles(block *pem.Block) bool

	// Decrypt returns the plaintext DER and the PEM type it must be
	// parsed as. The caller owns the DER and clears it once parsed.
	Decrypt(block *pem.Block, passphrase []byte) (der []byte, pemType string, err error)
}

// decrypters are consulted in order by DecrypterFor.
var decrypters = []Decrypter{
	LegacyPEMDecrypter{},
	PBES2Decrypter{},
}

// DecrypterFor returns the decrypter for block, or nil when the block is
// not encrypted.
func DecrypterFor(block *pem.Block) Decrypter {
	for _, d := range decrypters {
		if d.Handles(block) {
			return d
		}
	}
	return nil
}

// IsEncrypted reports whether block needs a passphrase.
func IsEncrypted(block *pem.Block) bool {
	return DecrypterFor(block) != nil
}

// LegacyPEMDecrypter handles RFC 1423 encryption, i.e. blocks carrying
// "Proc-Type: 4,ENCRYPTED" and "DEK-Info" headers as written by
// "openssl rsa -aes256".
type LegacyPEMDecrypter struct{}

var _ Decrypter = LegacyPEMDecrypter{}

// Handles implements Decrypter.
func (LegacyPEMDecrypter) Handles(block *pem.Block) bool {
	return x509.IsEncryptedPEMBlock(block) //nolint:staticcheck // legacy format still found in fixtures
}

// Decrypt implements Decrypter.
func (LegacyPEMDecrypter) Decrypt(block *pem.Block, passphrase []byte) ([]byte, string, error) {
	if len(passphrase) == 0 {
		return nil, "", &PassphraseError{Reason: "key is encrypted but no passphrase provided"}
	}
	der, err := x509.DecryptPEMBlock(block, passphrase) //nolint:staticcheck // legacy format still found in fixtures
	if err != nil {
		if errors.Is(err, x509.IncorrectPasswordError) {
			return nil, "", &PassphraseError{Reason: "wrong passphrase", Err: err}
		}
		return nil, "", formatErr("malformed encrypted PEM block", err)
	}
	return der, block.Type, nil
}
