package pkcs1

import (
	"testing"

	"github.com/remiblancher/signature/internal/digest"
)

// =============================================================================
// Signature Fuzz Tests
// =============================================================================

// FuzzDecodeEMSA tests block parsing of arbitrary bytes.
func FuzzDecodeEMSA(f *testing.F) {
	f.Add([]byte{0x00, 0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x30})
	f.Add([]byte{0x00, 0x02})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, em []byte) {
		tInfo, err := DecodeEMSA(em)
		if err == nil && len(tInfo) > len(em)-minPadding {
			t.Errorf("DigestInfo of %d bytes from a %d-byte block", len(tInfo), len(em))
		}
	})
}

// FuzzVerify tests that arbitrary signatures never verify.
func FuzzVerify(f *testing.F) {
	f.Add([]byte("Signature"), make([]byte, 128))
	f.Add([]byte{}, []byte{0x01})

	f.Fuzz(func(t *testing.T, msg, sig []byte) {
		_, priv := testKey(t, 1024)
		ok, _ := Verify(priv.Public(), digest.SHA256, msg, sig)
		if ok {
			t.Errorf("random signature verified for %x", msg)
		}
	})
}
