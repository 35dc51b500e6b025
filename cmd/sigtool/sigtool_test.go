package main

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/remiblancher/signature/internal/digest"
	"github.com/remiblancher/signature/internal/keys"
	"github.com/remiblancher/signature/internal/pkcs1"
)

// =============================================================================
// [Functional] digest
// =============================================================================

func TestF_Digest(t *testing.T) {
	tc := newTestContext(t)
	empty := tc.writeFile("empty.txt", "")
	msg := tc.writeFile("msg.txt", "Signature")
	sum := sha256.Sum256([]byte("Signature"))

	tests := []struct {
		name      string
		algorithm string
		file      string
		want      string
	}{
		{"[Functional] digest: MD4 empty", "md4", empty, "31d6cfe0d16ae931b73c59d7e0c089c0"},
		{"[Functional] digest: RIPEMD-160 empty", "ripemd-160", empty, "9c1185a5c5e9fc54612808977ee8f548b2258d31"},
		{"[Functional] digest: default SHA-256", "", msg, hex.EncodeToString(sum[:])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			args := []string{"digest", tt.file}
			if tt.algorithm != "" {
				args = append(args, "--algorithm", tt.algorithm)
			}
			out, err := executeCommand(rootCmd, args...)
			if err != nil {
				t.Fatalf("digest error = %v", err)
			}
			assertContains(t, out, tt.want)
		})
	}

	t.Run("[Functional] digest: unknown algorithm", func(t *testing.T) {
		resetFlags()
		if _, err := executeCommand(rootCmd, "digest", "--algorithm", "sha3", msg); !errors.Is(err, digest.ErrUnsupportedAlgorithm) {
			t.Errorf("error = %v, want ErrUnsupportedAlgorithm", err)
		}
	})
}

// =============================================================================
// [Functional] sign / verify
// =============================================================================

func TestF_SignVerify(t *testing.T) {
	tc := newTestContext(t)
	privPath, pubPath := tc.writeKeyPair("test")
	msg := tc.writeFile("doc.txt", "Signature")
	sigPath := tc.path("doc.sig")

	for _, alg := range []string{"md5", "sha1", "sha256", "sha512", "ripemd160"} {
		t.Run("[Functional] sign/verify: "+alg, func(t *testing.T) {
			resetFlags()
			if _, err := executeCommand(rootCmd, "sign", "--key", privPath, "--algorithm", alg, "--out", sigPath, msg); err != nil {
				t.Fatalf("sign error = %v", err)
			}
			assertFileNotEmpty(t, sigPath)

			resetFlags()
			out, err := executeCommand(rootCmd, "verify", "--key", pubPath, "--algorithm", alg, "--signature", sigPath, msg)
			if err != nil {
				t.Fatalf("verify error = %v\n%s", err, out)
			}
			assertContains(t, out, "Signature: VALID")
		})
	}
}

func TestF_Verify_Mismatch(t *testing.T) {
	tc := newTestContext(t)
	privPath, pubPath := tc.writeKeyPair("test")
	msg := tc.writeFile("doc.txt", "Signature")
	other := tc.writeFile("other.txt", "Signaturf")
	sigPath := tc.path("doc.sig")

	if _, err := executeCommand(rootCmd, "sign", "--key", privPath, "--algorithm", "sha256", "--out", sigPath, msg); err != nil {
		t.Fatalf("sign error = %v", err)
	}

	resetFlags()
	out, err := executeCommand(rootCmd, "verify", "--key", pubPath, "--algorithm", "sha256", "--signature", sigPath, other)
	if !errors.Is(err, errVerificationFailed) {
		t.Fatalf("verify error = %v, want errVerificationFailed", err)
	}
	assertContains(t, out, "Signature: INVALID")

	resetFlags()
	_, err = executeCommand(rootCmd, "verify", "--key", pubPath, "--algorithm", "sha384", "--signature", sigPath, msg)
	if !errors.Is(err, errVerificationFailed) {
		t.Errorf("wrong algorithm error = %v, want errVerificationFailed", err)
	}
}

func TestF_Sign_HexOutput(t *testing.T) {
	tc := newTestContext(t)
	privPath, pubPath := tc.writeKeyPair("test")
	msg := tc.writeFile("doc.txt", "Signature")

	out, err := executeCommand(rootCmd, "sign", "--key", privPath, "--algorithm", "sha224", msg)
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}
	sigHex := strings.TrimSpace(out)
	if len(sigHex) != 256 {
		t.Fatalf("hex signature has %d characters, want 256:\n%s", len(sigHex), out)
	}

	// verify accepts the hex form as well as raw bytes.
	sigPath := tc.writeFile("doc.sig.hex", sigHex+"\n")
	resetFlags()
	if _, err := executeCommand(rootCmd, "verify", "--key", pubPath, "--algorithm", "sha224", "--signature", sigPath, msg); err != nil {
		t.Errorf("verify hex error = %v", err)
	}
}

func TestF_Sign_EncryptedKey(t *testing.T) {
	tc := newTestContext(t)
	keyPath := tc.writeEncryptedKey("enc.pem", "correct horse")
	msg := tc.writeFile("doc.txt", "Signature")

	t.Setenv("SIGTOOL_TEST_PASS", "correct horse")
	if _, err := executeCommand(rootCmd, "sign", "--key", keyPath, "--passphrase-env", "SIGTOOL_TEST_PASS", msg); err != nil {
		t.Errorf("sign with passphrase error = %v", err)
	}

	resetFlags()
	if _, err := executeCommand(rootCmd, "sign", "--key", keyPath, msg); !errors.Is(err, keys.ErrPassphrase) {
		t.Errorf("sign without passphrase error = %v, want ErrPassphrase", err)
	}

	resetFlags()
	t.Setenv("SIGTOOL_TEST_PASS", "wrong horse")
	if _, err := executeCommand(rootCmd, "sign", "--key", keyPath, "--passphrase-env", "SIGTOOL_TEST_PASS", msg); !errors.Is(err, keys.ErrPassphrase) {
		t.Errorf("sign with wrong passphrase error = %v, want ErrPassphrase", err)
	}
}

func TestF_Sign_MissingKey(t *testing.T) {
	tc := newTestContext(t)
	msg := tc.writeFile("doc.txt", "Signature")
	if _, err := executeCommand(rootCmd, "sign", "--key", tc.path("absent.pem"), msg); !errors.Is(err, keys.ErrKeyNotFound) {
		t.Errorf("error = %v, want ErrKeyNotFound", err)
	}
}

// =============================================================================
// [Functional] COSE
// =============================================================================

func TestF_COSE(t *testing.T) {
	tc := newTestContext(t)
	privPath, pubPath := tc.writeKeyPair("test")
	msg := tc.writeFile("doc.txt", "Signature")
	other := tc.writeFile("other.txt", "something else")
	envelope := tc.path("doc.cose")

	if _, err := executeCommand(rootCmd, "sign", "--key", privPath, "--algorithm", "sha256", "--cose", "--out", envelope, msg); err != nil {
		t.Fatalf("sign --cose error = %v", err)
	}

	resetFlags()
	out, err := executeCommand(rootCmd, "verify", "--key", pubPath, "--cose", "--signature", envelope)
	if err != nil {
		t.Fatalf("verify --cose error = %v", err)
	}
	assertContains(t, out, "Signature: VALID (COSE_Sign1, 9-byte payload)")

	resetFlags()
	if _, err := executeCommand(rootCmd, "verify", "--key", pubPath, "--cose", "--signature", envelope, msg); err != nil {
		t.Errorf("verify --cose with file error = %v", err)
	}

	resetFlags()
	if _, err := executeCommand(rootCmd, "verify", "--key", pubPath, "--cose", "--signature", envelope, other); !errors.Is(err, errVerificationFailed) {
		t.Errorf("verify --cose with other file error = %v", err)
	}

	resetFlags()
	out, err = executeCommand(rootCmd, "cose", "inspect", envelope)
	if err != nil {
		t.Fatalf("cose inspect error = %v", err)
	}
	assertContains(t, out, "RS256 (-257)")
	assertContains(t, out, "Signature:  128 bytes")

	resetFlags()
	if _, err := executeCommand(rootCmd, "sign", "--key", privPath, "--algorithm", "md5", "--cose", msg); err == nil {
		t.Error("sign --cose with MD5 should fail")
	}
}

// =============================================================================
// [Functional] key inspect
// =============================================================================

func TestF_KeyInspect(t *testing.T) {
	tc := newTestContext(t)
	privPath, pubPath := tc.writeKeyPair("test")

	out, err := executeCommand(rootCmd, "key", "inspect", privPath)
	if err != nil {
		t.Fatalf("key inspect private error = %v", err)
	}
	assertContains(t, out, "RSA private key")
	assertContains(t, out, "1024 bits")
	assertContains(t, out, "CRT:         true")

	resetFlags()
	out, err = executeCommand(rootCmd, "key", "inspect", pubPath)
	if err != nil {
		t.Fatalf("key inspect public error = %v", err)
	}
	assertContains(t, out, "RSA public key")
	assertContains(t, out, "Exponent:    65537")

	resetFlags()
	garbage := tc.writeFile("garbage.pem", "nope")
	if _, err := executeCommand(rootCmd, "key", "inspect", garbage); !errors.Is(err, keys.ErrKeyFormat) {
		t.Errorf("key inspect garbage error = %v, want ErrKeyFormat", err)
	}
}

// =============================================================================
// [Functional] vectors
// =============================================================================

func TestF_Vectors_BuiltinWithoutFixtures(t *testing.T) {
	tc := newTestContext(t)

	out, err := executeCommand(rootCmd, "vectors", "--fixtures", tc.tempDir)
	if err != nil {
		t.Fatalf("vectors error = %v\n%s", err, out)
	}
	assertContains(t, out, "0 passed, 0 failed, 32 skipped")
}

// vectorYAML signs "Signature" with the test key and returns a vector file
// with a valid and a forged entry.
func vectorYAML(t *testing.T, alg digest.Algorithm, keyName string, expectForgedValid bool) string {
	t.Helper()
	priv, err := keys.ParsePKCS1PrivateKey(x509.MarshalPKCS1PrivateKey(testRSAKey(t)))
	if err != nil {
		t.Fatal(err)
	}
	sig, err := pkcs1.Sign(priv, alg, []byte("Signature"))
	if err != nil {
		t.Fatal(err)
	}
	forged := append([]byte(nil), sig...)
	forged[0] ^= 0x10

	forgedExpect := "forged"
	if expectForgedValid {
		forgedExpect = "valid"
	}
	entry := `  - algorithm: %s
    private_key: %s_private
    public_key: %s_public
    message: "Signature"
    signature: "%x"
    expect: %s
`
	return "vectors:\n" +
		fmt.Sprintf(entry, alg, keyName, keyName, sig, "valid") +
		fmt.Sprintf(entry, alg, keyName, keyName, forged, forgedExpect)
}

func TestF_Vectors_File(t *testing.T) {
	tc := newTestContext(t)
	tc.writeKeyPair("gen")

	vectorsPath := tc.writeFile("vectors.yaml", vectorYAML(t, digest.SHA256, "gen", false))
	out, err := executeCommand(rootCmd, "vectors", "--file", vectorsPath, "--fixtures", tc.tempDir, "-v")
	if err != nil {
		t.Fatalf("vectors error = %v\n%s", err, out)
	}
	assertContains(t, out, "PASS  SHA-256/gen/valid")
	assertContains(t, out, "PASS  SHA-256/gen/forged")
	assertContains(t, out, "2 passed, 0 failed, 0 skipped")

	resetFlags()
	badPath := tc.writeFile("bad.yaml", vectorYAML(t, digest.SHA1, "gen", true))
	out, err = executeCommand(rootCmd, "vectors", "--file", badPath, "--fixtures", tc.tempDir)
	if err == nil {
		t.Fatalf("vectors with a wrong expectation should fail:\n%s", out)
	}
	assertContains(t, out, "FAIL  SHA-1/gen/valid")
}

// =============================================================================
// [Functional] audit log and config
// =============================================================================

func TestF_AuditLog(t *testing.T) {
	tc := newTestContext(t)
	privPath, pubPath := tc.writeKeyPair("test")
	msg := tc.writeFile("doc.txt", "Signature")
	sigPath := tc.path("doc.sig")
	logPath := tc.path("audit.jsonl")

	if _, err := executeCommand(rootCmd, "--audit-log", logPath, "sign", "--key", privPath, "--out", sigPath, msg); err != nil {
		t.Fatalf("sign error = %v", err)
	}
	resetFlags()
	if _, err := executeCommand(rootCmd, "--audit-log", logPath, "verify", "--key", pubPath, "--signature", sigPath, msg); err != nil {
		t.Fatalf("verify error = %v", err)
	}

	resetFlags()
	out, err := executeCommand(rootCmd, "audit", "verify", logPath)
	if err != nil {
		t.Fatalf("audit verify error = %v\n%s", err, out)
	}
	assertContains(t, out, "Total events: 4")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), "KEY_LOADED", "KEY_LOADEX", 1)
	if err := os.WriteFile(logPath, []byte(tampered), 0600); err != nil {
		t.Fatal(err)
	}

	resetFlags()
	out, err = executeCommand(rootCmd, "audit", "verify", logPath)
	if err == nil {
		t.Fatal("tampered log verified")
	}
	assertContains(t, out, "VERIFICATION FAILED")
}

func TestF_Config(t *testing.T) {
	tc := newTestContext(t)
	_, pubPath := tc.writeKeyPair("test")
	keyPath := tc.writeEncryptedKey("enc.pem", "from config")
	msg := tc.writeFile("doc.txt", "Signature")
	sigPath := tc.path("doc.sig")
	t.Setenv("SIGTOOL_CFG_PASS", "from config")

	cfgPath := tc.writeFile("sigtool.yaml", fmt.Sprintf(`
fixtures_dir: %s
default_algorithm: sha512
passphrase_env: SIGTOOL_CFG_PASS
`, tc.tempDir))

	if _, err := executeCommand(rootCmd, "--config", cfgPath, "sign", "--key", keyPath, "--out", sigPath, msg); err != nil {
		t.Fatalf("sign error = %v", err)
	}

	resetFlags()
	if _, err := executeCommand(rootCmd, "verify", "--key", pubPath, "--algorithm", "sha512", "--signature", sigPath, msg); err != nil {
		t.Errorf("signature was not made with the configured SHA-512: %v", err)
	}

	resetFlags()
	bad := tc.writeFile("bad.yaml", "log_level: loud\n")
	if _, err := executeCommand(rootCmd, "--config", bad, "digest", msg); err == nil {
		t.Error("invalid config should fail")
	}
}
