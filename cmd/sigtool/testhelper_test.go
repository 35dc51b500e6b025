package main

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/internal/config"
)

// executeCommand executes a Cobra command with the given args and returns output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err = root.Execute()
	return buf.String(), err
}

// resetFlags resets every command flag to its default value.
func resetFlags() {
	configPath = ""
	auditLogPath = ""
	logLevel = ""

	digestAlgorithm = ""

	signKey = ""
	signAlgorithm = ""
	signPassphraseEnv = ""
	signOut = ""
	signCOSE = false

	verifyKey = ""
	verifyAlgorithm = ""
	verifySignature = ""
	verifyCOSE = false

	keyInspectPassphraseEnv = ""

	vectorsFile = ""
	vectorsFixtures = ""
	vectorsVerbose = false
}

// testContext holds test resources.
type testContext struct {
	t       *testing.T
	tempDir string
}

// newTestContext creates a test context with a temp directory, clean flags
// and no SIGNATURE_* overrides.
func newTestContext(t *testing.T) *testContext {
	t.Helper()
	t.Setenv(config.EnvFixtures, "")
	t.Setenv(config.EnvAuditLog, "")
	t.Setenv(config.EnvLogLevel, "")
	resetFlags()
	return &testContext{t: t, tempDir: t.TempDir()}
}

// path returns a path within the temp directory.
func (tc *testContext) path(name string) string {
	return filepath.Join(tc.tempDir, name)
}

// writeFile writes content to a file in the temp directory.
func (tc *testContext) writeFile(name, content string) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tc.t.Fatalf("Failed to write file %s: %v", name, err)
	}
	return path
}

var (
	rsaKeyOnce sync.Once
	rsaKey     *rsa.PrivateKey
	rsaKeyErr  error
)

// testRSAKey returns a 1024-bit key shared by the tests of this package.
func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	rsaKeyOnce.Do(func() {
		rsaKey, rsaKeyErr = rsa.GenerateKey(rand.Reader, 1024)
	})
	if rsaKeyErr != nil {
		t.Fatalf("Failed to generate RSA key: %v", rsaKeyErr)
	}
	return rsaKey
}

// writeKeyPair writes <name>_private.pem and <name>_public.pem.
func (tc *testContext) writeKeyPair(name string) (privPath, pubPath string) {
	tc.t.Helper()
	key := testRSAKey(tc.t)

	privPath = tc.path(name + "_private.pem")
	priv := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(privPath, priv, 0600); err != nil {
		tc.t.Fatal(err)
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		tc.t.Fatal(err)
	}
	pubPath = tc.path(name + "_public.pem")
	if err := os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0644); err != nil {
		tc.t.Fatal(err)
	}
	return privPath, pubPath
}

// writeEncryptedKey writes the test key with legacy PEM encryption.
func (tc *testContext) writeEncryptedKey(name, passphrase string) string {
	tc.t.Helper()
	key := testRSAKey(tc.t)
	//nolint:staticcheck // legacy PEM encryption is a supported input format
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), []byte(passphrase), x509.PEMCipherAES128)
	if err != nil {
		tc.t.Fatal(err)
	}
	path := tc.path(name)
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		tc.t.Fatal(err)
	}
	return path
}

func assertContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Errorf("output does not contain %q:\n%s", want, output)
	}
}

func assertFileNotEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%s) error = %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}
