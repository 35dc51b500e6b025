//go:build acceptance

// Package acceptance contains black-box CLI acceptance tests (TestA_*).
// Run with: go test -tags=acceptance ./test/acceptance/...
package acceptance

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// sigtoolBinary is the path to the sigtool binary.
// Set via SIGTOOL_BINARY env var or default to bin/sigtool in the repo root.
var sigtoolBinary string

func init() {
	if bin := os.Getenv("SIGTOOL_BINARY"); bin != "" {
		sigtoolBinary = bin
	} else {
		sigtoolBinary = "../../bin/sigtool"
	}
}

// runSigtool executes sigtool with the given arguments and returns stdout.
// Fails the test if the command returns a non-zero exit code.
func runSigtool(t *testing.T, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(sigtoolBinary, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("sigtool %s failed: %v\nstderr: %s\nstdout: %s",
			strings.Join(args, " "), err, stderr.String(), stdout.String())
	}
	return stdout.String()
}

// runSigtoolExpectError executes sigtool and expects exit code 1.
// Returns the combined output (stdout + stderr).
func runSigtoolExpectError(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(sigtoolBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		t.Fatalf("sigtool %s expected to fail but succeeded\nstdout: %s",
			strings.Join(args, " "), stdout.String())
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.ExitCode())
	}
	return stdout.String() + stderr.String()
}

// requireOpenSSL skips the test when the openssl binary is unavailable.
func requireOpenSSL(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("openssl")
	if err != nil {
		t.Skip("openssl not found in PATH")
	}
	return path
}

// runOpenSSL executes openssl and fails the test on error.
func runOpenSSL(t *testing.T, args ...string) string {
	t.Helper()
	out, err := exec.Command(requireOpenSSL(t), args...).CombinedOutput()
	if err != nil {
		t.Fatalf("openssl %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

// writeTestFile writes content to a file in a temp directory.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// writeRSAKeyPair writes a fresh key as PKCS#1 private and SPKI public PEM.
func writeRSAKeyPair(t *testing.T, bits int) (privPath, pubPath string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	dir := t.TempDir()

	privPath = filepath.Join(dir, "private.pem")
	priv := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(privPath, priv, 0600); err != nil {
		t.Fatal(err)
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	pubPath = filepath.Join(dir, "public.pem")
	if err := os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0644); err != nil {
		t.Fatal(err)
	}
	return privPath, pubPath
}

// assertOutputContains fails if output does not contain want.
func assertOutputContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Errorf("output does not contain %q:\n%s", want, output)
	}
}
