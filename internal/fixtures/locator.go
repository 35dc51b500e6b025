// Package fixtures runs known-answer signature vectors against key files
// found in a fixture directory.
package fixtures

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvDir overrides the fixture directory.
	EnvDir = "SIGNATURE_FIXTURES"

	// defaultDirName is looked up in the home directory.
	defaultDirName = "Signature-TestFixtures"
)

// DefaultDir returns $SIGNATURE_FIXTURES, or ~/Signature-TestFixtures.
func DefaultDir() string {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

// Locator maps key names such as "rsa_1024_private" to <Dir>/<name>.pem.
type Locator struct {
	Dir string
}

// NewLocator returns a locator for dir, or for DefaultDir when dir is empty.
func NewLocator(dir string) Locator {
	if dir == "" {
		dir = DefaultDir()
	}
	return Locator{Dir: dir}
}

// Path returns the absolute path of the key file and whether it exists.
// Names containing path separators are never resolved.
func (l Locator) Path(keyName string) (string, bool) {
	if keyName == "" || keyName == "." || keyName == ".." || strings.ContainsAny(keyName, `/\`) {
		return "", false
	}
	path, err := filepath.Abs(filepath.Join(l.Dir, keyName+".pem"))
	if err != nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return path, false
	}
	return path, true
}
