package fixtures

import (
	"bytes"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/remiblancher/signature/internal/digest"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Expectation is what verifying a vector's signature must return.
type Expectation string

const (
	ExpectValid  Expectation = "valid"
	ExpectForged Expectation = "forged"
)

// Vector is one known-answer test.
type Vector struct {
	Algorithm  digest.Algorithm
	PrivateKey string  // fixture name, e.g. "rsa_1024_private"
	PublicKey  string  // fixture name, e.g. "rsa_1024_public"
	Passphrase *string // nil for unencrypted keys
	Message    []byte
	Signature  []byte
	Expect     Expectation
}

// Name identifies the vector in reports.
func (v Vector) Name() string {
	return fmt.Sprintf("%s/%s/%s", v.Algorithm, strings.TrimSuffix(v.PublicKey, "_public"), v.Expect)
}

// ErrInvalidVector indicates a malformed vector file entry.
var ErrInvalidVector = errors.New("invalid test vector")

type vectorFile struct {
	Vectors []vectorEntry `yaml:"vectors"`
}

type vectorEntry struct {
	Algorithm  string  `yaml:"algorithm"`
	PrivateKey string  `yaml:"private_key"`
	PublicKey  string  `yaml:"public_key"`
	Passphrase *string `yaml:"passphrase,omitempty"`
	Message    string  `yaml:"message"`
	Signature  string  `yaml:"signature"`
	Expect     string  `yaml:"expect"`
}

func (e vectorEntry) vector() (Vector, error) {
	alg, err := digest.Parse(e.Algorithm)
	if err != nil {
		return Vector{}, err
	}
	if e.PublicKey == "" {
		return Vector{}, errors.New("public_key is required")
	}
	sig, err := hex.DecodeString(strings.TrimSpace(e.Signature))
	if err != nil {
		return Vector{}, fmt.Errorf("signature: %w", err)
	}
	if len(sig) == 0 {
		return Vector{}, errors.New("signature is required")
	}

	v := Vector{
		Algorithm:  alg,
		PrivateKey: e.PrivateKey,
		PublicKey:  e.PublicKey,
		Passphrase: e.Passphrase,
		Message:    []byte(e.Message),
		Signature:  sig,
		Expect:     Expectation(e.Expect),
	}
	switch v.Expect {
	case ExpectValid:
		if v.PrivateKey == "" {
			return Vector{}, errors.New("private_key is required for valid vectors")
		}
	case ExpectForged:
	default:
		return Vector{}, fmt.Errorf("expect must be %q or %q, got %q", ExpectValid, ExpectForged, e.Expect)
	}
	return v, nil
}

// LoadVectors decodes a YAML vector document.
func LoadVectors(r io.Reader) ([]Vector, error) {
	var doc vectorFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidVector, err)
	}

	vectors := make([]Vector, 0, len(doc.Vectors))
	for i, e := range doc.Vectors {
		v, err := e.vector()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidVector, i, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

// LoadVectorsFile decodes the YAML vector file at path.
func LoadVectorsFile(path string) ([]Vector, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-chosen vector file
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	vectors, err := LoadVectors(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vectors, nil
}

// BuiltinVectors returns the vectors compiled into the binary: every
// supported digest with 1024- and 2048-bit keys, valid and forged.
func BuiltinVectors() ([]Vector, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, fmt.Errorf("read embedded vectors: %w", err)
	}

	var all []Vector
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := builtinFS.ReadFile(path.Join("builtin", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		vectors, err := LoadVectors(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		all = append(all, vectors...)
	}
	return all, nil
}
