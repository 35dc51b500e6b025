package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/internal/config"
	"github.com/remiblancher/signature/internal/digest"
)

// resolveAlgorithm parses name, falling back to the configured default.
func resolveAlgorithm(name string) (digest.Algorithm, error) {
	if name == "" {
		return cfg.Algorithm()
	}
	return digest.Parse(name)
}

// resolvePassphrase reads the passphrase from envName, or from the
// configured passphrase_env when envName is empty.
func resolvePassphrase(envName string) (*string, error) {
	if envName == "" {
		envName = cfg.PassphraseEnv
	}
	return config.PassphraseFromEnv(envName)
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-chosen input
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// readSignature reads a signature file holding either raw bytes or the
// hex encoding of a size-byte signature.
func readSignature(path string, size int) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-chosen input
	if err != nil {
		return nil, fmt.Errorf("failed to read signature: %w", err)
	}
	text := bytes.TrimSpace(data)
	if len(text) == 2*size {
		if raw, err := hex.DecodeString(string(text)); err == nil {
			return raw, nil
		}
	}
	return data, nil
}

// writeOutput writes data to path, or hex to the command output when path
// is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // signatures are public
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
