package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/internal/digest"
)

var digestCmd = &cobra.Command{
	Use:   "digest FILE...",
	Short: "Compute message digests",
	Long: `Compute the digest of one or more files ("-" reads stdin).

Examples:
  sigtool digest --algorithm ripemd160 doc.txt
  echo -n Signature | sigtool digest --algorithm sha256 -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDigest,
}

var digestAlgorithm string

func init() {
	digestCmd.Flags().StringVarP(&digestAlgorithm, "algorithm", "a", "", "Digest algorithm (default from config)")
}

func runDigest(cmd *cobra.Command, args []string) error {
	alg, err := resolveAlgorithm(digestAlgorithm)
	if err != nil {
		return err
	}

	for _, path := range args {
		sum, err := digestFile(cmd, alg, path)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s(%s)= %s\n", alg, path, hex.EncodeToString(sum))
	}
	return nil
}

func digestFile(cmd *cobra.Command, alg digest.Algorithm, path string) ([]byte, error) {
	if path == "-" {
		return digest.SumReader(alg, cmd.InOrStdin())
	}
	f, err := os.Open(path) //nolint:gosec // operator-chosen input
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return digest.SumReader(alg, f)
}
