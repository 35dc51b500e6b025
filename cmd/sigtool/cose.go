package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/pkg/signature"
)

var coseCmd = &cobra.Command{
	Use:   "cose",
	Short: "COSE_Sign1 envelope utilities",
}

var coseInspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the headers of a COSE_Sign1 message",
	Long: `Decode a COSE_Sign1 message produced by "sigtool sign --cose" without
verifying it.

Example:
  sigtool cose inspect doc.cose`,
	Args: cobra.ExactArgs(1),
	RunE: runCOSEInspect,
}

func init() {
	coseCmd.AddCommand(coseInspectCmd)
}

func runCOSEInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0]) //nolint:gosec // operator-chosen input
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	info, err := signature.InspectCOSE(data)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Type:       COSE_Sign1\n")
	_, _ = fmt.Fprintf(w, "Algorithm:  %s (%d)\n", info.AlgorithmName, int64(info.Algorithm))
	if info.KeyID != "" {
		_, _ = fmt.Fprintf(w, "Key ID:     %s\n", info.KeyID)
	}
	_, _ = fmt.Fprintf(w, "Signature:  %d bytes\n", info.SignatureSize)
	if info.Payload == nil {
		_, _ = fmt.Fprintf(w, "Payload:    detached\n")
		return nil
	}
	preview := info.Payload
	if len(preview) > 32 {
		preview = preview[:32]
	}
	_, _ = fmt.Fprintf(w, "Payload:    %d bytes, %s\n", len(info.Payload), hex.EncodeToString(preview))
	return nil
}
