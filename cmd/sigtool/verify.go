package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/pkg/signature"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [FILE]",
	Short: "Verify a signature",
	Long: `Verify an RSASSA-PKCS1-v1_5 signature over a file.

The signature file may hold raw bytes or hex. The command fails when the
signature does not match. With --cose the signature file is a COSE_Sign1
message; FILE is then optional and, when given, must equal the payload.

Examples:
  sigtool verify --key public.pem --algorithm sha256 --signature doc.sig doc.txt
  sigtool verify --key public.pem --cose --signature doc.cose`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

var (
	verifyKey       string
	verifyAlgorithm string
	verifySignature string
	verifyCOSE      bool
)

// errVerificationFailed is returned for a signature that does not match.
var errVerificationFailed = errors.New("signature verification failed")

func init() {
	verifyCmd.Flags().StringVarP(&verifyKey, "key", "k", "", "Public or private key PEM file (required)")
	verifyCmd.Flags().StringVarP(&verifyAlgorithm, "algorithm", "a", "", "Digest algorithm (default from config)")
	verifyCmd.Flags().StringVarP(&verifySignature, "signature", "s", "", "Signature file (required)")
	verifyCmd.Flags().BoolVar(&verifyCOSE, "cose", false, "Signature file is a COSE_Sign1 message")
	_ = verifyCmd.MarkFlagRequired("key")
	_ = verifyCmd.MarkFlagRequired("signature")
}

func runVerify(cmd *cobra.Command, args []string) error {
	pub, err := signature.LoadPublicKey(verifyKey)
	if err != nil {
		return err
	}

	if verifyCOSE {
		return runVerifyCOSE(cmd, pub, args)
	}
	if len(args) != 1 {
		return fmt.Errorf("FILE is required without --cose")
	}

	alg, err := resolveAlgorithm(verifyAlgorithm)
	if err != nil {
		return err
	}
	message, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	sig, err := readSignature(verifySignature, pub.Size())
	if err != nil {
		return err
	}

	ok, err := signature.Verify(pub, alg, message, sig)
	if err != nil {
		log.Debug().Err(err).Msg("Signature rejected")
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signature: INVALID (%v)\n", err)
		return fmt.Errorf("%w: %w", errVerificationFailed, err)
	}
	if !ok {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signature: INVALID")
		return errVerificationFailed
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signature: VALID (%s, %d-bit key)\n", alg, pub.BitLen())
	return nil
}

func runVerifyCOSE(cmd *cobra.Command, pub *signature.PublicKey, args []string) error {
	msg, err := os.ReadFile(verifySignature) //nolint:gosec // operator-chosen input
	if err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}

	payload, err := signature.VerifyCOSE(pub, msg)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signature: INVALID (%v)\n", err)
		return fmt.Errorf("%w: %w", errVerificationFailed, err)
	}

	if len(args) == 1 {
		message, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		if !bytes.Equal(message, payload) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signature: INVALID (payload differs from file)")
			return errVerificationFailed
		}
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signature: VALID (COSE_Sign1, %d-byte payload)\n", len(payload))
	return nil
}
