package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/pkg/signature"
)

var signCmd = &cobra.Command{
	Use:   "sign FILE",
	Short: "Sign a file",
	Long: `Sign a file with RSASSA-PKCS1-v1_5.

The signature is written to --out as raw bytes, or printed in hex when --out
is omitted. With --cose the output is a COSE_Sign1 message embedding the file
(SHA-1, SHA-256, SHA-384 and SHA-512 only).

Encrypted keys read their passphrase from the variable named by
--passphrase-env (or passphrase_env in the config file).

Examples:
  sigtool sign --key private.pem --algorithm sha256 --out doc.sig doc.txt
  KEY_PASS=secret sigtool sign --key enc.pem --passphrase-env KEY_PASS doc.txt
  sigtool sign --key private.pem --algorithm sha384 --cose --out doc.cose doc.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

var (
	signKey           string
	signAlgorithm     string
	signPassphraseEnv string
	signOut           string
	signCOSE          bool
)

func init() {
	signCmd.Flags().StringVarP(&signKey, "key", "k", "", "Private key PEM file (required)")
	signCmd.Flags().StringVarP(&signAlgorithm, "algorithm", "a", "", "Digest algorithm (default from config)")
	signCmd.Flags().StringVar(&signPassphraseEnv, "passphrase-env", "", "Environment variable holding the key passphrase")
	signCmd.Flags().StringVarP(&signOut, "out", "o", "", "Output file (hex to stdout if omitted)")
	signCmd.Flags().BoolVar(&signCOSE, "cose", false, "Produce a COSE_Sign1 message")
	_ = signCmd.MarkFlagRequired("key")
}

func runSign(cmd *cobra.Command, args []string) error {
	alg, err := resolveAlgorithm(signAlgorithm)
	if err != nil {
		return err
	}
	passphrase, err := resolvePassphrase(signPassphraseEnv)
	if err != nil {
		return err
	}

	priv, err := signature.LoadPrivateKey(signKey, passphrase)
	if err != nil {
		return err
	}
	log.Debug().Str("key", signKey).Int("bits", priv.BitLen()).Str("fingerprint", priv.Fingerprint()).Msg("Private key loaded")

	message, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	var out []byte
	if signCOSE {
		out, err = signature.SignCOSE(priv, alg, message)
	} else {
		out, err = signature.Sign(priv, alg, message)
	}
	if err != nil {
		return fmt.Errorf("failed to sign %s: %w", args[0], err)
	}
	log.Info().Str("algorithm", alg.String()).Bool("cose", signCOSE).Int("bytes", len(out)).Msg("Signature created")

	return writeOutput(cmd, signOut, out)
}
