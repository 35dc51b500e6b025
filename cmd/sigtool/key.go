package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/pkg/signature"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Key file utilities",
}

var keyInspectCmd = &cobra.Command{
	Use:   "inspect KEYFILE",
	Short: "Show RSA key details",
	Long: `Show the modulus size, public exponent and fingerprint of a PEM key.

Accepted formats: PKCS#1 and SPKI public keys, PKCS#1 and PKCS#8 private
keys, legacy encrypted PEM and PKCS#8 PBES2 (PBKDF2 or scrypt).

Examples:
  sigtool key inspect rsa_2048_public.pem
  KEY_PASS=secret sigtool key inspect --passphrase-env KEY_PASS enc.pem`,
	Args: cobra.ExactArgs(1),
	RunE: runKeyInspect,
}

var keyInspectPassphraseEnv string

func init() {
	keyInspectCmd.Flags().StringVar(&keyInspectPassphraseEnv, "passphrase-env", "", "Environment variable holding the key passphrase")
	keyCmd.AddCommand(keyInspectCmd)
}

func runKeyInspect(cmd *cobra.Command, args []string) error {
	passphrase, err := resolvePassphrase(keyInspectPassphraseEnv)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	priv, err := signature.LoadPrivateKey(args[0], passphrase)
	switch {
	case err == nil:
		_, _ = fmt.Fprintf(w, "Type:        RSA private key\n")
		printPublic(cmd, priv.Public())
		_, _ = fmt.Fprintf(w, "CRT:         %t\n", priv.CRT != nil)
		return nil
	case errors.Is(err, signature.ErrKeyFormat):
		// Public key files are rejected by the private loader.
		pub, perr := signature.LoadPublicKey(args[0])
		if perr != nil {
			return perr
		}
		_, _ = fmt.Fprintf(w, "Type:        RSA public key\n")
		printPublic(cmd, pub)
		return nil
	default:
		return err
	}
}

func printPublic(cmd *cobra.Command, pub *signature.PublicKey) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Size:        %d bits\n", pub.BitLen())
	_, _ = fmt.Fprintf(w, "Exponent:    %d\n", pub.E)
	_, _ = fmt.Fprintf(w, "Fingerprint: %s\n", pub.Fingerprint())
	if err := pub.Validate(); err != nil {
		_, _ = fmt.Fprintf(w, "Warning:     %v\n", err)
	}
}
