// Command sigtool signs and verifies files with RSASSA-PKCS1-v1_5 and runs
// known-answer signature vectors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/internal/audit"
	"github.com/remiblancher/signature/internal/config"
)

// Build-time variables
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	configPath   string
	auditLogPath string
	logLevel     string
)

// cfg is the configuration resolved by the root command.
var cfg = config.Default()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if cerr := audit.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sigtool",
	Short: "RSASSA-PKCS1-v1_5 signing and verification",
	Long: `sigtool signs and verifies files with RSA PKCS#1 v1.5 signatures
(RFC 8017 section 8.2) using PEM key files, optionally wrapped in COSE_Sign1.

Supported digests: MD4, MD5, SHA-1, SHA-224, SHA-256, SHA-384, SHA-512, RIPEMD-160

Examples:
  # Sign a file
  sigtool sign --key private.pem --algorithm sha256 --out doc.sig doc.txt

  # Verify it
  sigtool verify --key public.pem --algorithm sha256 --signature doc.sig doc.txt

  # Run the built-in test vectors against ~/Signature-TestFixtures
  sigtool vectors`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if auditLogPath != "" {
			loaded.AuditLog = auditLogPath
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		lvl, err := loaded.Level()
		if err != nil {
			return err
		}
		cfg = loaded

		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
			Level(lvl).With().Timestamp().Logger()

		// A previous command in the same process may have left a writer open.
		_ = audit.Close()
		if err := audit.InitFile(cfg.AuditLog); err != nil {
			return fmt.Errorf("failed to initialize audit log: %w", err)
		}
		log.Debug().Str("config", configPath).Str("audit_log", cfg.AuditLog).Msg("Configuration loaded")
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set "+config.EnvAuditLog+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: trace, debug, info, warn, error (or set "+config.EnvLogLevel+")")

	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(coseCmd)
	rootCmd.AddCommand(vectorsCmd)
	rootCmd.AddCommand(auditCmd)
}
