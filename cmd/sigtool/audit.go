package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log management",
	Long: `Commands for verifying audit logs.

The audit log is a tamper-evident record of key loads, signatures,
verifications and vector runs. Each event is chained to the previous one
with a SHA-256 hash.

Example:
  sigtool audit verify /var/log/sigtool/audit.jsonl`,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify LOG",
	Short: "Verify audit log integrity",
	Long: `Verify the hash chain of an audit log file.

The chain starts with hash_prev="sha256:genesis". A modified, deleted or
inserted event is reported with its line number.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuditVerify,
}

func init() {
	auditCmd.AddCommand(auditVerifyCmd)
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Verifying audit log: %s\n\n", args[0])

	count, err := audit.VerifyChain(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(w, "VERIFICATION FAILED\n")
		_, _ = fmt.Fprintf(w, "  Valid events: %d\n", count)
		_, _ = fmt.Fprintf(w, "  Error: %s\n", err)
		return fmt.Errorf("audit log verification failed: %w", err)
	}

	_, _ = fmt.Fprintf(w, "VERIFICATION PASSED\n")
	_, _ = fmt.Fprintf(w, "  Total events: %d\n", count)
	_, _ = fmt.Fprintf(w, "  Hash chain: VALID\n")
	return nil
}
