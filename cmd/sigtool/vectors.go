package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/remiblancher/signature/internal/audit"
	"github.com/remiblancher/signature/internal/fixtures"
)

var vectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "Run known-answer signature vectors",
	Long: `Run RSA PKCS#1 v1.5 test vectors against key fixtures.

Without --file the built-in table is used: every supported digest with
1024- and 2048-bit keys, each with a valid and a forged signature. Keys are
read from <fixtures>/<name>.pem; vectors whose key file is absent are
skipped. The command fails if any vector fails.

Examples:
  sigtool vectors --fixtures ~/Signature-TestFixtures
  sigtool vectors --file extra_vectors.yaml -v`,
	Args: cobra.NoArgs,
	RunE: runVectors,
}

var (
	vectorsFile     string
	vectorsFixtures string
	vectorsVerbose  bool
)

func init() {
	vectorsCmd.Flags().StringVarP(&vectorsFile, "file", "f", "", "YAML vector file (default: built-in vectors)")
	vectorsCmd.Flags().StringVar(&vectorsFixtures, "fixtures", "", "Key fixture directory (default from config)")
	vectorsCmd.Flags().BoolVarP(&vectorsVerbose, "verbose", "v", false, "Print every vector")
}

func runVectors(cmd *cobra.Command, args []string) error {
	source := "builtin"
	var (
		vectors []fixtures.Vector
		err     error
	)
	if vectorsFile != "" {
		source = vectorsFile
		vectors, err = fixtures.LoadVectorsFile(vectorsFile)
	} else {
		vectors, err = fixtures.BuiltinVectors()
	}
	if err != nil {
		return err
	}

	dir := vectorsFixtures
	if dir == "" {
		dir = cfg.FixturesDir
	}
	runner := fixtures.NewRunner(fixtures.NewLocator(dir))
	log.Debug().Str("fixtures", runner.Locator.Dir).Int("vectors", len(vectors)).Msg("Running vectors")

	report, err := runner.Run(cmd.Context(), vectors)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, r := range report.Results {
		switch r.Status {
		case fixtures.StatusFailed:
			log.Error().Err(r.Err).Str("vector", r.Vector.Name()).Msg("Vector failed")
			_, _ = fmt.Fprintf(w, "FAIL  %s: %v\n", r.Vector.Name(), r.Err)
		case fixtures.StatusSkipped:
			log.Debug().Err(r.Err).Str("vector", r.Vector.Name()).Msg("Vector skipped")
			if vectorsVerbose {
				_, _ = fmt.Fprintf(w, "SKIP  %s\n", r.Vector.Name())
			}
		default:
			if vectorsVerbose {
				_, _ = fmt.Fprintf(w, "PASS  %s\n", r.Vector.Name())
			}
		}
	}

	s := report.Summary
	_, _ = fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped (%s, fixtures: %s)\n",
		s.Passed, s.Failed, s.Skipped, source, runner.Locator.Dir)
	if s.Skipped == s.Total() && s.Total() > 0 {
		log.Warn().Str("fixtures", runner.Locator.Dir).Msg("No key fixtures found; set " + fixtures.EnvDir)
	}

	if err := audit.LogVectorRun(source, s.Passed, s.Failed, s.Skipped); err != nil {
		return err
	}
	if !s.OK() {
		return fmt.Errorf("%d of %d vectors failed", s.Failed, s.Total())
	}
	return nil
}
