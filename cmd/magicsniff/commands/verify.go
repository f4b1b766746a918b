/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: verify.go
Description: Verify command implementation. Checks a labelled corpus and prints a
summary with every failing sample.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/magicsniff/pkg/corpus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunVerify checks the corpus at args[0]
func RunVerify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	verifier := corpus.NewVerifier(client, viper.GetInt("verify.concurrency"), logger.GetLogger())
	report, err := verifier.Verify(ctx, args[0], viper.GetStringSlice("verify.exclude"))
	if err != nil {
		return err
	}

	for _, f := range report.Failures {
		switch {
		case f.Error != "":
			fmt.Printf("FAIL %s: %s\n", f.Path, f.Error)
		case f.Consistent:
			fmt.Printf("FAIL %s: expected %s, got %s (matches as subtype)\n", f.Path, f.Expected, f.Actual)
		default:
			fmt.Printf("FAIL %s: expected %s, got %s\n", f.Path, f.Expected, f.Actual)
		}
	}
	fmt.Printf("%d samples, %d passed, %d failed in %s\n", report.Total, report.Passed, report.Failed, report.Duration)

	if dir := viper.GetString("verify.report_dir"); dir != "" {
		path, err := corpus.WriteReport(dir, report)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)
	}

	if !report.OK() {
		logger.Warning("Corpus verification failed", map[string]interface{}{
			"root":   args[0],
			"failed": report.Failed,
			"total":  report.Total,
		})
		return fmt.Errorf("%d of %d samples failed", report.Failed, report.Total)
	}
	return nil
}
