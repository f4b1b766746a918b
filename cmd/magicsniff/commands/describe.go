/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: describe.go
Description: Describe command implementation. Prints the detailed detection result
for one file as indented JSON.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RunDescribe prints the description of a file
func RunDescribe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := signalContext()
	defer cancel()

	registry, err := newRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}

	data, err := readInput(args[0])
	if err != nil {
		return err
	}

	desc := registry.Describe(args[0], data)
	out, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode description: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
