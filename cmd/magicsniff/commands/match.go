/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: match.go
Description: Match command implementation. Prints whether content is of the
claimed type and reports a mismatch through the exit status.
*/

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RunMatch checks args[1] against the type named by args[0]
func RunMatch(cmd *cobra.Command, args []string) error {
	claim, input := args[0], args[1]

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

	var matches bool
	if input == StdinArg {
		data, err := readInput(input)
		if err != nil {
			return err
		}
		matches, err = client.Match(ctx, claim, data)
		if err != nil {
			return err
		}
	} else {
		matches, err = client.MatchFile(ctx, claim, input)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
	}

	fmt.Println(matches)
	if !matches {
		return ErrNoMatch
	}
	return nil
}
