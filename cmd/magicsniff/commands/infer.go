/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: infer.go
Description: Infer command implementation. Submits every argument to the worker
pool before awaiting any result, then prints results in argument order.
*/

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/sniff"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// unknown is printed for a path whose content could not be read
const unknown = "unknown"

type inferLine struct {
	Input string         `json:"input"`
	Type  sniff.Optional `json:"type"`
}

// pending holds one submitted inference
type pending struct {
	input  string
	buffer *core.Future[detect.Identifier]
	path   *core.Future[sniff.Optional]
}

// RunInfer infers the type of each argument
func RunInfer(cmd *cobra.Command, args []string) error {
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

	byPath := viper.GetBool("infer.path")
	asJSON := viper.GetBool("infer.json")

	jobs := make([]pending, 0, len(args))
	for _, arg := range args {
		p := pending{input: arg}
		if byPath && arg != StdinArg {
			if p.path, err = client.InferFromPath(ctx, arg); err != nil {
				return err
			}
		} else {
			data, err := readInput(arg)
			if err != nil {
				return err
			}
			if p.buffer, err = client.InferFromBuffer(ctx, data); err != nil {
				return err
			}
		}
		jobs = append(jobs, p)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, p := range jobs {
		got, err := p.await(ctx, logger)
		if err != nil {
			return fmt.Errorf("%s: %w", p.input, err)
		}

		if asJSON {
			if err := enc.Encode(inferLine{Input: p.input, Type: got}); err != nil {
				return err
			}
			continue
		}
		text := got.String()
		if !got.Present {
			text = unknown
		}
		fmt.Printf("%s: %s\n", p.input, text)
	}

	logger.LogStats(client.Stats())
	return nil
}
