/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: serve.go
Description: Serve command implementation. Runs the HTTP server until interrupted,
then drains in-flight detections.
*/

package commands

import (
	"github.com/kleascm/magicsniff/pkg/server"
	"github.com/spf13/cobra"
)

// RunServe serves detection over HTTP
func RunServe(cmd *cobra.Command, args []string) error {
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
	defer func() {
		logger.LogStats(client.Stats())
		client.Close()
	}()

	return server.NewServer(cfg.Server, client, logger.GetLogger()).Run(ctx)
}
