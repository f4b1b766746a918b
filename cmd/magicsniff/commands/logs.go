/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logs.go
Description: Logs command implementation. Summarises the log files kept in the
configured log directory.
*/

package commands

import (
	"fmt"
	"time"

	"github.com/kleascm/magicsniff/pkg/logging"
	"github.com/spf13/cobra"
)

// RunLogs prints log file statistics
func RunLogs(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Log.Dir == "" {
		return fmt.Errorf("no log directory configured; set log.dir or MAGICSNIFF_LOG_DIR")
	}

	stats, err := logging.NewLogManager(cfg.Log.Dir, cfg.Log.MaxFiles, cfg.Log.Compress).GetLogStats()
	if err != nil {
		return err
	}

	fmt.Printf("Directory:    %s\n", cfg.Log.Dir)
	fmt.Printf("Files:        %d (%d compressed, %d plain)\n", stats.TotalFiles, stats.CompressedFiles, stats.UncompressedFiles)
	fmt.Printf("Total size:   %d bytes\n", stats.TotalSize)
	if stats.TotalFiles > 0 {
		fmt.Printf("Oldest:       %s\n", stats.OldestFile.Format(time.RFC3339))
		fmt.Printf("Newest:       %s\n", stats.NewestFile.Format(time.RFC3339))
	}
	return nil
}
