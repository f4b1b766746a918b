/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: db.go
Description: Database command implementations. Locates an installed shared-mime-info
database and downloads one on request.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/magicsniff/pkg/mimedb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunDBLocate prints the database in use followed by every search location
func RunDBLocate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	locator := cfg.Locator()
	dir, locateErr := locator.Locate()

	fmt.Println("Search order:")
	for _, candidate := range locator.Candidates() {
		mark := " "
		if candidate == dir {
			mark = "*"
		}
		fmt.Printf(" %s %s\n", mark, candidate)
	}

	if locateErr != nil {
		return fmt.Errorf("%w; run 'magicsniff db fetch' to install one", locateErr)
	}

	tables, err := mimedb.LoadTables(dir)
	if err != nil {
		return err
	}
	aliases, subclasses := tables.Len()
	fmt.Printf("Using %s (%d aliases, %d subclass relations)\n", dir, aliases, subclasses)
	return nil
}

// RunDBFetch downloads and installs the database
func RunDBFetch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := signalContext()
	defer cancel()

	dest := viper.GetString("db.dir")
	if dest == "" {
		dest = cfg.MimeDB.Dir
	}
	if dest == "" {
		dest = cfg.Locator().DefaultDir()
	}

	fetcher := cfg.Fetcher(logger.GetLogger())
	if err := mimedb.Install(ctx, fetcher, dest, cfg.MimeDB.Concurrency); err != nil {
		return fmt.Errorf("failed to install mime database: %w", err)
	}

	fmt.Printf("Installed mime database into %s\n", dest)
	return nil
}
