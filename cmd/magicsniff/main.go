/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for magicsniff. Infers and checks content types
of files and buffers, manages the shared-mime-info database, verifies labelled
corpora, and serves the detection operations over HTTP.
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kleascm/magicsniff/cmd/magicsniff/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	envFile    string

	// Logging configuration
	logLevel  string
	logFormat string

	// Detection configuration
	workers  int
	strictIO bool
	mimeDir  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "magicsniff",
		Short: "magicsniff - content-based file type detection",
		Long: `magicsniff identifies the type of files and byte buffers by their content,
never by name or extension. Detection runs on a worker pool; results can be
checked against claimed types, including parent and alias relations from an
installed shared-mime-info database.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Number of detection workers (0 = one per CPU)")
	rootCmd.PersistentFlags().BoolVar(&strictIO, "strict-io", false, "Report unreadable files as errors instead of misses")
	rootCmd.PersistentFlags().StringVar(&mimeDir, "mime-dir", "", "shared-mime-info database directory")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("env_file", rootCmd.PersistentFlags().Lookup("env-file"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("strict_io", rootCmd.PersistentFlags().Lookup("strict-io"))
	viper.BindPFlag("mimedb.dir", rootCmd.PersistentFlags().Lookup("mime-dir"))

	// infer
	inferCmd := &cobra.Command{
		Use:   "infer <file|->...",
		Short: "Infer the content type of files or standard input",
		Long: `Infer the content type of each argument. With --path the files are read by the
workers and unreadable files print as "unknown" (or fail with --strict-io);
otherwise each file is loaded first and its bytes are inspected. "-" reads
standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunInfer,
	}
	inferCmd.Flags().Bool("path", false, "Let the workers open the files")
	inferCmd.Flags().Bool("json", false, "Print results as JSON lines")
	viper.BindPFlag("infer.path", inferCmd.Flags().Lookup("path"))
	viper.BindPFlag("infer.json", inferCmd.Flags().Lookup("json"))
	rootCmd.AddCommand(inferCmd)

	// match
	rootCmd.AddCommand(&cobra.Command{
		Use:   "match <type> <file|->",
		Short: "Check whether content is of a claimed type",
		Long: `Check whether a file, or standard input for "-", is of the claimed type or one
of its descendants. Prints true or false and exits with status 1 when the
content does not match.`,
		Args: cobra.ExactArgs(2),
		RunE: commands.RunMatch,
	})

	// describe
	rootCmd.AddCommand(&cobra.Command{
		Use:   "describe <file>",
		Short: "Show the detected type, extension, parents and language of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunDescribe,
	})

	// db
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the shared-mime-info database",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "locate",
		Short: "Print the database directory in use and the search order",
		Args:  cobra.NoArgs,
		RunE:  commands.RunDBLocate,
	})
	dbFetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and install the database",
		Long: `Download the shared-mime-info archive and install its magic, aliases and
subclasses files. Installs into --dir, the configured directory, or the per-user
default location.`,
		Args: cobra.NoArgs,
		RunE: commands.RunDBFetch,
	}
	dbFetchCmd.Flags().String("dir", "", "Installation directory")
	dbFetchCmd.Flags().String("url", "", "Archive URL")
	viper.BindPFlag("db.dir", dbFetchCmd.Flags().Lookup("dir"))
	viper.BindPFlag("mimedb.url", dbFetchCmd.Flags().Lookup("url"))
	dbCmd.AddCommand(dbFetchCmd)
	rootCmd.AddCommand(dbCmd)

	// verify
	verifyCmd := &cobra.Command{
		Use:   "verify <dir>",
		Short: "Verify detection against a labelled corpus",
		Long: `Verify detection against a corpus laid out as <dir>/<media>/<subtype>. Every
file must be inferred as the type its path names. Entries ending in "skip-test"
and paths matching --exclude or .magicsniffignore patterns are left out.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunVerify,
	}
	verifyCmd.Flags().StringSlice("exclude", []string{}, "gitignore-style patterns to exclude")
	verifyCmd.Flags().String("report-dir", "", "Directory for the JSON report (none when empty)")
	verifyCmd.Flags().Int("concurrency", 8, "Files read at once")
	viper.BindPFlag("verify.exclude", verifyCmd.Flags().Lookup("exclude"))
	viper.BindPFlag("verify.report_dir", verifyCmd.Flags().Lookup("report-dir"))
	viper.BindPFlag("verify.concurrency", verifyCmd.Flags().Lookup("concurrency"))
	rootCmd.AddCommand(verifyCmd)

	// logs
	rootCmd.AddCommand(&cobra.Command{
		Use:   "logs",
		Short: "Summarise the log files in the configured log directory",
		Args:  cobra.NoArgs,
		RunE:  commands.RunLogs,
	})

	// serve
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve detection over HTTP",
		Args:  cobra.NoArgs,
		RunE:  commands.RunServe,
	}
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, commands.ErrNoMatch) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
