/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line entry point for fuzz-report. Builds the periodic fuzzing
campaign report for a task directory and emails it, attaching any further files
named on the command line.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/fuzz-report/cmd/fuzz-report/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string

	// Logging configuration
	logLevel  string
	logFormat string
	logDir    string

	// Report configuration
	dryRun     bool
	archiveDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fuzz-report <task-dir> [attachment...]",
		Short: "Email a report of a fuzzing campaign",
		Long: `fuzz-report reads the AFL statistics and kcov coverage summary of the fuzzing
run under <task-dir>, collects Firecracker, toolchain and host versions, renders
a text and an HTML report and emails both through Amazon SES. Every further
argument is sent as an attachment.`,
		Version:       "1.0.0",
		Args:          cobra.MinimumNArgs(1),
		RunE:          commands.RunReport,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write the log to a file in this directory")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render and print the report without sending it")
	rootCmd.Flags().StringVar(&archiveDir, "archive-dir", "", "Archive the report record as JSON under this directory")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("dry_run", rootCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("archive_dir", rootCmd.Flags().Lookup("archive-dir"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
