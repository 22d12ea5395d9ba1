// Package cmd provides the command line interface for the application.
package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"tsreplay/internal/common"
	"tsreplay/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var gLogFile *os.File
var gVersion = "9.9.9" // overwritten by ldflags at build time

const (
	// LongAppName is the name of the application
	LongAppName = "Time-Series Replay"
)

var examples = []string{
	fmt.Sprintf("  Create a replay from a CSV file:           $ %s sensors.csv", common.AppName),
	fmt.Sprintf("  Replay two of the columns:                 $ %s --columns Temperature,Pressure sensors.csv", common.AppName),
	fmt.Sprintf("  Semicolon delimited input, 1 minute steps: $ %s --delimiter ';' --bucket 1m sensors.txt", common.AppName),
	fmt.Sprintf("  Add a derived series:                      $ %s --derive 'ratio=Temperature / Pressure' sensors.csv", common.AppName),
	fmt.Sprintf("  Read settings from a file:                 $ %s --config replay.yaml --output ~/reports sensors.xlsx", common.AppName),
}

var (
	// logging
	flagDebug     bool
	flagSyslog    bool
	flagLogStdOut bool
	flagLogFile   string
	// input
	flagConfig    string
	flagColumns   []string
	flagDelimiter string
	flagSheet     string
	// replay
	flagBucket     string
	flagDerive     []string
	flagTitle      string
	flagOutputDir  string
	flagNoProgress bool
)

const (
	flagDebugName      = "debug"
	flagSyslogName     = "syslog"
	flagLogStdOutName  = "log-stdout"
	flagLogFileName    = "log-file"
	flagConfigName     = "config"
	flagColumnsName    = "columns"
	flagDelimiterName  = "delimiter"
	flagSheetName      = "sheet"
	flagBucketName     = "bucket"
	flagDeriveName     = "derive"
	flagTitleName      = "title"
	flagOutputDirName  = "output"
	flagNoProgressName = "noprogress"
)

// newRootCmd builds the root command and binds its flags to their defaults
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:                common.AppName + " [flags] <file>",
		Short:              common.AppName,
		Long:               fmt.Sprintf(`%s (%s) turns a time-stamped data file into a self-contained HTML page that replays the data over time.`, LongAppName, common.AppName),
		Example:            strings.Join(examples, "\n"),
		Args:               validateArgs,
		PersistentPreRunE:  initializeApplication,
		RunE:               runCmd,
		PersistentPostRunE: terminateApplication,
		Version:            gVersion,
		SilenceErrors:      true,
		SilenceUsage:       true,
	}
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().BoolVar(&flagDebug, flagDebugName, false, "")
	rootCmd.Flags().BoolVar(&flagSyslog, flagSyslogName, false, "")
	rootCmd.Flags().BoolVar(&flagLogStdOut, flagLogStdOutName, false, "")
	rootCmd.Flags().StringVar(&flagLogFile, flagLogFileName, "", "")
	rootCmd.Flags().StringVar(&flagConfig, flagConfigName, "", "")
	rootCmd.Flags().StringSliceVar(&flagColumns, flagColumnsName, nil, "")
	rootCmd.Flags().StringVar(&flagDelimiter, flagDelimiterName, ",", "")
	rootCmd.Flags().StringVar(&flagSheet, flagSheetName, "", "")
	rootCmd.Flags().StringVar(&flagBucket, flagBucketName, "1s", "")
	rootCmd.Flags().StringArrayVar(&flagDerive, flagDeriveName, nil, "")
	rootCmd.Flags().StringVar(&flagTitle, flagTitleName, "", "")
	rootCmd.Flags().StringVar(&flagOutputDir, flagOutputDirName, "", "")
	rootCmd.Flags().BoolVar(&flagNoProgress, flagNoProgressName, false, "")

	rootCmd.SetUsageFunc(usageFunc)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return common.FlagValidationError(cmd, err.Error())
	})
	return rootCmd
}

// Execute runs the root command with the process arguments.
// This is called by main.main().
func Execute() {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs a freshly built root command against args
func execute(args []string, stdout, stderr io.Writer) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if err != nil {
		if terminateErr := terminateApplication(rootCmd, args); terminateErr != nil {
			slog.Error("Error terminating application", slog.String("error", terminateErr.Error()))
			fmt.Fprintf(stderr, "Error: %v\n", terminateErr)
		}
	}
	return err
}

// validateArgs requires exactly one positional argument, the data file
func validateArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return nil
	}
	err := errors.New("please provide a data file path to process")
	if len(args) > 1 {
		err = fmt.Errorf("expected one data file path, got %d arguments", len(args))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n\n", err)
	if usageErr := cmd.Usage(); usageErr != nil {
		slog.Error("failed to print usage", slog.String("error", usageErr.Error()))
	}
	return err
}

func usageFunc(cmd *cobra.Command) error {
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Usage: %s\n\n", cmd.UseLine())
	fmt.Fprintf(out, "Examples:\n%s\n\n", cmd.Example)
	fmt.Fprintln(out, "Flags:")
	for _, group := range getFlagGroups() {
		fmt.Fprintf(out, "  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if def := cmd.Flags().Lookup(flag.Name).DefValue; def != "" && def != "false" && def != "[]" {
				flagDefault = fmt.Sprintf(" (default: %s)", def)
			}
			fmt.Fprintf(out, "    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	// flags added by cobra, e.g., help and version
	grouped := make(map[string]bool)
	for _, group := range getFlagGroups() {
		for _, flag := range group.Flags {
			grouped[flag.Name] = true
		}
	}
	fmt.Fprintln(out)
	cmd.Flags().VisitAll(func(pf *pflag.Flag) {
		if !grouped[pf.Name] {
			fmt.Fprintf(out, "  --%-22s %s\n", pf.Name, pf.Usage)
		}
	})
	return nil
}

func getFlagGroups() []common.FlagGroup {
	var groups []common.FlagGroup
	groups = append(groups, common.FlagGroup{
		GroupName: "Input Options",
		Flags: []common.Flag{
			{Name: flagColumnsName, Help: "comma separated data columns to replay, in order"},
			{Name: flagDelimiterName, Help: "field delimiter of text input, a single character or 'tab'"},
			{Name: flagSheetName, Help: "worksheet to read from .xlsx input (default: first sheet)"},
			{Name: flagConfigName, Help: "YAML file with replay settings, flags override its values"},
		},
	})
	groups = append(groups, common.FlagGroup{
		GroupName: "Replay Options",
		Flags: []common.Flag{
			{Name: flagBucketName, Help: "resampling bucket width, e.g., 1s, 500ms, 1m; buckets start at UTC multiples of the width"},
			{Name: flagDeriveName, Help: "add a series computed from other columns, name=expression (repeatable)"},
			{Name: flagTitleName, Help: "page title of the replay"},
			{Name: flagOutputDirName, Help: "existing directory for the replay (default: current directory)"},
			{Name: flagNoProgressName, Help: "do not show progress"},
		},
	})
	groups = append(groups, common.FlagGroup{
		GroupName: "Logging Options",
		Flags: []common.Flag{
			{Name: flagDebugName, Help: "enable debug logging"},
			{Name: flagSyslogName, Help: "write logs to syslog"},
			{Name: flagLogStdOutName, Help: "write logs to stdout"},
			{Name: flagLogFileName, Help: "append logs to a file"},
		},
	})
	return groups
}

func initializeApplication(cmd *cobra.Command, args []string) error {
	// configure logging
	logFilePath, err := configureLogging(cmd)
	if err != nil {
		return err
	}
	slog.Info("Starting up", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	// profile only if the environment variable is set
	if profileDir := os.Getenv(profileEnvVar); profileDir != "" {
		dir, profileErr := util.AbsPath(profileDir)
		if profileErr == nil {
			gStopProfiling, profileErr = startProfiling(dir, cmd.ErrOrStderr())
		}
		if profileErr != nil {
			slog.Warn("profiling disabled", slog.String("dir", profileDir), slog.String("error", profileErr.Error()))
		}
	}
	// verify requested output directory exists, otherwise use the current directory
	var outputDir string
	if flagOutputDir != "" {
		outputDir, err = util.AbsPath(flagOutputDir)
		if err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("failed to expand output dir: %v", err))
		}
		exists, err := util.DirectoryExists(outputDir)
		if err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("failed to determine if output dir exists: %v", err))
		}
		if !exists {
			return common.FlagValidationError(cmd, fmt.Sprintf("requested output dir, %s, does not exist", outputDir))
		}
	} else {
		if outputDir, err = os.Getwd(); err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("failed to get current directory: %v", err))
		}
	}
	// set app context
	cmd.SetContext(
		context.WithValue(
			cmd.Context(),
			common.AppContext{},
			common.AppContext{
				OutputDir:   outputDir,
				LogFilePath: logFilePath,
				Version:     gVersion,
				Debug:       flagDebug},
		),
	)
	return nil
}

// terminateApplication stops profiling and closes the log file
func terminateApplication(cmd *cobra.Command, args []string) error {
	if ctx := cmd.Context(); ctx != nil {
		if _, ok := ctx.Value(common.AppContext{}).(common.AppContext); ok {
			slog.Info("Shutting down", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
		}
	}
	if err := stopProfiling(); err != nil {
		slog.Error("failed to write profiles", slog.String("error", err.Error()))
	}
	if gLogFile != nil {
		err := gLogFile.Close()
		logFileName := gLogFile.Name()
		gLogFile = nil
		// later records go back to stderr
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})))
		if err != nil {
			slog.Error("error closing log file", slog.String("logFile", logFileName), slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}
