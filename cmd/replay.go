package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"tsreplay/internal/common"
	"tsreplay/internal/config"
	"tsreplay/internal/instrument"
	"tsreplay/internal/progress"
	"tsreplay/internal/report"
	"tsreplay/internal/series"
	"tsreplay/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const stageRender = "render"

// replaySettings is the merged result of the config file and the flags
type replaySettings struct {
	prepare    series.PrepareOptions
	title      string
	chartTitle string
}

// flagOrFile returns the flag value when the flag was given or the file has
// no value, otherwise the file value
func flagOrFile(cmd *cobra.Command, flagName, flagValue, fileValue string) string {
	if cmd.Flags().Changed(flagName) || fileValue == "" {
		return flagValue
	}
	return fileValue
}

func loadSettings(cmd *cobra.Command) (settings replaySettings, err error) {
	var file config.File
	if flagConfig != "" {
		var configPath string
		if configPath, err = util.AbsPath(flagConfig); err != nil {
			return
		}
		if file, err = config.Load(configPath); err != nil {
			return
		}
		slog.Info("loaded config file", slog.String("path", configPath))
	}
	settings.title = flagOrFile(cmd, flagTitleName, flagTitle, file.Title)
	settings.chartTitle = file.ChartTitle
	if settings.prepare.Delimiter, err = config.ParseDelimiter(flagOrFile(cmd, flagDelimiterName, flagDelimiter, file.Delimiter)); err != nil {
		return
	}
	if settings.prepare.Bucket, err = config.ParseBucket(flagOrFile(cmd, flagBucketName, flagBucket, file.Bucket)); err != nil {
		return
	}
	settings.prepare.Sheet = flagOrFile(cmd, flagSheetName, flagSheet, file.Sheet)
	columns := file.Columns
	if cmd.Flags().Changed(flagColumnsName) {
		columns = flagColumns
	}
	for _, column := range columns {
		settings.prepare.Columns = util.UniqueAppend(settings.prepare.Columns, strings.TrimSpace(column))
	}
	// a definition given as a flag replaces a file definition of the same name
	derived := append([]series.Derived{}, file.Derive...)
	for _, def := range flagDerive {
		var d series.Derived
		if d, err = series.ParseDerived(def); err != nil {
			return
		}
		replaced := false
		for i := range derived {
			if derived[i].Name == d.Name {
				derived[i] = d
				replaced = true
			}
		}
		if !replaced {
			derived = append(derived, d)
		}
	}
	settings.prepare.Derive = derived
	return
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext := cmd.Context().Value(common.AppContext{}).(common.AppContext)
	sourcePath := args[0]
	settings, err := loadSettings(cmd)
	if err != nil {
		return common.FlagValidationError(cmd, err.Error())
	}
	counters := instrument.New()
	defer counters.Log()

	var spinner *progress.MultiSpinner
	if !flagNoProgress {
		spinner = progress.NewMultiSpinner()
		for _, stage := range []string{series.StageLoad, series.StageResample, stageRender} {
			if err := spinner.AddSpinner(stage); err != nil {
				slog.Error("failed to add spinner", slog.String("stage", stage), slog.String("error", err.Error()))
			}
		}
		spinner.Start()
		defer spinner.Finish()
	}
	status := func(stage, msg string) {
		if spinner == nil {
			return
		}
		if err := spinner.Status(stage, msg); err != nil {
			slog.Debug("failed to update spinner", slog.String("stage", stage), slog.String("error", err.Error()))
		}
	}
	settings.prepare.Status = status

	frame, stats, err := series.Prepare(sourcePath, settings.prepare)
	if err != nil {
		if spinner != nil {
			spinner.Finish()
		}
		slog.Info("failed to prepare data", slog.String("path", sourcePath), slog.String("kind", series.Kind(err).String()), slog.String("error", err.Error()))
		if series.IsNotFound(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: The file was not found at '%s'.\n", sourcePath)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "An error occurred: %v\n", err)
		}
		return err
	}
	counters.Prepared(stats)

	status(stageRender, "rendering")
	doc, err := report.Render(report.Document{
		Title:      settings.title,
		ChartTitle: settings.chartTitle,
		SourceName: filepath.Base(sourcePath),
		Frame:      frame,
	})
	if err != nil {
		status(stageRender, "failed")
		err = fmt.Errorf("failed to render replay: %w", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "An error occurred: %v\n", err)
		return err
	}
	outputName := report.OutputFileName(sourcePath)
	outputPath, err := util.WriteFile(appContext.OutputDir, outputName, doc)
	if err != nil {
		status(stageRender, "failed")
		fmt.Fprintf(cmd.ErrOrStderr(), "An error occurred: %v\n", err)
		return err
	}
	counters.Written(len(doc))
	slog.Info("wrote replay", slog.String("path", outputPath), slog.Int("bytes", len(doc)))
	status(stageRender, "done")
	if spinner != nil {
		spinner.Finish()
	}

	displayName := outputName
	if flagOutputDir != "" {
		displayName = outputPath
	}
	printSummary(cmd, sourcePath, displayName, settings, stats)
	return nil
}

func printSummary(cmd *cobra.Command, sourcePath, outputName string, settings replaySettings, stats series.Stats) {
	p := message.NewPrinter(language.English)
	out := cmd.OutOrStdout()
	p.Fprintf(out, "Raw data loaded successfully from '%s'.\n", sourcePath)
	p.Fprintf(out, "   Loaded %d raw data points.\n", stats.RawPoints)
	if len(stats.DroppedColumns) > 0 {
		p.Fprintf(out, "   Skipped non-numeric columns: %s\n", strings.Join(stats.DroppedColumns, ", "))
	}
	p.Fprintf(out, "Data resampled to %s buckets (%d points).\n", settings.prepare.Bucket, stats.ResampledPoints)
	if stats.DroppedBuckets > 0 {
		p.Fprintf(out, "   Removed %d buckets with missing values.\n", stats.DroppedBuckets)
	}
	p.Fprintf(out, "\nSuccessfully created '%s'.\n", outputName)
	p.Fprintf(out, "   You can now open this file in your web browser.\n")
}
