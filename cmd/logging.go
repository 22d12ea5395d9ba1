package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"log/syslog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"tsreplay/internal/common"
	"tsreplay/internal/util"

	"github.com/spf13/cobra"
)

// configureLogging installs the default slog handler selected by the logging
// flags and returns the path of the log file, if one was opened.
// Without a logging flag, warnings and errors go to stderr.
func configureLogging(cmd *cobra.Command) (logFilePath string, err error) {
	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelWarn
		logOpts.AddSource = false
	}
	selected := 0
	for _, set := range []bool{flagSyslog, flagLogStdOut, flagLogFile != ""} {
		if set {
			selected++
		}
	}
	if selected > 1 {
		err = common.FlagValidationError(cmd, fmt.Sprintf("choose only one of --%s, --%s and --%s", flagSyslogName, flagLogStdOutName, flagLogFileName))
		return
	}
	switch {
	case flagSyslog: // log to syslog
		var handler *SyslogHandler
		if handler, err = NewSyslogHandler(&logOpts); err != nil {
			err = common.FlagValidationError(cmd, fmt.Sprintf("failed to create syslog handler: %v", err))
			return
		}
		slog.SetDefault(slog.New(handler))
	case flagLogStdOut:
		slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &logOpts)))
	case flagLogFile != "": // log to file
		if logFilePath, err = util.AbsPath(flagLogFile); err != nil {
			err = common.FlagValidationError(cmd, fmt.Sprintf("failed to expand log file path: %v", err))
			return
		}
		gLogFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302
		if err != nil {
			err = common.FlagValidationError(cmd, fmt.Sprintf("failed to open log file: %v", err))
			return
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(gLogFile, &logOpts)))
	default:
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &logOpts)))
	}
	return
}

// SyslogHandler is a slog.Handler that logs to syslog.
type SyslogHandler struct {
	writer     *syslog.Writer
	logLeveler slog.Leveler
	addSource  bool
	attrs      []slog.Attr
	group      string
}

func NewSyslogHandler(logOpts *slog.HandlerOptions) (*SyslogHandler, error) {
	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, common.AppName)
	if err != nil {
		return nil, err
	}
	return &SyslogHandler{writer: writer, logLeveler: logOpts.Level, addSource: logOpts.AddSource}, nil
}

func (h *SyslogHandler) Handle(ctx context.Context, r slog.Record) error {
	msg := formatSyslogRecord(r, h.addSource, h.group, h.attrs)
	switch {
	case r.Level >= slog.LevelError:
		return h.writer.Err(msg)
	case r.Level >= slog.LevelWarn:
		return h.writer.Warning(msg)
	case r.Level >= slog.LevelInfo:
		return h.writer.Info(msg)
	default:
		return h.writer.Debug(msg)
	}
}

// formatSyslogRecord renders a record as logfmt-like key="value" pairs
func formatSyslogRecord(r slog.Record, addSource bool, group string, attrs []slog.Attr) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "level=%s", r.Level.String())
	if r.PC != 0 && addSource {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		fmt.Fprintf(&sb, " source=%s:%d", filepath.Base(f.File), f.Line)
	}
	fmt.Fprintf(&sb, " msg=%q", r.Message)
	write := func(attr slog.Attr) bool {
		key := attr.Key
		if group != "" {
			key = group + "." + key
		}
		fmt.Fprintf(&sb, " %s=%q", key, attr.Value.String())
		return true
	}
	for _, attr := range attrs {
		write(attr)
	}
	r.Attrs(write)
	return sb.String()
}

func (h *SyslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *SyslogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		name = clone.group + "." + name
	}
	clone.group = name
	return &clone
}

func (h *SyslogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.logLeveler.Level()
}
