package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/pkg/errors"
)

// profileEnvVar names a directory; when set, a run writes CPU and heap
// profiles there
const profileEnvVar = "TSREPLAY_PROFILE"

const (
	cpuProfileName = "cpu.prof"
	memProfileName = "mem.prof"
)

var gStopProfiling func() error

// startProfiling starts the CPU profile in dir. The returned function stops
// it and writes the heap profile next to it.
func startProfiling(dir string, out io.Writer) (stop func() error, err error) {
	cpuPath := filepath.Join(dir, cpuProfileName)
	cpuFile, err := os.Create(cpuPath) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CPU profile")
	}
	if err = pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return nil, errors.Wrap(err, "failed to start CPU profile")
	}
	slog.Debug("profiling started", slog.String("dir", dir))
	stop = func() error {
		pprof.StopCPUProfile()
		if err := cpuFile.Close(); err != nil {
			return errors.Wrap(err, "failed to close CPU profile")
		}
		memPath := filepath.Join(dir, memProfileName)
		memFile, err := os.Create(memPath) // #nosec G304
		if err != nil {
			return errors.Wrap(err, "failed to create heap profile")
		}
		defer memFile.Close()
		if err := pprof.WriteHeapProfile(memFile); err != nil {
			return errors.Wrap(err, "failed to write heap profile")
		}
		fmt.Fprintf(out, "Profiling data written to %s and %s\n", cpuPath, memPath)
		fmt.Fprintf(out, "To analyze, use: go tool pprof -http=:8080 %s\n", cpuPath)
		return nil
	}
	return stop, nil
}

// stopProfiling is safe to call when profiling was never started
func stopProfiling() error {
	if gStopProfiling == nil {
		return nil
	}
	stop := gStopProfiling
	gStopProfiling = nil
	return stop()
}
