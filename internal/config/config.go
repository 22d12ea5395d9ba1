// Package config reads the optional YAML file of replay settings.
package config

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v2"

	"tsreplay/internal/series"
)

// File is the content of a settings file. Every field is optional.
//
//	title: Bench 3 sensors
//	columns: [Temperature, Pressure]
//	delimiter: ";"
//	bucket: 1m
//	derive:
//	  - name: ratio
//	    expression: Temperature / Pressure
type File struct {
	Title      string           `yaml:"title"`
	ChartTitle string           `yaml:"chart_title"`
	Columns    []string         `yaml:"columns"`
	Delimiter  string           `yaml:"delimiter"`
	Sheet      string           `yaml:"sheet"`
	Bucket     string           `yaml:"bucket"`
	Derive     []series.Derived `yaml:"derive"`
}

// Load reads and validates the settings file at path.
func Load(path string) (cfg File, err error) {
	var content []byte
	if content, err = os.ReadFile(path); err != nil {
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}
	if err = yaml.UnmarshalStrict(content, &cfg); err != nil {
		err = fmt.Errorf("failed to parse config file %s: %w", path, err)
		return
	}
	if _, err = ParseDelimiter(cfg.Delimiter); err != nil {
		err = fmt.Errorf("config file %s: %w", path, err)
		return
	}
	if _, err = ParseBucket(cfg.Bucket); err != nil {
		err = fmt.Errorf("config file %s: %w", path, err)
		return
	}
	for i, d := range cfg.Derive {
		if d.Name == "" || d.Expression == "" {
			err = fmt.Errorf("config file %s: derive entry %d needs a name and an expression", path, i+1)
			return
		}
	}
	return
}

// ParseDelimiter converts a delimiter setting to the field separator rune.
// An empty setting is a comma, "tab" and "\t" are a tab.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

// ParseBucket converts a bucket setting to the resampling width. An empty
// setting is the default one second width.
func ParseBucket(s string) (time.Duration, error) {
	if s == "" {
		return series.DefaultBucket, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bucket width %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("bucket width must be positive, got %s", s)
	}
	return d, nil
}
