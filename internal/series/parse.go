package series

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type timeLayout struct {
	layout string
	zoned  bool
}

// accepted timestamp layouts, tried in order
var timeLayouts = []timeLayout{
	{time.RFC3339Nano, true},
	{"2006-01-02 15:04:05.999999999Z07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
	{"2006/01/02 15:04:05.999999999", false},
	{"01/02/2006 15:04:05.999999999", false},
	{"01/02/2006 15:04", false},
	{"01/02/2006", false},
}

// parseTimestamp parses s with the first matching layout. Zoned values are
// converted to UTC, naive values are interpreted as UTC.
func parseTimestamp(s string) (ts time.Time, zoned bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		err = fmt.Errorf("empty timestamp")
		return
	}
	for _, l := range timeLayouts {
		var parseErr error
		if l.zoned {
			ts, parseErr = time.Parse(l.layout, s)
		} else {
			ts, parseErr = time.ParseInLocation(l.layout, s, time.UTC)
		}
		if parseErr == nil {
			return ts.UTC(), l.zoned, nil
		}
	}
	err = fmt.Errorf("unrecognized timestamp format: %q", s)
	return
}

// missing value markers, compared case-insensitively
var missingMarkers = []string{"", "na", "n/a", "nan", "null", "none", "-"}

// parseCell converts a data cell to a float. ok is false when the cell holds
// no usable number, in which case the value is NaN.
func parseCell(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, marker := range missingMarkers {
		if lower == marker {
			return math.NaN(), false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}
