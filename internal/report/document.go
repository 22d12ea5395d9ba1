// Package report renders prepared frames as self-contained replay documents.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"path/filepath"
	"strings"
	texttemplate "text/template" // nosemgrep

	"tsreplay/internal/replay"
	"tsreplay/internal/series"
)

//go:embed resources
var resources embed.FS

const (
	// OutputPrefix is prepended to the source base name to form the output
	// file name.
	OutputPrefix = "replay_for_"
	// OutputExtension is appended to the output file name.
	OutputExtension = ".html"
	// DefaultTitle is the page title used when none is configured.
	DefaultTitle = "Dynamic Time-Series Replay"
	// DefaultChartTitle is the title drawn above the chart.
	DefaultChartTitle = "Sensor Readings Over Time"
)

// Document is everything needed to render a replay document.
type Document struct {
	Title      string
	ChartTitle string
	// SourceName is the display name of the source file, usually its base
	// name.
	SourceName string
	Frame      *series.Frame
}

// Render produces the HTML document.
func Render(doc Document) (out []byte, err error) {
	var htmlTemplateBytes []byte
	if htmlTemplateBytes, err = resources.ReadFile("resources/replay.html"); err != nil {
		slog.Error("failed to read replay.html template", slog.String("error", err.Error()))
		return
	}
	templateVals, err := loadTemplateValues(doc)
	if err != nil {
		slog.Error("failed to load template values", slog.String("error", err.Error()))
		return
	}
	tmpl := texttemplate.Must(texttemplate.New("replayTemplate").Delims("<<", ">>").Parse(string(htmlTemplateBytes)))
	buf := new(bytes.Buffer)
	if err = tmpl.Execute(buf, templateVals); err != nil {
		slog.Error("failed to render replay template", slog.String("error", err.Error()))
		return
	}
	return buf.Bytes(), nil
}

func loadTemplateValues(doc Document) (templateVals map[string]string, err error) {
	if doc.Frame == nil {
		err = fmt.Errorf("document has no data")
		return
	}
	templateVals = make(map[string]string)
	title := doc.Title
	if title == "" {
		title = DefaultTitle
	}
	chartTitle := doc.ChartTitle
	if chartTitle == "" {
		chartTitle = DefaultChartTitle
	}
	templateVals["TITLE"] = html.EscapeString(title)
	templateVals["CHARTTITLE"] = texttemplate.JSEscapeString(chartTitle)
	templateVals["SOURCE"] = html.EscapeString(doc.SourceName)
	var payload []byte
	if payload, err = NewPayload(doc.Frame).JSON(); err != nil {
		return
	}
	templateVals["DATA"] = string(payload)
	var colors []byte
	if colors, err = json.Marshal(palette(len(doc.Frame.Columns))); err != nil {
		return
	}
	templateVals["COLORS"] = string(colors)
	templateVals["SPEEDOPTIONS"] = speedOptions(replay.SpeedPresets, replay.DefaultSpeed)
	return
}

func speedOptions(speeds []replay.SpeedPreset, selected int) string {
	var sb strings.Builder
	for i, speed := range speeds {
		attr := ""
		if i == selected {
			attr = " selected"
		}
		sb.WriteString(fmt.Sprintf("                    <option value=\"%d\"%s>%s</option>\n", speed.Interval.Milliseconds(), attr, html.EscapeString(speed.Label)))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// palette returns one trace colour per column, repeating once the palette
// is exhausted
func palette(n int) []string {
	colors := make([]string, 0, max(n, 1))
	for i := range max(n, 1) {
		colors = append(colors, getColor(i))
	}
	return colors
}

func getColor(idx int) string {
	colors := []string{"#3b82f6", "#10b981", "#ef4444", "#f97316", "#8b5cf6", "#d946ef"}
	return colors[idx%len(colors)]
}

// OutputFileName returns the name of the document generated for the source
// file at path: the base name with its last extension replaced, behind
// OutputPrefix.
func OutputFileName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return OutputPrefix + stem + OutputExtension
}
