package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tsreplay/internal/series"
)

// timestamp layouts used in the payload index
const (
	naiveTimeLayout = "2006-01-02T15:04:05.000"
	zonedTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Payload is the split-oriented encoding of a frame embedded in the replay
// document: parallel column, index and row arrays.
type Payload struct {
	Columns []string    `json:"columns"`
	Index   []string    `json:"index"`
	Data    [][]float64 `json:"data"`
}

// NewPayload encodes a prepared frame. The frame must not contain missing
// values.
func NewPayload(frame *series.Frame) Payload {
	layout := naiveTimeLayout
	if frame.Zoned {
		layout = zonedTimeLayout
	}
	p := Payload{
		Columns: append([]string{}, frame.Columns...),
		Index:   make([]string, frame.Len()),
		Data:    make([][]float64, frame.Len()),
	}
	for i, ts := range frame.Index {
		p.Index[i] = ts.Format(layout)
		p.Data[i] = frame.Values[i]
	}
	return p
}

// JSON returns the payload as JSON safe to place inside a script element.
func (p Payload) JSON() ([]byte, error) {
	out, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return out, nil
}

// payloadPrefix starts the line of the document that holds the payload
const payloadPrefix = "const data = "

// ExtractPayload decodes the payload embedded in a replay document.
func ExtractPayload(doc []byte) (Payload, error) {
	var p Payload
	start := bytes.Index(doc, []byte(payloadPrefix))
	if start == -1 {
		return p, fmt.Errorf("no payload found in document")
	}
	rest := doc[start+len(payloadPrefix):]
	end := bytes.IndexByte(rest, '\n')
	if end == -1 {
		end = len(rest)
	}
	line := bytes.TrimSuffix(bytes.TrimSpace(rest[:end]), []byte(";"))
	if err := json.Unmarshal(line, &p); err != nil {
		return p, fmt.Errorf("failed to decode payload: %w", err)
	}
	if len(p.Index) != len(p.Data) {
		return p, fmt.Errorf("payload index has %d entries but data has %d rows", len(p.Index), len(p.Data))
	}
	return p, nil
}
