package replay

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimer records the timer calls made by a Player
type fakeTimer struct {
	running  bool
	interval time.Duration
	starts   int
}

func (f *fakeTimer) Start(interval time.Duration) {
	if f.running {
		panic("timer started while another timer is running")
	}
	f.running = true
	f.interval = interval
	f.starts++
}

func (f *fakeTimer) Stop() {
	f.running = false
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seconds(n int) []time.Time {
	index := make([]time.Time, n)
	for i := range index {
		index[i] = t0.Add(time.Duration(i) * time.Second)
	}
	return index
}

func TestNewPlayer(t *testing.T) {
	p := NewPlayer(seconds(3), &fakeTimer{})
	assert.Equal(t, Paused, p.State())
	assert.Equal(t, 0, p.Cursor())
	assert.Equal(t, 20*time.Millisecond, p.Interval())
}

func TestAutoPauseAtLastSample(t *testing.T) {
	timer := &fakeTimer{}
	p := NewPlayer(seconds(10), timer)
	p.Play()
	require.Equal(t, Playing, p.State())
	for range 9 {
		p.Tick()
	}
	assert.Equal(t, Paused, p.State())
	assert.Equal(t, 9, p.Cursor())
	assert.False(t, timer.running)
	// ticks after the pause do nothing
	p.Tick()
	assert.Equal(t, 9, p.Cursor())
}

func TestPlayAtEndRestartsFromFirstSample(t *testing.T) {
	p := NewPlayer(seconds(4), &fakeTimer{})
	p.Play()
	for range 3 {
		p.Tick()
	}
	require.Equal(t, Paused, p.State())
	require.Equal(t, 3, p.Cursor())
	p.Play()
	assert.Equal(t, Playing, p.State())
	assert.Equal(t, 0, p.Cursor())
}

func TestToggleAndReset(t *testing.T) {
	timer := &fakeTimer{}
	var moves []int
	var states []State
	p := NewPlayer(seconds(5), timer)
	p.OnMove = func(c int) { moves = append(moves, c) }
	p.OnState = func(s State) { states = append(states, s) }
	p.Toggle()
	assert.Equal(t, Playing, p.State())
	p.Tick()
	p.Tick()
	p.Toggle()
	assert.Equal(t, Paused, p.State())
	assert.Equal(t, 2, p.Cursor())
	p.Reset()
	assert.Equal(t, Paused, p.State())
	assert.Equal(t, 0, p.Cursor())
	assert.Equal(t, []int{1, 2, 0}, moves)
	assert.Equal(t, []State{Playing, Paused, Paused}, states)
	assert.False(t, timer.running)
}

func TestPlayWhilePlayingIsNoop(t *testing.T) {
	timer := &fakeTimer{}
	p := NewPlayer(seconds(5), timer)
	p.Play()
	p.Play()
	assert.Equal(t, 1, timer.starts)
}

func TestSetSpeed(t *testing.T) {
	timer := &fakeTimer{}
	p := NewPlayer(seconds(5), timer)
	// paused: takes effect on the next Play
	p.SetSpeed(SpeedPresets[0].Interval)
	assert.Equal(t, 0, timer.starts)
	p.Play()
	assert.Equal(t, time.Second, timer.interval)
	// playing: timer restarts immediately
	p.SetSpeed(SpeedPresets[4].Interval)
	assert.Equal(t, 2, timer.starts)
	assert.Equal(t, 10*time.Millisecond, timer.interval)
	assert.True(t, timer.running)
}

func TestSeek(t *testing.T) {
	timer := &fakeTimer{}
	p := NewPlayer(seconds(10), timer)
	p.Play()
	p.Seek(t0.Add(6*time.Second + 400*time.Millisecond))
	assert.Equal(t, Paused, p.State())
	assert.Equal(t, 6, p.Cursor())
	assert.False(t, timer.running)
}

func TestNearest(t *testing.T) {
	index := seconds(4)
	tests := []struct {
		name     string
		target   time.Time
		expected int
	}{
		{"exact", t0.Add(2 * time.Second), 2},
		{"before first", t0.Add(-time.Hour), 0},
		{"after last", t0.Add(time.Hour), 3},
		{"closer to later", t0.Add(1600 * time.Millisecond), 2},
		{"midpoint picks earlier", t0.Add(1500 * time.Millisecond), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Nearest(index, tt.target))
		})
	}
	assert.Equal(t, -1, Nearest(nil, t0))
}

func TestNearestUnevenGapsMidpoint(t *testing.T) {
	index := []time.Time{t0, t0.Add(10 * time.Second), t0.Add(12 * time.Second)}
	assert.Equal(t, 1, Nearest(index, t0.Add(11*time.Second)))
	assert.Equal(t, 0, Nearest(index, t0.Add(5*time.Second)))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "3.14", FormatValue(3.14159))
	assert.Equal(t, "-0.50", FormatValue(-0.5))
	assert.Equal(t, "10.00", FormatValue(10))
}
