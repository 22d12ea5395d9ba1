// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package replay models the playback controls of a generated replay
// document: a cursor over the sample index that is advanced by a single
// timer while playing. The document's script follows the same transitions.
package replay

import (
	"fmt"
	"time"
)

// State is the playback state.
type State int

const (
	Paused State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SpeedPreset is one entry of the speed selector.
type SpeedPreset struct {
	Label    string
	Interval time.Duration
}

// SpeedPresets are the selector entries, slowest first.
var SpeedPresets = []SpeedPreset{
	{Label: "1x (1 Data/Sec)", Interval: 1000 * time.Millisecond},
	{Label: "5x", Interval: 200 * time.Millisecond},
	{Label: "10x", Interval: 100 * time.Millisecond},
	{Label: "50x", Interval: 20 * time.Millisecond},
	{Label: "100x", Interval: 10 * time.Millisecond},
}

// DefaultSpeed is the index into SpeedPresets selected initially.
const DefaultSpeed = 3

// Timer is the single periodic timer that drives playback. Start always
// replaces any running timer.
type Timer interface {
	Start(interval time.Duration)
	Stop()
}

// Player holds the cursor and playback state for a sample index.
type Player struct {
	index    []time.Time
	cursor   int
	state    State
	interval time.Duration
	timer    Timer
	// OnMove is called with the cursor whenever the cursor marker and value
	// cards need to be redrawn.
	OnMove func(cursor int)
	// OnState is called after every state change.
	OnState func(state State)
}

// NewPlayer returns a paused player at the first sample using the default
// speed preset.
func NewPlayer(index []time.Time, timer Timer) *Player {
	return &Player{
		index:    index,
		interval: SpeedPresets[DefaultSpeed].Interval,
		timer:    timer,
	}
}

// Cursor returns the current sample index.
func (p *Player) Cursor() int { return p.cursor }

// State returns the current playback state.
func (p *Player) State() State { return p.state }

// Interval returns the timer interval used while playing.
func (p *Player) Interval() time.Duration { return p.interval }

func (p *Player) last() int {
	return len(p.index) - 1
}

func (p *Player) moved() {
	if p.OnMove != nil {
		p.OnMove(p.cursor)
	}
}

func (p *Player) setState(s State) {
	p.state = s
	if p.OnState != nil {
		p.OnState(s)
	}
}

// Play starts playback. A cursor at or past the last sample restarts from
// the first sample. Play while playing does nothing.
func (p *Player) Play() {
	if p.state == Playing {
		return
	}
	if p.cursor >= p.last() {
		p.cursor = 0
	}
	p.setState(Playing)
	p.timer.Stop()
	p.timer.Start(p.interval)
}

// Pause stops playback and the timer.
func (p *Player) Pause() {
	p.timer.Stop()
	p.setState(Paused)
}

// Toggle is the Play/Pause button.
func (p *Player) Toggle() {
	if p.state == Playing {
		p.Pause()
	} else {
		p.Play()
	}
}

// Reset pauses and moves the cursor to the first sample.
func (p *Player) Reset() {
	p.Pause()
	p.cursor = 0
	p.moved()
}

// Tick advances the cursor by one sample. Reaching the last sample pauses
// playback with the cursor on the last index.
func (p *Player) Tick() {
	if p.state != Playing {
		return
	}
	p.cursor++
	if p.cursor >= p.last() {
		p.cursor = max(p.last(), 0)
		p.moved()
		p.Pause()
		return
	}
	p.moved()
}

// Seek pauses and jumps to the sample nearest to t.
func (p *Player) Seek(t time.Time) {
	if p.state == Playing {
		p.Pause()
	}
	if i := Nearest(p.index, t); i != -1 {
		p.cursor = i
		p.moved()
	}
}

// SetSpeed changes the timer interval. A playing player restarts its timer
// at once; a paused player uses the new interval on the next Play.
func (p *Player) SetSpeed(interval time.Duration) {
	p.interval = interval
	if p.state == Playing {
		p.timer.Stop()
		p.timer.Start(interval)
	}
}

// Nearest returns the index of the timestamp closest to t, or -1 when index
// is empty. On equal distances the lowest index wins.
func Nearest(index []time.Time, t time.Time) int {
	if len(index) == 0 {
		return -1
	}
	best := 0
	minDiff := absDuration(t.Sub(index[0]))
	for i := 1; i < len(index); i++ {
		if diff := absDuration(t.Sub(index[i])); diff < minDiff {
			minDiff = diff
			best = i
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// FormatValue formats a value the way the value cards show it.
func FormatValue(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
