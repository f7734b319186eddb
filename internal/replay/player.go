package replay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

// ErrInvalidSpeed is returned by SetSpeed for a multiplier outside Speeds.
var ErrInvalidSpeed = errors.New("invalid playback speed")

func validSpeed(s float64) bool {
	return slices.Contains(Speeds, s)
}

// Player drives a playback cursor over a Session.
//
// It is a cooperative state machine: nothing moves unless Advance is called,
// either directly by a frame pump or through Drive. Advance while paused is
// a no-op, so a tick delivered after Pause or a seek is harmless.
//
// Thread-safety: a Player is owned by one goroutine.
type Player struct {
	sess    *Session
	cursor  float64 // real epoch ms; fractional so slow speeds accumulate
	speed   float64
	playing bool
}

// NewPlayer creates a paused player at the session start.
func NewPlayer(sess *Session) *Player {
	return &Player{
		sess:   sess,
		cursor: float64(sess.Timeline.Start),
		speed:  sess.cfg.DefaultSpeed,
	}
}

// Session returns the session being played.
func (p *Player) Session() *Session { return p.sess }

// Cursor returns the playhead as epoch milliseconds.
func (p *Player) Cursor() int64 { return int64(math.Floor(p.cursor)) }

// Playing reports whether the player is running.
func (p *Player) Playing() bool { return p.playing }

// Speed returns the playback multiplier.
func (p *Player) Speed() float64 { return p.speed }

// AtEnd reports whether the cursor has reached the end of the session.
func (p *Player) AtEnd() bool { return p.Cursor() >= p.sess.Timeline.End }

// Play starts playback. Playing from the end restarts from the start.
func (p *Player) Play() {
	if p.AtEnd() {
		p.cursor = float64(p.sess.Timeline.Start)
	}
	p.playing = true
}

// Pause stops playback. Idempotent.
func (p *Player) Pause() { p.playing = false }

// Toggle switches between playing and paused.
func (p *Player) Toggle() {
	if p.playing {
		p.Pause()
		return
	}
	p.Play()
}

// SetSpeed changes the multiplier. Only values in Speeds are accepted.
func (p *Player) SetSpeed(s float64) error {
	if !validSpeed(s) {
		return fmt.Errorf("%w: %v (want one of %v)", ErrInvalidSpeed, s, Speeds)
	}
	p.speed = s
	return nil
}

// Seek moves the cursor to real time t, clamped to the session.
func (p *Player) Seek(t int64) {
	p.cursor = float64(p.sess.Timeline.Clamp(t))
}

// ScrubTo moves the cursor to fraction f of the compressed timeline.
func (p *Player) ScrubTo(f float64) {
	p.cursor = float64(p.sess.Timeline.Scrub(f))
}

// Advance moves a playing cursor by deltaMs of wall time times the speed.
//
// An advance that touches an idle interior lands on that interior's far
// edge and goes no further in this tick. Reaching the end stops playback.
// Returns false when the player is paused.
func (p *Player) Advance(deltaMs float64) bool {
	if !p.playing || deltaMs < 0 {
		return false
	}

	prev := p.cursor
	next := prev + deltaMs*p.speed
	for _, idle := range p.sess.Timeline.Idle {
		ms, me := float64(idle.InteriorStart()), float64(idle.InteriorEnd())
		if prev < me && next >= ms {
			next = me
			break
		}
	}

	end := float64(p.sess.Timeline.End)
	if next >= end {
		next = end
		p.playing = false
	}
	p.cursor = next
	return true
}

// Next jumps to the earliest navigable event strictly after the cursor.
func (p *Player) Next() (NavEvent, bool) {
	cur := p.Cursor()
	for _, ev := range p.sess.Index {
		if ev.Timestamp > cur {
			p.cursor = float64(ev.Timestamp)
			return ev, true
		}
	}
	return NavEvent{}, false
}

// Prev jumps to the latest navigable event strictly before the cursor
// minus a speed-scaled buffer, so repeated presses keep moving back while
// playing. With nothing before that point it jumps to the first event.
func (p *Player) Prev() (NavEvent, bool) {
	idx := p.sess.Index
	if len(idx) == 0 {
		return NavEvent{}, false
	}

	buffer := float64(p.sess.cfg.NavBuffer.Milliseconds()) * p.speed
	limit := p.cursor - buffer
	for i := len(idx) - 1; i >= 0; i-- {
		if float64(idx[i].Timestamp) < limit {
			p.cursor = float64(idx[i].Timestamp)
			return idx[i], true
		}
	}
	p.cursor = float64(idx[0].Timestamp)
	return idx[0], true
}

// Frame is the state rendered after each tick.
type Frame struct {
	Cursor   int64
	Progress float64
	Playing  bool
}

// Frame returns the player's current render state.
func (p *Player) Frame() Frame {
	return Frame{
		Cursor:   p.Cursor(),
		Progress: p.sess.Timeline.Progress(p.Cursor()),
		Playing:  p.playing,
	}
}

// Drive pumps Advance from a tick source until playback stops, the source
// closes, or ctx is cancelled. Each tick's delta is the wall time since the
// previous tick; the first tick only establishes the baseline. render, if
// non-nil, is called after every advance.
func (p *Player) Drive(ctx context.Context, ticks <-chan time.Time, render func(Frame)) error {
	var last time.Time
	for p.playing {
		select {
		case <-ctx.Done():
			p.Pause()
			return ctx.Err()
		case now, ok := <-ticks:
			if !ok {
				return nil
			}
			if last.IsZero() {
				last = now
				continue
			}
			delta := now.Sub(last)
			last = now
			if p.Advance(float64(delta) / float64(time.Millisecond)) && render != nil {
				render(p.Frame())
			}
		}
	}
	return nil
}
