package viewport

import (
	"sync"
	"time"
)

// Key-hold timing. A press shorter than holdDelay is a tap and produces a
// single discrete zoom step on release; holding past the delay switches to
// continuous zoom, one small step per tick until release.
const (
	DefaultHoldDelay    = 250 * time.Millisecond
	DefaultTickInterval = 30 * time.Millisecond
)

// Direction is the sign of a keyboard zoom.
type Direction int

const (
	ZoomIn Direction = iota
	ZoomOut
)

type keyState int

const (
	keyIdle keyState = iota
	keyPendingDiscrete
	keyContinuous
)

// KeyZoom disambiguates tap-to-step from hold-to-zoom for a zoom key pair.
// It owns the timers; the actual zoom is performed by the callback, which
// receives a multiplicative factor. The callback fires on a background
// goroutine during continuous zoom; Viewport methods are safe to call
// from it directly.
type KeyZoom struct {
	mu sync.Mutex

	holdDelay time.Duration
	tick      time.Duration
	onZoom    func(factor float64)

	state     keyState
	dir       Direction
	holdTimer *time.Timer
	stopTick  chan struct{}
}

// NewKeyZoom creates a key zoom machine with default timings.
func NewKeyZoom(onZoom func(factor float64)) *KeyZoom {
	return &KeyZoom{
		holdDelay: DefaultHoldDelay,
		tick:      DefaultTickInterval,
		onZoom:    onZoom,
	}
}

// SetTimings overrides the hold delay and tick interval (used by tests).
func (k *KeyZoom) SetTimings(holdDelay, tick time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.holdDelay = holdDelay
	k.tick = tick
}

func factorFor(dir Direction, step float64) float64 {
	if dir == ZoomOut {
		return 1 / step
	}
	return step
}

// KeyDown records a zoom key press. OS auto-repeat events for a key that
// is already down are ignored; the hold timer decides tap vs. hold.
func (k *KeyZoom) KeyDown(dir Direction) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.state != keyIdle {
		return
	}
	k.state = keyPendingDiscrete
	k.dir = dir
	k.holdTimer = time.AfterFunc(k.holdDelay, func() { k.beginContinuous(dir) })
}

// KeyUp records the release. A pending tap fires one discrete step;
// continuous zoom stops.
func (k *KeyZoom) KeyUp() {
	k.mu.Lock()

	switch k.state {
	case keyPendingDiscrete:
		if k.holdTimer != nil {
			k.holdTimer.Stop()
		}
		dir := k.dir
		k.state = keyIdle
		k.mu.Unlock()
		k.onZoom(factorFor(dir, DiscreteStep))
		return

	case keyContinuous:
		if k.stopTick != nil {
			close(k.stopTick)
			k.stopTick = nil
		}
		k.state = keyIdle
	}
	k.mu.Unlock()
}

// Cancel aborts any in-flight press without emitting a zoom, e.g. when the
// window loses focus while a key is held.
func (k *KeyZoom) Cancel() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.holdTimer != nil {
		k.holdTimer.Stop()
	}
	if k.stopTick != nil {
		close(k.stopTick)
		k.stopTick = nil
	}
	k.state = keyIdle
}

// beginContinuous is entered from the hold timer once the delay elapses.
func (k *KeyZoom) beginContinuous(dir Direction) {
	k.mu.Lock()
	if k.state != keyPendingDiscrete {
		k.mu.Unlock()
		return
	}
	k.state = keyContinuous
	stop := make(chan struct{})
	k.stopTick = stop
	interval := k.tick
	k.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				k.onZoom(factorFor(dir, ContinuousStep))
			}
		}
	}()
}
