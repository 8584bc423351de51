// Package nidra ("sleep") implements the sleep-cycle state machine that
// schedules when consolidation runs. It cycles LISTENING -> DREAMING ->
// DEEP_SLEEP -> LISTENING on configured timers, emits heartbeats and state
// changes on the event bus, and invokes an externally supplied dream
// handler (the consolidation pipeline) for the DREAMING phase.
package nidra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/eventbus"
)

// State is one phase of the sleep cycle.
type State string

const (
	Listening State = "LISTENING"
	Dreaming  State = "DREAMING"
	DeepSleep State = "DEEP_SLEEP"
)

// DreamHandler performs one consolidation pass. It must respect ctx
// cancellation: on cancel, in-flight work is abandoned and no partial
// summaries are committed.
type DreamHandler func(ctx context.Context) error

// Machine is the sleep-cycle state machine. The zero value is not usable;
// build one with New.
type Machine struct {
	cfg    config.NidraConfig
	bus    *eventbus.Bus
	dream  DreamHandler
	nowFn  func() time.Time

	mu       sync.Mutex
	state    State
	sinceAt  time.Time // when the current state was entered
	disposed bool
}

// New builds a Machine starting in LISTENING. nowFn defaults to time.Now if
// nil; tests supply a deterministic clock.
func New(cfg config.NidraConfig, bus *eventbus.Bus, dream DreamHandler, nowFn func() time.Time) *Machine {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Machine{
		cfg:     cfg.Clamp(),
		bus:     bus,
		dream:   dream,
		nowFn:   nowFn,
		state:   Listening,
		sinceAt: nowFn(),
	}
}

// Restore rebuilds a Machine resuming phase at the point it had reached
// (elapsed is how long the prior process had already spent in phase before
// it stopped), so a restart completes the remaining duration for that phase
// instead of restarting it.
func Restore(cfg config.NidraConfig, bus *eventbus.Bus, dream DreamHandler, nowFn func() time.Time, phase State, elapsed time.Duration) *Machine {
	m := New(cfg, bus, dream, nowFn)
	m.state = phase
	m.sinceAt = m.nowFn().Add(-elapsed)
	return m
}

// State returns the current phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Elapsed returns how long the machine has been in its current state.
func (m *Machine) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nowFn().Sub(m.sinceAt)
}

var errDisposed = fmt.Errorf("nidra: machine disposed: %w", errkind.ErrInvariant)

// Touch resets the idle timer while LISTENING; while DREAMING or
// DEEP_SLEEP, it wakes the machine back to LISTENING (new activity
// interrupts a rest cycle).
func (m *Machine) Touch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return errDisposed
	}
	if m.state == Listening {
		m.sinceAt = m.nowFn()
		return nil
	}
	return m.transitionLocked(ctx, Listening)
}

// Wake force-returns the machine to LISTENING regardless of current state.
func (m *Machine) Wake(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return errDisposed
	}
	return m.transitionLocked(ctx, Listening)
}

// Tick advances the machine if enough time has elapsed in the current
// state: idleTimeout -> DREAMING, dreamDuration -> DEEP_SLEEP,
// deepSleepDuration -> LISTENING. Callers invoke this periodically (a
// poller or scheduler); the machine holds no goroutines of its own.
func (m *Machine) Tick(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return errDisposed
	}

	elapsed := m.nowFn().Sub(m.sinceAt)
	switch m.state {
	case Listening:
		if elapsed >= m.cfg.IdleTimeout {
			return m.transitionLocked(ctx, Dreaming)
		}
	case Dreaming:
		if elapsed >= m.cfg.DreamDuration {
			return m.transitionLocked(ctx, DeepSleep)
		}
	case DeepSleep:
		if elapsed >= m.cfg.DeepSleepDuration {
			return m.transitionLocked(ctx, Listening)
		}
	}
	return nil
}

// Heartbeat emits a heartbeat event for the current state without changing
// it, for callers on a fixed cadence independent of transition timing.
func (m *Machine) Heartbeat(ctx context.Context) {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	m.emit(ctx, eventbus.EventNidraHeartbeat, map[string]interface{}{"state": string(state)})
}

// Dispose terminates the machine. Further calls to Tick, Wake, or Touch
// fail with errDisposed.
func (m *Machine) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
}

func (m *Machine) transitionLocked(ctx context.Context, next State) error {
	prev := m.state
	if prev == next {
		return nil
	}
	m.state = next
	m.sinceAt = m.nowFn()
	m.emit(ctx, eventbus.EventNidraStateChange, map[string]interface{}{"from": string(prev), "to": string(next)})

	if next == Dreaming && m.dream != nil {
		m.emit(ctx, eventbus.EventConsolidationStart, nil)
		err := m.dream(ctx)
		m.emit(ctx, eventbus.EventConsolidationEnd, map[string]interface{}{"error": errString(err)})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) emit(ctx context.Context, t eventbus.EventType, payload map[string]interface{}) {
	if m.bus == nil {
		return
	}
	_, _ = m.bus.Dispatch(ctx, &eventbus.Event{Type: t, Timestamp: m.nowFn(), Payload: payload})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
