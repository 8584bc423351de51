package nidra_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/eventbus"
	"github.com/sriinnu/chitragupta/internal/nidra"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time  { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMachineStartsListening(t *testing.T) {
	m := nidra.New(config.DefaultNidraConfig(), nil, nil, nil)
	assert.Equal(t, nidra.Listening, m.State())
}

func TestTickTransitionsThroughFullCycle(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cfg := config.NidraConfig{IdleTimeout: time.Minute, DreamDuration: time.Minute, DeepSleepDuration: time.Minute}
	var dreamed int32
	dream := func(ctx context.Context) error {
		atomic.AddInt32(&dreamed, 1)
		return nil
	}
	m := nidra.New(cfg, nil, dream, clock.now)

	require.NoError(t, m.Tick(context.Background()))
	assert.Equal(t, nidra.Listening, m.State(), "no transition before idle timeout elapses")

	clock.advance(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	assert.Equal(t, nidra.Dreaming, m.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&dreamed))

	clock.advance(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	assert.Equal(t, nidra.DeepSleep, m.State())

	clock.advance(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	assert.Equal(t, nidra.Listening, m.State())
}

func TestWakeForceReturnsToListening(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cfg := config.NidraConfig{IdleTimeout: time.Minute, DreamDuration: time.Hour, DeepSleepDuration: time.Hour}
	m := nidra.New(cfg, nil, func(ctx context.Context) error { return nil }, clock.now)

	clock.advance(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	require.Equal(t, nidra.Dreaming, m.State())

	require.NoError(t, m.Wake(context.Background()))
	assert.Equal(t, nidra.Listening, m.State())
}

func TestTouchResetsIdleTimerWhileListening(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cfg := config.NidraConfig{IdleTimeout: time.Minute, DreamDuration: time.Hour, DeepSleepDuration: time.Hour}
	m := nidra.New(cfg, nil, nil, clock.now)

	clock.advance(30 * time.Second)
	require.NoError(t, m.Touch(context.Background()))
	clock.advance(40 * time.Second)
	require.NoError(t, m.Tick(context.Background()))
	assert.Equal(t, nidra.Listening, m.State(), "touch should have reset the idle clock")
}

func TestTouchWakesWhileAsleep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cfg := config.NidraConfig{IdleTimeout: time.Minute, DreamDuration: time.Hour, DeepSleepDuration: time.Hour}
	m := nidra.New(cfg, nil, func(ctx context.Context) error { return nil }, clock.now)
	clock.advance(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	require.Equal(t, nidra.Dreaming, m.State())

	require.NoError(t, m.Touch(context.Background()))
	assert.Equal(t, nidra.Listening, m.State())
}

func TestDisposeRejectsFurtherCalls(t *testing.T) {
	m := nidra.New(config.DefaultNidraConfig(), nil, nil, nil)
	m.Dispose()

	assert.Error(t, m.Tick(context.Background()))
	assert.Error(t, m.Wake(context.Background()))
	assert.Error(t, m.Touch(context.Background()))
}

func TestDreamErrorPropagates(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cfg := config.NidraConfig{IdleTimeout: time.Minute, DreamDuration: time.Hour, DeepSleepDuration: time.Hour}
	boom := assert.AnError
	m := nidra.New(cfg, nil, func(ctx context.Context) error { return boom }, clock.now)

	clock.advance(2 * time.Minute)
	err := m.Tick(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, nidra.Dreaming, m.State(), "a failed dream still leaves the machine in DREAMING")
}

func TestEmitsEventsOnTransition(t *testing.T) {
	bus := eventbus.New()
	var events []eventbus.EventType
	bus.Register(recordingHandler{fn: func(e *eventbus.Event) { events = append(events, e.Type) }})

	clock := &fakeClock{t: time.Now()}
	cfg := config.NidraConfig{IdleTimeout: time.Minute, DreamDuration: time.Hour, DeepSleepDuration: time.Hour}
	m := nidra.New(cfg, bus, func(ctx context.Context) error { return nil }, clock.now)

	clock.advance(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))

	assert.Contains(t, events, eventbus.EventNidraStateChange)
	assert.Contains(t, events, eventbus.EventConsolidationStart)
	assert.Contains(t, events, eventbus.EventConsolidationEnd)
}

func TestRestoreResumesElapsedPhase(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cfg := config.NidraConfig{IdleTimeout: time.Minute, DreamDuration: time.Minute, DeepSleepDuration: time.Minute}
	m := nidra.Restore(cfg, nil, func(ctx context.Context) error { return nil }, clock.now, nidra.Dreaming, 50*time.Second)
	require.Equal(t, nidra.Dreaming, m.State())

	clock.advance(20 * time.Second)
	require.NoError(t, m.Tick(context.Background()))
	assert.Equal(t, nidra.DeepSleep, m.State(), "restored phase should complete its remaining duration, not restart")
}

type recordingHandler struct {
	fn func(*eventbus.Event)
}

func (recordingHandler) ID() string { return "recorder" }
func (recordingHandler) Handles() []eventbus.EventType {
	return []eventbus.EventType{eventbus.EventNidraStateChange, eventbus.EventConsolidationStart, eventbus.EventConsolidationEnd}
}
func (recordingHandler) Priority() int { return 0 }
func (h recordingHandler) Handle(ctx context.Context, event *eventbus.Event, result *eventbus.Result) error {
	h.fn(event)
	return nil
}
