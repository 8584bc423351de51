package kalachakra_test

import (
	"math"
	"testing"
	"time"

	"github.com/sriinnu/chitragupta/internal/kalachakra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevanceAtZeroIsApproximatelyOne(t *testing.T) {
	cfg := kalachakra.DefaultConfig()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	got := kalachakra.Relevance(cfg, now, now)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestRelevanceDecaysMonotonically(t *testing.T) {
	cfg := kalachakra.DefaultConfig()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	var prev float64 = math.Inf(1)
	for _, elapsed := range []time.Duration{0, time.Minute, time.Hour, 24 * time.Hour, 7 * 24 * time.Hour, 365 * 24 * time.Hour} {
		got := kalachakra.Relevance(cfg, now.Add(-elapsed), now)
		assert.LessOrEqual(t, got, prev, "relevance should not increase as elapsed time grows")
		prev = got
	}
}

func TestRelevanceFutureTimestampClampsToZeroElapsed(t *testing.T) {
	cfg := kalachakra.DefaultConfig()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	got := kalachakra.Relevance(cfg, future, now)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestDominantScale(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    kalachakra.Scale
	}{
		{"just now", 0, kalachakra.ScaleTurn},
		{"4 minutes", 4 * time.Minute, kalachakra.ScaleTurn},
		{"1 hour", time.Hour, kalachakra.ScaleSession},
		{"1 day", 24 * time.Hour, kalachakra.ScaleDay},
		{"5 days", 5 * 24 * time.Hour, kalachakra.ScaleWeek},
		{"20 days", 20 * 24 * time.Hour, kalachakra.ScaleMonth},
		{"60 days", 60 * 24 * time.Hour, kalachakra.ScaleQuarter},
		{"200 days", 200 * 24 * time.Hour, kalachakra.ScaleYear},
		{"negative treated as zero", -time.Hour, kalachakra.ScaleTurn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kalachakra.DominantScale(tt.elapsed))
		})
	}
}

func TestConfigClampBoundsAndRenormalizes(t *testing.T) {
	cfg := kalachakra.Config{
		HalfLife: map[kalachakra.Scale]time.Duration{
			kalachakra.ScaleTurn: -time.Hour,
			kalachakra.ScaleYear: 100 * 365 * 24 * time.Hour,
		},
		Weight: map[kalachakra.Scale]float64{
			kalachakra.ScaleTurn: 2.0,
			kalachakra.ScaleYear: -1.0,
		},
	}
	clamped := cfg.Clamp()

	require.GreaterOrEqual(t, clamped.HalfLife[kalachakra.ScaleTurn], time.Second)
	require.LessOrEqual(t, clamped.HalfLife[kalachakra.ScaleYear], 10*365*24*time.Hour)

	var sum float64
	for _, w := range clamped.Weight {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestBoostNeverSuppressesBelowHalf(t *testing.T) {
	cfg := kalachakra.DefaultConfig()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	ancient := now.Add(-50 * 365 * 24 * time.Hour)

	boost := kalachakra.Boost(cfg, ancient, now)
	assert.GreaterOrEqual(t, boost, 0.5)
	assert.LessOrEqual(t, boost, 1.0)
}

type stubCountReader struct {
	count int
	err   error
}

func (s stubCountReader) CountSince(time.Time) (int, error) {
	return s.count, s.err
}

func TestNewContextDegradesOnReaderError(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	ctx := kalachakra.NewContext(now, stubCountReader{err: assertErr()})

	assert.Equal(t, 0, ctx.DayCount)
	assert.Equal(t, 0, ctx.WeekCount)
	wantYear, wantWeek := now.ISOWeek()
	assert.Equal(t, wantYear, ctx.ISOYear)
	assert.Equal(t, wantWeek, ctx.ISOWeek)
}

func TestNewContextPopulatesFromReader(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	ctx := kalachakra.NewContext(now, stubCountReader{count: 7})

	assert.Equal(t, 7, ctx.DayCount)
	assert.Equal(t, 7, ctx.WeekCount)
	assert.Equal(t, 7, ctx.YearCount)
}

func TestNewContextNilReader(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	ctx := kalachakra.NewContext(now, nil)
	assert.Equal(t, 0, ctx.DayCount)
}

func assertErr() error {
	return errStub{}
}

type errStub struct{}

func (errStub) Error() string { return "stub read failure" }
