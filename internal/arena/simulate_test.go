package arena

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riftcore/internal/combat"
	"riftcore/internal/config"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func boss(t *testing.T, doc string) *config.BossConfig {
	t.Helper()
	bc, err := config.ParseBoss([]byte(doc))
	require.NoError(t, err)
	return bc
}

func preset(t *testing.T, id string) *config.BossConfig {
	t.Helper()
	bc, err := config.Preset(id)
	require.NoError(t, err)
	return bc
}

func TestRun_Deterministic(t *testing.T) {
	p := Params{Boss: preset(t, "stone_sentinel"), Seed: 99, MaxTicks: 2000, Logger: quiet()}
	a, err := Run(context.Background(), p)
	require.NoError(t, err)
	b, err := Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, a.Ticks, b.Ticks)
	assert.Equal(t, a.FinalHealth, b.FinalHealth)
	assert.Equal(t, a.EventCounts, b.EventCounts)
	assert.Equal(t, a.DamageByHero, b.DamageByHero)
}

func TestRun_PresetsHoldInvariants(t *testing.T) {
	for _, id := range config.Presets() {
		t.Run(id, func(t *testing.T) {
			res, err := Run(context.Background(), Params{
				Boss:     preset(t, id),
				Seed:     7,
				MaxTicks: 3000,
				Strict:   true,
				Logger:   quiet(),
			})
			require.NoError(t, err)
			assert.Positive(t, res.EventCounts[combat.EventGateOpen])
			assert.LessOrEqual(t, res.Ticks, int64(3000))
		})
	}
}

func TestRun_PartyBeatsPracticeDummy(t *testing.T) {
	res, err := Run(context.Background(), Params{
		Boss:   boss(t, "id: dummy\nmax_hp: 100\ngate: {chunk_fraction: 1}\n"),
		Seed:   3,
		Record: true,
		Logger: quiet(),
	})
	require.NoError(t, err)
	assert.True(t, res.Win)
	assert.Equal(t, 3, res.HeroesAlive)
	assert.Zero(t, res.FinalHealth)
	assert.Equal(t, 1, res.EventCounts[combat.EventDeath])
	assert.NotEmpty(t, res.Events)

	total := 0.0
	for _, v := range res.DamageByHero {
		total += v
	}
	assert.GreaterOrEqual(t, total, 100.0)
	assert.Len(t, res.ThreatOrder, 3)
	require.NotNil(t, res.Snapshot)
	assert.True(t, res.Snapshot.Dead)
}

func TestRun_HidingIsPunished(t *testing.T) {
	heroes := &config.HeroesConfig{Heroes: []config.HeroDef{{
		ID:    "coward",
		MaxHP: 20,
		Spawn: config.Vec2Def{X: 2},
		Range: 3,
		Hide:  []config.HideWindow{{From: 0, Until: 1000}},
	}}}
	res, err := Run(context.Background(), Params{
		Boss:     boss(t, "id: watcher\nmax_hp: 100\nengagement: {threshold: 10, ratio: 0.06, min_damage: 2}\n"),
		Heroes:   heroes,
		MaxTicks: 50,
		Logger:   quiet(),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.EventCounts[combat.EventPunish])
	assert.InDelta(t, 10, res.DamageTaken["coward"], 1e-9)
	assert.Equal(t, 1, res.HeroesAlive)
}

func TestRun_Resume(t *testing.T) {
	cfg := preset(t, "stone_sentinel")
	first, err := Run(context.Background(), Params{Boss: cfg, Seed: 5, MaxTicks: 200, Logger: quiet()})
	require.NoError(t, err)
	require.False(t, first.Win)

	second, err := Run(context.Background(), Params{Boss: cfg, Seed: 5, MaxTicks: 10, Resume: first.Snapshot, Logger: quiet()})
	require.NoError(t, err)
	assert.Equal(t, int64(10), second.Ticks)
	assert.Equal(t, first.Snapshot.Tick+10, second.Snapshot.Tick)
	assert.LessOrEqual(t, second.FinalHealth, first.FinalHealth)

	bad := *first.Snapshot
	bad.MaxHealth = 1
	_, err = Run(context.Background(), Params{Boss: cfg, Resume: &bad, Logger: quiet()})
	assert.ErrorIs(t, err, combat.ErrInvalidConfig)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Params{Boss: preset(t, "rift_warden"), Logger: quiet()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Observer(t *testing.T) {
	seen := map[string]int{}
	res, err := Run(context.Background(), Params{
		Boss:     preset(t, "rift_warden"),
		MaxTicks: 500,
		Logger:   quiet(),
		Observer: func(ev combat.Event) { seen[ev.Type]++ },
	})
	require.NoError(t, err)
	assert.Equal(t, res.EventCounts, seen)
	assert.Nil(t, res.Events)
}

func TestSummary(t *testing.T) {
	s := NewSummary()
	s.Add(&Result{Win: true, Ticks: 100, DPS: 2, PhaseReached: 3,
		DamageByHero: map[string]float64{"a": 30, "b": 10}, EventCounts: map[string]int{"Death": 1}})
	s.Add(&Result{Ticks: 300, DPS: 4, PhaseReached: 1,
		DamageByHero: map[string]float64{"a": 10, "b": 30}, EventCounts: map[string]int{"Punish": 2}})

	assert.Equal(t, 2, s.Runs)
	assert.Equal(t, 0.5, s.WinRate)
	assert.Equal(t, 200.0, s.AvgTicks)
	assert.Equal(t, 3.0, s.AvgDPS)
	assert.Equal(t, 2.0, s.AvgPhase)
	assert.Equal(t, Share{Total: 40, Ratio: 0.5}, s.ByHero["a"])
	assert.Equal(t, map[string]int{"Death": 1, "Punish": 2}, s.Events)
}
