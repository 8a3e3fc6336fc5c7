package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"rift_warden", "stone_sentinel"}, Presets())

	rw, err := Preset("rift_warden")
	require.NoError(t, err)
	assert.Equal(t, 4000.0, rw.MaxHP)
	assert.Len(t, rw.Phases, 4)
	assert.Equal(t, "wave_small", rw.Phases[1].Wave)
	laser, ok := rw.Ability("laser")
	require.True(t, ok)
	assert.True(t, laser.Exhausts)
	assert.Equal(t, 160, laser.Windup)
	assert.Equal(t, 400, rw.Exhaustion.Ticks)
	assert.Equal(t, "recovery_burst", rw.Exhaustion.Recovery)

	ss, err := Preset("stone_sentinel")
	require.NoError(t, err)
	assert.Equal(t, 0.10, ss.Gate.ChunkFraction)
	assert.Equal(t, 60, ss.Engagement.Threshold)
	assert.Equal(t, 1.0, ss.Phases[0].CooldownScale, "defaults applied")
	assert.Equal(t, "nearest", ss.Scheduler.TargetPolicy)

	_, err = Preset("nope")
	assert.Error(t, err)
}

func TestParseBoss_Defaults(t *testing.T) {
	bc, err := ParseBoss([]byte("id: tiny\nmax_hp: 100\n"))
	require.NoError(t, err)
	assert.Equal(t, "tiny", bc.Name)
	assert.Equal(t, 0.05, bc.Gate.ChunkFraction)
	require.Len(t, bc.Phases, 4)
	assert.Equal(t, []int{40, 36, 32, 28}, []int{
		bc.Phases[0].GateTicks, bc.Phases[1].GateTicks, bc.Phases[2].GateTicks, bc.Phases[3].GateTicks,
	})
	assert.InDeltaSlice(t, []float64{1, 0.9, 0.8, 0.7}, []float64{
		bc.Phases[0].CooldownScale, bc.Phases[1].CooldownScale, bc.Phases[2].CooldownScale, bc.Phases[3].CooldownScale,
	}, 1e-9)
	assert.Equal(t, 2, bc.Scheduler.MaxConcurrent)
	assert.Equal(t, 0.95, bc.Threat.DecayFactor)
}

func TestBossConfig_ValidateCooldownScaleOrder(t *testing.T) {
	bc := &BossConfig{
		ID:    "hasty",
		MaxHP: 100,
		Phases: []PhaseConfig{
			{CooldownScale: 0.8},
			{Threshold: 0.5, CooldownScale: 1.2},
		},
	}
	bc.ApplyDefaults()
	err := bc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phases[1].cooldown_scale 1.2 exceeds")

	bc.Phases[1].CooldownScale = 0.8
	assert.NoError(t, bc.Validate())
}

func TestParseBoss_UnknownField(t *testing.T) {
	_, err := ParseBoss([]byte("id: tiny\nmax_hp: 100\nhitpoints: 5\n"))
	assert.Error(t, err)
}

func TestBossConfig_ValidateCollectsErrors(t *testing.T) {
	bc := &BossConfig{
		ID:    "broken",
		MaxHP: 100,
		Phases: []PhaseConfig{
			{},
			{Threshold: 0.5, Wave: "missing"},
			{Threshold: 0.6},
		},
		Abilities: []AbilityConfig{
			{ID: "a", Class: "melee"},
			{ID: "a", Class: "ranged"},
			{ID: "b", Class: "summon", Effect: EffectConfig{Kind: "summon"}},
		},
		Exhaustion: ExhaustionConfig{Recovery: "ghost"},
	}
	bc.ApplyDefaults()
	err := bc.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{
		`unknown ability "missing"`,
		"phases[2].threshold",
		"duplicate id",
		`unknown class "ranged"`,
		"summon effect needs a positive count",
		`recovery references unknown ability "ghost"`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestHeroesConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultHeroes().Validate())

	hc := &HeroesConfig{Heroes: []HeroDef{
		{ID: "a", MaxHP: 10, Hide: []HideWindow{{From: 5, Until: 5}}},
		{ID: "a", MaxHP: 0},
	}}
	err := hc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hide window")
	assert.Contains(t, err.Error(), "duplicate id")
	assert.Contains(t, err.Error(), "max_hp")
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bosses"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heroes.yaml"), []byte(`
heroes:
  - id: solo
    max_hp: 30
    damage: 5
    attack_interval: 10
    range: 4
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bosses", "override.yaml"), []byte(`
id: stone_sentinel
max_hp: 50
`), 0o644))

	hc, bosses, err := LoadAll(dir)
	require.NoError(t, err)
	require.Len(t, hc.Heroes, 1)
	assert.Equal(t, "solo", hc.Heroes[0].ID)
	require.Contains(t, bosses, "rift_warden")
	assert.Equal(t, 50.0, bosses["stone_sentinel"].MaxHP, "file overrides preset")
}

func TestLoadAll_DefaultHeroes(t *testing.T) {
	hc, bosses, err := LoadAll(t.TempDir())
	require.NoError(t, err)
	assert.Len(t, hc.Heroes, len(DefaultHeroes().Heroes))
	assert.Len(t, bosses, 2)
}

func TestResolveBoss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mini.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: mini\nmax_hp: 10\n"), 0o644))

	bc, err := ResolveBoss(path)
	require.NoError(t, err)
	assert.Equal(t, "mini", bc.ID)

	bc, err = ResolveBoss("rift_warden")
	require.NoError(t, err)
	assert.Equal(t, "rift_warden", bc.ID)
}

func TestLoadRuntime(t *testing.T) {
	t.Setenv("RIFT_WORKERS", "8")
	t.Setenv("RIFT_SNAPSHOT_TTL", "90m")
	t.Setenv("RIFT_LOG_FORMAT", "json")

	rt, err := LoadRuntime(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8, rt.Workers)
	assert.Equal(t, 90*time.Minute, rt.SnapshotTTL)
	assert.Equal(t, "info", rt.LogLevel)
	assert.NotNil(t, rt.Logger())

	t.Setenv("RIFT_LOG_FORMAT", "xml")
	_, err = LoadRuntime(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadAll_ShippedAssets(t *testing.T) {
	hc, bosses, err := LoadAll(filepath.Join("..", "..", "assets"))
	require.NoError(t, err)
	assert.Len(t, hc.Heroes, 3)
	require.Contains(t, bosses, "ember_colossus")
	ec := bosses["ember_colossus"]
	assert.Equal(t, "threat", ec.Scheduler.TargetPolicy)
	assert.Equal(t, "vent", ec.Exhaustion.Recovery)
	assert.Equal(t, 40, ec.Phases[0].GateTicks)
}
