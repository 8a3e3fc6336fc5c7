package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riftcore/internal/combat"
	"riftcore/internal/config"
	"riftcore/internal/util"
)

func testWorld(t *testing.T) (*World, *[]combat.Event) {
	t.Helper()
	var events []combat.Event
	party := NewParty(&config.HeroesConfig{Heroes: []config.HeroDef{
		{ID: "near", MaxHP: 20, Spawn: config.Vec2Def{X: 2}},
		{ID: "far", MaxHP: 30, Spawn: config.Vec2Def{X: 40}},
		{ID: "shy", MaxHP: 20, Spawn: config.Vec2Def{Y: 3}, Hide: []config.HideWindow{{From: 5, Until: 10}}},
	}}, firstHero)
	w := newWorld(party, util.New(1), func(ev combat.Event) { events = append(events, ev) })
	return w, &events
}

func TestWorld_Queries(t *testing.T) {
	w, _ := testWorld(t)

	assert.Equal(t, []combat.EntityID{2, 4}, w.EntitiesInRadius(bossEntity, 10, combat.KindPlayer))
	assert.Equal(t, 4.0, w.DistanceSquared(bossEntity, 2))
	assert.Equal(t, 30.0, w.MaxHealth(3))
	assert.True(t, w.Alive(3))
	assert.False(t, w.Alive(77))

	assert.True(t, w.HasLineOfSight(bossEntity, 4))
	w.tick = 5
	assert.False(t, w.HasLineOfSight(bossEntity, 4))
	w.tick = 10
	assert.True(t, w.HasLineOfSight(bossEntity, 4))
}

func TestWorld_DamageAndDebuffs(t *testing.T) {
	w, events := testWorld(t)
	h := w.party.byID(2)

	w.ApplyDebuff(2, combat.DebuffSlowness, 3, 2)
	assert.InDelta(t, 0.2*0.7, h.speed(), 1e-9)
	w.ApplyDebuff(2, combat.DebuffSlowness, 10, 1)
	assert.Equal(t, 2, h.level(combat.DebuffSlowness), "weaker debuff does not replace")

	for i := 0; i < 3; i++ {
		h.tickDebuffs()
	}
	assert.Zero(t, h.level(combat.DebuffSlowness))

	w.ApplyDamage(2, 25, combat.DamageTrue)
	assert.True(t, h.Down)
	assert.False(t, w.Alive(2))
	assert.Equal(t, []combat.EntityID{4}, w.EntitiesInRadius(bossEntity, 10, combat.KindPlayer))

	var down int
	for _, ev := range *events {
		if ev.Type == "HeroDown" {
			down++
		}
	}
	assert.Equal(t, 1, down)
}

func TestWorld_DownedHeroLosesThreat(t *testing.T) {
	w, _ := testWorld(t)
	opts := combat.DefaultOptions()
	opts.ID = bossEntity
	opts.Logger = quiet()
	boss, err := combat.NewBossController(opts, nil, w.host())
	require.NoError(t, err)
	w.boss = boss

	boss.Threat().Add(2, 5)
	boss.Threat().Add(3, 9)
	boss.Threat().Add(4, 7)
	require.Equal(t, []combat.EntityID{3, 4, 2}, boss.Threat().Ranked())

	w.ApplyDamage(3, 100, combat.DamageTrue)
	assert.Equal(t, []combat.EntityID{4, 2}, boss.Threat().Ranked())

	h := w.party.byID(4)
	h.HP = 0.05
	w.ApplyDebuff(4, combat.DebuffWither, 5, 1)
	w.tickHeroes()
	require.True(t, h.Down)
	assert.Equal(t, []combat.EntityID{2}, boss.Threat().Ranked())
}

func TestWorld_Minions(t *testing.T) {
	w, _ := testWorld(t)
	require.Equal(t, 2, w.SpawnMinions(bossEntity, 2))
	ids := w.EntitiesInRadius(bossEntity, 5, combat.KindMinion)
	assert.Equal(t, []combat.EntityID{firstMinion, firstMinion + 1}, ids)
	assert.Equal(t, float64(minionHP), w.MaxHealth(firstMinion))

	w.minion(firstMinion).HP = 0
	w.tickMinions()
	assert.Len(t, w.minions, 1)

	w.tick += minionLife
	w.tickMinions()
	assert.Empty(t, w.minions)
}

func TestVec2_StepToward(t *testing.T) {
	a := Vec2{}
	assert.Equal(t, Vec2{X: 1}, a.StepToward(Vec2{X: 10}, 1, 0))
	assert.Equal(t, Vec2{X: 8}, a.StepToward(Vec2{X: 10}, 20, 2))
	assert.Equal(t, a, a.StepToward(Vec2{X: 1}, 1, 2))
}
