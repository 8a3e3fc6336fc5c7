package encounter

import (
	"fmt"

	"riftcore/internal/combat"
	"riftcore/internal/config"
)

// MinionSpawner is implemented by hosts that can put minions into the world.
// Summon effects are no-ops on hosts that do not implement it.
type MinionSpawner interface {
	SpawnMinions(boss combat.EntityID, count int) int
}

func effectFor(ec config.EffectConfig) (combat.EffectFunc, error) {
	kind := combat.DamagePhysical
	if ec.True {
		kind = combat.DamageTrue
	}
	ds := debuffs(ec.Debuffs)

	switch ec.Kind {
	case "", "none":
		return nil, nil
	case "strike":
		return func(rc combat.ResolveContext) {
			if rc.Host.Targets == nil || rc.Target == 0 || rc.Target == rc.Boss {
				return
			}
			hit(rc.Host.Targets, rc.Target, ec.Damage, kind, ds)
		}, nil
	case "area":
		return func(rc combat.ResolveContext) {
			if rc.Host.Targets == nil || rc.Host.World == nil {
				return
			}
			for _, id := range areaTargets(rc, ec.Radius) {
				hit(rc.Host.Targets, id, ec.Damage, kind, ds)
			}
		}, nil
	case "summon":
		count := ec.Count
		return func(rc combat.ResolveContext) {
			if sp, ok := rc.Host.Targets.(MinionSpawner); ok {
				sp.SpawnMinions(rc.Boss, count)
			}
		}, nil
	}
	return nil, fmt.Errorf("unknown effect kind %q", ec.Kind)
}

func hit(sink combat.TargetSink, id combat.EntityID, dmg float64, kind combat.DamageKind, ds []combat.DebuffSpec) {
	if dmg > 0 {
		sink.ApplyDamage(id, dmg, kind)
	}
	for _, d := range ds {
		sink.ApplyDebuff(id, d.Kind, d.DurationTicks, d.Magnitude)
	}
}

// areaTargets returns live players around the target, or around the boss for
// self-targeted abilities. The target itself is always included.
func areaTargets(rc combat.ResolveContext, radius float64) []combat.EntityID {
	w := rc.Host.World
	center := rc.Target
	if center == 0 {
		center = rc.Boss
	}
	var out []combat.EntityID
	seen := map[combat.EntityID]bool{rc.Boss: true}
	if center != rc.Boss && w.Alive(center) {
		out = append(out, center)
		seen[center] = true
	}
	for _, id := range w.EntitiesInRadius(center, radius, combat.KindPlayer) {
		if seen[id] || !w.Alive(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
