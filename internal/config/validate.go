package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid config")

var (
	abilityClasses = map[string]bool{"melee": true, "short_range": true, "long_range": true, "summon": true}
	effectKinds    = map[string]bool{"none": true, "strike": true, "area": true, "summon": true}
	debuffKinds    = map[string]bool{"slowness": true, "mining_fatigue": true, "weakness": true, "levitation": true, "wither": true}
	targetPolicies = map[string]bool{"nearest": true, "threat": true}
)

// Validate checks a boss definition after ApplyDefaults. All problems are
// reported together.
func (c *BossConfig) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.ID == "" {
		add("id is required")
	}
	if c.MaxHP <= 0 {
		add("max_hp must be positive, got %v", c.MaxHP)
	}
	if c.Gate.ChunkFraction <= 0 || c.Gate.ChunkFraction > 1 {
		add("gate.chunk_fraction must be in (0,1], got %v", c.Gate.ChunkFraction)
	}
	if c.Gate.MinDamage < 0 {
		add("gate.min_damage must not be negative")
	}

	if len(c.Phases) > 4 {
		add("at most 4 phases, got %d", len(c.Phases))
	}
	prev := 1.0
	for i, p := range c.Phases {
		if i > 0 {
			if p.Threshold <= 0 || p.Threshold >= prev {
				add("phases[%d].threshold %v must be below %v and positive", i, p.Threshold, prev)
			}
			prev = p.Threshold
		}
		if p.CooldownScale < 0 {
			add("phases[%d].cooldown_scale must not be negative", i)
		}
		if i > 0 && p.CooldownScale > c.Phases[i-1].CooldownScale {
			add("phases[%d].cooldown_scale %v exceeds the previous phase's %v", i, p.CooldownScale, c.Phases[i-1].CooldownScale)
		}
		if p.Wave != "" {
			if _, ok := c.Ability(p.Wave); !ok {
				add("phases[%d].wave references unknown ability %q", i, p.Wave)
			}
		}
	}

	seen := map[string]bool{}
	for i, a := range c.Abilities {
		where := fmt.Sprintf("abilities[%d]", i)
		if a.ID != "" {
			where = fmt.Sprintf("ability %q", a.ID)
		}
		switch {
		case a.ID == "":
			add("%s: id is required", where)
		case seen[a.ID]:
			add("%s: duplicate id", where)
		}
		seen[a.ID] = true
		if !abilityClasses[a.Class] {
			add("%s: unknown class %q", where, a.Class)
		}
		if a.Cooldown < 0 || a.InitialCooldown < 0 || a.Windup < 0 || a.Resolve < 0 {
			add("%s: tick counts must not be negative", where)
		}
		if a.MinPhase < 0 || a.MinPhase >= max(1, len(c.Phases)) {
			add("%s: min_phase %d out of range", where, a.MinPhase)
		}
		if a.Range < 0 || a.Leash < 0 {
			add("%s: range must not be negative", where)
		}
		if !effectKinds[a.Effect.Kind] {
			add("%s: unknown effect kind %q", where, a.Effect.Kind)
		}
		if a.Effect.Kind == "summon" && a.Effect.Count <= 0 {
			add("%s: summon effect needs a positive count", where)
		}
		for _, d := range a.Effect.Debuffs {
			if !debuffKinds[d.Kind] {
				add("%s: unknown debuff %q", where, d.Kind)
			}
		}
	}

	if c.Scheduler.MaxConcurrent < 1 {
		add("scheduler.max_concurrent must be at least 1")
	}
	if !targetPolicies[c.Scheduler.TargetPolicy] {
		add("scheduler.target_policy %q unknown", c.Scheduler.TargetPolicy)
	}
	if c.Exhaustion.Ticks < 0 || c.Exhaustion.DamageMultiplier < 0 {
		add("exhaustion values must not be negative")
	}
	if r := c.Exhaustion.Recovery; r != "" {
		if _, ok := c.Ability(r); !ok {
			add("exhaustion.recovery references unknown ability %q", r)
		}
	}
	if c.Engagement.Threshold < 0 {
		add("engagement.threshold must not be negative")
	}
	for _, d := range c.Engagement.Debuffs {
		if !debuffKinds[d.Kind] {
			add("engagement: unknown debuff %q", d.Kind)
		}
	}
	if c.Threat.DecayFactor < 0 || c.Threat.DecayFactor > 1 {
		add("threat.decay_factor must be in [0,1]")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: boss %q:\n  - %s", ErrInvalid, c.ID, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Validate checks the hero roster.
func (c *HeroesConfig) Validate() error {
	var errs []string
	seen := map[string]bool{}
	for i, h := range c.Heroes {
		if h.ID == "" {
			errs = append(errs, fmt.Sprintf("heroes[%d]: id is required", i))
		} else if seen[h.ID] {
			errs = append(errs, fmt.Sprintf("hero %q: duplicate id", h.ID))
		}
		seen[h.ID] = true
		if h.MaxHP <= 0 {
			errs = append(errs, fmt.Sprintf("hero %q: max_hp must be positive", h.ID))
		}
		if h.AttackInterval < 0 || h.Damage < 0 {
			errs = append(errs, fmt.Sprintf("hero %q: attack values must not be negative", h.ID))
		}
		for _, w := range h.Hide {
			if w.Until <= w.From {
				errs = append(errs, fmt.Sprintf("hero %q: hide window %d..%d is empty", h.ID, w.From, w.Until))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: heroes:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}
