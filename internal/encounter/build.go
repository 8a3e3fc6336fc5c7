// Package encounter turns boss definitions into live controllers.
package encounter

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"riftcore/internal/combat"
	"riftcore/internal/config"
	"riftcore/internal/script"
)

type BuildOptions struct {
	Strict bool
	Logger logrus.FieldLogger
	Emit   func(combat.Event)
}

// Options maps the numeric part of a boss definition onto controller options.
func Options(cfg *config.BossConfig) (combat.Options, error) {
	opts := combat.DefaultOptions()
	opts.Name = cfg.ID
	opts.MaxHealth = cfg.MaxHP
	opts.Gate = combat.GateConfig{ChunkFraction: cfg.Gate.ChunkFraction, MinDamage: cfg.Gate.MinDamage}

	opts.Thresholds = make([]float64, 0, len(cfg.Phases))
	opts.Tuning = make([]combat.PhaseTuning, 0, len(cfg.Phases))
	for i, p := range cfg.Phases {
		if i > 0 {
			opts.Thresholds = append(opts.Thresholds, p.Threshold)
		}
		opts.Tuning = append(opts.Tuning, combat.PhaseTuning{
			CooldownScale: p.CooldownScale,
			GateTicks:     p.GateTicks,
			MinionCap:     p.MinionCap,
			WaveAbility:   p.Wave,
		})
	}

	policy, err := combat.ParseTargetPolicy(cfg.Scheduler.TargetPolicy)
	if err != nil {
		return opts, fmt.Errorf("boss %s: %w", cfg.ID, err)
	}
	opts.Scheduler = combat.SchedulerConfig{
		MaxConcurrent:  cfg.Scheduler.MaxConcurrent,
		SearchRadius:   cfg.Scheduler.SearchRadius,
		HoldWhileGated: cfg.Scheduler.HoldWhileGated,
		TargetPolicy:   policy,
		Exhaustion: combat.ExhaustionConfig{
			DurationTicks:    cfg.Exhaustion.Ticks,
			DamageMultiplier: cfg.Exhaustion.DamageMultiplier,
			RecoveryAbility:  cfg.Exhaustion.Recovery,
		},
	}
	opts.Engagement = combat.EngagementConfig{
		ThresholdTicks: cfg.Engagement.Threshold,
		TrackRadius:    cfg.Engagement.TrackRadius,
		Punishment: combat.PunishmentConfig{
			Radius:    cfg.Engagement.Radius,
			Ratio:     cfg.Engagement.Ratio,
			MinDamage: cfg.Engagement.MinDamage,
			Debuffs:   debuffs(cfg.Engagement.Debuffs),
		},
	}
	opts.Threat = combat.ThreatConfig{
		DecayInterval: cfg.Threat.DecayInterval,
		DecayFactor:   cfg.Threat.DecayFactor,
		Floor:         cfg.Threat.Floor,
	}
	return opts, nil
}

// Abilities builds descriptors with compiled preconditions and effects.
func Abilities(cfg *config.BossConfig, log logrus.FieldLogger) ([]combat.AbilityDescriptor, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	out := make([]combat.AbilityDescriptor, 0, len(cfg.Abilities))
	for _, a := range cfg.Abilities {
		class, err := combat.ParseAbilityClass(a.Class)
		if err != nil {
			return nil, fmt.Errorf("ability %s: %w", a.ID, err)
		}
		d := combat.AbilityDescriptor{
			ID:                   a.ID,
			Class:                class,
			BaseCooldownTicks:    a.Cooldown,
			InitialCooldownTicks: a.InitialCooldown,
			WindupTicks:          a.Windup,
			ResolveTicks:         a.Resolve,
			MinPhase:             combat.Phase(a.MinPhase),
			Range:                a.Range,
			LeashRange:           a.Leash,
			Group:                a.Group,
			LocksMovement:        a.LocksMovement,
			Continuous:           a.Continuous,
			RequiresSight:        a.RequiresSight,
			SelfTargeted:         a.Self,
			TriggersExhaustion:   a.Exhausts,
		}
		if a.When != "" {
			cond, err := script.Compile(a.When)
			if err != nil {
				return nil, fmt.Errorf("ability %s: %w", a.ID, err)
			}
			d.Precondition = cond.Precondition(log.WithField("ability", a.ID))
		}
		eff, err := effectFor(a.Effect)
		if err != nil {
			return nil, fmt.Errorf("ability %s: %w", a.ID, err)
		}
		d.Effect = eff
		out = append(out, d)
	}
	return out, nil
}

// Build creates a controller for cfg bound to host.
func Build(cfg *config.BossConfig, id combat.EntityID, host combat.Host, bo BuildOptions) (*combat.BossController, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	opts.ID = id
	opts.Strict = bo.Strict
	opts.Logger = bo.Logger
	opts.Emit = bo.Emit

	log := bo.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	abilities, err := Abilities(cfg, log.WithField("boss", cfg.ID))
	if err != nil {
		return nil, fmt.Errorf("boss %s: %w", cfg.ID, err)
	}
	return combat.NewBossController(opts, abilities, host)
}

// BuildPreset builds one of the embedded bosses.
func BuildPreset(name string, id combat.EntityID, host combat.Host, bo BuildOptions) (*combat.BossController, error) {
	cfg, err := config.Preset(name)
	if err != nil {
		return nil, err
	}
	return Build(cfg, id, host, bo)
}

func debuffs(in []config.DebuffConfig) []combat.DebuffSpec {
	out := make([]combat.DebuffSpec, 0, len(in))
	for _, d := range in {
		out = append(out, combat.DebuffSpec{Kind: combat.DebuffKind(d.Kind), DurationTicks: d.Ticks, Magnitude: d.Level})
	}
	return out
}
