package config

// HeroesConfig is the simulated party that fights a boss in the arena.
type HeroesConfig struct {
	Heroes []HeroDef `yaml:"heroes"`
}

type HeroDef struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	MaxHP float64 `yaml:"max_hp"`
	Speed float64 `yaml:"speed"`
	Spawn Vec2Def `yaml:"spawn"`
	// Damage is dealt every AttackInterval ticks while within Range of the boss.
	Damage         float64      `yaml:"damage"`
	AttackInterval int          `yaml:"attack_interval"`
	Range          float64      `yaml:"range"`
	Hide           []HideWindow `yaml:"hide"`
	Note           string       `yaml:"note"`
}

// HideWindow breaks line of sight to the boss for ticks in [From, Until).
type HideWindow struct {
	From  int `yaml:"from"`
	Until int `yaml:"until"`
}

type Vec2Def struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func DefaultHeroes() *HeroesConfig {
	return &HeroesConfig{Heroes: []HeroDef{
		{ID: "vanguard", Name: "Vanguard", MaxHP: 40, Speed: 0.2, Spawn: Vec2Def{X: 2}, Damage: 14, AttackInterval: 12, Range: 3},
		{ID: "ranger", Name: "Ranger", MaxHP: 24, Speed: 0.25, Spawn: Vec2Def{X: -8, Y: 6}, Damage: 9, AttackInterval: 10, Range: 18},
		{ID: "arcanist", Name: "Arcanist", MaxHP: 20, Speed: 0.2, Spawn: Vec2Def{X: 6, Y: -10}, Damage: 30, AttackInterval: 40, Range: 20},
	}}
}
