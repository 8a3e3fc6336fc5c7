package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var presetFS embed.FS

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decodeYAML(b, out)
}

func decodeYAML(b []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// ParseBoss decodes, defaults and validates a boss definition.
func ParseBoss(b []byte) (*BossConfig, error) {
	var bc BossConfig
	if err := decodeYAML(b, &bc); err != nil {
		return nil, fmt.Errorf("decode boss: %w", err)
	}
	bc.ApplyDefaults()
	if err := bc.Validate(); err != nil {
		return nil, err
	}
	return &bc, nil
}

func LoadBoss(path string) (*BossConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boss %s: %w", path, err)
	}
	bc, err := ParseBoss(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bc, nil
}

// Presets lists the built-in boss ids.
func Presets() []string {
	entries, err := fs.ReadDir(presetFS, "presets")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

func Preset(id string) (*BossConfig, error) {
	b, err := presetFS.ReadFile("presets/" + id + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", id, fs.ErrNotExist)
	}
	return ParseBoss(b)
}

func LoadHeroes(path string) (*HeroesConfig, error) {
	var hc HeroesConfig
	if err := loadYAML(path, &hc); err != nil {
		return nil, fmt.Errorf("load heroes %s: %w", path, err)
	}
	if err := hc.Validate(); err != nil {
		return nil, err
	}
	return &hc, nil
}

// LoadAll reads dir/heroes.yaml and every dir/bosses/*.yaml. Built-in presets
// are included unless a file with the same id overrides them. A missing
// heroes file yields the default party.
func LoadAll(dir string) (*HeroesConfig, map[string]*BossConfig, error) {
	hc, err := LoadHeroes(filepath.Join(dir, "heroes.yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		hc, err = DefaultHeroes(), nil
	}
	if err != nil {
		return nil, nil, err
	}

	bosses := map[string]*BossConfig{}
	for _, id := range Presets() {
		bc, err := Preset(id)
		if err != nil {
			return nil, nil, err
		}
		bosses[bc.ID] = bc
	}
	paths, err := filepath.Glob(filepath.Join(dir, "bosses", "*.yaml"))
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		bc, err := LoadBoss(p)
		if err != nil {
			return nil, nil, err
		}
		bosses[bc.ID] = bc
	}
	return hc, bosses, nil
}

// ResolveBoss returns a preset by id, or loads the argument as a file path.
func ResolveBoss(ref string) (*BossConfig, error) {
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		return LoadBoss(ref)
	}
	return Preset(ref)
}
