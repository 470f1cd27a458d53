package story

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScriptVersion is written into new scripts.
const ScriptVersion = "1.0"

// Script is an editable narration file. It can reword phases or skip them,
// but not reorder or invent them.
type Script struct {
	Version string        `yaml:"version"`
	Voice   Voice         `yaml:"voice"`
	Phases  []ScriptPhase `yaml:"phases"`
}

// Voice holds speech settings relative to the speaker's defaults.
type Voice struct {
	Rate  float64 `yaml:"rate"`  // 1.0 = normal speed
	Pitch float64 `yaml:"pitch"` // 1.0 = normal pitch
	Lang  string  `yaml:"lang"`
}

// ScriptPhase overrides one phase.
type ScriptPhase struct {
	Name      string `yaml:"name"`
	Narration string `yaml:"narration,omitempty"`
	Skip      bool   `yaml:"skip,omitempty"`
}

// DefaultVoice is slightly slow and high, for young listeners.
func DefaultVoice() Voice {
	return Voice{Rate: 0.85, Pitch: 1.1, Lang: "en-US"}
}

// DefaultScript dumps the narration of phases.
func DefaultScript(phases []Phase) *Script {
	sc := &Script{Version: ScriptVersion, Voice: DefaultVoice()}
	for _, p := range phases {
		sc.Phases = append(sc.Phases, ScriptPhase{Name: p.Name, Narration: p.Narration})
	}
	return sc
}

// ErrScript reports a script that does not fit the phase list.
var ErrScript = errors.New("invalid script")

// Apply returns a copy of phases with the script's narration and skips
// applied. Phases the script omits are kept as they are. Unknown,
// duplicated, or out-of-order names are errors.
func Apply(phases []Phase, sc *Script) ([]Phase, error) {
	if sc == nil {
		return append([]Phase(nil), phases...), nil
	}
	index := make(map[string]int, len(phases))
	for i, p := range phases {
		index[p.Name] = i
	}

	overrides := make(map[int]ScriptPhase, len(sc.Phases))
	last := -1
	for _, sp := range sc.Phases {
		i, ok := index[sp.Name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown phase %q", ErrScript, sp.Name)
		}
		if _, dup := overrides[i]; dup {
			return nil, fmt.Errorf("%w: phase %q listed twice", ErrScript, sp.Name)
		}
		if i < last {
			return nil, fmt.Errorf("%w: phase %q out of order", ErrScript, sp.Name)
		}
		last = i
		overrides[i] = sp
	}

	out := make([]Phase, 0, len(phases))
	for i, p := range phases {
		if sp, ok := overrides[i]; ok {
			if sp.Skip {
				continue
			}
			if strings.TrimSpace(sp.Narration) != "" {
				p.Narration = sp.Narration
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// WriteScript writes a script to a YAML file.
func WriteScript(sc *Script, path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadScript reads a script from a YAML file. Missing voice settings take
// their defaults.
func ReadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	def := DefaultVoice()
	if sc.Voice.Rate <= 0 {
		sc.Voice.Rate = def.Rate
	}
	if sc.Voice.Pitch <= 0 {
		sc.Voice.Pitch = def.Pitch
	}
	if sc.Voice.Lang == "" {
		sc.Voice.Lang = def.Lang
	}
	return &sc, nil
}

// GenerateScriptPath creates a timestamped script filename in dir.
func GenerateScriptPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("script_%s.yaml", timestamp))
}

// FindLatestScript finds the most recently modified script in dir.
func FindLatestScript(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read scripts directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var scripts []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		scripts = append(scripts, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(scripts) == 0 {
		return "", fmt.Errorf("no script files found in %s", dir)
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].mod.After(scripts[j].mod)
	})
	return scripts[0].path, nil
}
