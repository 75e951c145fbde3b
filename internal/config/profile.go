package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the labeling profile: which pattern tag new scores carry, the
// overlay colors per view mode, and the allowed score band.
type Profile struct {
	Pattern    string `yaml:"pattern"`
	HumanColor string `yaml:"human_color"`
	BotColor   string `yaml:"bot_color"`
	ScoreMin   int    `yaml:"score_min"`
	ScoreMax   int    `yaml:"score_max"`
}

// DefaultProfile labels volatility contraction patterns on a 1-6 scale.
func DefaultProfile() Profile {
	return Profile{
		Pattern:    "vcp",
		HumanColor: "rgba(0, 255, 0, 0.2)",
		BotColor:   "rgba(0, 0, 255, 0.2)",
		ScoreMin:   1,
		ScoreMax:   6,
	}
}

// LoadProfile reads and validates a profile YAML file. An empty path keeps
// the defaults; unset fields inherit their default values.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("profile: %w", err)
	}
	if p.Pattern == "" {
		return Profile{}, fmt.Errorf("profile: pattern must not be empty")
	}
	if p.ScoreMin < 1 {
		return Profile{}, fmt.Errorf("profile: score_min must be >= 1, got %d", p.ScoreMin)
	}
	if p.ScoreMax < p.ScoreMin {
		return Profile{}, fmt.Errorf("profile: score_max %d below score_min %d", p.ScoreMax, p.ScoreMin)
	}
	return p, nil
}
