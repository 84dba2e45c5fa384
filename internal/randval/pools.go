package randval

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

var errEmptyPoolsPath = errors.New("randval: pools path is required")

// Pools are the word lists the realistic generators draw from.
type Pools struct {
	FirstNames []string `yaml:"first_names"`
	LastNames  []string `yaml:"last_names"`
	Domains    []string `yaml:"domains"`
	Streets    []string `yaml:"streets"`
}

// DefaultPools returns the built-in word lists.
func DefaultPools() Pools {
	return Pools{
		FirstNames: []string{"Alex", "Sam", "Jordan", "Taylor", "Chris", "Pat", "Morgan", "Riley", "Casey", "Jamie"},
		LastNames:  []string{"Smith", "Johnson", "Brown", "Williams", "Jones", "Davis", "Miller", "Wilson", "Taylor", "Anderson"},
		Domains:    []string{"example.com", "test.com", "mail.com", "example.org"},
		Streets:    []string{"Main St", "Oak Ave", "Pine Rd", "Maple Dr", "Cedar Ln", "Elm St"},
	}
}

// withDefaults fills empty lists from DefaultPools.
func (p Pools) withDefaults() Pools {
	d := DefaultPools()
	if len(p.FirstNames) == 0 {
		p.FirstNames = d.FirstNames
	}
	if len(p.LastNames) == 0 {
		p.LastNames = d.LastNames
	}
	if len(p.Domains) == 0 {
		p.Domains = d.Domains
	}
	if len(p.Streets) == 0 {
		p.Streets = d.Streets
	}
	return p
}

// LoadPools reads a YAML profile of word lists. A leading ~ in path is
// expanded to the home directory. Lists missing from the file keep their
// defaults.
func LoadPools(path string) (Pools, error) {
	if path == "" {
		return Pools{}, errEmptyPoolsPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return Pools{}, fmt.Errorf("randval: resolve pools path %q: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return Pools{}, fmt.Errorf("randval: read pools: %w", err)
	}

	var p Pools
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pools{}, fmt.Errorf("randval: decode pools %s: %w", expanded, err)
	}
	return p.withDefaults(), nil
}
