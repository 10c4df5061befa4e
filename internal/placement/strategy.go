package placement

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	StrategyContentFirst = "content-first"
	StrategyHeaderFirst  = "header-first"
)

// FallbackSelector is returned when no candidate matched anything.
const FallbackSelector = "body"

var ErrUnknownStrategy = errors.New("unknown placement strategy")

//go:embed strategies.yaml
var defaultStrategies []byte

// Strategy is an ordered candidate selector list with its suggestion cap.
type Strategy struct {
	Name      string   `yaml:"name"`
	Limit     int      `yaml:"limit"`
	Reasoning string   `yaml:"reasoning"`
	Selectors []string `yaml:"selectors"`
}

func (s Strategy) validate() error {
	if s.Name == "" {
		return fmt.Errorf("strategy without name")
	}
	if s.Limit <= 0 {
		return fmt.Errorf("strategy %s: limit must be > 0, got %d", s.Name, s.Limit)
	}
	if len(s.Selectors) == 0 {
		return fmt.Errorf("strategy %s: no selectors", s.Name)
	}
	return nil
}

// Strategies indexes strategies by name.
type Strategies map[string]Strategy

type strategiesFile struct {
	Strategies []Strategy `yaml:"strategies"`
}

// ParseStrategies decodes a strategies YAML document.
func ParseStrategies(data []byte) (Strategies, error) {
	var file strategiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse strategies yaml: %w", err)
	}
	if len(file.Strategies) == 0 {
		return nil, fmt.Errorf("strategies yaml declares no strategy")
	}

	out := make(Strategies, len(file.Strategies))
	for _, s := range file.Strategies {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := out[s.Name]; dup {
			return nil, fmt.Errorf("strategy %s declared twice", s.Name)
		}
		out[s.Name] = s
	}
	return out, nil
}

// DefaultStrategies returns the strategies compiled into the binary.
func DefaultStrategies() Strategies {
	s, err := ParseStrategies(defaultStrategies)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadStrategies reads a strategies file from disk. An empty path returns
// the embedded defaults.
func LoadStrategies(path string) (Strategies, error) {
	if path == "" {
		return DefaultStrategies(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategies file: %w", err)
	}
	return ParseStrategies(data)
}

// Get returns the named strategy.
func (s Strategies) Get(name string) (Strategy, error) {
	st, ok := s[name]
	if !ok {
		return Strategy{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownStrategy, name, s.Names())
	}
	return st, nil
}

func (s Strategies) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
