// Package loader reads rule batches from YAML files and datasets from
// CSV files into their in-memory forms.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KshitijBharambe/hygiene/pkg/core"
)

// ruleFile is the YAML shape of a rule batch.
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	ID            string         `yaml:"id"`
	Kind          string         `yaml:"kind"`
	Criticality   string         `yaml:"criticality"`
	TargetColumns []string       `yaml:"target_columns"`
	Params        map[string]any `yaml:"params"`
	DependsOn     []string       `yaml:"depends_on"`
	Priority      int            `yaml:"priority"`
	Group         string         `yaml:"group"`
}

// LoadRules reads a rule batch from a YAML file. Duplicate IDs and
// empty IDs or kinds are rejected here so planning sees a clean batch.
func LoadRules(path string) ([]core.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses a YAML rule batch.
func ParseRules(data []byte) ([]core.Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file contains no rules")
	}

	seen := make(map[string]bool, len(f.Rules))
	out := make([]core.Rule, 0, len(f.Rules))
	for i, entry := range f.Rules {
		if entry.ID == "" {
			return nil, fmt.Errorf("rule at index %d has no id", i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate rule id %q", entry.ID)
		}
		seen[entry.ID] = true
		if entry.Kind == "" {
			return nil, fmt.Errorf("rule %q has no kind", entry.ID)
		}

		out = append(out, core.Rule{
			ID:            entry.ID,
			Kind:          core.RuleKind(entry.Kind),
			Criticality:   core.ParseCriticality(entry.Criticality),
			TargetColumns: entry.TargetColumns,
			Params:        entry.Params,
			DependsOn:     entry.DependsOn,
			Priority:      entry.Priority,
			Group:         entry.Group,
		})
	}
	return out, nil
}
