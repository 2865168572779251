package plan

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

/* Optional plans.yaml override for the built-in limits table
 * Lets an operator tune quotas without a rebuild
 */

type fileConfig struct {
	Plans []planConfig `yaml:"plans"`
}

type planConfig struct {
	Name                    string `yaml:"name"`
	EventsPerMinute         int    `yaml:"events_per_minute"`
	EventsPerMonth          int64  `yaml:"events_per_month"`
	MaxSources              int    `yaml:"max_sources"`
	MaxConnectionsPerSource int    `yaml:"max_connections_per_source"`
	Retention               string `yaml:"retention"` // Go duration string, e.g. "720h"
}

// LoadFile reads a plans YAML file and overrides the matching tiers.
// Tiers not named in the file keep their defaults.
func (t *Table) LoadFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading plans file: %w", err)
	}

	var config fileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing plans YAML: %w", err)
	}

	for _, pc := range config.Plans {
		p := NewPlan(pc.Name)
		if p.String() != pc.Name {
			return fmt.Errorf("unknown plan %q in plans file", pc.Name)
		}

		retention, err := time.ParseDuration(pc.Retention)
		if err != nil {
			return fmt.Errorf("parsing retention for plan %q: %w", pc.Name, err)
		}

		limits := Limits{
			EventsPerMinute:         pc.EventsPerMinute,
			EventsPerMonth:          pc.EventsPerMonth,
			MaxSources:              pc.MaxSources,
			MaxConnectionsPerSource: pc.MaxConnectionsPerSource,
			Retention:               retention,
		}
		if err := limits.Validate(); err != nil {
			return fmt.Errorf("validating plan %q: %w", pc.Name, err)
		}
		t.limits[p] = limits
	}

	return nil
}
