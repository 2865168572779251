package plan

import (
	"fmt"
	"time"
)

/* Plan represents a billing tier
 * The limits table is the single source of truth shared with the
 * management API and billing collaborators
 */
type Plan int

const (
	Free Plan = iota + 1
	Starter
	Pro
	Team
)

// String returns the string representation of the plan
func (p Plan) String() string {
	switch p {
	case Free:
		return "free"
	case Starter:
		return "starter"
	case Pro:
		return "pro"
	case Team:
		return "team"
	default:
		return "unknown"
	}
}

// NewPlan creates a Plan from a string
func NewPlan(s string) Plan {
	switch s {
	case "free":
		return Free
	case "starter":
		return Starter
	case "pro":
		return Pro
	case "team":
		return Team
	default:
		return Free // default to the most restrictive tier
	}
}

// Validate checks if the plan is valid
func (p Plan) Validate() error {
	if p < Free || p > Team {
		return fmt.Errorf("invalid plan: %d", p)
	}
	return nil
}

// Paid reports whether the plan is a paying tier.
// Paying tiers are allowed to exceed the monthly cap (overage billing).
func (p Plan) Paid() bool {
	return p != Free
}

// Limits holds the quota set for a plan tier
type Limits struct {
	EventsPerMinute         int
	EventsPerMonth          int64
	MaxSources              int
	MaxConnectionsPerSource int
	Retention               time.Duration
}

var defaultLimits = map[Plan]Limits{
	Free: {
		EventsPerMinute:         100,
		EventsPerMonth:          5_000,
		MaxSources:              3,
		MaxConnectionsPerSource: 2,
		Retention:               24 * time.Hour,
	},
	Starter: {
		EventsPerMinute:         500,
		EventsPerMonth:          100_000,
		MaxSources:              10,
		MaxConnectionsPerSource: 5,
		Retention:               7 * 24 * time.Hour,
	},
	Pro: {
		EventsPerMinute:         2_000,
		EventsPerMonth:          1_000_000,
		MaxSources:              50,
		MaxConnectionsPerSource: 20,
		Retention:               30 * 24 * time.Hour,
	},
	Team: {
		EventsPerMinute:         10_000,
		EventsPerMonth:          5_000_000,
		MaxSources:              200,
		MaxConnectionsPerSource: 50,
		Retention:               90 * 24 * time.Hour,
	},
}

// Validate checks if the limits are usable
func (l Limits) Validate() error {
	if l.EventsPerMinute < 1 {
		return fmt.Errorf("events_per_minute must be at least 1")
	}
	if l.EventsPerMonth < 1 {
		return fmt.Errorf("events_per_month must be at least 1")
	}
	if l.Retention <= 0 {
		return fmt.Errorf("retention must be positive")
	}
	return nil
}

// Table maps every plan tier to its limits
type Table struct {
	limits map[Plan]Limits
}

// NewTable returns a table populated with the built-in defaults
func NewTable() *Table {
	limits := make(map[Plan]Limits, len(defaultLimits))
	for p, l := range defaultLimits {
		limits[p] = l
	}
	return &Table{limits: limits}
}

// LimitsFor returns the limits for a plan.
// Unknown plans fall back to the free tier limits.
func (t *Table) LimitsFor(p Plan) Limits {
	if l, ok := t.limits[p]; ok {
		return l
	}
	return t.limits[Free]
}
