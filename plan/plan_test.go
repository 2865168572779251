package plan_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ferryhook/relay/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanString(t *testing.T) {
	tests := []struct {
		plan     plan.Plan
		expected string
	}{
		{plan.Free, "free"},
		{plan.Starter, "starter"},
		{plan.Pro, "pro"},
		{plan.Team, "team"},
		{plan.Plan(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.plan.String())
	}
}

func TestNewPlan(t *testing.T) {
	assert.Equal(t, plan.Pro, plan.NewPlan("pro"))
	// Unknown tiers default to free, the most restrictive
	assert.Equal(t, plan.Free, plan.NewPlan("enterprise"))
}

func TestPaid(t *testing.T) {
	assert.False(t, plan.Free.Paid())
	assert.True(t, plan.Starter.Paid())
	assert.True(t, plan.Team.Paid())
}

func TestLimitsFor(t *testing.T) {
	table := plan.NewTable()

	free := table.LimitsFor(plan.Free)
	assert.Equal(t, 100, free.EventsPerMinute)
	assert.Equal(t, int64(5_000), free.EventsPerMonth)
	assert.Equal(t, 24*time.Hour, free.Retention)

	team := table.LimitsFor(plan.Team)
	assert.Equal(t, 10_000, team.EventsPerMinute)
	assert.Equal(t, int64(5_000_000), team.EventsPerMonth)
	assert.Equal(t, 90*24*time.Hour, team.Retention)

	// Unknown plan falls back to free limits
	assert.Equal(t, free, table.LimitsFor(plan.Plan(42)))
}

func TestLoadFile(t *testing.T) {
	t.Run("overrides named tier only", func(t *testing.T) {
		path := writePlansFile(t, `
plans:
  - name: free
    events_per_minute: 10
    events_per_month: 500
    max_sources: 1
    max_connections_per_source: 1
    retention: 1h
`)
		table := plan.NewTable()
		require.NoError(t, table.LoadFile(path))

		free := table.LimitsFor(plan.Free)
		assert.Equal(t, 10, free.EventsPerMinute)
		assert.Equal(t, time.Hour, free.Retention)

		// Other tiers keep defaults
		assert.Equal(t, 500, table.LimitsFor(plan.Starter).EventsPerMinute)
	})

	t.Run("unknown plan name", func(t *testing.T) {
		path := writePlansFile(t, `
plans:
  - name: platinum
    events_per_minute: 10
    events_per_month: 500
    retention: 1h
`)
		table := plan.NewTable()
		err := table.LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown plan")
	})

	t.Run("invalid limits", func(t *testing.T) {
		path := writePlansFile(t, `
plans:
  - name: pro
    events_per_minute: 0
    events_per_month: 500
    retention: 1h
`)
		table := plan.NewTable()
		err := table.LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "events_per_minute")
	})
}

func writePlansFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
