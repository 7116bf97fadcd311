package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/routing-service/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "memory", cfg.Queue.Backend)
	assert.Equal(t, "migrations", cfg.Postgres.MigrationsDir)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.TickInterval())
	assert.Equal(t, 60*time.Second, cfg.Scheduler.ScanInterval())

	assert.True(t, cfg.Routing.SmartRouting)
	assert.Equal(t, domain.DistributionWeighted, cfg.Routing.DistributionMethod)
	assert.NoError(t, cfg.Routing.Validate())

	assert.Equal(t, 30, cfg.SLA.FirstResponseMinutes)
	assert.Equal(t, 480, cfg.SLA.ResolutionMinutes)
	assert.Equal(t, 0.5, cfg.SLA.Multiplier(domain.ItemPriorityUrgent))
	assert.Len(t, cfg.SLA.EscalationRules, 3)
	assert.NoError(t, cfg.SLA.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("QUEUE_BACKEND", "redis")
	t.Setenv("SLA_WORK_DAYS", "sat,sun")
	t.Setenv("ROUTING_EXPERTISE_WEIGHT", "70")
	t.Setenv("POSTGRES_MIGRATIONS_DIR", "db/migrations")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "redis", cfg.Queue.Backend)
	assert.Equal(t, "db/migrations", cfg.Postgres.MigrationsDir)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, cfg.SLA.BusinessHours.WorkDays)
	assert.Equal(t, 70.0, cfg.Routing.ExpertiseWeight)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string][2]string{
		"overnight business hours": {"SLA_BUSINESS_START", "20:00"},
		"bad work day":             {"SLA_WORK_DAYS", "MON,FUNDAY"},
		"unknown queue backend":    {"QUEUE_BACKEND", "kafka"},
		"unknown distribution":     {"ROUTING_DISTRIBUTION_METHOD", "ROUND_ROBIN"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsAllZeroWeights(t *testing.T) {
	t.Setenv("ROUTING_EXPERTISE_WEIGHT", "0")
	t.Setenv("ROUTING_WORKLOAD_WEIGHT", "0")
	t.Setenv("ROUTING_RESPONSE_TIME_WEIGHT", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestParseWorkDays(t *testing.T) {
	days, err := parseWorkDays("MON, tue ,WED")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday}, days)

	_, err = parseWorkDays("MON,NOPE")
	assert.Error(t, err)
}
