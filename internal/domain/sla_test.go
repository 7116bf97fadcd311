package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSLAConfig() SLAConfig {
	return SLAConfig{
		FirstResponseMinutes: 30,
		ResolutionMinutes:    480,
		BusinessHours: BusinessHours{
			Start:    "09:00",
			End:      "17:00",
			Timezone: "UTC",
			WorkDays: []time.Weekday{time.Monday, time.Friday},
		},
		PriorityMultipliers: map[ItemPriority]float64{
			ItemPriorityUrgent: 0.5,
			ItemPriorityLow:    1.5,
		},
		EscalationRules: []EscalationRule{
			{Level: 1, ThresholdPercent: 50, Actions: []EscalationAction{EscalationActionNotifyManager}},
		},
		Notifications: NotificationSettings{WarningPercent: 80, BreachNotify: true},
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]struct {
		in      string
		want    int
		wantErr bool
	}{
		"midnight":       {in: "00:00", want: 0},
		"morning":        {in: "09:30", want: 570},
		"end of day":     {in: "23:59", want: 1439},
		"hour overflow":  {in: "24:00", wantErr: true},
		"minute too big": {in: "12:60", wantErr: true},
		"garbage":        {in: "noon", wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSLAConfigValidate(t *testing.T) {
	assert.NoError(t, validSLAConfig().Validate())

	cases := map[string]func(*SLAConfig){
		"zero response window":   func(c *SLAConfig) { c.FirstResponseMinutes = 0 },
		"zero resolution window": func(c *SLAConfig) { c.ResolutionMinutes = 0 },
		"overnight hours":        func(c *SLAConfig) { c.BusinessHours.Start = "18:00" },
		"no work days":           func(c *SLAConfig) { c.BusinessHours.WorkDays = nil },
		"unknown priority": func(c *SLAConfig) {
			c.PriorityMultipliers[ItemPriority("CRITICAL")] = 1.0
		},
		"non-positive multiplier": func(c *SLAConfig) {
			c.PriorityMultipliers[ItemPriorityLow] = 0
		},
		"zero threshold": func(c *SLAConfig) {
			c.EscalationRules[0].ThresholdPercent = 0
		},
		"unknown action": func(c *SLAConfig) {
			c.EscalationRules[0].Actions = []EscalationAction{"PAGE_EVERYONE"}
		},
		"warning percent too high": func(c *SLAConfig) {
			c.Notifications.WarningPercent = 120
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validSLAConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMultiplierDefaultsToOne(t *testing.T) {
	cfg := validSLAConfig()
	assert.Equal(t, 0.5, cfg.Multiplier(ItemPriorityUrgent))
	assert.Equal(t, 1.0, cfg.Multiplier(ItemPriorityMedium))
}

func TestSortedEscalationRules(t *testing.T) {
	cfg := validSLAConfig()
	cfg.EscalationRules = []EscalationRule{
		{Level: 3, ThresholdPercent: 100},
		{Level: 1, ThresholdPercent: 50},
		{Level: 2, ThresholdPercent: 100},
	}
	sorted := cfg.SortedEscalationRules()
	require.Len(t, sorted, 3)
	assert.Equal(t, 1, sorted[0].Level)
	assert.Equal(t, 2, sorted[1].Level)
	assert.Equal(t, 3, sorted[2].Level)

	// The original slice is left untouched.
	assert.Equal(t, 3, cfg.EscalationRules[0].Level)
}

func TestRoutingConfigValidate(t *testing.T) {
	valid := RoutingConfig{
		SmartRouting:       true,
		ExpertiseWeight:    50,
		WorkloadWeight:     30,
		ResponseTimeWeight: 20,
		MaxTicketsPerAgent: 5,
		DistributionMethod: DistributionWeighted,
	}
	assert.NoError(t, valid.Validate())

	cases := map[string]func(*RoutingConfig){
		"negative weight":  func(c *RoutingConfig) { c.ExpertiseWeight = -1 },
		"all zero weights": func(c *RoutingConfig) { c.ExpertiseWeight, c.WorkloadWeight, c.ResponseTimeWeight = 0, 0, 0 },
		"negative cap":     func(c *RoutingConfig) { c.MaxTicketsPerAgent = -1 },
		"unknown method":   func(c *RoutingConfig) { c.DistributionMethod = "ROUND_ROBIN" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAgentCapacity(t *testing.T) {
	agent := Agent{ID: "a", MaxConcurrent: 5, CurrentLoad: 3, ExpertiseTags: []string{"billing"}}

	assert.Equal(t, 5, agent.EffectiveMax(0))
	assert.Equal(t, 3, agent.EffectiveMax(3))
	assert.False(t, agent.AtCapacity(0))
	assert.True(t, agent.AtCapacity(3))

	agent.CurrentLoad = 5
	assert.True(t, agent.AtCapacity(0))

	assert.True(t, agent.HasExpertise("billing"))
	assert.False(t, agent.HasExpertise("shipping"))
}
