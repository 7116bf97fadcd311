package routing

import (
	"time"

	"github.com/spec-kit/routing-service/internal/domain"
)

const (
	neutralResponseScore = 50.0
	responseBaseline     = 24 * time.Hour
)

// ExpertiseScore is a hard match: 100 when the item's category is among the
// agent's expertise tags, else 0.
func ExpertiseScore(agent domain.Agent, item domain.RoutableItem) float64 {
	if agent.HasExpertise(item.Category) {
		return 100
	}
	return 0
}

// WorkloadScore decreases linearly with the agent's open load; an agent at
// or above capacity scores 0.
func WorkloadScore(agent domain.Agent) float64 {
	if agent.MaxConcurrent <= 0 {
		return 0
	}
	score := 100 - float64(agent.CurrentLoad)/float64(agent.MaxConcurrent)*100
	if score < 0 {
		return 0
	}
	return score
}

// ResponseTimeScore rates the agent's historical resolution speed against a
// 24h baseline, capped at 100. Agents without history score a neutral 50.
func ResponseTimeScore(avgResolution time.Duration, hasHistory bool) float64 {
	if !hasHistory || avgResolution <= 0 {
		return neutralResponseScore
	}
	score := float64(responseBaseline) / float64(avgResolution) * 100
	if score > 100 {
		return 100
	}
	return score
}

// Score combines the three sub-scores using the configured weights. Weights
// are applied exactly as given; they are deliberately not renormalized when
// they do not sum to 100.
func Score(agent domain.Agent, avgResolution time.Duration, hasHistory bool, item domain.RoutableItem, cfg domain.RoutingConfig) float64 {
	return ExpertiseScore(agent, item)*(cfg.ExpertiseWeight/100) +
		WorkloadScore(agent)*(cfg.WorkloadWeight/100) +
		ResponseTimeScore(avgResolution, hasHistory)*(cfg.ResponseTimeWeight/100)
}

// AverageResolution computes the mean resolution duration over a history of
// completed items. The second return value is false when no history exists.
func AverageResolution(history []domain.ResolutionRecord) (time.Duration, bool) {
	if len(history) == 0 {
		return 0, false
	}
	var total time.Duration
	for _, rec := range history {
		total += rec.ResolvedAt.Sub(rec.CreatedAt)
	}
	return total / time.Duration(len(history)), true
}
