package domain

import "fmt"

// DistributionMethod selects the agent-ranking strategy used by the
// routing engine.
type DistributionMethod string

const (
	DistributionWeighted    DistributionMethod = "WEIGHTED"
	DistributionLeastLoaded DistributionMethod = "LEAST_LOADED"
	DistributionPerformance DistributionMethod = "PERFORMANCE"
)

// RoutingConfig is the singleton routing configuration.
//
// The three weights are applied exactly as configured; they are not
// normalized to sum to 100.
type RoutingConfig struct {
	SmartRouting       bool               `json:"smart_routing"`
	ExpertiseWeight    float64            `json:"expertise_weight"`
	WorkloadWeight     float64            `json:"workload_weight"`
	ResponseTimeWeight float64            `json:"response_time_weight"`
	MaxTicketsPerAgent int                `json:"max_tickets_per_agent"`
	DistributionMethod DistributionMethod `json:"distribution_method"`
}

// Validate rejects configurations that would break scoring outright.
func (c RoutingConfig) Validate() error {
	if c.ExpertiseWeight < 0 || c.WorkloadWeight < 0 || c.ResponseTimeWeight < 0 {
		return fmt.Errorf("routing weights must not be negative")
	}
	if c.ExpertiseWeight+c.WorkloadWeight+c.ResponseTimeWeight == 0 {
		return fmt.Errorf("routing weights must not all be zero")
	}
	if c.MaxTicketsPerAgent < 0 {
		return fmt.Errorf("max tickets per agent must not be negative")
	}
	switch c.DistributionMethod {
	case DistributionWeighted, DistributionLeastLoaded, DistributionPerformance:
	default:
		return fmt.Errorf("unknown distribution method %q", c.DistributionMethod)
	}
	return nil
}
