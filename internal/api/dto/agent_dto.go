package dto

import (
	"time"

	"github.com/spec-kit/routing-service/internal/domain"
)

// CreateAgentRequest registers an agent in the directory.
type CreateAgentRequest struct {
	Name          string   `json:"name"`
	MaxConcurrent int      `json:"max_concurrent"`
	ExpertiseTags []string `json:"expertise_tags"`
}

// AgentStatusRequest changes an agent's availability.
type AgentStatusRequest struct {
	Status string `json:"status"`
}

// AgentResponse is the API projection of an agent.
type AgentResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	CurrentLoad   int       `json:"current_load"`
	MaxConcurrent int       `json:"max_concurrent"`
	ExpertiseTags []string  `json:"expertise_tags"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewAgentResponse maps a domain agent.
func NewAgentResponse(agent domain.Agent) AgentResponse {
	return AgentResponse{
		ID:            agent.ID,
		Name:          agent.Name,
		Status:        string(agent.Status),
		CurrentLoad:   agent.CurrentLoad,
		MaxConcurrent: agent.MaxConcurrent,
		ExpertiseTags: agent.ExpertiseTags,
		CreatedAt:     agent.CreatedAt,
		UpdatedAt:     agent.UpdatedAt,
	}
}
