package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-service/internal/domain"
)

// AgentFilter defines query params for agent listing.
type AgentFilter struct {
	Status               *domain.AgentStatus
	MinAvailableCapacity *int
	Limit                int
	Offset               int
}

// AgentRepository is the routing core's view of the agent directory: reads
// plus load-delta mutations.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error)
	SetStatus(ctx context.Context, id string, status domain.AgentStatus) error
	// AdjustLoad applies a load delta atomically, clamping at zero.
	AdjustLoad(ctx context.Context, id string, delta int) error
	// ResetLoad zeroes the tracked load, used when an agent disconnects.
	ResetLoad(ctx context.Context, id string) error
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	const query = `
        INSERT INTO agents (name, status, current_load, max_concurrent, expertise_tags)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		agent.Name,
		agent.Status,
		agent.CurrentLoad,
		agent.MaxConcurrent,
		agent.ExpertiseTags,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	const query = `
        SELECT id, name, status, current_load, max_concurrent, expertise_tags, created_at, updated_at
        FROM agents WHERE id=$1`

	var agent domain.Agent
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&agent.ID,
		&agent.Name,
		&agent.Status,
		&agent.CurrentLoad,
		&agent.MaxConcurrent,
		&agent.ExpertiseTags,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error) {
	query := `
        SELECT id, name, status, current_load, max_concurrent, expertise_tags, created_at, updated_at
        FROM agents`
	args := []any{}
	clauses := []string{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.MinAvailableCapacity != nil {
		args = append(args, *filter.MinAvailableCapacity)
		clauses = append(clauses, fmt.Sprintf("max_concurrent - current_load >= $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id"
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Agent
	for rows.Next() {
		var agent domain.Agent
		if err := rows.Scan(
			&agent.ID,
			&agent.Name,
			&agent.Status,
			&agent.CurrentLoad,
			&agent.MaxConcurrent,
			&agent.ExpertiseTags,
			&agent.CreatedAt,
			&agent.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, agent)
	}
	return result, rows.Err()
}

func (r *agentRepository) SetStatus(ctx context.Context, id string, status domain.AgentStatus) error {
	const query = `UPDATE agents SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *agentRepository) AdjustLoad(ctx context.Context, id string, delta int) error {
	const query = `
        UPDATE agents
        SET current_load = GREATEST(current_load + $1, 0), updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, delta, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *agentRepository) ResetLoad(ctx context.Context, id string) error {
	const query = `UPDATE agents SET current_load = 0, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
