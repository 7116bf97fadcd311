package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-service/internal/domain"
)

// ResolutionHistoryRepository stores completed work items per agent, feeding
// the response-time sub-score.
type ResolutionHistoryRepository interface {
	Record(ctx context.Context, rec *domain.ResolutionRecord) error
	ListByAgent(ctx context.Context, agentID string, limit int) ([]domain.ResolutionRecord, error)
	// AverageResolutionTime returns the mean resolution duration for an
	// agent; the boolean is false when the agent has no history.
	AverageResolutionTime(ctx context.Context, agentID string) (time.Duration, bool, error)
}

type resolutionHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewResolutionHistoryRepository instantiates the repository.
func NewResolutionHistoryRepository(pool *pgxpool.Pool) ResolutionHistoryRepository {
	return &resolutionHistoryRepository{pool: pool}
}

func (r *resolutionHistoryRepository) Record(ctx context.Context, rec *domain.ResolutionRecord) error {
	const query = `
        INSERT INTO resolution_history (agent_id, item_id, item_created_at, resolved_at)
        VALUES ($1,$2,$3,$4)`
	_, err := r.pool.Exec(ctx, query, rec.AgentID, rec.ItemID, rec.CreatedAt, rec.ResolvedAt)
	return err
}

func (r *resolutionHistoryRepository) ListByAgent(ctx context.Context, agentID string, limit int) ([]domain.ResolutionRecord, error) {
	const query = `
        SELECT agent_id, item_id, item_created_at, resolved_at
        FROM resolution_history WHERE agent_id=$1
        ORDER BY resolved_at DESC LIMIT $2`
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, query, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ResolutionRecord
	for rows.Next() {
		var rec domain.ResolutionRecord
		if err := rows.Scan(&rec.AgentID, &rec.ItemID, &rec.CreatedAt, &rec.ResolvedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *resolutionHistoryRepository) AverageResolutionTime(ctx context.Context, agentID string) (time.Duration, bool, error) {
	const query = `
        SELECT COALESCE(EXTRACT(EPOCH FROM AVG(resolved_at - item_created_at)), 0), COUNT(*)
        FROM resolution_history WHERE agent_id=$1`

	var seconds float64
	var count int64
	if err := r.pool.QueryRow(ctx, query, agentID).Scan(&seconds, &count); err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, nil
	}
	return time.Duration(seconds * float64(time.Second)), true, nil
}
