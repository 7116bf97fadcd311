package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-service/internal/domain"
)

// ItemRepository encapsulates routable item persistence.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.RoutableItem) error
	GetByID(ctx context.Context, id string) (*domain.RoutableItem, error)
	// ListOpen returns every unresolved, uncancelled item; used by the
	// escalation monitor's periodic scan.
	ListOpen(ctx context.Context) ([]domain.RoutableItem, error)
	ListByAssignee(ctx context.Context, agentID string) ([]domain.RoutableItem, error)
	SetAssignee(ctx context.Context, id string, agentID *string) error
	SetEnqueuedAt(ctx context.Context, id string, at time.Time) error
	RecordFirstResponse(ctx context.Context, id string, at time.Time) error
	RecordResolution(ctx context.Context, id string, at time.Time) error
	Cancel(ctx context.Context, id string) error
}

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository instantiates the repository.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

const itemColumns = `id, kind, category, priority, customer_id, assignee_agent_id, status,
               created_at, enqueued_at, first_response_at, resolved_at, updated_at`

func (r *itemRepository) Create(ctx context.Context, item *domain.RoutableItem) error {
	const query = `
        INSERT INTO routable_items (kind, category, priority, customer_id, status, enqueued_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		item.Kind,
		item.Category,
		item.Priority,
		item.CustomerID,
		item.Status,
		item.EnqueuedAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.RoutableItem, error) {
	query := `SELECT ` + itemColumns + ` FROM routable_items WHERE id=$1`

	var item domain.RoutableItem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Kind,
		&item.Category,
		&item.Priority,
		&item.CustomerID,
		&item.AssigneeID,
		&item.Status,
		&item.CreatedAt,
		&item.EnqueuedAt,
		&item.FirstResponseAt,
		&item.ResolvedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListOpen(ctx context.Context) ([]domain.RoutableItem, error) {
	query := `SELECT ` + itemColumns + ` FROM routable_items WHERE status=$1 ORDER BY created_at`
	return r.list(ctx, query, domain.ItemStatusOpen)
}

func (r *itemRepository) ListByAssignee(ctx context.Context, agentID string) ([]domain.RoutableItem, error) {
	query := `SELECT ` + itemColumns + ` FROM routable_items WHERE assignee_agent_id=$1 AND status=$2 ORDER BY created_at`
	return r.list(ctx, query, agentID, domain.ItemStatusOpen)
}

func (r *itemRepository) list(ctx context.Context, query string, args ...any) ([]domain.RoutableItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RoutableItem
	for rows.Next() {
		var item domain.RoutableItem
		if err := rows.Scan(
			&item.ID,
			&item.Kind,
			&item.Category,
			&item.Priority,
			&item.CustomerID,
			&item.AssigneeID,
			&item.Status,
			&item.CreatedAt,
			&item.EnqueuedAt,
			&item.FirstResponseAt,
			&item.ResolvedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *itemRepository) SetAssignee(ctx context.Context, id string, agentID *string) error {
	const query = `UPDATE routable_items SET assignee_agent_id=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, agentID, id)
}

func (r *itemRepository) SetEnqueuedAt(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE routable_items SET enqueued_at=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, at, id)
}

func (r *itemRepository) RecordFirstResponse(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE routable_items SET first_response_at=$1, updated_at=NOW()
        WHERE id=$2 AND first_response_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	// Zero rows means either an unknown id or an already-recorded first
	// response; only the former is an error, a repeat report is a no-op.
	const existsQuery = `SELECT 1 FROM routable_items WHERE id=$1`
	var one int
	return r.pool.QueryRow(ctx, existsQuery, id).Scan(&one)
}

func (r *itemRepository) RecordResolution(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE routable_items SET resolved_at=$1, status=$2, updated_at=NOW()
        WHERE id=$3`
	return r.exec(ctx, query, at, domain.ItemStatusResolved, id)
}

func (r *itemRepository) Cancel(ctx context.Context, id string) error {
	const query = `UPDATE routable_items SET status=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, domain.ItemStatusCancelled, id)
}

func (r *itemRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
