package routing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/routing-service/internal/domain"
	"github.com/spec-kit/routing-service/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAgentRepo struct {
	mu         sync.Mutex
	agents     map[string]*domain.Agent
	failAdjust bool
	resetCalls []string
}

func newFakeAgentRepo(agents ...domain.Agent) *fakeAgentRepo {
	repo := &fakeAgentRepo{agents: make(map[string]*domain.Agent)}
	for i := range agents {
		a := agents[i]
		repo.agents[a.ID] = &a
	}
	return repo
}

func (r *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := *agent
	r.agents[a.ID] = &a
	return nil
}

func (r *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAgentRepo) List(_ context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Agent
	for _, a := range r.agents {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.MinAvailableCapacity != nil && a.MaxConcurrent-a.CurrentLoad < *filter.MinAvailableCapacity {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAgentRepo) SetStatus(_ context.Context, id string, status domain.AgentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Status = status
	return nil
}

func (r *fakeAgentRepo) AdjustLoad(_ context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdjust {
		return errTransient
	}
	a, ok := r.agents[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.CurrentLoad += delta
	if a.CurrentLoad < 0 {
		a.CurrentLoad = 0
	}
	return nil
}

func (r *fakeAgentRepo) ResetLoad(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.CurrentLoad = 0
	r.resetCalls = append(r.resetCalls, id)
	return nil
}

func (r *fakeAgentRepo) load(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents[id].CurrentLoad
}

type fakeItemRepo struct {
	mu                sync.Mutex
	items             map[string]*domain.RoutableItem
	failSetAssignee   bool
	beforeSetAssignee func(id string)
}

func newFakeItemRepo(items ...domain.RoutableItem) *fakeItemRepo {
	repo := &fakeItemRepo{items: make(map[string]*domain.RoutableItem)}
	for i := range items {
		it := items[i]
		repo.items[it.ID] = &it
	}
	return repo
}

func (r *fakeItemRepo) Create(_ context.Context, item *domain.RoutableItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := *item
	r.items[it.ID] = &it
	return nil
}

func (r *fakeItemRepo) GetByID(_ context.Context, id string) (*domain.RoutableItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *it
	return &cp, nil
}

func (r *fakeItemRepo) ListOpen(_ context.Context) ([]domain.RoutableItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RoutableItem
	for _, it := range r.items {
		if it.Status == domain.ItemStatusOpen {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeItemRepo) ListByAssignee(_ context.Context, agentID string) ([]domain.RoutableItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RoutableItem
	for _, it := range r.items {
		if it.Status == domain.ItemStatusOpen && it.AssigneeID != nil && *it.AssigneeID == agentID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeItemRepo) SetAssignee(_ context.Context, id string, agentID *string) error {
	if hook := r.beforeSetAssignee; hook != nil {
		hook(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSetAssignee {
		return errTransient
	}
	it, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	it.AssigneeID = agentID
	return nil
}

func (r *fakeItemRepo) SetEnqueuedAt(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	it.EnqueuedAt = at
	return nil
}

func (r *fakeItemRepo) RecordFirstResponse(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if it.FirstResponseAt == nil {
		t := at
		it.FirstResponseAt = &t
	}
	return nil
}

func (r *fakeItemRepo) RecordResolution(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t := at
	it.ResolvedAt = &t
	it.Status = domain.ItemStatusResolved
	return nil
}

func (r *fakeItemRepo) Cancel(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	it.Status = domain.ItemStatusCancelled
	return nil
}

func (r *fakeItemRepo) get(id string) domain.RoutableItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.items[id]
}

type fakeHistoryRepo struct {
	mu   sync.Mutex
	recs []domain.ResolutionRecord
}

func (r *fakeHistoryRepo) Record(_ context.Context, rec *domain.ResolutionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, *rec)
	return nil
}

func (r *fakeHistoryRepo) ListByAgent(_ context.Context, agentID string, _ int) ([]domain.ResolutionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ResolutionRecord
	for _, rec := range r.recs {
		if rec.AgentID == agentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) AverageResolutionTime(_ context.Context, agentID string) (time.Duration, bool, error) {
	history, _ := r.ListByAgent(context.Background(), agentID, 0)
	avg, ok := AverageResolution(history)
	return avg, ok, nil
}

type staticSettings struct {
	routing    domain.RoutingConfig
	sla        domain.SLAConfig
	routingErr error
	slaErr     error
}

func (s *staticSettings) RoutingConfig(context.Context) (domain.RoutingConfig, error) {
	return s.routing, s.routingErr
}

func (s *staticSettings) SLAConfig(context.Context) (domain.SLAConfig, error) {
	return s.sla, s.slaErr
}

type notifyCall struct {
	kind   NotifyKind
	itemID string
	level  int
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *fakeNotifier) Notify(_ context.Context, kind NotifyKind, itemID string, level int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{kind: kind, itemID: itemID, level: level})
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

var errTransient = errTransientType{}

type errTransientType struct{}

func (errTransientType) Error() string { return "transient store failure" }
