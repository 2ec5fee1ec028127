package leads

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines the interface for lead storage. Every method returns
// copies; mutating a returned lead never changes the stored record.
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	// List returns every lead ordered by creation time, oldest first.
	List(ctx context.Context) ([]*Lead, error)
	// Update applies the non-nil fields of patch and returns the new record.
	Update(ctx context.Context, id string, patch Patch) (*Lead, error)
	// AppendMessage adds a turn to the end of the lead's conversation.
	AppendMessage(ctx context.Context, id string, from Sender, body string) (*Lead, error)
}

// InMemoryRepository keeps leads in process memory. Used for local runs and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
		now:   time.Now,
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lead := newLead(req, r.now())

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return lead.Clone(), nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return lead.Clone(), nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*Lead, error) {
	r.mu.RLock()
	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		out = append(out, lead.Clone())
	}
	r.mu.RUnlock()

	sortByCreated(out)
	return out, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, patch Patch) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	patch.Apply(lead)
	lead.Version++
	return lead.Clone(), nil
}

func (r *InMemoryRepository) AppendMessage(ctx context.Context, id string, from Sender, body string) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	lead.Messages = append(lead.Messages, newMessage(from, body, r.now()))
	lead.Version++
	return lead.Clone(), nil
}

// sortByCreated orders leads oldest first, breaking ties by ID so the
// order is stable across calls.
func sortByCreated(leads []*Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].CreatedAt.Before(leads[j].CreatedAt)
		}
		return leads[i].ID < leads[j].ID
	})
}
