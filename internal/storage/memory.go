// Package storage provides the product repositories: a Postgres-backed
// implementation and an in-memory one used when no DSN is configured.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ports"
)

// Memory is a mutex-guarded in-memory repository. Reads return copies so
// callers never observe later mutations.
type Memory struct {
	mu        sync.RWMutex
	byID      map[int64]domain.Product
	idByURL   map[string]int64
	history   map[int64][]domain.PriceObservation
	nextID    int64
	nextObsID int64
}

var _ ports.ProductRepository = (*Memory)(nil)

// NewMemory builds an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[int64]domain.Product),
		idByURL: make(map[string]int64),
		history: make(map[int64][]domain.PriceObservation),
	}
}

func (m *Memory) GetByURL(_ context.Context, url string) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.idByURL[url]
	if !ok {
		return domain.Product{}, ports.ErrNotFound
	}
	return cloneProduct(m.byID[id]), nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.Product{}, ports.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *Memory) List(_ context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, cloneProduct(p))
	}
	sortProductsByUpdated(out)
	return out, nil
}

func (m *Memory) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now().UTC()
	p.ID = m.nextID
	p.CreatedAt = now
	p.UpdatedAt = now
	m.byID[p.ID] = cloneProduct(*p)
	m.idByURL[p.URL] = p.ID
	return nil
}

func (m *Memory) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[p.ID]
	if !ok {
		return ports.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.byID[p.ID] = cloneProduct(*p)
	m.idByURL[p.URL] = p.ID
	return nil
}

func (m *Memory) AddObservation(_ context.Context, o *domain.PriceObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextObsID++
	o.ID = m.nextObsID
	if o.RecordedAt.IsZero() {
		o.RecordedAt = time.Now().UTC()
	}
	m.history[o.ProductID] = append(m.history[o.ProductID], *o)
	return nil
}

func (m *Memory) LatestObservation(_ context.Context, productID int64) (domain.PriceObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obs := m.history[productID]
	if len(obs) == 0 {
		return domain.PriceObservation{}, ports.ErrNotFound
	}
	return obs[len(obs)-1], nil
}

func (m *Memory) Observations(_ context.Context, productID int64, limit int) ([]domain.PriceObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obs := m.history[productID]
	if limit > 0 && len(obs) > limit {
		obs = obs[len(obs)-limit:]
	}
	return append([]domain.PriceObservation(nil), obs...), nil
}

func cloneProduct(p domain.Product) domain.Product {
	p.ImageURLs = append([]string(nil), p.ImageURLs...)
	return p
}

func sortProductsByUpdated(products []domain.Product) {
	// Most recently updated first, matching the Postgres ordering.
	sort.Slice(products, func(i, j int) bool {
		if products[i].UpdatedAt.Equal(products[j].UpdatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].UpdatedAt.After(products[j].UpdatedAt)
	})
}
