// Package memory provides map-backed stores for tests and local
// development. All methods are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"barhub/internal/store"
)

// PrincipalStore is an in-memory store.PrincipalStore.
type PrincipalStore struct {
	mu   sync.RWMutex
	byID map[string]store.Principal
}

// NewPrincipalStore returns an empty principal store.
func NewPrincipalStore() *PrincipalStore {
	return &PrincipalStore{byID: make(map[string]store.Principal)}
}

var _ store.PrincipalStore = (*PrincipalStore)(nil)

func (s *PrincipalStore) FindByEmail(_ context.Context, email string) (*store.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, p := range s.byID {
		if strings.ToLower(p.Email) == email {
			cp := p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *PrincipalStore) FindByID(_ context.Context, id string) (*store.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *PrincipalStore) List(_ context.Context) ([]store.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Principal, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *PrincipalStore) Create(_ context.Context, p *store.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(p.Email)
	for _, existing := range s.byID {
		if strings.ToLower(existing.Email) == email {
			return store.ErrDuplicateEmail
		}
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.byID[p.ID] = *p
	return nil
}

func (s *PrincipalStore) Update(_ context.Context, p *store.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[p.ID]
	if !ok {
		return store.ErrNotFound
	}

	email := strings.ToLower(p.Email)
	for id, other := range s.byID {
		if id != p.ID && strings.ToLower(other.Email) == email {
			return store.ErrDuplicateEmail
		}
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	s.byID[p.ID] = *p
	return nil
}

func (s *PrincipalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// ProductStore is an in-memory store.ProductStore.
type ProductStore struct {
	mu   sync.RWMutex
	byID map[string]store.Product
}

// NewProductStore returns an empty product store.
func NewProductStore() *ProductStore {
	return &ProductStore{byID: make(map[string]store.Product)}
}

var _ store.ProductStore = (*ProductStore)(nil)

func (s *ProductStore) List(_ context.Context) ([]store.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Product, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *ProductStore) Get(_ context.Context, id string) (*store.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *ProductStore) Create(_ context.Context, p *store.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.byID[p.ID] = *p
	return nil
}

func (s *ProductStore) Update(_ context.Context, p *store.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	s.byID[p.ID] = *p
	return nil
}

func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// OrderStore is an in-memory store.OrderStore.
type OrderStore struct {
	mu   sync.RWMutex
	byID map[string]store.Order
}

// NewOrderStore returns an empty order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{byID: make(map[string]store.Order)}
}

var _ store.OrderStore = (*OrderStore)(nil)

func (s *OrderStore) ListAll(_ context.Context) ([]store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Order, 0, len(s.byID))
	for _, o := range s.byID {
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *OrderStore) ListByOwner(_ context.Context, ownerID string) ([]store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []store.Order{}
	for _, o := range s.byID {
		if o.OwnerID == ownerID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *OrderStore) Get(_ context.Context, id string) (*store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (s *OrderStore) Create(_ context.Context, o *store.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	s.byID[o.ID] = cloneOrder(*o)
	return nil
}

func (s *OrderStore) Update(_ context.Context, o *store.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	o.CreatedAt = existing.CreatedAt
	o.UpdatedAt = time.Now()
	s.byID[o.ID] = cloneOrder(*o)
	return nil
}

func (s *OrderStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func cloneOrder(o store.Order) store.Order {
	cp := o
	cp.Items = append([]store.OrderItem(nil), o.Items...)
	return cp
}
