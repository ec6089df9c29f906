// Package memory is a process-local store backend. It keeps admins, products
// and events in insertion-ordered slices guarded by a single RWMutex and hands
// out copies, so callers never share state with the store.
//
// Data is lost on exit. It is the default backend for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/catalog"
)

// Store implements admin.Store, catalog.ProductRepository and
// catalog.EventRepository.
type Store struct {
	mu       sync.RWMutex
	admins   []admin.Admin
	products []catalog.Product
	events   []catalog.Event
}

func New() *Store {
	return &Store{}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func newID() string {
	return uuid.NewString()
}

func timestamp() time.Time {
	return time.Now().UTC()
}

// Admins

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*admin.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Email == email {
			out := a
			return &out, nil
		}
	}
	return nil, admin.ErrNotFound
}

func (s *Store) FindAdminByID(ctx context.Context, id string) (*admin.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexAdmin(s.admins, id); i >= 0 {
		out := s.admins[i]
		return &out, nil
	}
	return nil, admin.ErrNotFound
}

func (s *Store) InsertAdmin(ctx context.Context, a *admin.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if existing.Username == a.Username || existing.Email == a.Email {
			return admin.ErrAlreadyExists
		}
	}
	now := timestamp()
	a.ID = newID()
	a.CreatedAt, a.UpdatedAt = now, now
	s.admins = append(s.admins, *a)
	return nil
}

func (s *Store) UpdateAdminPassword(ctx context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexAdmin(s.admins, id)
	if i < 0 {
		return admin.ErrNotFound
	}
	s.admins[i].PasswordHash = hash
	s.admins[i].UpdatedAt = timestamp()
	return nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]admin.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]admin.Admin(nil), s.admins...), nil
}

func indexAdmin(admins []admin.Admin, id string) int {
	for i := range admins {
		if admins[i].ID == id {
			return i
		}
	}
	return -1
}

// Products

func (s *Store) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyword := strings.ToLower(filter.Keyword)
	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(p.Name), keyword) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (s *Store) FindProduct(ctx context.Context, id string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexProduct(s.products, id)
	if i < 0 {
		return nil, catalog.ErrNotFound
	}
	out := cloneProduct(s.products[i])
	return &out, nil
}

func (s *Store) InsertProduct(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID()
	s.products = append(s.products, cloneProduct(*p))
	return nil
}

func (s *Store) ReplaceProduct(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexProduct(s.products, p.ID)
	if i < 0 {
		return catalog.ErrNotFound
	}
	s.products[i] = cloneProduct(*p)
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexProduct(s.products, id)
	if i < 0 {
		return catalog.ErrNotFound
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	return nil
}

func (s *Store) ToggleProduct(ctx context.Context, id string) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexProduct(s.products, id)
	if i < 0 {
		return nil, catalog.ErrNotFound
	}
	s.products[i].IsActive = !s.products[i].IsActive
	s.products[i].UpdatedAt = timestamp()
	out := cloneProduct(s.products[i])
	return &out, nil
}

func indexProduct(products []catalog.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneProduct(p catalog.Product) catalog.Product {
	if p.Options != nil {
		opts := make(map[string][]string, len(p.Options))
		for k, v := range p.Options {
			opts[k] = append([]string(nil), v...)
		}
		p.Options = opts
	}
	return p
}

// Events

func (s *Store) ListEvents(ctx context.Context, filter catalog.EventFilter) ([]catalog.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Event, 0, len(s.events))
	for _, e := range s.events {
		if filter.ActiveOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *Store) FindEvent(ctx context.Context, id string) (*catalog.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexEvent(s.events, id)
	if i < 0 {
		return nil, catalog.ErrNotFound
	}
	out := s.events[i]
	return &out, nil
}

func (s *Store) InsertEvent(ctx context.Context, e *catalog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = newID()
	s.events = append(s.events, *e)
	return nil
}

func (s *Store) ReplaceEvent(ctx context.Context, e *catalog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexEvent(s.events, e.ID)
	if i < 0 {
		return catalog.ErrNotFound
	}
	s.events[i] = *e
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexEvent(s.events, id)
	if i < 0 {
		return catalog.ErrNotFound
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	return nil
}

func indexEvent(events []catalog.Event, id string) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}
