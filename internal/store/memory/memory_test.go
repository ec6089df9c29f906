package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/catalog"
)

func TestStore_AdminUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.InsertAdmin(ctx, &admin.Admin{Username: "nova", Email: "nova@nova.com", PasswordHash: "h"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		a    admin.Admin
	}{
		{"same username", admin.Admin{Username: "nova", Email: "other@nova.com"}},
		{"same email", admin.Admin{Username: "other", Email: "nova@nova.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.InsertAdmin(ctx, &tt.a); !errors.Is(err, admin.ErrAlreadyExists) {
				t.Errorf("InsertAdmin() error = %v, want ErrAlreadyExists", err)
			}
		})
	}

	if _, err := s.FindAdminByEmail(ctx, "missing@nova.com"); !errors.Is(err, admin.ErrNotFound) {
		t.Errorf("FindAdminByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestStore_AdminPassword(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &admin.Admin{Username: "nova", Email: "nova@nova.com", PasswordHash: "old"}
	if err := s.InsertAdmin(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateAdminPassword(ctx, a.ID, "new"); err != nil {
		t.Fatal(err)
	}
	got, err := s.FindAdminByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PasswordHash != "new" {
		t.Errorf("PasswordHash = %q, want new", got.PasswordHash)
	}
	if err := s.UpdateAdminPassword(ctx, "missing", "x"); !errors.Is(err, admin.ErrNotFound) {
		t.Errorf("UpdateAdminPassword() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ProductCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &catalog.Product{Name: "Key", Options: map[string][]string{"region": {"eu"}}}
	if err := s.InsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	p.Name = "mutated after insert"
	p.Options["region"][0] = "us"

	got, err := s.FindProduct(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Key" || got.Options["region"][0] != "eu" {
		t.Errorf("stored product shares memory with caller: %+v", got)
	}

	got.Options["region"] = nil
	again, _ := s.FindProduct(ctx, p.ID)
	if len(again.Options["region"]) != 1 {
		t.Error("returned product shares memory with the store")
	}
}

func TestStore_ReplaceUnknown(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.ReplaceProduct(ctx, &catalog.Product{ID: "nope"}); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("ReplaceProduct() error = %v, want ErrNotFound", err)
	}
	if err := s.ReplaceEvent(ctx, &catalog.Event{ID: "nope"}); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("ReplaceEvent() error = %v, want ErrNotFound", err)
	}
	if _, err := s.FindEvent(ctx, "nope"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("FindEvent() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ConcurrentToggle(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &catalog.Product{Name: "Key", IsActive: true}
	if err := s.InsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ToggleProduct(ctx, p.ID); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.FindProduct(ctx, p.ID)
	if !got.IsActive {
		t.Errorf("after %d toggles IsActive = false, want true", n)
	}
}

func TestStore_EventsSortedStable(t *testing.T) {
	ctx := context.Background()
	s := New()

	same := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range []catalog.Event{
		{Title: "b", Date: same},
		{Title: "a", Date: same.Add(-time.Hour)},
		{Title: "c", Date: same},
	} {
		e := e
		if err := s.InsertEvent(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.ListEvents(ctx, catalog.EventFilter{})
	order := ""
	for _, e := range got {
		order += e.Title
	}
	if order != "abc" {
		t.Errorf("event order = %q, want abc", order)
	}
}
