package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohamedmalandi/nova/internal/catalog"
	"github.com/mohamedmalandi/nova/internal/store/memory"
)

func TestEventService_Create(t *testing.T) {
	svc := catalog.NewEventService(memory.New())

	e, err := svc.Create(context.Background(), catalog.EventInput{
		Title:       "Spring Tournament",
		Description: "5v5 bracket",
		Date:        "2024-05-01T18:00:00",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if e.ID == "" {
		t.Error("Create() returned event without id")
	}
	if !e.IsActive {
		t.Error("IsActive should default to true")
	}
	want := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	if !e.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", e.Date, want)
	}
}

func TestEventService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    catalog.EventInput
		field string
	}{
		{"missing title", catalog.EventInput{Description: "d", Date: "2024-05-01"}, "title"},
		{"missing description", catalog.EventInput{Title: "t", Date: "2024-05-01"}, "description"},
		{"missing date", catalog.EventInput{Title: "t", Description: "d"}, "date"},
		{"unparseable date", catalog.EventInput{Title: "t", Description: "d", Date: "next friday-ish"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := catalog.NewEventService(memory.New())
			_, err := svc.Create(context.Background(), tt.in)
			var verr *catalog.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create() error = %v, want *ValidationError", err)
			}
			if verr.Fields[0].Field != tt.field {
				t.Errorf("failing field = %q, want %q", verr.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestEventService_ListSortedByDate(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewEventService(memory.New())

	for _, in := range []catalog.EventInput{
		{Title: "June", Description: "d", Date: "2024-06-01T10:00:00Z"},
		{Title: "March", Description: "d", Date: "2024-03-01T10:00:00Z"},
		{Title: "April", Description: "d", Date: "2024-04-01T10:00:00Z", IsActive: ptr(false)},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	all, err := svc.List(ctx, catalog.EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"March", "April", "June"}
	for i, e := range all {
		if e.Title != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, e.Title, want[i])
		}
	}

	active, err := svc.List(ctx, catalog.EventFilter{ActiveOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 || active[0].Title != "March" || active[1].Title != "June" {
		t.Errorf("active events = %+v, want March, June", active)
	}
}

func TestEventService_Update(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewEventService(memory.New())
	e, err := svc.Create(ctx, catalog.EventInput{Title: "Cup", Description: "d", Date: "2024-05-01"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Update(ctx, e.ID, catalog.EventPatch{Date: "2024-07-04T20:30:00"})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.Title != "Cup" {
		t.Errorf("Title = %q, want unchanged", got.Title)
	}
	if !got.Date.Equal(time.Date(2024, 7, 4, 20, 30, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", got.Date)
	}

	got, err = svc.Update(ctx, e.ID, catalog.EventPatch{IsActive: ptr(false)})
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive {
		t.Error("isActive=false was not applied")
	}

	got, err = svc.Update(ctx, e.ID, catalog.EventPatch{Title: "Summer Cup"})
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive {
		t.Error("omitted isActive changed the stored value")
	}

	if _, err := svc.Update(ctx, e.ID, catalog.EventPatch{Date: "not a date"}); err == nil {
		t.Error("Update() accepted an unparseable date")
	}
	if _, err := svc.Update(ctx, "missing", catalog.EventPatch{Title: "x"}); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Update() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestEventService_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewEventService(memory.New())
	e, err := svc.Create(ctx, catalog.EventInput{Title: "Cup", Description: "d", Date: "2024-05-01"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("first Delete() failed: %v", err)
	}
	if err := svc.Delete(ctx, e.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
