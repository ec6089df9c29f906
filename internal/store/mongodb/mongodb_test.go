package mongodb

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/catalog"
)

func TestObjectID(t *testing.T) {
	valid := primitive.NewObjectID().Hex()

	tests := []struct {
		in   string
		want bool
	}{
		{valid, true},
		{"", false},
		{"123", false},
		{"zzzzzzzzzzzzzzzzzzzzzzzz", false},
		{"8f14e45f-ceea-467f-a0e6-1b3c7c1d7e11", false},
	}
	for _, tt := range tests {
		if _, ok := objectID(tt.in); ok != tt.want {
			t.Errorf("objectID(%q) ok = %v, want %v", tt.in, ok, tt.want)
		}
	}
}

func TestProductQuery(t *testing.T) {
	tests := []struct {
		name    string
		filter  catalog.ProductFilter
		keys    []string
		pattern string
	}{
		{"empty", catalog.ProductFilter{}, nil, ""},
		{"active", catalog.ProductFilter{ActiveOnly: true}, []string{"isActive"}, ""},
		{"keyword quoted", catalog.ProductFilter{Keyword: "a+b (1)"}, []string{"name"}, `a\+b \(1\)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := productQuery(tt.filter)
			if len(q) != len(tt.keys) {
				t.Fatalf("query %v has %d keys, want %d", q, len(q), len(tt.keys))
			}
			for _, k := range tt.keys {
				if _, ok := q[k]; !ok {
					t.Errorf("query %v missing %q", q, k)
				}
			}
			if tt.pattern == "" {
				return
			}
			re := q["name"].(bson.M)["$regex"].(primitive.Regex)
			if re.Pattern != tt.pattern || re.Options != "i" {
				t.Errorf("regex = %+v, want pattern %q with i", re, tt.pattern)
			}
			if !regexp.MustCompile("(?i)" + re.Pattern).MatchString("A+B (1) bundle") {
				t.Error("quoted pattern does not match the literal keyword")
			}
		})
	}
}

func TestProductDocRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &catalog.Product{
		Name:      "Boost",
		Type:      catalog.TypeService,
		Category:  catalog.CategoryBoosting,
		Price:     9.5,
		Options:   map[string][]string{"from": {"silver"}},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc := newProductDoc(p)
	doc.ID = primitive.NewObjectID()

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"_id", "name", "type", "category", "price", "options", "isActive", "createdAt", "updatedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("document missing field %q: %v", key, m)
		}
	}

	var back productDoc
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	got := back.toProduct()
	if got.ID != doc.ID.Hex() || got.Category != catalog.CategoryBoosting || got.Options["from"][0] != "silver" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestProductDoc_MissingIsActive(t *testing.T) {
	tests := []struct {
		name string
		doc  bson.M
		want bool
	}{
		{"missing", bson.M{"name": "Legacy"}, true},
		{"null", bson.M{"name": "Legacy", "isActive": nil}, true},
		{"false", bson.M{"name": "Hidden", "isActive": false}, false},
		{"true", bson.M{"name": "Shown", "isActive": true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(tt.doc)
			if err != nil {
				t.Fatal(err)
			}
			var d productDoc
			if err := bson.Unmarshal(raw, &d); err != nil {
				t.Fatal(err)
			}
			if got := d.toProduct().IsActive; got != tt.want {
				t.Errorf("IsActive = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActiveOnlyQuery(t *testing.T) {
	q := productQuery(catalog.ProductFilter{ActiveOnly: true})
	cond, ok := q["isActive"].(bson.M)
	if !ok || cond["$ne"] != false {
		t.Fatalf("isActive condition = %#v, want {$ne: false}", q["isActive"])
	}
}

// Integration tests run against NOVA_TEST_MONGO_URI.

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("NOVA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("NOVA_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dbName := "nova_test_" + primitive.NewObjectID().Hex()
	s, err := Open(ctx, uri, dbName)
	if err != nil {
		t.Skipf("Cannot connect to test mongo: %v", err)
	}
	t.Cleanup(func() {
		_ = s.products.Database().Drop(context.Background())
		s.Close()
	})
	return s
}

func TestIntegration_ToggleAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	svc := catalog.NewProductService(s)

	price := 10.0
	p, err := svc.Create(ctx, catalog.ProductInput{Name: "Key", Type: catalog.TypeItem, Category: catalog.CategoryKeys, Price: &price})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := svc.Toggle(ctx, p.ID)
	if err != nil || first.IsActive {
		t.Fatalf("first toggle: %+v, %v", first, err)
	}
	second, err := svc.Toggle(ctx, p.ID)
	if err != nil || !second.IsActive {
		t.Fatalf("second toggle: %+v, %v", second, err)
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, p.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "not-an-object-id"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("Get malformed id: %v", err)
	}
}

func TestIntegration_ToggleLegacyDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.products.InsertOne(ctx, bson.M{"name": "Legacy", "type": "item", "category": "keys", "price": 1.0})
	if err != nil {
		t.Fatal(err)
	}
	id := res.InsertedID.(primitive.ObjectID).Hex()

	before, err := s.FindProduct(ctx, id)
	if err != nil || !before.IsActive {
		t.Fatalf("legacy product before toggle: %+v, %v", before, err)
	}
	listed, err := s.ListProducts(ctx, catalog.ProductFilter{ActiveOnly: true})
	if err != nil || len(listed) != 1 {
		t.Fatalf("active listing: %+v, %v", listed, err)
	}

	after, err := s.ToggleProduct(ctx, id)
	if err != nil || after.IsActive {
		t.Fatalf("legacy product after toggle: %+v, %v", after, err)
	}
}

func TestIntegration_KeywordAndEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	products := catalog.NewProductService(s)
	events := catalog.NewEventService(s)

	price := 1.0
	for _, name := range []string{"Steam KEY", "Skin", "Key (EU)"} {
		if _, err := products.Create(ctx, catalog.ProductInput{Name: name, Type: catalog.TypeItem, Category: catalog.CategoryKeys, Price: &price}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := products.List(ctx, catalog.ProductFilter{Keyword: "key"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Steam KEY" {
		t.Fatalf("keyword results: %+v", got)
	}

	for _, d := range []string{"2024-09-01", "2024-01-01", "2024-05-01"} {
		if _, err := events.Create(ctx, catalog.EventInput{Title: d, Description: "d", Date: d}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := events.List(ctx, catalog.EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Title != "2024-01-01" || list[2].Title != "2024-09-01" {
		t.Fatalf("events not sorted: %+v", list)
	}
}

func TestIntegration_AdminUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertAdmin(ctx, &admin.Admin{Username: "nova", Email: "nova@nova.com", PasswordHash: "h"}); err != nil {
		t.Fatal(err)
	}
	err := s.InsertAdmin(ctx, &admin.Admin{Username: "nova2", Email: "nova@nova.com", PasswordHash: "h"})
	if !errors.Is(err, admin.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}
