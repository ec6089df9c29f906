package catalog

import (
	"context"
	"time"
)

// Product is a store listing: an item or a service.
type Product struct {
	ID          string              `json:"_id"`
	Name        string              `json:"name" validate:"required"`
	Type        ProductType         `json:"type" validate:"required,oneof=item service"`
	Category    Category            `json:"category" validate:"required,oneof=keys skins wild-pass coaching boosting"`
	Price       float64             `json:"price" validate:"gte=0"`
	Description string              `json:"description,omitempty"`
	Image       string              `json:"image,omitempty"`
	Options     map[string][]string `json:"options,omitempty"`
	IsActive    bool                `json:"isActive"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// ProductInput is the body of a create request.
type ProductInput struct {
	Name        string              `json:"name"`
	Type        ProductType         `json:"type"`
	Category    Category            `json:"category"`
	Price       *float64            `json:"price"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Options     map[string][]string `json:"options"`
	IsActive    *bool               `json:"isActive"`
}

// ProductPatch is the body of an update request. Zero values mean "keep".
type ProductPatch struct {
	Name        string              `json:"name"`
	Type        ProductType         `json:"type"`
	Category    Category            `json:"category"`
	Price       float64             `json:"price"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Options     map[string][]string `json:"options"`
	IsActive    *bool               `json:"isActive"`
}

// Apply merges the truthy fields of patch into p.
//
// A price of 0 leaves the stored price unchanged. A non-nil Options map,
// even an empty one, replaces the stored options.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != "" {
		p.Name = patch.Name
	}
	if patch.Type != "" {
		p.Type = patch.Type
	}
	if patch.Category != "" {
		p.Category = patch.Category
	}
	if patch.Price != 0 {
		p.Price = patch.Price
	}
	if patch.Description != "" {
		p.Description = patch.Description
	}
	if patch.Image != "" {
		p.Image = patch.Image
	}
	if patch.Options != nil {
		p.Options = patch.Options
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
}

// ProductFilter restricts List. The zero value matches everything.
type ProductFilter struct {
	ActiveOnly bool
	// Keyword is matched case-insensitively as a literal substring of Name.
	Keyword string
}

// ProductRepository persists products.
//
// FindProduct, ReplaceProduct, DeleteProduct and ToggleProduct return
// ErrNotFound for unknown or malformed ids. ListProducts returns products
// in insertion order.
type ProductRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	FindProduct(ctx context.Context, id string) (*Product, error)
	// InsertProduct assigns p.ID.
	InsertProduct(ctx context.Context, p *Product) error
	ReplaceProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
	// ToggleProduct flips IsActive in a single atomic step and returns the
	// updated product.
	ToggleProduct(ctx context.Context, id string) (*Product, error)
}
