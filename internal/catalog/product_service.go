package catalog

import (
	"context"
	"time"
)

// ProductService implements product operations over a repository.
type ProductService struct {
	repo ProductRepository
	now  func() time.Time
}

func NewProductService(repo ProductRepository) *ProductService {
	return &ProductService{repo: repo, now: time.Now}
}

// List returns the products matching filter, never nil.
func (s *ProductService) List(ctx context.Context, filter ProductFilter) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.FindProduct(ctx, id)
}

// Create validates in and stores a new product. IsActive defaults to true.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*Product, error) {
	if in.Price == nil {
		return nil, invalid("price", "is required")
	}

	now := s.now().UTC()
	p := &Product{
		Name:        in.Name,
		Type:        in.Type,
		Category:    in.Category,
		Price:       *in.Price,
		Description: in.Description,
		Image:       in.Image,
		Options:     in.Options,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := check(p); err != nil {
		return nil, err
	}

	if err := s.repo.InsertProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update merges patch into the stored product and saves the result.
func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(p)
	if err := check(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.ReplaceProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

// Toggle flips the product's visibility.
func (s *ProductService) Toggle(ctx context.Context, id string) (*Product, error) {
	return s.repo.ToggleProduct(ctx, id)
}
