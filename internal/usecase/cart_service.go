package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/betterbuy/backend/internal/domain"
)

// CartService manages the captured products and selects them for comparison
type CartService struct {
	repo   domain.CartRepository
	engine *ComparisonEngine
}

// NewCartService creates a cart service
func NewCartService(repo domain.CartRepository, engine *ComparisonEngine) *CartService {
	return &CartService{repo: repo, engine: engine}
}

// Add appends product to the cart
func (s *CartService) Add(ctx context.Context, product *domain.Product) error {
	if product == nil || product.ID == "" || product.URL == "" {
		return domain.ErrInvalidRequest
	}
	if err := s.repo.Append(ctx, *product); err != nil {
		return fmt.Errorf("failed to add product: %w", err)
	}
	log.Info().Str("component", "cart").Str("id", product.ID).Str("name", product.Name).Msg("product added to cart")
	return nil
}

// List returns the cart in insertion order
func (s *CartService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

// Get returns the products with ids, in cart order. Duplicate and blank ids
// are ignored; an unknown id fails with domain.ErrProductNotFound.
func (s *CartService) Get(ctx context.Context, ids []string) ([]domain.Product, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			wanted[id] = true
		}
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	selected := make([]domain.Product, 0, len(wanted))
	for _, p := range items {
		if wanted[p.ID] {
			selected = append(selected, p)
			delete(wanted, p.ID)
		}
	}
	if len(wanted) > 0 {
		return nil, domain.ErrProductNotFound
	}
	return selected, nil
}

// Delete removes the product with id
func (s *CartService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidRequest
	}
	return s.repo.Delete(ctx, id)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

// Compare runs the comparison engine over the selected cart products.
// Fewer than two distinct ids is rejected before the cart is read.
func (s *CartService) Compare(ctx context.Context, ids []string) (*domain.ComparisonArtifact, error) {
	products, err := s.selection(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.engine.Compare(ctx, products)
}

// ComparisonTable returns the selected products with their deterministic table
func (s *CartService) ComparisonTable(ctx context.Context, ids []string) ([]domain.Product, *domain.ComparisonTable, error) {
	products, err := s.selection(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return products, BuildComparisonTable(products, domain.FallbackNone), nil
}

func (s *CartService) selection(ctx context.Context, ids []string) ([]domain.Product, error) {
	if countDistinct(ids) < 2 {
		return nil, domain.ErrNotEnoughProducts
	}
	return s.Get(ctx, ids)
}

func countDistinct(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
