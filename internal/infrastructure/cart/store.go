package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/betterbuy/backend/internal/domain"
)

// Key is the cache key holding the cart
const Key = "cart"

// Store persists the cart as one JSON document in a cache backend.
// Writes are serialized within the process.
type Store struct {
	cache domain.CacheRepository
	mu    sync.Mutex
}

// NewStore creates a cart store over cache
func NewStore(cache domain.CacheRepository) *Store {
	return &Store{cache: cache}
}

// List returns the cart in insertion order. A missing cart is empty.
func (s *Store) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Append adds product to the end of the cart
func (s *Store) Append(ctx context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, append(items, product))
}

// Delete removes the product with id
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, p := range items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(items) {
		return domain.ErrProductNotFound
	}
	return s.save(ctx, kept)
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Delete(ctx, Key)
}

func (s *Store) load(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.cache.Get(ctx, Key)
	if errors.Is(err, domain.ErrCacheMiss) {
		return []domain.Product{}, nil
	}
	if err != nil {
		return nil, err
	}

	encoded, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected cart value of type %T", raw)
	}

	var items []domain.Product
	if err := json.Unmarshal([]byte(encoded), &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, items []domain.Product) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, Key, string(data), 0)
}
