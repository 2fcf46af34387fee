package variantservice_test

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

// fakeStore implementa Repository e domain.VariantTx em memória. WithinTx
// tira um snapshot e o restaura quando fn falha, simulando o rollback.
type fakeStore struct {
	products map[int64]domain.Product
	options  map[int64][]domain.VariantOption
	variants map[int64]domain.Variant
	history  []domain.PriceHistory
	nextID   int64
}

func newFakeStore(productIDs ...int64) *fakeStore {
	s := &fakeStore{
		products: map[int64]domain.Product{},
		options:  map[int64][]domain.VariantOption{},
		variants: map[int64]domain.Variant{},
		nextID:   100,
	}
	for _, id := range productIDs {
		s.products[id] = domain.Product{ID: id, Name: fmt.Sprintf("Produto %d", id), Lifecycle: domain.LifecycleActive}
	}
	return s
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.VariantTx) error) error {
	options := maps.Clone(s.options)
	variants := maps.Clone(s.variants)
	history := append([]domain.PriceHistory(nil), s.history...)
	nextID := s.nextID

	if err := fn(ctx, s); err != nil {
		s.options, s.variants, s.history, s.nextID = options, variants, history, nextID
		return err
	}
	return nil
}

func (s *fakeStore) EnsureProduct(_ context.Context, productID int64) error {
	if _, ok := s.products[productID]; !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto %d", productID))
	}
	return nil
}

func (s *fakeStore) InsertPriceHistory(_ context.Context, entry domain.PriceHistory) (domain.PriceHistory, error) {
	s.nextID++
	entry.ID = s.nextID
	s.history = append(s.history, entry)
	return entry, nil
}

func (s *fakeStore) LockProduct(ctx context.Context, productID int64) (domain.Product, error) {
	if err := s.EnsureProduct(ctx, productID); err != nil {
		return domain.Product{}, err
	}
	return s.products[productID], nil
}

func (s *fakeStore) ListOptions(_ context.Context, productID int64) ([]domain.VariantOption, error) {
	return append([]domain.VariantOption{}, s.options[productID]...), nil
}

func (s *fakeStore) ReplaceOptions(_ context.Context, productID int64, options []domain.VariantOption) ([]domain.VariantOption, error) {
	saved := make([]domain.VariantOption, 0, len(options))
	for i, o := range options {
		s.nextID++
		o.ID = s.nextID
		o.ProductID = productID
		o.DisplayOrder = i
		saved = append(saved, o)
	}
	s.options[productID] = saved
	return saved, nil
}

func (s *fakeStore) ListVariants(_ context.Context, productID int64) ([]domain.Variant, error) {
	out := []domain.Variant{}
	for _, v := range s.variants {
		if v.ProductID == productID && v.DeletedAt == nil {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fakeStore) GetVariant(_ context.Context, variantID int64) (domain.Variant, error) {
	v, ok := s.variants[variantID]
	if !ok || v.DeletedAt != nil {
		return domain.Variant{}, apperror.NewNotFoundError(fmt.Sprintf("Variante %d", variantID))
	}
	return v, nil
}

func (s *fakeStore) SKUTaken(_ context.Context, sku string, excludeVariantID int64) (bool, error) {
	for _, v := range s.variants {
		if v.SKU == sku && v.DeletedAt == nil && v.ID != excludeVariantID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) InsertVariant(_ context.Context, v domain.Variant) (domain.Variant, error) {
	s.nextID++
	v.ID = s.nextID
	v.Lifecycle = domain.LifecycleActive
	s.variants[v.ID] = v
	return v, nil
}

func (s *fakeStore) UpdateVariant(ctx context.Context, v domain.Variant) (domain.Variant, error) {
	if _, err := s.GetVariant(ctx, v.ID); err != nil {
		return domain.Variant{}, err
	}
	s.variants[v.ID] = v
	return v, nil
}

func (s *fakeStore) ClearDefault(_ context.Context, productID int64) error {
	for id, v := range s.variants {
		if v.ProductID == productID && v.DeletedAt == nil && v.IsDefault {
			v.IsDefault = false
			s.variants[id] = v
		}
	}
	return nil
}

func (s *fakeStore) SetDefault(ctx context.Context, variantID int64) error {
	v, err := s.GetVariant(ctx, variantID)
	if err != nil {
		return err
	}
	v.IsDefault = true
	s.variants[variantID] = v
	return nil
}

func (s *fakeStore) SoftDeleteVariant(ctx context.Context, variantID int64, at time.Time) error {
	v, err := s.GetVariant(ctx, variantID)
	if err != nil {
		return err
	}
	v.DeletedAt = &at
	v.Lifecycle = domain.LifecycleDeleted
	v.IsActive = false
	v.IsDefault = false
	s.variants[variantID] = v
	return nil
}

func (s *fakeStore) UpdateStock(ctx context.Context, variantID int64, stock int) error {
	v, err := s.GetVariant(ctx, variantID)
	if err != nil {
		return err
	}
	v.StockQuantity = stock
	s.variants[variantID] = v
	return nil
}

// defaults devolve os IDs das variantes padrão não excluídas do produto.
func (s *fakeStore) defaults(productID int64) []int64 {
	var ids []int64
	for _, v := range s.variants {
		if v.ProductID == productID && v.DeletedAt == nil && v.IsDefault {
			ids = append(ids, v.ID)
		}
	}
	return ids
}
