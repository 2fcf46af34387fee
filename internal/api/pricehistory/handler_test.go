package pricehistory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/api/pricehistory"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/logger"
)

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) ListByProduct(ctx context.Context, productID int64, req domain.PageRequest) (domain.Page[domain.PriceHistory], error) {
	args := m.Called(ctx, productID, req)
	return args.Get(0).(domain.Page[domain.PriceHistory]), args.Error(1)
}

func (m *MockHistoryService) AllByProduct(ctx context.Context, productID int64) ([]domain.PriceHistory, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.PriceHistory), args.Error(1)
}

func (m *MockHistoryService) ListByVariant(ctx context.Context, variantID int64, req domain.PageRequest) (domain.Page[domain.PriceHistory], error) {
	args := m.Called(ctx, variantID, req)
	return args.Get(0).(domain.Page[domain.PriceHistory]), args.Error(1)
}

func (m *MockHistoryService) AllByVariant(ctx context.Context, variantID int64) ([]domain.PriceHistory, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).([]domain.PriceHistory), args.Error(1)
}

func entry(id int64, oldPrice, newPrice string) domain.PriceHistory {
	return domain.PriceHistory{
		ID:        id,
		ProductID: 1,
		OldPrice:  decimal.RequireFromString(oldPrice),
		NewPrice:  decimal.RequireFromString(newPrice),
	}
}

func TestProductHistoryHandler_Paged(t *testing.T) {
	svc := new(MockHistoryService)
	h := pricehistory.NewHandler(svc, logger.NewNop())
	req := domain.PageRequest{Page: 0, Size: 2}
	svc.On("ListByProduct", mock.Anything, int64(1), req).
		Return(domain.NewPage([]domain.PriceHistory{entry(2, "100", "120")}, req, 3), nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/products/1/price-history?size=2", nil)
	r.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.ProductHistoryHandler(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.Page[domain.PriceHistory]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.TotalElements)
	assert.False(t, page.Last)
	svc.AssertNotCalled(t, "AllByProduct", mock.Anything, mock.Anything)
}

func TestVariantHistoryHandler_All(t *testing.T) {
	svc := new(MockHistoryService)
	h := pricehistory.NewHandler(svc, logger.NewNop())
	svc.On("AllByVariant", mock.Anything, int64(5)).
		Return([]domain.PriceHistory{entry(2, "120", "90"), entry(1, "100", "120")}, nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/variants/5/price-history?all=true", nil)
	r.SetPathValue("id", "5")
	rec := httptest.NewRecorder()
	h.VariantHistoryHandler(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.PriceHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
}
