package pricehistoryservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
	"gocatalog/internal/service/pricehistoryservice"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) InsertPriceHistory(ctx context.Context, entry domain.PriceHistory) (domain.PriceHistory, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(domain.PriceHistory), args.Error(1)
}

func TestRecord_EqualPricesWriteNothing(t *testing.T) {
	w := new(MockWriter)
	rec := pricehistoryservice.NewRecorder(nil, logger.NewLogger("debug"))

	written, err := rec.Record(context.Background(), w, domain.PriceChange{
		ProductID: 1,
		OldPrice:  decimal.RequireFromString("100"),
		NewPrice:  decimal.RequireFromString("100.00"),
	})

	require.NoError(t, err)
	assert.False(t, written)
	w.AssertNotCalled(t, "InsertPriceHistory", mock.Anything, mock.Anything)
}

func TestRecord_WritesOneRowWithAuditFields(t *testing.T) {
	w := new(MockWriter)
	m := metrics.New("test")
	rec := pricehistoryservice.NewRecorder(m, logger.NewLogger("debug"))
	variantID := int64(9)

	w.On("InsertPriceHistory", mock.Anything, mock.MatchedBy(func(e domain.PriceHistory) bool {
		return e.ProductID == 1 && *e.VariantID == 9 &&
			e.OldPrice.Equal(decimal.NewFromInt(100)) && e.NewPrice.Equal(decimal.NewFromInt(120)) &&
			*e.Reason == "variant price update" && *e.ChangedBy == "admin-1" &&
			!e.ChangedAt.IsZero() && e.ChangedAt.Location().String() == "UTC"
	})).Return(domain.PriceHistory{ID: 5, ProductID: 1}, nil).Once()

	written, err := rec.Record(context.Background(), w, domain.PriceChange{
		ProductID: 1,
		VariantID: &variantID,
		OldPrice:  decimal.RequireFromString("100.00"),
		NewPrice:  decimal.RequireFromString("120.00"),
		Reason:    "variant price update",
		ChangedBy: "admin-1",
	})

	require.NoError(t, err)
	assert.True(t, written)
	w.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriceChangesTotal.WithLabelValues("variant")))
}

func TestRecord_EmptyReasonAndChangedByAreNull(t *testing.T) {
	w := new(MockWriter)
	rec := pricehistoryservice.NewRecorder(nil, logger.NewLogger("debug"))

	w.On("InsertPriceHistory", mock.Anything, mock.MatchedBy(func(e domain.PriceHistory) bool {
		return e.Reason == nil && e.ChangedBy == nil && e.VariantID == nil
	})).Return(domain.PriceHistory{ID: 1}, nil)

	written, err := rec.Record(context.Background(), w, domain.PriceChange{
		ProductID: 1,
		OldPrice:  decimal.NewFromInt(10),
		NewPrice:  decimal.NewFromInt(11),
	})

	require.NoError(t, err)
	assert.True(t, written)
}

func TestRecord_PropagatesWriterError(t *testing.T) {
	w := new(MockWriter)
	rec := pricehistoryservice.NewRecorder(nil, logger.NewLogger("debug"))
	w.On("InsertPriceHistory", mock.Anything, mock.Anything).Return(domain.PriceHistory{}, errors.New("tx aborted"))

	written, err := rec.Record(context.Background(), w, domain.PriceChange{
		OldPrice: decimal.NewFromInt(1),
		NewPrice: decimal.NewFromInt(2),
	})

	assert.Error(t, err)
	assert.False(t, written)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListByProduct(ctx context.Context, productID int64, page domain.PageRequest) ([]domain.PriceHistory, int64, error) {
	args := m.Called(ctx, productID, page)
	return args.Get(0).([]domain.PriceHistory), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) AllByProduct(ctx context.Context, productID int64) ([]domain.PriceHistory, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.PriceHistory), args.Error(1)
}

func (m *MockRepository) ListByVariant(ctx context.Context, variantID int64, page domain.PageRequest) ([]domain.PriceHistory, int64, error) {
	args := m.Called(ctx, variantID, page)
	return args.Get(0).([]domain.PriceHistory), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) AllByVariant(ctx context.Context, variantID int64) ([]domain.PriceHistory, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).([]domain.PriceHistory), args.Error(1)
}

func TestListByProduct_NormalizesPageAndWraps(t *testing.T) {
	repo := new(MockRepository)
	svc := pricehistoryservice.NewService(repo, logger.NewLogger("debug"), 100)

	rows := []domain.PriceHistory{{ID: 3}, {ID: 2}}
	repo.On("ListByProduct", mock.Anything, int64(1), domain.PageRequest{Page: 0, Size: 10}).Return(rows, int64(12), nil)

	page, err := svc.ListByProduct(context.Background(), 1, domain.PageRequest{Page: -1, Size: 0})

	require.NoError(t, err)
	assert.Equal(t, rows, page.Content)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.Last)
}

func TestListByVariant_CapsPageSize(t *testing.T) {
	repo := new(MockRepository)
	svc := pricehistoryservice.NewService(repo, logger.NewLogger("debug"), 100)

	repo.On("ListByVariant", mock.Anything, int64(7), domain.PageRequest{Page: 1, Size: 100}).Return([]domain.PriceHistory{}, int64(0), nil)

	page, err := svc.ListByVariant(context.Background(), 7, domain.PageRequest{Page: 1, Size: 5000})

	require.NoError(t, err)
	assert.Equal(t, 100, page.Size)
	repo.AssertExpectations(t)
}
