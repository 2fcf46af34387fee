package variant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gocatalog/internal/api/variant"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

type MockVariantService struct {
	mock.Mock
}

func (m *MockVariantService) DefineOptions(ctx context.Context, productID int64, inputs []domain.VariantOptionInput) ([]domain.VariantOption, error) {
	args := m.Called(ctx, productID, inputs)
	return args.Get(0).([]domain.VariantOption), args.Error(1)
}

func (m *MockVariantService) CreateVariant(ctx context.Context, productID int64, input domain.VariantInput) (domain.Variant, error) {
	args := m.Called(ctx, productID, input)
	return args.Get(0).(domain.Variant), args.Error(1)
}

func (m *MockVariantService) CreateVariantsBulk(ctx context.Context, productID int64, input domain.BulkVariantsInput) ([]domain.Variant, error) {
	args := m.Called(ctx, productID, input)
	return args.Get(0).([]domain.Variant), args.Error(1)
}

func (m *MockVariantService) UpdateVariant(ctx context.Context, caller domain.Caller, variantID int64, input domain.VariantInput) (domain.Variant, error) {
	args := m.Called(ctx, caller, variantID, input)
	return args.Get(0).(domain.Variant), args.Error(1)
}

func (m *MockVariantService) DeleteVariant(ctx context.Context, variantID int64) error {
	return m.Called(ctx, variantID).Error(0)
}

func (m *MockVariantService) UpdateStock(ctx context.Context, variantID int64, stock int) (domain.Variant, error) {
	args := m.Called(ctx, variantID, stock)
	return args.Get(0).(domain.Variant), args.Error(1)
}

func (m *MockVariantService) GetVariant(ctx context.Context, variantID int64) (domain.Variant, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).(domain.Variant), args.Error(1)
}

func (m *MockVariantService) ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Variant), args.Error(1)
}

func (m *MockVariantService) GetOptions(ctx context.Context, productID int64) ([]domain.VariantOption, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.VariantOption), args.Error(1)
}

func (m *MockVariantService) GetDefaultVariant(ctx context.Context, productID int64) (domain.Variant, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.Variant), args.Error(1)
}

func (m *MockVariantService) Summary(ctx context.Context, productID int64) (domain.VariantSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.VariantSummary), args.Error(1)
}

func request(method, target, body, id string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.SetPathValue("id", id)
	return req
}

func TestCreateVariantHandler_SKUConflict(t *testing.T) {
	svc := new(MockVariantService)
	h := variant.NewHandler(svc, logger.NewNop())
	svc.On("CreateVariant", mock.Anything, int64(1), mock.AnythingOfType("domain.VariantInput")).
		Return(domain.Variant{}, apperror.NewConflictError("SKU já utilizado."))

	rec := httptest.NewRecorder()
	h.CreateVariantHandler(rec, request(http.MethodPost, "/v1/products/1/variants", `{"sku":"TS-RED-M","price":"10.00"}`, "1"))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateVariantHandler_RejectsTooManyDecimals(t *testing.T) {
	svc := new(MockVariantService)
	h := variant.NewHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.CreateVariantHandler(rec, request(http.MethodPost, "/v1/products/1/variants", `{"sku":"TS-RED-M","price":"10.005"}`, "1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateVariant", mock.Anything, mock.Anything, mock.Anything)
}

func TestDefineOptionsHandler_DecodesList(t *testing.T) {
	svc := new(MockVariantService)
	h := variant.NewHandler(svc, logger.NewNop())
	in := []domain.VariantOptionInput{{Name: "Cor", Values: []string{"Vermelho", "Azul"}}}
	svc.On("DefineOptions", mock.Anything, int64(2), in).
		Return([]domain.VariantOption{{ID: 1, ProductID: 2, Name: "Cor", Values: []string{"Vermelho", "Azul"}}}, nil)

	rec := httptest.NewRecorder()
	h.DefineOptionsHandler(rec, request(http.MethodPut, "/v1/products/2/options", `[{"name":"Cor","values":["Vermelho","Azul"]}]`, "2"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Vermelho"`)
}

func TestUpdateStockHandler(t *testing.T) {
	svc := new(MockVariantService)
	h := variant.NewHandler(svc, logger.NewNop())
	svc.On("UpdateStock", mock.Anything, int64(7), 0).Return(domain.Variant{ID: 7, StockQuantity: 0}, nil)

	rec := httptest.NewRecorder()
	h.UpdateStockHandler(rec, request(http.MethodPatch, "/v1/variants/7/stock", `{"stock_quantity":0}`, "7"))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestListVariantsHandler_EmptyIsArray(t *testing.T) {
	svc := new(MockVariantService)
	h := variant.NewHandler(svc, logger.NewNop())
	svc.On("ListVariants", mock.Anything, int64(3)).Return([]domain.Variant(nil), nil)

	rec := httptest.NewRecorder()
	h.ListVariantsHandler(rec, request(http.MethodGet, "/v1/products/3/variants", "", "3"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetVariantHandler_InvalidID(t *testing.T) {
	svc := new(MockVariantService)
	h := variant.NewHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetVariantHandler(rec, request(http.MethodGet, "/v1/variants/x", "", "x"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
