package brand_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gocatalog/internal/api/brand"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

type MockBrandService struct {
	mock.Mock
}

func (m *MockBrandService) CreateBrand(ctx context.Context, in domain.BrandInput) (domain.Brand, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Brand), args.Error(1)
}

func (m *MockBrandService) GetBrand(ctx context.Context, id int64) (domain.Brand, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Brand), args.Error(1)
}

func (m *MockBrandService) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Brand), args.Error(1)
}

func (m *MockBrandService) UpdateBrand(ctx context.Context, id int64, in domain.BrandInput) (domain.Brand, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(domain.Brand), args.Error(1)
}

func (m *MockBrandService) DeleteBrand(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestCreateBrandHandler(t *testing.T) {
	svc := new(MockBrandService)
	h := brand.NewHandler(svc, logger.NewNop())
	svc.On("CreateBrand", mock.Anything, domain.BrandInput{Name: "Acme"}).Return(domain.Brand{ID: 1, Name: "Acme"}, nil)

	rec := httptest.NewRecorder()
	h.CreateBrandHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/brands", strings.NewReader(`{"name":"Acme"}`)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Acme"`)
}

func TestDeleteBrandHandler_InUse(t *testing.T) {
	svc := new(MockBrandService)
	h := brand.NewHandler(svc, logger.NewNop())
	svc.On("DeleteBrand", mock.Anything, int64(1)).Return(apperror.NewConflictError("A marca 'Acme' está em uso."))

	req := httptest.NewRequest(http.MethodDelete, "/v1/brands/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.DeleteBrandHandler(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListBrandsHandler_EmptyIsArray(t *testing.T) {
	svc := new(MockBrandService)
	h := brand.NewHandler(svc, logger.NewNop())
	svc.On("ListBrands", mock.Anything).Return([]domain.Brand(nil), nil)

	rec := httptest.NewRecorder()
	h.ListBrandsHandler(rec, httptest.NewRequest(http.MethodGet, "/v1/brands", nil))

	assert.JSONEq(t, `[]`, rec.Body.String())
}
