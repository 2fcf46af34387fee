package productservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/service/pricehistoryservice"
	"gocatalog/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface Repository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAnyByID(ctx context.Context, id int64) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockProductRepository) DeleteImage(ctx context.Context, productID, imageID int64) error {
	return m.Called(ctx, productID, imageID).Error(0)
}

func (m *MockProductRepository) FindStatus(ctx context.Context, id int64) (domain.ProductStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ProductStatus), args.Error(1)
}

func (m *MockProductRepository) ListStatuses(ctx context.Context) ([]domain.ProductStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ProductStatus), args.Error(1)
}

// WithinTx executa fn com o MockProductTx configurado no primeiro retorno.
func (m *MockProductRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.ProductTx) error) error {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(domain.ProductTx); ok {
		if err := fn(ctx, tx); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockProductRepository) Invalidate(ctx context.Context, id int64) {
	m.Called(ctx, id)
}

type MockProductTx struct {
	mock.Mock
}

func (m *MockProductTx) InsertPriceHistory(ctx context.Context, entry domain.PriceHistory) (domain.PriceHistory, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(domain.PriceHistory), args.Error(1)
}

func (m *MockProductTx) LockProduct(ctx context.Context, id int64) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductTx) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductTx) CountImages(ctx context.Context, productID int64) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

func (m *MockProductTx) ClearThumbnail(ctx context.Context, productID int64) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *MockProductTx) InsertImage(ctx context.Context, image domain.ProductImage) (domain.ProductImage, error) {
	args := m.Called(ctx, image)
	return args.Get(0).(domain.ProductImage), args.Error(1)
}

func (m *MockProductTx) ReplaceAttributes(ctx context.Context, productID int64, attributes []domain.ProductAttribute) ([]domain.ProductAttribute, error) {
	args := m.Called(ctx, productID, attributes)
	return args.Get(0).([]domain.ProductAttribute), args.Error(1)
}

type MockQueryRepository struct {
	mock.Mock
}

func (m *MockQueryRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.ProductSummary), args.Get(1).(int64), args.Error(2)
}

type MockBrandReader struct {
	mock.Mock
}

func (m *MockBrandReader) FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Brand, error) {
	args := m.Called(ctx, id, includeDeleted)
	return args.Get(0).(domain.Brand), args.Error(1)
}

type MockCategoryReader struct {
	mock.Mock
}

func (m *MockCategoryReader) FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Category, error) {
	args := m.Called(ctx, id, includeDeleted)
	return args.Get(0).(domain.Category), args.Error(1)
}

type fixture struct {
	repo       *MockProductRepository
	tx         *MockProductTx
	queries    *MockQueryRepository
	brands     *MockBrandReader
	categories *MockCategoryReader
	svc        *productservice.ProductService
}

func newFixture() *fixture {
	log := logger.NewLogger("debug")
	f := &fixture{
		repo:       new(MockProductRepository),
		tx:         new(MockProductTx),
		queries:    new(MockQueryRepository),
		brands:     new(MockBrandReader),
		categories: new(MockCategoryReader),
	}
	f.svc = productservice.NewService(f.repo, f.queries, f.brands, f.categories,
		pricehistoryservice.NewRecorder(nil, log), log, nil, 100)
	return f
}

var admin = domain.Caller{UserID: "admin-1", Role: domain.RoleAdmin}

func validInput() domain.ProductInput {
	return domain.ProductInput{Name: "Café Especial", Price: decimal.RequireFromString("39.90"), Availability: 3, StatusID: 1}
}

func TestListProducts_PagesOverTwentyFive(t *testing.T) {
	f := newFixture()
	content := make([]domain.ProductSummary, 10)
	f.queries.On("ListProducts", mock.Anything, domain.ProductFilter{PageRequest: domain.PageRequest{Page: 0, Size: 10}}).
		Return(content, int64(25), nil)

	page, err := f.svc.ListProducts(context.Background(), domain.ProductFilter{PageRequest: domain.PageRequest{Page: 0, Size: 10}})

	require.NoError(t, err)
	assert.Len(t, page.Content, 10)
	assert.Equal(t, int64(25), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.Last)
}

func TestListProducts_NormalizesPageAndSearch(t *testing.T) {
	f := newFixture()
	f.queries.On("ListProducts", mock.Anything, domain.ProductFilter{Search: "café", PageRequest: domain.PageRequest{Page: 2, Size: 100}}).
		Return([]domain.ProductSummary{}, int64(0), nil)

	page, err := f.svc.ListProducts(context.Background(), domain.ProductFilter{Search: "  café ", PageRequest: domain.PageRequest{Page: 2, Size: 1000}})

	require.NoError(t, err)
	assert.Equal(t, 100, page.Size)
	f.queries.AssertExpectations(t)
}

func TestCreateProduct_DerivesSlug(t *testing.T) {
	f := newFixture()
	f.repo.On("FindStatus", mock.Anything, int64(1)).Return(domain.ProductStatus{ID: 1, Code: "DRAFT"}, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.Name == "Café Especial" && p.Slug == "cafe-especial"
	})).Return(domain.Product{ID: 10, Name: "Café Especial", Slug: "cafe-especial"}, nil)

	in := validInput()
	in.Name = "  Café Especial "
	product, err := f.svc.CreateProduct(context.Background(), admin, in)

	require.NoError(t, err)
	assert.Equal(t, int64(10), product.ID)
	f.repo.AssertExpectations(t)
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	cases := map[string]func(*domain.ProductInput){
		"blank name":            func(in *domain.ProductInput) { in.Name = "   " },
		"zero price":            func(in *domain.ProductInput) { in.Price = decimal.Zero },
		"negative availability": func(in *domain.ProductInput) { in.Availability = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			in := validInput()
			mutate(&in)

			_, err := f.svc.CreateProduct(context.Background(), admin, in)

			assert.True(t, apperror.IsValidation(err))
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateProduct_DeletedBrandIsNotFound(t *testing.T) {
	f := newFixture()
	brandID := int64(4)
	f.repo.On("FindStatus", mock.Anything, int64(1)).Return(domain.ProductStatus{ID: 1}, nil)
	f.brands.On("FindByID", mock.Anything, brandID, false).Return(domain.Brand{}, apperror.NewNotFoundError("Marca 4"))

	in := validInput()
	in.BrandID = &brandID
	_, err := f.svc.CreateProduct(context.Background(), admin, in)

	assert.True(t, apperror.IsNotFound(err))
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdatePrice_RecordsOneRowOnChange(t *testing.T) {
	f := newFixture()
	current := domain.Product{ID: 7, Price: decimal.RequireFromString("100.00")}
	f.repo.On("WithinTx", mock.Anything).Return(f.tx, nil)
	f.repo.On("Invalidate", mock.Anything, int64(7)).Return()
	f.tx.On("LockProduct", mock.Anything, int64(7)).Return(current, nil)
	f.tx.On("UpdateProduct", mock.Anything, mock.Anything).Return(domain.Product{ID: 7, Price: decimal.RequireFromString("120.00")}, nil)
	f.tx.On("InsertPriceHistory", mock.Anything, mock.MatchedBy(func(e domain.PriceHistory) bool {
		return e.ProductID == 7 && e.VariantID == nil &&
			e.OldPrice.Equal(decimal.NewFromInt(100)) && e.NewPrice.Equal(decimal.NewFromInt(120)) &&
			*e.Reason == "promoção" && *e.ChangedBy == "admin-1"
	})).Return(domain.PriceHistory{ID: 1}, nil).Once()

	product, err := f.svc.UpdatePrice(context.Background(), admin, 7, domain.PriceUpdate{Price: decimal.RequireFromString("120.00"), Reason: "promoção"})

	require.NoError(t, err)
	assert.True(t, product.Price.Equal(decimal.NewFromInt(120)))
	f.tx.AssertExpectations(t)
	f.repo.AssertCalled(t, "Invalidate", mock.Anything, int64(7))
}

func TestUpdatePrice_SamePriceWritesNoHistory(t *testing.T) {
	f := newFixture()
	f.repo.On("WithinTx", mock.Anything).Return(f.tx, nil)
	f.repo.On("Invalidate", mock.Anything, int64(7)).Return()
	f.tx.On("LockProduct", mock.Anything, int64(7)).Return(domain.Product{ID: 7, Price: decimal.RequireFromString("100")}, nil)
	f.tx.On("UpdateProduct", mock.Anything, mock.Anything).Return(domain.Product{ID: 7, Price: decimal.RequireFromString("100.00")}, nil)

	_, err := f.svc.UpdatePrice(context.Background(), admin, 7, domain.PriceUpdate{Price: decimal.RequireFromString("100.00")})

	require.NoError(t, err)
	f.tx.AssertNotCalled(t, "InsertPriceHistory", mock.Anything, mock.Anything)
}

func TestUpdatePrice_RejectsNonPositive(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdatePrice(context.Background(), admin, 7, domain.PriceUpdate{Price: decimal.NewFromInt(-5)})

	assert.True(t, apperror.IsValidation(err))
	f.repo.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture()
	f.repo.On("FindAnyByID", mock.Anything, int64(1)).Return(domain.Product{ID: 1, Lifecycle: domain.LifecycleActive}, nil)
	f.repo.On("FindAnyByID", mock.Anything, int64(2)).Return(domain.Product{ID: 2, Lifecycle: domain.LifecycleDeleted}, nil)
	f.repo.On("SoftDelete", mock.Anything, int64(1), mock.AnythingOfType("time.Time")).Return(nil)
	f.repo.On("Invalidate", mock.Anything, int64(1)).Return()

	assert.NoError(t, f.svc.DeleteProduct(context.Background(), 1))
	assert.True(t, apperror.IsConflict(f.svc.DeleteProduct(context.Background(), 2)))
	f.repo.AssertNumberOfCalls(t, "SoftDelete", 1)
}

func TestAddImage_LimitAndThumbnail(t *testing.T) {
	f := newFixture()
	f.repo.On("WithinTx", mock.Anything).Return(f.tx, nil)
	f.repo.On("Invalidate", mock.Anything, int64(3)).Return()
	f.tx.On("LockProduct", mock.Anything, int64(3)).Return(domain.Product{ID: 3}, nil)
	f.tx.On("CountImages", mock.Anything, int64(3)).Return(2, nil).Once()
	f.tx.On("ClearThumbnail", mock.Anything, int64(3)).Return(nil).Once()
	f.tx.On("InsertImage", mock.Anything, domain.ProductImage{ProductID: 3, URL: "https://cdn.example.com/a.png", IsThumbnail: true, DisplayOrder: 2}).
		Return(domain.ProductImage{ID: 9, ProductID: 3, IsThumbnail: true}, nil)

	img, err := f.svc.AddImage(context.Background(), 3, domain.ImageInput{URL: "https://cdn.example.com/a.png", IsThumbnail: true})
	require.NoError(t, err)
	assert.Equal(t, int64(9), img.ID)

	f.tx.On("CountImages", mock.Anything, int64(3)).Return(domain.MaxImagesPerProduct, nil).Once()
	_, err = f.svc.AddImage(context.Background(), 3, domain.ImageInput{URL: "https://cdn.example.com/b.png"})
	assert.True(t, apperror.IsValidation(err))
	f.tx.AssertNumberOfCalls(t, "InsertImage", 1)
}

func TestReplaceAttributes_RejectsDuplicates(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ReplaceAttributes(context.Background(), 3, []domain.AttributeInput{
		{Name: "Peso", Value: "1kg"}, {Name: "peso", Value: "2kg"},
	})

	assert.True(t, apperror.IsValidation(err))
	f.repo.AssertNotCalled(t, "WithinTx", mock.Anything)
}
