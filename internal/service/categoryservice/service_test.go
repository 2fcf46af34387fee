package categoryservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/service/categoryservice"
)

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Category, error) {
	args := m.Called(ctx, id, includeDeleted)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListChildren(ctx context.Context, parentID int64) ([]domain.Category, error) {
	args := m.Called(ctx, parentID)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListRoots(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) CountDependents(ctx context.Context, id int64) (int, int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockCategoryRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func int64Ptr(v int64) *int64 { return &v }

func TestCreateCategory_DerivesSlugAndChecksParent(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewLogger("debug"), nil)

	repo.On("FindByID", mock.Anything, int64(1), false).Return(domain.Category{ID: 1, Name: "Roupas"}, nil)
	repo.On("Create", mock.Anything, domain.Category{Name: "Calçados Femininos", Slug: "calcados-femininos", ParentID: int64Ptr(1)}).
		Return(domain.Category{ID: 2}, nil)

	category, err := svc.CreateCategory(context.Background(), domain.CategoryInput{Name: "Calçados Femininos", ParentID: int64Ptr(1)})

	require.NoError(t, err)
	assert.Equal(t, int64(2), category.ID)
}

func TestCreateCategory_UnknownParent(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewLogger("debug"), nil)
	repo.On("FindByID", mock.Anything, int64(5), false).Return(domain.Category{}, apperror.NewNotFoundError("Categoria 5"))

	_, err := svc.CreateCategory(context.Background(), domain.CategoryInput{Name: "Tênis", ParentID: int64Ptr(5)})

	assert.True(t, apperror.IsNotFound(err))
}

func TestGetCategory_IncludesChildren(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewLogger("debug"), nil)
	children := []domain.Category{{ID: 2, Name: "Tênis"}}
	repo.On("FindByID", mock.Anything, int64(1), false).Return(domain.Category{ID: 1, Name: "Calçados"}, nil)
	repo.On("ListChildren", mock.Anything, int64(1)).Return(children, nil)

	category, err := svc.GetCategory(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, children, category.Children)
}

func TestUpdateCategory_RejectsCycles(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewLogger("debug"), nil)

	_, err := svc.UpdateCategory(context.Background(), 1, domain.CategoryInput{Name: "Calçados", ParentID: int64Ptr(1)})
	assert.True(t, apperror.IsValidation(err))

	// 1 <- 2 <- 3: mover 1 para debaixo de 3 criaria um ciclo.
	repo.On("FindByID", mock.Anything, int64(3), false).Return(domain.Category{ID: 3, ParentID: int64Ptr(2)}, nil)
	repo.On("FindByID", mock.Anything, int64(2), false).Return(domain.Category{ID: 2, ParentID: int64Ptr(1)}, nil)

	_, err = svc.UpdateCategory(context.Background(), 1, domain.CategoryInput{Name: "Calçados", ParentID: int64Ptr(3)})
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteCategory_WithDependentsIsConflict(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewLogger("debug"), nil)
	repo.On("FindByID", mock.Anything, int64(1), true).Return(domain.Category{ID: 1, Lifecycle: domain.LifecycleActive}, nil)
	repo.On("CountDependents", mock.Anything, int64(1)).Return(0, 1, nil)

	assert.True(t, apperror.IsConflict(svc.DeleteCategory(context.Background(), 1)))
	repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteCategory_SoftDeletesWhenEmpty(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := categoryservice.NewService(repo, logger.NewLogger("debug"), nil)
	repo.On("FindByID", mock.Anything, int64(1), true).Return(domain.Category{ID: 1, Lifecycle: domain.LifecycleActive}, nil)
	repo.On("CountDependents", mock.Anything, int64(1)).Return(0, 0, nil)
	repo.On("SoftDelete", mock.Anything, int64(1), mock.AnythingOfType("time.Time")).Return(nil)

	assert.NoError(t, svc.DeleteCategory(context.Background(), 1))

	deleted := new(MockCategoryRepository)
	svc = categoryservice.NewService(deleted, logger.NewLogger("debug"), nil)
	deleted.On("FindByID", mock.Anything, int64(1), true).Return(domain.Category{ID: 1, Lifecycle: domain.LifecycleDeleted}, nil)
	assert.True(t, apperror.IsConflict(svc.DeleteCategory(context.Background(), 1)))
}
