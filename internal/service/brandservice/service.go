package brandservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
)

// Repository é o contrato de persistência de marcas (brandrepo).
type Repository interface {
	Create(ctx context.Context, brand domain.Brand) (domain.Brand, error)
	FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Brand, error)
	List(ctx context.Context) ([]domain.Brand, error)
	Update(ctx context.Context, brand domain.Brand) (domain.Brand, error)
	CountProducts(ctx context.Context, id int64) (int, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}

// BrandService contém a lógica de negócio das marcas.
type BrandService struct {
	repo    Repository
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo Repository, logger logger.Logger, m *metrics.Metrics) *BrandService {
	return &BrandService{repo: repo, logger: logger, metrics: m}
}

// CreateBrand cria uma marca. Nome duplicado é Conflict (índice único).
func (s *BrandService) CreateBrand(ctx context.Context, in domain.BrandInput) (brand domain.Brand, err error) {
	defer func() { s.metrics.CatalogOperation("brand", "create", err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		err = apperror.NewValidationError("O nome da marca é obrigatório.")
		return domain.Brand{}, err
	}
	return s.repo.Create(ctx, domain.Brand{Name: name})
}

func (s *BrandService) GetBrand(ctx context.Context, id int64) (domain.Brand, error) {
	return s.repo.FindByID(ctx, id, false)
}

func (s *BrandService) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	return s.repo.List(ctx)
}

func (s *BrandService) UpdateBrand(ctx context.Context, id int64, in domain.BrandInput) (brand domain.Brand, err error) {
	defer func() { s.metrics.CatalogOperation("brand", "update", err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		err = apperror.NewValidationError("O nome da marca é obrigatório.")
		return domain.Brand{}, err
	}
	return s.repo.Update(ctx, domain.Brand{ID: id, Name: name})
}

// DeleteBrand exclui logicamente a marca. É Conflict quando algum produto
// não excluído ainda a referencia ou quando ela já foi excluída.
func (s *BrandService) DeleteBrand(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.CatalogOperation("brand", "delete", err) }()

	brand, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return err
	}
	if brand.Lifecycle.IsDeleted() {
		err = apperror.NewConflictError(fmt.Sprintf("A marca %d já foi excluída.", id))
		return err
	}

	inUse, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		err = apperror.NewConflictError(fmt.Sprintf("A marca '%s' está em uso por %d produto(s).", brand.Name, inUse))
		return err
	}

	if err = s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	s.logger.Info("Marca excluída.", map[string]interface{}{"brand_id": id})
	return nil
}
