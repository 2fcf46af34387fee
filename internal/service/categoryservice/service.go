package categoryservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
	"gocatalog/internal/pkg/slug"
)

// Repository é o contrato de persistência de categorias (categoryrepo).
type Repository interface {
	Create(ctx context.Context, category domain.Category) (domain.Category, error)
	FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Category, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.Category, error)
	ListRoots(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, category domain.Category) (domain.Category, error)
	CountDependents(ctx context.Context, id int64) (products int, children int, err error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}

// CategoryService contém a lógica da árvore de categorias.
type CategoryService struct {
	repo    Repository
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo Repository, logger logger.Logger, m *metrics.Metrics) *CategoryService {
	return &CategoryService{repo: repo, logger: logger, metrics: m}
}

// CreateCategory cria uma categoria; o pai, quando informado, precisa existir.
func (s *CategoryService) CreateCategory(ctx context.Context, in domain.CategoryInput) (category domain.Category, err error) {
	defer func() { s.metrics.CatalogOperation("category", "create", err) }()

	name, err := validName(in.Name)
	if err != nil {
		return domain.Category{}, err
	}
	if in.ParentID != nil {
		if _, err = s.repo.FindByID(ctx, *in.ParentID, false); err != nil {
			return domain.Category{}, err
		}
	}
	return s.repo.Create(ctx, domain.Category{Name: name, Slug: slug.Make(name), ParentID: in.ParentID})
}

// GetCategory devolve a categoria com seus filhos diretos não excluídos.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	category, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return domain.Category{}, err
	}
	if category.Children, err = s.repo.ListChildren(ctx, id); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) ListRootCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListRoots(ctx)
}

// UpdateCategory renomeia e/ou move a categoria. Ciclos diretos e indiretos
// são recusados.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, in domain.CategoryInput) (category domain.Category, err error) {
	defer func() { s.metrics.CatalogOperation("category", "update", err) }()

	name, err := validName(in.Name)
	if err != nil {
		return domain.Category{}, err
	}
	if in.ParentID != nil {
		if err = s.checkParent(ctx, id, *in.ParentID); err != nil {
			return domain.Category{}, err
		}
	}
	return s.repo.Update(ctx, domain.Category{ID: id, Name: name, Slug: slug.Make(name), ParentID: in.ParentID})
}

// checkParent sobe a árvore a partir de parentID; encontrar id significa ciclo.
func (s *CategoryService) checkParent(ctx context.Context, id, parentID int64) error {
	if parentID == id {
		return apperror.NewValidationError("Uma categoria não pode ser pai de si mesma.")
	}
	seen := map[int64]bool{}
	for next := &parentID; next != nil; {
		if *next == id {
			return apperror.NewValidationError("A categoria não pode ser movida para dentro de um descendente.")
		}
		if seen[*next] {
			break
		}
		seen[*next] = true

		ancestor, err := s.repo.FindByID(ctx, *next, false)
		if err != nil {
			return err
		}
		next = ancestor.ParentID
	}
	return nil
}

// DeleteCategory exclui logicamente a categoria. Conflict quando ainda há
// produtos ou subcategorias não excluídos, ou quando já foi excluída.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.CatalogOperation("category", "delete", err) }()

	category, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return err
	}
	if category.Lifecycle.IsDeleted() {
		err = apperror.NewConflictError(fmt.Sprintf("A categoria %d já foi excluída.", id))
		return err
	}

	products, children, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 || children > 0 {
		err = apperror.NewConflictError(fmt.Sprintf(
			"A categoria '%s' possui %d produto(s) e %d subcategoria(s).", category.Name, products, children))
		return err
	}

	if err = s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	s.logger.Info("Categoria excluída.", map[string]interface{}{"category_id": id})
	return nil
}

func validName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperror.NewValidationError("O nome da categoria é obrigatório.")
	}
	if slug.Make(name) == "" {
		return "", apperror.NewValidationErrorf("O nome '%s' não gera um slug válido.", name)
	}
	return name, nil
}
