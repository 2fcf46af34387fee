package categoryrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
)

const categoryColumns = `id, name, slug, parent_id, lifecycle, deleted_at, created_at, updated_at`

// CategoryRepository implementa o CRUD da árvore de categorias.
type CategoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewCategoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Create insere uma nova categoria. Nome ou slug duplicado vira ConflictError.
func (r *CategoryRepository) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	r.logger.Debug("Iniciando Create de categoria no repositório.", map[string]interface{}{"name": category.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	category.Lifecycle = domain.LifecycleActive

	query := `
        INSERT INTO categories (name, slug, parent_id, lifecycle, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		category.Name, category.Slug, category.ParentID, category.Lifecycle, category.CreatedAt, category.UpdatedAt,
	).Scan(&category.ID)
	if err != nil {
		r.logger.Error("Falha ao inserir categoria no DB.", err)
		return domain.Category{}, apperror.FromDB("Falha ao criar categoria", err)
	}

	r.logger.Info("Categoria criada com sucesso.", map[string]interface{}{"category_id": category.ID, "slug": category.Slug})
	return category, nil
}

// FindByID busca uma categoria pelo ID (sem os filhos).
func (r *CategoryRepository) FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND ($2 OR lifecycle = 'ACTIVE')`

	category, err := scanCategory(r.DB.QueryRowContext(ctxTimeout, query, id, includeDeleted))
	if err != nil {
		return domain.Category{}, apperror.FromDB(fmt.Sprintf("Categoria com ID %d não encontrada", id), err)
	}
	return category, nil
}

// ListChildren devolve os filhos diretos não excluídos de parentID.
func (r *CategoryRepository) ListChildren(ctx context.Context, parentID int64) ([]domain.Category, error) {
	return r.list(ctx, `WHERE parent_id = $1 AND lifecycle = 'ACTIVE' ORDER BY name`, parentID)
}

// ListRoots devolve as categorias de primeiro nível não excluídas.
func (r *CategoryRepository) ListRoots(ctx context.Context) ([]domain.Category, error) {
	return r.list(ctx, `WHERE parent_id IS NULL AND lifecycle = 'ACTIVE' ORDER BY name`)
}

func (r *CategoryRepository) list(ctx context.Context, where string, args ...interface{}) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT `+categoryColumns+` FROM categories `+where, args...)
	if err != nil {
		r.logger.Error("Falha ao listar categorias no DB.", err)
		return nil, apperror.FromDB("Falha ao listar categorias", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler categoria", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro ao iterar categorias", err)
	}
	return categories, nil
}

// Update altera nome, slug e pai de uma categoria não excluída.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE categories SET name = $2, slug = $3, parent_id = $4, updated_at = $5
        WHERE id = $1 AND lifecycle = 'ACTIVE'
        RETURNING ` + categoryColumns

	updated, err := scanCategory(r.DB.QueryRowContext(ctxTimeout, query,
		category.ID, category.Name, category.Slug, category.ParentID, time.Now().UTC()))
	if err != nil {
		r.logger.Error("Falha ao atualizar categoria no DB.", err)
		return domain.Category{}, apperror.FromDB(fmt.Sprintf("Categoria com ID %d não encontrada", category.ID), err)
	}
	return updated, nil
}

// CountDependents conta produtos e subcategorias não excluídos que apontam para a categoria.
func (r *CategoryRepository) CountDependents(ctx context.Context, id int64) (products int, children int, err error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	err = r.DB.QueryRowContext(ctxTimeout, `
        SELECT
            (SELECT COUNT(*) FROM products WHERE category_id = $1 AND lifecycle = 'ACTIVE'),
            (SELECT COUNT(*) FROM categories WHERE parent_id = $1 AND lifecycle = 'ACTIVE')`, id,
	).Scan(&products, &children)
	if err != nil {
		return 0, 0, apperror.FromDB("Falha ao contar dependentes da categoria", err)
	}
	return products, children, nil
}

// SoftDelete marca a categoria como DELETED.
func (r *CategoryRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE categories SET lifecycle = 'DELETED', deleted_at = $2, updated_at = $2
        WHERE id = $1 AND lifecycle = 'ACTIVE'`, id, at)
	if err != nil {
		r.logger.Error("Falha ao excluir categoria no DB.", err)
		return apperror.FromDB("Falha ao excluir categoria", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %d não encontrada", id))
	}
	return nil
}

func scanCategory(row database.RowScanner) (domain.Category, error) {
	var (
		category  domain.Category
		parentID  sql.NullInt64
		deletedAt sql.NullTime
	)
	err := row.Scan(&category.ID, &category.Name, &category.Slug, &parentID, &category.Lifecycle,
		&deletedAt, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return domain.Category{}, err
	}
	category.ParentID = database.Int64Ptr(parentID)
	category.DeletedAt = database.TimePtr(deletedAt)
	return category, nil
}
