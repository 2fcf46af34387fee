package brandrepo

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

// BrandRepository implementa o CRUD de marcas.
type BrandRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewBrandRepository cria e retorna uma nova instância do Repositório de Marcas.
func NewBrandRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *BrandRepository {
	return &BrandRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Create insere uma nova marca. Nome duplicado vira ConflictError.
func (r *BrandRepository) Create(ctx context.Context, brand domain.Brand) (domain.Brand, error) {
	r.logger.Debug("Iniciando Create de marca no repositório.", map[string]interface{}{"name": brand.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	brand.CreatedAt = now
	brand.UpdatedAt = now
	brand.Lifecycle = domain.LifecycleActive

	query := `
        INSERT INTO brands (name, lifecycle, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	if err := r.DB.QueryRowContext(ctxTimeout, query, brand.Name, brand.Lifecycle, brand.CreatedAt, brand.UpdatedAt).Scan(&brand.ID); err != nil {
		r.logger.Error("Falha ao inserir marca no DB.", err)
		return domain.Brand{}, apperror.FromDB("Falha ao criar marca", err)
	}

	r.logger.Info("Marca criada com sucesso.", map[string]interface{}{"brand_id": brand.ID, "name": brand.Name})
	return brand, nil
}

// FindByID busca uma marca pelo ID. Com includeDeleted=false, marcas
// excluídas respondem NotFound.
func (r *BrandRepository) FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Brand, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, name, lifecycle, deleted_at, created_at, updated_at
        FROM brands
        WHERE id = $1 AND ($2 OR lifecycle = 'ACTIVE')`

	brand, err := scanBrand(r.DB.QueryRowContext(ctxTimeout, query, id, includeDeleted))
	if err != nil {
		return domain.Brand{}, apperror.FromDB(fmt.Sprintf("Marca com ID %d não encontrada", id), err)
	}
	return brand, nil
}

// List devolve as marcas não excluídas em ordem alfabética.
func (r *BrandRepository) List(ctx context.Context) ([]domain.Brand, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, name, lifecycle, deleted_at, created_at, updated_at
        FROM brands
        WHERE lifecycle = 'ACTIVE'
        ORDER BY name`)
	if err != nil {
		r.logger.Error("Falha ao listar marcas no DB.", err)
		return nil, apperror.FromDB("Falha ao listar marcas", err)
	}
	defer rows.Close()

	brands := []domain.Brand{}
	for rows.Next() {
		brand, err := scanBrand(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler marca", err)
		}
		brands = append(brands, brand)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro ao iterar marcas", err)
	}
	return brands, nil
}

// Update renomeia uma marca não excluída.
func (r *BrandRepository) Update(ctx context.Context, brand domain.Brand) (domain.Brand, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE brands SET name = $2, updated_at = $3
        WHERE id = $1 AND lifecycle = 'ACTIVE'
        RETURNING id, name, lifecycle, deleted_at, created_at, updated_at`

	updated, err := scanBrand(r.DB.QueryRowContext(ctxTimeout, query, brand.ID, brand.Name, time.Now().UTC()))
	if err != nil {
		r.logger.Error("Falha ao atualizar marca no DB.", err)
		return domain.Brand{}, apperror.FromDB(fmt.Sprintf("Marca com ID %d não encontrada", brand.ID), err)
	}
	return updated, nil
}

// CountProducts conta os produtos não excluídos que referenciam a marca.
func (r *BrandRepository) CountProducts(ctx context.Context, id int64) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT COUNT(*) FROM products WHERE brand_id = $1 AND lifecycle = 'ACTIVE'`, id,
	).Scan(&n)
	if err != nil {
		return 0, apperror.FromDB("Falha ao contar produtos da marca", err)
	}
	return n, nil
}

// SoftDelete marca a marca como DELETED.
func (r *BrandRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE brands SET lifecycle = 'DELETED', deleted_at = $2, updated_at = $2
        WHERE id = $1 AND lifecycle = 'ACTIVE'`, id, at)
	if err != nil {
		r.logger.Error("Falha ao excluir marca no DB.", err)
		return apperror.FromDB("Falha ao excluir marca", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Marca com ID %d não encontrada", id))
	}
	return nil
}

func scanBrand(row database.RowScanner) (domain.Brand, error) {
	var (
		brand     domain.Brand
		deletedAt sql.NullTime
	)
	if err := row.Scan(&brand.ID, &brand.Name, &brand.Lifecycle, &deletedAt, &brand.CreatedAt, &brand.UpdatedAt); err != nil {
		return domain.Brand{}, err
	}
	brand.DeletedAt = database.TimePtr(deletedAt)
	return brand, nil
}
