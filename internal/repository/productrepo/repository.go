package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
	"gocatalog/internal/repository/pricehistoryrepo"
)

// Define a chave de cache para produtos.
const productCacheKey = "product:%d"

const productColumns = `p.id, p.name, p.slug, p.description, p.price, p.availability, p.lifecycle,
        p.status_id, p.category_id, p.brand_id, p.deleted_at, p.created_at, p.updated_at`

// ProductRepository persiste produtos, imagens e atributos no PostgreSQL e
// mantém a leitura por ID em cache no Redis (cache-aside).
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	CacheTTL  time.Duration

	logger  logger.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger, m *metrics.Metrics) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
		metrics:   m,
	}
}

// Create insere um novo produto (sem imagens nem atributos).
func (r *ProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Iniciando Create de produto no repositório.", map[string]interface{}{"name": product.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Lifecycle = domain.LifecycleActive

	query := `
        INSERT INTO products (name, slug, description, price, availability, status_id, category_id, brand_id, lifecycle, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		product.Name, product.Slug, product.Description, product.Price, product.Availability,
		product.StatusID, product.CategoryID, product.BrandID, product.Lifecycle,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, apperror.FromDB("Falha ao criar produto", err)
	}

	product.Images = []domain.ProductImage{}
	product.Attributes = []domain.ProductAttribute{}
	r.logger.Info("Produto criado com sucesso.", map[string]interface{}{"product_id": product.ID, "slug": product.Slug})
	return product, nil
}

// FindByID busca um produto não excluído pelo ID, com status, imagens e
// atributos, utilizando a estratégia Cache-Aside. Leituras concorrentes do
// mesmo ID compartilham uma única ida ao banco.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	key := fmt.Sprintf(productCacheKey, id)

	// --- Cache-Aside (READ) ---
	cached, err := r.Cache.Get(ctx, key)
	switch {
	case err == nil:
		var product domain.Product
		if json.Unmarshal([]byte(cached), &product) == nil {
			r.metrics.CacheLookup("hit")
			return product, nil
		}
		r.logger.Warn("Entrada de cache corrompida, relendo do DB.", map[string]interface{}{"key": key})
		r.metrics.CacheLookup("error")
	case err == cache.ErrCacheMiss:
		r.metrics.CacheLookup("miss")
	default:
		// Falha real de cache (ex: conexão perdida): logamos, mas continuamos.
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
		r.metrics.CacheLookup("error")
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		product, err := r.load(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}

		// --- Cache-Aside (WRITE) ---
		if data, marshalErr := json.Marshal(product); marshalErr == nil {
			if setErr := r.Cache.Set(ctx, key, data, r.CacheTTL); setErr != nil {
				r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": setErr.Error()})
			}
		}
		return product, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

// FindAnyByID ignora o cache e devolve o produto mesmo que esteja excluído.
func (r *ProductRepository) FindAnyByID(ctx context.Context, id int64) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	product, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err != nil {
		return domain.Product{}, apperror.FromDB(fmt.Sprintf("Produto com ID %d não existe na base de dados.", id), err)
	}
	return product, nil
}

func (r *ProductRepository) load(ctx context.Context, id int64) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT ` + productColumns + `, s.code, s.label, s.display_order
        FROM products p
        JOIN product_statuses s ON s.id = p.status_id
        WHERE p.id = $1 AND p.lifecycle = 'ACTIVE'`

	var (
		product domain.Product
		status  domain.ProductStatus
	)
	row := r.DB.QueryRowContext(ctxTimeout, query, id)
	err := scanProductInto(row, &product, &status.Code, &status.Label, &status.DisplayOrder)
	if err != nil {
		if err != sql.ErrNoRows {
			r.logger.Error("Falha ao buscar produto no DB.", err)
		}
		return domain.Product{}, apperror.FromDB(fmt.Sprintf("Produto com ID %d não existe na base de dados.", id), err)
	}
	status.ID = product.StatusID
	product.Status = &status

	if product.Images, err = r.listImages(ctxTimeout, id); err != nil {
		return domain.Product{}, err
	}
	if product.Attributes, err = r.listAttributes(ctxTimeout, id); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) listImages(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, product_id, url, is_thumbnail, display_order, created_at
        FROM product_images WHERE product_id = $1
        ORDER BY display_order, id`, productID)
	if err != nil {
		return nil, apperror.FromDB("Falha ao listar imagens", err)
	}
	defer rows.Close()

	images := []domain.ProductImage{}
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.IsThumbnail, &img.DisplayOrder, &img.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao ler imagem", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro ao iterar imagens", err)
	}
	return images, nil
}

func (r *ProductRepository) listAttributes(ctx context.Context, productID int64) ([]domain.ProductAttribute, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, product_id, name, value
        FROM product_attributes WHERE product_id = $1
        ORDER BY id`, productID)
	if err != nil {
		return nil, apperror.FromDB("Falha ao listar atributos", err)
	}
	defer rows.Close()

	attrs := []domain.ProductAttribute{}
	for rows.Next() {
		var a domain.ProductAttribute
		if err := rows.Scan(&a.ID, &a.ProductID, &a.Name, &a.Value); err != nil {
			return nil, apperror.NewDBError("Falha ao ler atributo", err)
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro ao iterar atributos", err)
	}
	return attrs, nil
}

// Invalidate remove o produto do cache após qualquer alteração.
func (r *ProductRepository) Invalidate(ctx context.Context, id int64) {
	key := fmt.Sprintf(productCacheKey, id)
	if err := r.Cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Falha ao invalidar cache de produto.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// SoftDelete marca o produto como DELETED.
func (r *ProductRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE products SET lifecycle = 'DELETED', deleted_at = $2, updated_at = $2
        WHERE id = $1 AND lifecycle = 'ACTIVE'`, id, at)
	if err != nil {
		r.logger.Error("Falha ao excluir produto.", err)
		return apperror.FromDB("Falha ao excluir produto", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe na base de dados.", id))
	}
	return nil
}

// DeleteImage remove uma imagem do produto.
func (r *ProductRepository) DeleteImage(ctx context.Context, productID, imageID int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM product_images WHERE id = $1 AND product_id = $2`, imageID, productID)
	if err != nil {
		return apperror.FromDB("Falha ao remover imagem", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Imagem %d do produto %d não encontrada", imageID, productID))
	}
	return nil
}

// FindStatus busca um status pelo ID.
func (r *ProductRepository) FindStatus(ctx context.Context, id int64) (domain.ProductStatus, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var s domain.ProductStatus
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, code, label, display_order FROM product_statuses WHERE id = $1`, id,
	).Scan(&s.ID, &s.Code, &s.Label, &s.DisplayOrder)
	if err != nil {
		return domain.ProductStatus{}, apperror.FromDB(fmt.Sprintf("Status com ID %d não encontrado", id), err)
	}
	return s, nil
}

// ListStatuses devolve a tabela de referência em ordem de exibição.
func (r *ProductRepository) ListStatuses(ctx context.Context) ([]domain.ProductStatus, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT id, code, label, display_order FROM product_statuses ORDER BY display_order, id`)
	if err != nil {
		r.logger.Error("Falha ao listar status.", err)
		return nil, apperror.FromDB("Falha ao listar status", err)
	}
	defer rows.Close()

	statuses := []domain.ProductStatus{}
	for rows.Next() {
		var s domain.ProductStatus
		if err := rows.Scan(&s.ID, &s.Code, &s.Label, &s.DisplayOrder); err != nil {
			return nil, apperror.NewDBError("Falha ao ler status", err)
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro ao iterar status", err)
	}
	return statuses, nil
}

// WithinTx executa fn em uma transação. Commit se fn retornar nil.
func (r *ProductRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.ProductTx) error) error {
	return database.WithTx(ctx, r.DB, r.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &productTx{q: tx})
	})
}

// LockProduct carrega o produto não excluído com SELECT ... FOR UPDATE.
// Compartilhado com o variantrepo, que trava o produto antes de mexer nas variantes.
func LockProduct(ctx context.Context, q database.Querier, id int64) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 AND p.lifecycle = 'ACTIVE' FOR UPDATE`

	product, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.Product{}, apperror.FromDB(fmt.Sprintf("Produto com ID %d não existe na base de dados.", id), err)
	}
	return product, nil
}

type productTx struct {
	q database.Querier
}

func (t *productTx) InsertPriceHistory(ctx context.Context, entry domain.PriceHistory) (domain.PriceHistory, error) {
	return pricehistoryrepo.Insert(ctx, t.q, entry)
}

func (t *productTx) LockProduct(ctx context.Context, id int64) (domain.Product, error) {
	return LockProduct(ctx, t.q, id)
}

func (t *productTx) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.UpdatedAt = time.Now().UTC()

	res, err := t.q.ExecContext(ctx, `
        UPDATE products
        SET name = $2, slug = $3, description = $4, price = $5, availability = $6,
            status_id = $7, category_id = $8, brand_id = $9, updated_at = $10
        WHERE id = $1 AND lifecycle = 'ACTIVE'`,
		product.ID, product.Name, product.Slug, product.Description, product.Price, product.Availability,
		product.StatusID, product.CategoryID, product.BrandID, product.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, apperror.FromDB("Falha ao atualizar produto", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe na base de dados.", product.ID))
	}
	return product, nil
}

func (t *productTx) CountImages(ctx context.Context, productID int64) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_images WHERE product_id = $1`, productID).Scan(&n)
	if err != nil {
		return 0, apperror.FromDB("Falha ao contar imagens", err)
	}
	return n, nil
}

func (t *productTx) ClearThumbnail(ctx context.Context, productID int64) error {
	_, err := t.q.ExecContext(ctx, `UPDATE product_images SET is_thumbnail = false WHERE product_id = $1 AND is_thumbnail`, productID)
	if err != nil {
		return apperror.FromDB("Falha ao limpar miniatura", err)
	}
	return nil
}

func (t *productTx) InsertImage(ctx context.Context, image domain.ProductImage) (domain.ProductImage, error) {
	image.CreatedAt = time.Now().UTC()
	err := t.q.QueryRowContext(ctx, `
        INSERT INTO product_images (product_id, url, is_thumbnail, display_order, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`,
		image.ProductID, image.URL, image.IsThumbnail, image.DisplayOrder, image.CreatedAt,
	).Scan(&image.ID)
	if err != nil {
		return domain.ProductImage{}, apperror.FromDB("Falha ao inserir imagem", err)
	}
	return image, nil
}

func (t *productTx) ReplaceAttributes(ctx context.Context, productID int64, attributes []domain.ProductAttribute) ([]domain.ProductAttribute, error) {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM product_attributes WHERE product_id = $1`, productID); err != nil {
		return nil, apperror.FromDB("Falha ao remover atributos", err)
	}

	saved := make([]domain.ProductAttribute, 0, len(attributes))
	for _, a := range attributes {
		a.ProductID = productID
		err := t.q.QueryRowContext(ctx,
			`INSERT INTO product_attributes (product_id, name, value) VALUES ($1, $2, $3) RETURNING id`,
			a.ProductID, a.Name, a.Value,
		).Scan(&a.ID)
		if err != nil {
			return nil, apperror.FromDB("Falha ao inserir atributo "+strconv.Quote(a.Name), err)
		}
		saved = append(saved, a)
	}
	return saved, nil
}

func scanProduct(row database.RowScanner) (domain.Product, error) {
	var product domain.Product
	err := scanProductInto(row, &product)
	return product, err
}

// scanProductInto lê as colunas de productColumns seguidas de extra.
func scanProductInto(row database.RowScanner, product *domain.Product, extra ...interface{}) error {
	var (
		categoryID sql.NullInt64
		brandID    sql.NullInt64
		deletedAt  sql.NullTime
	)
	dest := []interface{}{
		&product.ID, &product.Name, &product.Slug, &product.Description, &product.Price,
		&product.Availability, &product.Lifecycle, &product.StatusID, &categoryID, &brandID,
		&deletedAt, &product.CreatedAt, &product.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	product.CategoryID = database.Int64Ptr(categoryID)
	product.BrandID = database.Int64Ptr(brandID)
	product.DeletedAt = database.TimePtr(deletedAt)
	return nil
}
