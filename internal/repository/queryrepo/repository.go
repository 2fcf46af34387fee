// Package queryrepo é o read model do catálogo: listagens paginadas e
// agregados, lidos com sqlx direto para structs de linha.
package queryrepo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
)

// QueryRepository executa as consultas somente-leitura do catálogo.
type QueryRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewQueryRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *QueryRepository {
	return &QueryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type productRow struct {
	ID           int64           `db:"id"`
	Name         string          `db:"name"`
	Slug         string          `db:"slug"`
	Description  string          `db:"description"`
	Price        decimal.Decimal `db:"price"`
	Availability int             `db:"availability"`
	StatusID     int64           `db:"status_id"`
	StatusCode   string          `db:"status_code"`
	CategoryID   sql.NullInt64   `db:"category_id"`
	BrandID      sql.NullInt64   `db:"brand_id"`
	ThumbnailURL sql.NullString  `db:"thumbnail_url"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r productRow) toDomain() domain.ProductSummary {
	return domain.ProductSummary{
		ID:           r.ID,
		Name:         r.Name,
		Slug:         r.Slug,
		Description:  r.Description,
		Price:        r.Price,
		Availability: r.Availability,
		StatusID:     r.StatusID,
		StatusCode:   r.StatusCode,
		CategoryID:   database.Int64Ptr(r.CategoryID),
		BrandID:      database.Int64Ptr(r.BrandID),
		ThumbnailURL: database.StringPtr(r.ThumbnailURL),
		CreatedAt:    r.CreatedAt,
	}
}

// ListProducts devolve a página pedida (filter.PageRequest já normalizado)
// e o total de produtos que casam com o filtro.
func (r *QueryRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, int64, error) {
	r.logger.Debug("Listando produtos.", map[string]interface{}{"search": filter.Search, "page": filter.Page, "size": filter.Size})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := productWhere(filter)

	var total int64
	countSQL := r.DB.Rebind(`SELECT COUNT(*) FROM products p` + where)
	if err := r.DB.GetContext(ctxTimeout, &total, countSQL, args...); err != nil {
		r.logger.Error("Falha ao contar produtos.", err)
		return nil, 0, apperror.FromDB("Falha ao contar produtos", err)
	}

	listSQL := r.DB.Rebind(`
        SELECT p.id, p.name, p.slug, p.description, p.price, p.availability, p.status_id,
               s.code AS status_code, p.category_id, p.brand_id,
               (SELECT i.url FROM product_images i WHERE i.product_id = p.id AND i.is_thumbnail LIMIT 1) AS thumbnail_url,
               p.created_at
        FROM products p
        JOIN product_statuses s ON s.id = p.status_id` + where + `
        ORDER BY p.created_at DESC, p.id DESC
        LIMIT ? OFFSET ?`)

	var rows []productRow
	if err := r.DB.SelectContext(ctxTimeout, &rows, listSQL, append(args, filter.Size, filter.Offset())...); err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, 0, apperror.FromDB("Falha ao listar produtos", err)
	}

	products := make([]domain.ProductSummary, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, total, nil
}

// productWhere monta o WHERE com placeholders "?" (convertidos por Rebind).
func productWhere(filter domain.ProductFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if !filter.IncludeDeleted {
		conds = append(conds, "p.lifecycle = 'ACTIVE'")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(search) + "%"
		conds = append(conds, "(p.name ILIKE ? OR p.description ILIKE ?)")
		args = append(args, like, like)
	}
	if filter.StatusID != nil {
		conds = append(conds, "p.status_id = ?")
		args = append(args, *filter.StatusID)
	}
	if filter.CategoryID != nil {
		conds = append(conds, "p.category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.BrandID != nil {
		conds = append(conds, "p.brand_id = ?")
		args = append(args, *filter.BrandID)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type summaryRow struct {
	TotalVariants  int                 `db:"total_variants"`
	ActiveVariants int                 `db:"active_variants"`
	TotalStock     int64               `db:"total_stock"`
	MinPrice       decimal.NullDecimal `db:"min_price"`
	MaxPrice       decimal.NullDecimal `db:"max_price"`
}

type variantRow struct {
	ID                int64               `db:"id"`
	ProductID         int64               `db:"product_id"`
	SKU               string              `db:"sku"`
	Price             decimal.Decimal     `db:"price"`
	CompareAtPrice    decimal.NullDecimal `db:"compare_at_price"`
	StockQuantity     int                 `db:"stock_quantity"`
	LowStockThreshold int                 `db:"low_stock_threshold"`
	IsDefault         bool                `db:"is_default"`
	IsActive          bool                `db:"is_active"`
	DisplayOrder      int                 `db:"display_order"`
	Lifecycle         string              `db:"lifecycle"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

type optionValueRow struct {
	VariantID int64  `db:"variant_id"`
	Name      string `db:"option_name"`
	Value     string `db:"option_value"`
}

// VariantSummary agrega as variantes não excluídas do produto. Preço mínimo e
// máximo consideram só as ativas; a lista de estoque baixo vem ordenada
// pelo estoque crescente.
func (r *QueryRepository) VariantSummary(ctx context.Context, productID int64) (domain.VariantSummary, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var agg summaryRow
	err := r.DB.GetContext(ctxTimeout, &agg, `
        SELECT COUNT(*)                                  AS total_variants,
               COUNT(*) FILTER (WHERE is_active)         AS active_variants,
               COALESCE(SUM(stock_quantity), 0)          AS total_stock,
               MIN(price) FILTER (WHERE is_active)       AS min_price,
               MAX(price) FILTER (WHERE is_active)       AS max_price
        FROM product_variants
        WHERE product_id = $1 AND deleted_at IS NULL`, productID)
	if err != nil {
		r.logger.Error("Falha ao agregar variantes.", err)
		return domain.VariantSummary{}, apperror.FromDB("Falha ao agregar variantes", err)
	}

	var rows []variantRow
	err = r.DB.SelectContext(ctxTimeout, &rows, `
        SELECT id, product_id, sku, price, compare_at_price, stock_quantity, low_stock_threshold,
               is_default, is_active, display_order, lifecycle, created_at, updated_at
        FROM product_variants
        WHERE product_id = $1 AND deleted_at IS NULL AND stock_quantity <= low_stock_threshold
        ORDER BY stock_quantity, display_order, id`, productID)
	if err != nil {
		r.logger.Error("Falha ao listar variantes com estoque baixo.", err)
		return domain.VariantSummary{}, apperror.FromDB("Falha ao listar variantes com estoque baixo", err)
	}

	lowStock := make([]domain.Variant, 0, len(rows))
	index := make(map[int64]int, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		index[row.ID] = len(lowStock)
		ids = append(ids, row.ID)
		lowStock = append(lowStock, domain.Variant{
			ID:                row.ID,
			ProductID:         row.ProductID,
			SKU:               row.SKU,
			Price:             row.Price,
			CompareAtPrice:    database.DecimalPtr(row.CompareAtPrice),
			StockQuantity:     row.StockQuantity,
			LowStockThreshold: row.LowStockThreshold,
			OptionValues:      map[string]string{},
			IsDefault:         row.IsDefault,
			IsActive:          row.IsActive,
			DisplayOrder:      row.DisplayOrder,
			Lifecycle:         domain.Lifecycle(row.Lifecycle),
			Timestamps:        domain.Timestamps{CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt},
		})
	}

	if len(ids) > 0 {
		query, args, err := sqlx.In(`
            SELECT variant_id, option_name, option_value
            FROM product_variant_option_values
            WHERE variant_id IN (?)`, ids)
		if err != nil {
			return domain.VariantSummary{}, apperror.NewInternalError("Falha ao montar consulta de opções", err)
		}
		var values []optionValueRow
		if err := r.DB.SelectContext(ctxTimeout, &values, r.DB.Rebind(query), args...); err != nil {
			return domain.VariantSummary{}, apperror.FromDB("Falha ao carregar valores de opção", err)
		}
		for _, v := range values {
			lowStock[index[v.VariantID]].OptionValues[v.Name] = v.Value
		}
	}

	return domain.VariantSummary{
		ProductID:      productID,
		TotalVariants:  agg.TotalVariants,
		ActiveVariants: agg.ActiveVariants,
		TotalStock:     agg.TotalStock,
		MinPrice:       database.DecimalPtr(agg.MinPrice),
		MaxPrice:       database.DecimalPtr(agg.MaxPrice),
		LowStock:       lowStock,
	}, nil
}
