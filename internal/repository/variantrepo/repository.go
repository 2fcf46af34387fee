package variantrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/repository/pricehistoryrepo"
	"gocatalog/internal/repository/productrepo"
)

const variantColumns = `id, product_id, sku, price, compare_at_price, stock_quantity, low_stock_threshold,
        is_default, is_active, display_order, lifecycle, deleted_at, created_at, updated_at`

// VariantRepository persiste variantes, opções de variação e seus valores.
// Todas as alterações passam por WithinTx.
type VariantRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewVariantRepository cria o repositório de variantes.
func NewVariantRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *VariantRepository {
	return &VariantRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// WithinTx executa fn em uma transação. Commit se fn retornar nil,
// rollback caso contrário.
func (r *VariantRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.VariantTx) error) error {
	return database.WithTx(ctx, r.DB, r.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &store{q: tx})
	})
}

// EnsureProduct devolve NotFound quando o produto não existe ou foi excluído.
func (r *VariantRepository) EnsureProduct(ctx context.Context, productID int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var id int64
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id FROM products WHERE id = $1 AND lifecycle = 'ACTIVE'`, productID,
	).Scan(&id)
	if err != nil {
		return apperror.FromDB(fmt.Sprintf("Produto com ID %d não existe na base de dados.", productID), err)
	}
	return nil
}

// GetVariant busca uma variante não excluída, com seus valores de opção.
func (r *VariantRepository) GetVariant(ctx context.Context, variantID int64) (domain.Variant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()
	return (&store{q: r.DB}).GetVariant(ctxTimeout, variantID)
}

// ListVariants devolve as variantes não excluídas do produto em ordem de exibição.
func (r *VariantRepository) ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()
	return (&store{q: r.DB}).ListVariants(ctxTimeout, productID)
}

// ListOptions devolve as opções de variação do produto em ordem de exibição.
func (r *VariantRepository) ListOptions(ctx context.Context, productID int64) ([]domain.VariantOption, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()
	return (&store{q: r.DB}).ListOptions(ctxTimeout, productID)
}

// store implementa domain.VariantTx sobre um *sql.Tx (ou sobre o *sql.DB nas leituras).
type store struct {
	q database.Querier
}

func (s *store) InsertPriceHistory(ctx context.Context, entry domain.PriceHistory) (domain.PriceHistory, error) {
	return pricehistoryrepo.Insert(ctx, s.q, entry)
}

func (s *store) LockProduct(ctx context.Context, productID int64) (domain.Product, error) {
	return productrepo.LockProduct(ctx, s.q, productID)
}

func (s *store) ListOptions(ctx context.Context, productID int64) ([]domain.VariantOption, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT id, product_id, name, allowed_values, display_order, created_at
        FROM product_variant_options
        WHERE product_id = $1
        ORDER BY display_order, id`, productID)
	if err != nil {
		return nil, apperror.FromDB("Falha ao listar opções de variação", err)
	}
	defer rows.Close()

	options := []domain.VariantOption{}
	for rows.Next() {
		var o domain.VariantOption
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Name, pq.Array(&o.Values), &o.DisplayOrder, &o.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao ler opção de variação", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro ao iterar opções de variação", err)
	}
	return options, nil
}

// ReplaceOptions apaga as opções anteriores e grava as novas; a ordem de
// exibição é o índice na lista.
func (s *store) ReplaceOptions(ctx context.Context, productID int64, options []domain.VariantOption) ([]domain.VariantOption, error) {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM product_variant_options WHERE product_id = $1`, productID); err != nil {
		return nil, apperror.FromDB("Falha ao remover opções de variação", err)
	}

	now := time.Now().UTC()
	saved := make([]domain.VariantOption, 0, len(options))
	for i, o := range options {
		o.ProductID = productID
		o.DisplayOrder = i
		o.CreatedAt = now
		err := s.q.QueryRowContext(ctx, `
            INSERT INTO product_variant_options (product_id, name, allowed_values, display_order, created_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id`,
			o.ProductID, o.Name, pq.Array(o.Values), o.DisplayOrder, o.CreatedAt,
		).Scan(&o.ID)
		if err != nil {
			return nil, apperror.FromDB(fmt.Sprintf("Falha ao inserir opção %q", o.Name), err)
		}
		saved = append(saved, o)
	}
	return saved, nil
}

func (s *store) ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT `+variantColumns+`
        FROM product_variants
        WHERE product_id = $1 AND deleted_at IS NULL
        ORDER BY display_order, id`, productID)
	if err != nil {
		return nil, apperror.FromDB("Falha ao listar variantes", err)
	}
	defer rows.Close()

	variants := []domain.Variant{}
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler variante", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro ao iterar variantes", err)
	}
	rows.Close()

	if err := s.loadOptionValues(ctx, variants); err != nil {
		return nil, err
	}
	return variants, nil
}

func (s *store) GetVariant(ctx context.Context, variantID int64) (domain.Variant, error) {
	row := s.q.QueryRowContext(ctx, `
        SELECT `+variantColumns+`
        FROM product_variants
        WHERE id = $1 AND deleted_at IS NULL`, variantID)

	v, err := scanVariant(row)
	if err != nil {
		return domain.Variant{}, apperror.FromDB(fmt.Sprintf("Variante com ID %d não encontrada", variantID), err)
	}

	variants := []domain.Variant{v}
	if err := s.loadOptionValues(ctx, variants); err != nil {
		return domain.Variant{}, err
	}
	return variants[0], nil
}

func (s *store) SKUTaken(ctx context.Context, sku string, excludeVariantID int64) (bool, error) {
	var taken bool
	err := s.q.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM product_variants
            WHERE sku = $1 AND deleted_at IS NULL AND id <> $2
        )`, sku, excludeVariantID).Scan(&taken)
	if err != nil {
		return false, apperror.FromDB("Falha ao verificar SKU", err)
	}
	return taken, nil
}

func (s *store) InsertVariant(ctx context.Context, v domain.Variant) (domain.Variant, error) {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	v.Lifecycle = domain.LifecycleActive

	err := s.q.QueryRowContext(ctx, `
        INSERT INTO product_variants (product_id, sku, price, compare_at_price, stock_quantity, low_stock_threshold,
                                      is_default, is_active, display_order, lifecycle, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id`,
		v.ProductID, v.SKU, v.Price, database.NullDecimal(v.CompareAtPrice), v.StockQuantity, v.LowStockThreshold,
		v.IsDefault, v.IsActive, v.DisplayOrder, v.Lifecycle, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
	if err != nil {
		return domain.Variant{}, apperror.FromDB("Falha ao inserir variante", err)
	}

	if err := s.writeOptionValues(ctx, v.ID, v.OptionValues); err != nil {
		return domain.Variant{}, err
	}
	return v, nil
}

func (s *store) UpdateVariant(ctx context.Context, v domain.Variant) (domain.Variant, error) {
	v.UpdatedAt = time.Now().UTC()

	res, err := s.q.ExecContext(ctx, `
        UPDATE product_variants
        SET sku = $2, price = $3, compare_at_price = $4, stock_quantity = $5, low_stock_threshold = $6,
            is_default = $7, is_active = $8, display_order = $9, updated_at = $10
        WHERE id = $1 AND deleted_at IS NULL`,
		v.ID, v.SKU, v.Price, database.NullDecimal(v.CompareAtPrice), v.StockQuantity, v.LowStockThreshold,
		v.IsDefault, v.IsActive, v.DisplayOrder, v.UpdatedAt,
	)
	if err != nil {
		return domain.Variant{}, apperror.FromDB("Falha ao atualizar variante", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Variant{}, apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %d não encontrada", v.ID))
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM product_variant_option_values WHERE variant_id = $1`, v.ID); err != nil {
		return domain.Variant{}, apperror.FromDB("Falha ao remover valores de opção", err)
	}
	if err := s.writeOptionValues(ctx, v.ID, v.OptionValues); err != nil {
		return domain.Variant{}, err
	}
	return v, nil
}

func (s *store) ClearDefault(ctx context.Context, productID int64) error {
	_, err := s.q.ExecContext(ctx, `
        UPDATE product_variants SET is_default = false, updated_at = $2
        WHERE product_id = $1 AND is_default AND deleted_at IS NULL`, productID, time.Now().UTC())
	if err != nil {
		return apperror.FromDB("Falha ao limpar variante padrão", err)
	}
	return nil
}

func (s *store) SetDefault(ctx context.Context, variantID int64) error {
	res, err := s.q.ExecContext(ctx, `
        UPDATE product_variants SET is_default = true, updated_at = $2
        WHERE id = $1 AND deleted_at IS NULL`, variantID, time.Now().UTC())
	if err != nil {
		return apperror.FromDB("Falha ao definir variante padrão", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %d não encontrada", variantID))
	}
	return nil
}

// SoftDeleteVariant marca a variante como excluída; ela deixa de ser padrão e ativa.
func (s *store) SoftDeleteVariant(ctx context.Context, variantID int64, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `
        UPDATE product_variants
        SET lifecycle = 'DELETED', deleted_at = $2, is_active = false, is_default = false, updated_at = $2
        WHERE id = $1 AND deleted_at IS NULL`, variantID, at)
	if err != nil {
		return apperror.FromDB("Falha ao excluir variante", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %d não encontrada", variantID))
	}
	return nil
}

func (s *store) UpdateStock(ctx context.Context, variantID int64, stock int) error {
	res, err := s.q.ExecContext(ctx, `
        UPDATE product_variants SET stock_quantity = $2, updated_at = $3
        WHERE id = $1 AND deleted_at IS NULL`, variantID, stock, time.Now().UTC())
	if err != nil {
		return apperror.FromDB("Falha ao atualizar estoque", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %d não encontrada", variantID))
	}
	return nil
}

func (s *store) writeOptionValues(ctx context.Context, variantID int64, values map[string]string) error {
	for name, value := range values {
		_, err := s.q.ExecContext(ctx, `
            INSERT INTO product_variant_option_values (variant_id, option_name, option_value)
            VALUES ($1, $2, $3)`, variantID, name, value)
		if err != nil {
			return apperror.FromDB(fmt.Sprintf("Falha ao gravar valor da opção %q", name), err)
		}
	}
	return nil
}

// loadOptionValues preenche OptionValues de todas as variantes com uma única consulta.
func (s *store) loadOptionValues(ctx context.Context, variants []domain.Variant) error {
	if len(variants) == 0 {
		return nil
	}

	ids := make([]int64, len(variants))
	byID := make(map[int64]int, len(variants))
	for i := range variants {
		ids[i] = variants[i].ID
		byID[variants[i].ID] = i
		variants[i].OptionValues = map[string]string{}
	}

	rows, err := s.q.QueryContext(ctx, `
        SELECT variant_id, option_name, option_value
        FROM product_variant_option_values
        WHERE variant_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return apperror.FromDB("Falha ao carregar valores de opção", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			variantID   int64
			name, value string
		)
		if err := rows.Scan(&variantID, &name, &value); err != nil {
			return apperror.NewDBError("Falha ao ler valor de opção", err)
		}
		if i, ok := byID[variantID]; ok {
			variants[i].OptionValues[name] = value
		}
	}
	if err := rows.Err(); err != nil {
		return apperror.NewDBError("Erro ao iterar valores de opção", err)
	}
	return nil
}

func scanVariant(row database.RowScanner) (domain.Variant, error) {
	var (
		v         domain.Variant
		compareAt decimal.NullDecimal
		deletedAt sql.NullTime
	)
	err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &compareAt, &v.StockQuantity, &v.LowStockThreshold,
		&v.IsDefault, &v.IsActive, &v.DisplayOrder, &v.Lifecycle, &deletedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Variant{}, err
	}
	v.CompareAtPrice = database.DecimalPtr(compareAt)
	v.DeletedAt = database.TimePtr(deletedAt)
	return v, nil
}
