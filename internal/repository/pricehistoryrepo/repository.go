package pricehistoryrepo

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

const historyColumns = `id, product_id, variant_id, old_price, new_price, reason, changed_by, changed_at`

// PriceHistoryRepository lê o histórico de preços. A escrita acontece sempre
// dentro da transação do chamador, via Insert.
type PriceHistoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPriceHistoryRepository cria o repositório de histórico de preços.
func NewPriceHistoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PriceHistoryRepository {
	return &PriceHistoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Insert grava uma linha de histórico usando q (normalmente o *sql.Tx da
// alteração de preço). A tabela é append-only: não existe Update nem Delete.
func Insert(ctx context.Context, q database.Querier, entry domain.PriceHistory) (domain.PriceHistory, error) {
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO product_price_history (product_id, variant_id, old_price, new_price, reason, changed_by, changed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`

	err := q.QueryRowContext(ctx, query,
		entry.ProductID, entry.VariantID, entry.OldPrice, entry.NewPrice,
		entry.Reason, entry.ChangedBy, entry.ChangedAt,
	).Scan(&entry.ID)
	if err != nil {
		return domain.PriceHistory{}, apperror.FromDB("Falha ao gravar histórico de preço", err)
	}
	return entry, nil
}

// ListByProduct devolve uma página do histórico do produto (mais recente primeiro)
// e o total de linhas.
func (r *PriceHistoryRepository) ListByProduct(ctx context.Context, productID int64, page domain.PageRequest) ([]domain.PriceHistory, int64, error) {
	return r.listPage(ctx, "product_id", productID, page)
}

// AllByProduct devolve todo o histórico do produto, incluindo o das variantes.
func (r *PriceHistoryRepository) AllByProduct(ctx context.Context, productID int64) ([]domain.PriceHistory, error) {
	return r.listAll(ctx, "product_id", productID)
}

func (r *PriceHistoryRepository) ListByVariant(ctx context.Context, variantID int64, page domain.PageRequest) ([]domain.PriceHistory, int64, error) {
	return r.listPage(ctx, "variant_id", variantID, page)
}

func (r *PriceHistoryRepository) AllByVariant(ctx context.Context, variantID int64) ([]domain.PriceHistory, error) {
	return r.listAll(ctx, "variant_id", variantID)
}

// column vem sempre das constantes acima, nunca do usuário.
func (r *PriceHistoryRepository) listPage(ctx context.Context, column string, id int64, page domain.PageRequest) ([]domain.PriceHistory, int64, error) {
	r.logger.Debug("Listando histórico de preços.", map[string]interface{}{column: id, "page": page.Page, "size": page.Size})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int64
	countSQL := fmt.Sprintf(`SELECT COUNT(*) FROM product_price_history WHERE %s = $1`, column)
	if err := r.DB.QueryRowContext(ctxTimeout, countSQL, id).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar histórico de preços.", err)
		return nil, 0, apperror.FromDB("Falha ao contar histórico de preços", err)
	}

	query := fmt.Sprintf(`
        SELECT %s FROM product_price_history
        WHERE %s = $1
        ORDER BY changed_at DESC, id DESC
        LIMIT $2 OFFSET $3`, historyColumns, column)

	rows, err := r.DB.QueryContext(ctxTimeout, query, id, page.Size, page.Offset())
	if err != nil {
		r.logger.Error("Falha ao listar histórico de preços.", err)
		return nil, 0, apperror.FromDB("Falha ao listar histórico de preços", err)
	}
	defer rows.Close()

	entries, err := scanAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *PriceHistoryRepository) listAll(ctx context.Context, column string, id int64) ([]domain.PriceHistory, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`
        SELECT %s FROM product_price_history
        WHERE %s = $1
        ORDER BY changed_at DESC, id DESC`, historyColumns, column)

	rows, err := r.DB.QueryContext(ctxTimeout, query, id)
	if err != nil {
		r.logger.Error("Falha ao listar histórico de preços.", err)
		return nil, apperror.FromDB("Falha ao listar histórico de preços", err)
	}
	defer rows.Close()

	return scanAll(rows)
}

func scanAll(rows *sql.Rows) ([]domain.PriceHistory, error) {
	entries := []domain.PriceHistory{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler histórico de preços", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro ao iterar histórico de preços", err)
	}
	return entries, nil
}

func scanEntry(row database.RowScanner) (domain.PriceHistory, error) {
	var (
		entry     domain.PriceHistory
		variantID sql.NullInt64
		reason    sql.NullString
		changedBy sql.NullString
	)
	err := row.Scan(&entry.ID, &entry.ProductID, &variantID, &entry.OldPrice, &entry.NewPrice,
		&reason, &changedBy, &entry.ChangedAt)
	if err != nil {
		return domain.PriceHistory{}, err
	}
	entry.VariantID = database.Int64Ptr(variantID)
	entry.Reason = database.StringPtr(reason)
	entry.ChangedBy = database.StringPtr(changedBy)
	return entry, nil
}
