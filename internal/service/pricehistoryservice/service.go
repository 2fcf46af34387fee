package pricehistoryservice

import (
	"context"
	"time"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
)

// Recorder grava uma linha de histórico por mudança real de preço. Ele não
// abre transação: escreve no PriceHistoryWriter da transação do chamador.
type Recorder struct {
	metrics *metrics.Metrics
	logger  logger.Logger
	now     func() time.Time
}

// NewRecorder cria o gravador de histórico. m pode ser nil.
func NewRecorder(m *metrics.Metrics, logger logger.Logger) *Recorder {
	return &Recorder{
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record grava a mudança e devolve true. Se os preços forem iguais (100 e
// 100.00 contam como iguais) nada é gravado e o retorno é false.
func (r *Recorder) Record(ctx context.Context, w domain.PriceHistoryWriter, change domain.PriceChange) (bool, error) {
	if !change.Changed() {
		return false, nil
	}

	entry := domain.PriceHistory{
		ProductID: change.ProductID,
		VariantID: change.VariantID,
		OldPrice:  change.OldPrice,
		NewPrice:  change.NewPrice,
		ChangedAt: r.now(),
	}
	if change.Reason != "" {
		reason := change.Reason
		entry.Reason = &reason
	}
	if change.ChangedBy != "" {
		changedBy := change.ChangedBy
		entry.ChangedBy = &changedBy
	}

	saved, err := w.InsertPriceHistory(ctx, entry)
	if err != nil {
		r.logger.Error("Falha ao gravar histórico de preço.", err)
		return false, err
	}

	scope := "product"
	if change.VariantID != nil {
		scope = "variant"
	}
	r.metrics.PriceChanged(scope)
	r.logger.Info("Mudança de preço registrada.", map[string]interface{}{
		"history_id": saved.ID,
		"product_id": saved.ProductID,
		"scope":      scope,
		"old_price":  saved.OldPrice.String(),
		"new_price":  saved.NewPrice.String(),
	})
	return true, nil
}

// Repository é o contrato de leitura do histórico (pricehistoryrepo).
type Repository interface {
	ListByProduct(ctx context.Context, productID int64, page domain.PageRequest) ([]domain.PriceHistory, int64, error)
	AllByProduct(ctx context.Context, productID int64) ([]domain.PriceHistory, error)
	ListByVariant(ctx context.Context, variantID int64, page domain.PageRequest) ([]domain.PriceHistory, int64, error)
	AllByVariant(ctx context.Context, variantID int64) ([]domain.PriceHistory, error)
}

// Service expõe as consultas de histórico. Não há alteração nem exclusão.
type Service struct {
	repo        Repository
	logger      logger.Logger
	maxPageSize int
}

func NewService(repo Repository, logger logger.Logger, maxPageSize int) *Service {
	return &Service{repo: repo, logger: logger, maxPageSize: maxPageSize}
}

// ListByProduct devolve uma página do histórico do produto, mais recente primeiro.
func (s *Service) ListByProduct(ctx context.Context, productID int64, req domain.PageRequest) (domain.Page[domain.PriceHistory], error) {
	req = req.Normalize(s.maxPageSize)
	entries, total, err := s.repo.ListByProduct(ctx, productID, req)
	if err != nil {
		return domain.Page[domain.PriceHistory]{}, err
	}
	return domain.NewPage(entries, req, total), nil
}

func (s *Service) AllByProduct(ctx context.Context, productID int64) ([]domain.PriceHistory, error) {
	return s.repo.AllByProduct(ctx, productID)
}

func (s *Service) ListByVariant(ctx context.Context, variantID int64, req domain.PageRequest) (domain.Page[domain.PriceHistory], error) {
	req = req.Normalize(s.maxPageSize)
	entries, total, err := s.repo.ListByVariant(ctx, variantID, req)
	if err != nil {
		return domain.Page[domain.PriceHistory]{}, err
	}
	return domain.NewPage(entries, req, total), nil
}

func (s *Service) AllByVariant(ctx context.Context, variantID int64) ([]domain.PriceHistory, error) {
	return s.repo.AllByVariant(ctx, variantID)
}
