package pricehistory

import (
	"context"
	"net/http"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/httpx"
	"gocatalog/internal/pkg/logger"
)

// PriceHistoryService expõe as consultas do histórico (somente leitura).
type PriceHistoryService interface {
	ListByProduct(ctx context.Context, productID int64, req domain.PageRequest) (domain.Page[domain.PriceHistory], error)
	AllByProduct(ctx context.Context, productID int64) ([]domain.PriceHistory, error)
	ListByVariant(ctx context.Context, variantID int64, req domain.PageRequest) (domain.Page[domain.PriceHistory], error)
	AllByVariant(ctx context.Context, variantID int64) ([]domain.PriceHistory, error)
}

type Handler struct {
	Service PriceHistoryService
	Logger  logger.Logger
}

func NewHandler(svc PriceHistoryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ProductHistoryHandler lida com GET /v1/products/{id}/price-history.
// Com ?all=true devolve a lista completa em vez de uma página.
// @Summary Histórico de preços do produto (mais recente primeiro)
// @Tags price-history
// @Produce json
// @Param id path int true "ID do produto"
// @Param all query bool false "Lista completa sem paginação"
// @Param page query int false "Página (a partir de 0)"
// @Param size query int false "Tamanho da página"
// @Success 200 {object} domain.Page[domain.PriceHistory]
// @Router /products/{id}/price-history [get]
func (h *Handler) ProductHistoryHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.Service.AllByProduct, h.Service.ListByProduct)
}

// VariantHistoryHandler lida com GET /v1/variants/{id}/price-history.
// @Summary Histórico de preços da variante (mais recente primeiro)
// @Tags price-history
// @Produce json
// @Param id path int true "ID da variante"
// @Param all query bool false "Lista completa sem paginação"
// @Param page query int false "Página (a partir de 0)"
// @Param size query int false "Tamanho da página"
// @Success 200 {object} domain.Page[domain.PriceHistory]
// @Router /variants/{id}/price-history [get]
func (h *Handler) VariantHistoryHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.Service.AllByVariant, h.Service.ListByVariant)
}

func (h *Handler) serve(
	w http.ResponseWriter, r *http.Request,
	all func(context.Context, int64) ([]domain.PriceHistory, error),
	page func(context.Context, int64, domain.PageRequest) (domain.Page[domain.PriceHistory], error),
) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}

	if r.URL.Query().Get("all") == "true" {
		entries, err := all(r.Context(), id)
		if err != nil {
			httpx.WriteError(w, r, h.Logger, err)
			return
		}
		if entries == nil {
			entries = []domain.PriceHistory{}
		}
		httpx.WriteJSON(w, http.StatusOK, entries)
		return
	}

	req, err := httpx.PageRequest(r)
	if err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	result, err := page(r.Context(), id, req)
	if err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}
