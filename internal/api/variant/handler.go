package variant

import (
	"context"
	"net/http"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/httpx"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
)

// VariantService define o contrato do motor de regras de variantes.
type VariantService interface {
	DefineOptions(ctx context.Context, productID int64, inputs []domain.VariantOptionInput) ([]domain.VariantOption, error)
	CreateVariant(ctx context.Context, productID int64, input domain.VariantInput) (domain.Variant, error)
	CreateVariantsBulk(ctx context.Context, productID int64, input domain.BulkVariantsInput) ([]domain.Variant, error)
	UpdateVariant(ctx context.Context, caller domain.Caller, variantID int64, input domain.VariantInput) (domain.Variant, error)
	DeleteVariant(ctx context.Context, variantID int64) error
	UpdateStock(ctx context.Context, variantID int64, stock int) (domain.Variant, error)
	GetVariant(ctx context.Context, variantID int64) (domain.Variant, error)
	ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error)
	GetOptions(ctx context.Context, productID int64) ([]domain.VariantOption, error)
	GetDefaultVariant(ctx context.Context, productID int64) (domain.Variant, error)
	Summary(ctx context.Context, productID int64) (domain.VariantSummary, error)
}

// Handler agrupa os endpoints de opções, variantes e estoque.
type Handler struct {
	Service VariantService
	Logger  logger.Logger
}

func NewHandler(svc VariantService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, successStatus, data)
}

// DefineOptionsHandler lida com a requisição PUT /v1/products/{id}/options.
// @Summary Substitui as opções de variação do produto
// @Description Só é permitido enquanto o produto não tiver variantes ativas (409).
// @Tags variants
// @Accept json
// @Produce json
// @Param id path int true "ID do produto"
// @Param options body []domain.VariantOptionInput true "Opções (máx. 5, até 20 valores cada)"
// @Success 200 {array} domain.VariantOption
// @Failure 400 {object} domain.ErrorResponse "Opções inválidas"
// @Failure 409 {object} domain.ErrorResponse "Produto com variantes ativas"
// @Security ApiKeyAuth
// @Router /products/{id}/options [put]
func (h *Handler) DefineOptionsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in []domain.VariantOptionInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	options, err := h.Service.DefineOptions(r.Context(), productID, in)
	h.handleServiceResponse(w, r, options, err, http.StatusOK)
}

// GetOptionsHandler lida com a requisição GET /v1/products/{id}/options.
// @Summary Lista as opções de variação do produto
// @Tags variants
// @Produce json
// @Param id path int true "ID do produto"
// @Success 200 {array} domain.VariantOption
// @Router /products/{id}/options [get]
func (h *Handler) GetOptionsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	options, err := h.Service.GetOptions(r.Context(), productID)
	h.handleServiceResponse(w, r, options, err, http.StatusOK)
}

// CreateVariantHandler lida com a requisição POST /v1/products/{id}/variants.
// @Summary Cria uma variante
// @Description A primeira variante do produto vira a padrão.
// @Tags variants
// @Accept json
// @Produce json
// @Param id path int true "ID do produto"
// @Param variant body domain.VariantInput true "Dados da variante"
// @Success 201 {object} domain.Variant
// @Failure 400 {object} domain.ErrorResponse "SKU, preço ou opções inválidos"
// @Failure 409 {object} domain.ErrorResponse "SKU já utilizado"
// @Security ApiKeyAuth
// @Router /products/{id}/variants [post]
func (h *Handler) CreateVariantHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.VariantInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	variant, err := h.Service.CreateVariant(r.Context(), productID, in)
	h.handleServiceResponse(w, r, variant, err, http.StatusCreated)
}

// CreateVariantsBulkHandler lida com a requisição POST /v1/products/{id}/variants/bulk.
// @Summary Define opções e cria várias variantes
// @Description Todas as entradas são validadas antes de qualquer escrita.
// @Tags variants
// @Accept json
// @Produce json
// @Param id path int true "ID do produto"
// @Param bulk body domain.BulkVariantsInput true "Opções e variantes"
// @Success 201 {array} domain.Variant
// @Failure 400 {object} domain.ErrorResponse "Entrada inválida"
// @Failure 409 {object} domain.ErrorResponse "SKU repetido ou já utilizado"
// @Security ApiKeyAuth
// @Router /products/{id}/variants/bulk [post]
func (h *Handler) CreateVariantsBulkHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.BulkVariantsInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	variants, err := h.Service.CreateVariantsBulk(r.Context(), productID, in)
	h.handleServiceResponse(w, r, variants, err, http.StatusCreated)
}

// ListVariantsHandler lida com a requisição GET /v1/products/{id}/variants.
// @Summary Lista as variantes não excluídas do produto
// @Tags variants
// @Produce json
// @Param id path int true "ID do produto"
// @Success 200 {array} domain.Variant
// @Router /products/{id}/variants [get]
func (h *Handler) ListVariantsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	variants, err := h.Service.ListVariants(r.Context(), productID)
	if variants == nil {
		variants = []domain.Variant{}
	}
	h.handleServiceResponse(w, r, variants, err, http.StatusOK)
}

// GetDefaultVariantHandler lida com a requisição GET /v1/products/{id}/variants/default.
// @Summary Obtém a variante padrão do produto
// @Tags variants
// @Produce json
// @Param id path int true "ID do produto"
// @Success 200 {object} domain.Variant
// @Failure 404 {object} domain.ErrorResponse "Produto sem variante padrão"
// @Router /products/{id}/variants/default [get]
func (h *Handler) GetDefaultVariantHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	variant, err := h.Service.GetDefaultVariant(r.Context(), productID)
	h.handleServiceResponse(w, r, variant, err, http.StatusOK)
}

// SummaryHandler lida com a requisição GET /v1/products/{id}/variants/summary.
// @Summary Resumo de variantes (contagens, estoque, faixa de preço, estoque baixo)
// @Tags variants
// @Produce json
// @Param id path int true "ID do produto"
// @Success 200 {object} domain.VariantSummary
// @Router /products/{id}/variants/summary [get]
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	summary, err := h.Service.Summary(r.Context(), productID)
	h.handleServiceResponse(w, r, summary, err, http.StatusOK)
}

// GetVariantHandler lida com a requisição GET /v1/variants/{id}.
// @Summary Obtém uma variante
// @Tags variants
// @Produce json
// @Param id path int true "ID da variante"
// @Success 200 {object} domain.Variant
// @Failure 404 {object} domain.ErrorResponse "Variante não encontrada"
// @Router /variants/{id} [get]
func (h *Handler) GetVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	variant, err := h.Service.GetVariant(r.Context(), id)
	h.handleServiceResponse(w, r, variant, err, http.StatusOK)
}

// UpdateVariantHandler lida com a requisição PUT /v1/variants/{id}.
// @Summary Atualiza uma variante (mudança de preço gera histórico)
// @Tags variants
// @Accept json
// @Produce json
// @Param id path int true "ID da variante"
// @Param variant body domain.VariantInput true "Dados da variante"
// @Success 200 {object} domain.Variant
// @Failure 400 {object} domain.ErrorResponse "Entrada inválida"
// @Failure 404 {object} domain.ErrorResponse "Variante não encontrada"
// @Failure 409 {object} domain.ErrorResponse "SKU já utilizado"
// @Security ApiKeyAuth
// @Router /variants/{id} [put]
func (h *Handler) UpdateVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.VariantInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	variant, err := h.Service.UpdateVariant(r.Context(), middleware.CallerOrAnonymous(r), id, in)
	h.handleServiceResponse(w, r, variant, err, http.StatusOK)
}

// DeleteVariantHandler lida com a requisição DELETE /v1/variants/{id}.
// @Summary Exclui logicamente uma variante
// @Description Se era a padrão, outra variante ativa é promovida.
// @Tags variants
// @Param id path int true "ID da variante"
// @Success 204 "Nenhum conteúdo"
// @Failure 404 {object} domain.ErrorResponse "Variante não encontrada"
// @Security ApiKeyAuth
// @Router /variants/{id} [delete]
func (h *Handler) DeleteVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	err = h.Service.DeleteVariant(r.Context(), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// UpdateStockHandler lida com a requisição PATCH /v1/variants/{id}/stock.
// @Summary Sobrescreve o estoque da variante
// @Tags variants
// @Accept json
// @Produce json
// @Param id path int true "ID da variante"
// @Param stock body domain.StockUpdate true "Novo estoque"
// @Success 200 {object} domain.Variant
// @Failure 400 {object} domain.ErrorResponse "Estoque negativo"
// @Failure 404 {object} domain.ErrorResponse "Variante não encontrada"
// @Security ApiKeyAuth
// @Router /variants/{id}/stock [patch]
func (h *Handler) UpdateStockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.StockUpdate
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	variant, err := h.Service.UpdateStock(r.Context(), id, in.StockQuantity)
	h.handleServiceResponse(w, r, variant, err, http.StatusOK)
}
