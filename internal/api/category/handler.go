package category

import (
	"context"
	"net/http"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/httpx"
	"gocatalog/internal/pkg/logger"
)

// CategoryService define o contrato que o Handler espera da camada de Serviço.
type CategoryService interface {
	CreateCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	ListRootCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, in domain.CategoryInput) (domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Handler agrupa todos os métodos de Handler de categorias.
type Handler struct {
	Service CategoryService
	Logger  logger.Logger
}

func NewHandler(svc CategoryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, successStatus, data)
}

// CreateCategoryHandler lida com a requisição POST /v1/categories.
// @Summary Cria uma categoria (opcionalmente sob um pai)
// @Tags categories
// @Accept json
// @Produce json
// @Param category body domain.CategoryInput true "Nome e pai"
// @Success 201 {object} domain.Category
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Pai não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Nome ou slug já utilizado"
// @Security ApiKeyAuth
// @Router /categories [post]
func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.CategoryInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	category, err := h.Service.CreateCategory(r.Context(), in)
	h.handleServiceResponse(w, r, category, err, http.StatusCreated)
}

// GetCategoryHandler lida com a requisição GET /v1/categories/{id}.
// @Summary Obtém uma categoria com seus filhos diretos
// @Tags categories
// @Produce json
// @Param id path int true "ID da categoria"
// @Success 200 {object} domain.Category
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Router /categories/{id} [get]
func (h *Handler) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	category, err := h.Service.GetCategory(r.Context(), id)
	h.handleServiceResponse(w, r, category, err, http.StatusOK)
}

// ListRootCategoriesHandler lida com a requisição GET /v1/categories.
// @Summary Lista as categorias raiz
// @Tags categories
// @Produce json
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (h *Handler) ListRootCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListRootCategories(r.Context())
	if categories == nil {
		categories = []domain.Category{}
	}
	h.handleServiceResponse(w, r, categories, err, http.StatusOK)
}

// UpdateCategoryHandler lida com a requisição PUT /v1/categories/{id}.
// @Summary Renomeia ou move uma categoria
// @Tags categories
// @Accept json
// @Produce json
// @Param id path int true "ID da categoria"
// @Param category body domain.CategoryInput true "Nome e pai"
// @Success 200 {object} domain.Category
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou ciclo"
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Security ApiKeyAuth
// @Router /categories/{id} [put]
func (h *Handler) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.CategoryInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	category, err := h.Service.UpdateCategory(r.Context(), id, in)
	h.handleServiceResponse(w, r, category, err, http.StatusOK)
}

// DeleteCategoryHandler lida com a requisição DELETE /v1/categories/{id}.
// @Summary Exclui logicamente uma categoria vazia
// @Tags categories
// @Param id path int true "ID da categoria"
// @Success 204 "Nenhum conteúdo"
// @Failure 409 {object} domain.ErrorResponse "Categoria com produtos, filhos ou já excluída"
// @Security ApiKeyAuth
// @Router /categories/{id} [delete]
func (h *Handler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	err = h.Service.DeleteCategory(r.Context(), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
