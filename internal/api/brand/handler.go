package brand

import (
	"context"
	"net/http"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/httpx"
	"gocatalog/internal/pkg/logger"
)

// BrandService define o contrato que o Handler espera da camada de Serviço.
type BrandService interface {
	CreateBrand(ctx context.Context, in domain.BrandInput) (domain.Brand, error)
	GetBrand(ctx context.Context, id int64) (domain.Brand, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
	UpdateBrand(ctx context.Context, id int64, in domain.BrandInput) (domain.Brand, error)
	DeleteBrand(ctx context.Context, id int64) error
}

// Handler agrupa todos os métodos de Handler de marcas.
type Handler struct {
	Service BrandService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc BrandService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, successStatus, data)
}

// CreateBrandHandler lida com a requisição POST /v1/brands.
// @Summary Cria uma nova marca
// @Tags brands
// @Accept json
// @Produce json
// @Param brand body domain.BrandInput true "Nome da marca"
// @Success 201 {object} domain.Brand "Marca criada com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Nome já utilizado"
// @Security ApiKeyAuth
// @Router /brands [post]
func (h *Handler) CreateBrandHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.BrandInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	brand, err := h.Service.CreateBrand(r.Context(), in)
	h.handleServiceResponse(w, r, brand, err, http.StatusCreated)
}

// GetBrandHandler lida com a requisição GET /v1/brands/{id}.
// @Summary Obtém uma marca por ID
// @Tags brands
// @Produce json
// @Param id path int true "ID da marca"
// @Success 200 {object} domain.Brand
// @Failure 404 {object} domain.ErrorResponse "Marca não encontrada"
// @Router /brands/{id} [get]
func (h *Handler) GetBrandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	brand, err := h.Service.GetBrand(r.Context(), id)
	h.handleServiceResponse(w, r, brand, err, http.StatusOK)
}

// ListBrandsHandler lida com a requisição GET /v1/brands.
// @Summary Lista as marcas não excluídas
// @Tags brands
// @Produce json
// @Success 200 {array} domain.Brand
// @Router /brands [get]
func (h *Handler) ListBrandsHandler(w http.ResponseWriter, r *http.Request) {
	brands, err := h.Service.ListBrands(r.Context())
	if brands == nil {
		brands = []domain.Brand{}
	}
	h.handleServiceResponse(w, r, brands, err, http.StatusOK)
}

// UpdateBrandHandler lida com a requisição PUT /v1/brands/{id}.
// @Summary Renomeia uma marca
// @Tags brands
// @Accept json
// @Produce json
// @Param id path int true "ID da marca"
// @Param brand body domain.BrandInput true "Novo nome"
// @Success 200 {object} domain.Brand
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Marca não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Nome já utilizado"
// @Security ApiKeyAuth
// @Router /brands/{id} [put]
func (h *Handler) UpdateBrandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.BrandInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	brand, err := h.Service.UpdateBrand(r.Context(), id, in)
	h.handleServiceResponse(w, r, brand, err, http.StatusOK)
}

// DeleteBrandHandler lida com a requisição DELETE /v1/brands/{id}.
// @Summary Exclui logicamente uma marca sem produtos
// @Tags brands
// @Param id path int true "ID da marca"
// @Success 204 "Nenhum conteúdo"
// @Failure 404 {object} domain.ErrorResponse "Marca não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Marca em uso ou já excluída"
// @Security ApiKeyAuth
// @Router /brands/{id} [delete]
func (h *Handler) DeleteBrandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	err = h.Service.DeleteBrand(r.Context(), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
