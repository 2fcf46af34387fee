package product

import (
	"context"
	"net/http"
	"strings"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/httpx"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.Page[domain.ProductSummary], error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	ListStatuses(ctx context.Context) ([]domain.ProductStatus, error)
	CreateProduct(ctx context.Context, caller domain.Caller, in domain.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, caller domain.Caller, id int64, in domain.ProductInput) (domain.Product, error)
	UpdatePrice(ctx context.Context, caller domain.Caller, id int64, in domain.PriceUpdate) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	AddImage(ctx context.Context, productID int64, in domain.ImageInput) (domain.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID int64) error
	ReplaceAttributes(ctx context.Context, productID int64, in []domain.AttributeInput) ([]domain.ProductAttribute, error)
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// handleServiceResponse envia data com successStatus ou traduz err para o
// corpo de erro padronizado.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, successStatus, data)
}

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista produtos paginados
// @Description Busca por nome/descrição (sem distinção de caixa) e filtros opcionais.
// @Tags products
// @Produce json
// @Param search query string false "Texto buscado em nome e descrição"
// @Param status_id query int false "Status"
// @Param category_id query int false "Categoria"
// @Param brand_id query int false "Marca"
// @Param page query int false "Página (a partir de 0)"
// @Param size query int false "Tamanho da página"
// @Success 200 {object} domain.Page[domain.ProductSummary]
// @Failure 400 {object} domain.ErrorResponse "Parâmetros inválidos"
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	page, err := h.Service.ListProducts(r.Context(), filter)
	h.handleServiceResponse(w, r, page, err, http.StatusOK)
}

func productFilter(r *http.Request) (domain.ProductFilter, error) {
	var (
		filter domain.ProductFilter
		err    error
	)
	if filter.PageRequest, err = httpx.PageRequest(r); err != nil {
		return filter, err
	}
	if filter.StatusID, err = httpx.QueryID(r, "status_id"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = httpx.QueryID(r, "category_id"); err != nil {
		return filter, err
	}
	if filter.BrandID, err = httpx.QueryID(r, "brand_id"); err != nil {
		return filter, err
	}
	filter.Search = strings.TrimSpace(r.URL.Query().Get("search"))
	return filter, nil
}

// GetProductHandler lida com a requisição GET /v1/products/{id}.
// @Summary Obtém um produto com imagens e atributos
// @Tags products
// @Produce json
// @Param id path int true "ID do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	product, err := h.Service.GetProduct(r.Context(), id)
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// ListStatusesHandler lida com a requisição GET /v1/statuses.
// @Summary Lista os status de produto
// @Tags products
// @Produce json
// @Success 200 {array} domain.ProductStatus
// @Router /statuses [get]
func (h *Handler) ListStatusesHandler(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Service.ListStatuses(r.Context())
	h.handleServiceResponse(w, r, statuses, err, http.StatusOK)
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cria um produto
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.ProductInput true "Dados do produto"
// @Success 201 {object} domain.Product "Produto criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Marca, categoria ou status inexistente"
// @Failure 409 {object} domain.ErrorResponse "Nome já utilizado"
// @Security ApiKeyAuth
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.ProductInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	caller := middleware.CallerOrAnonymous(r)
	h.Logger.Info("Criação de produto solicitada.", map[string]interface{}{"user_id": caller.UserID})

	product, err := h.Service.CreateProduct(r.Context(), caller, in)
	h.handleServiceResponse(w, r, product, err, http.StatusCreated)
}

// UpdateProductHandler lida com a requisição PUT /v1/products/{id}.
// @Summary Atualiza um produto (mudança de preço gera histórico)
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "ID do produto"
// @Param product body domain.ProductInput true "Dados do produto"
// @Success 200 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Security ApiKeyAuth
// @Router /products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.ProductInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	product, err := h.Service.UpdateProduct(r.Context(), middleware.CallerOrAnonymous(r), id, in)
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// UpdatePriceHandler lida com a requisição PATCH /v1/products/{id}/price.
// @Summary Altera apenas o preço de um produto
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "ID do produto"
// @Param price body domain.PriceUpdate true "Novo preço e motivo"
// @Success 200 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "Preço inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Security ApiKeyAuth
// @Router /products/{id}/price [patch]
func (h *Handler) UpdatePriceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.PriceUpdate
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	product, err := h.Service.UpdatePrice(r.Context(), middleware.CallerOrAnonymous(r), id, in)
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
// @Summary Exclui logicamente um produto
// @Tags products
// @Param id path int true "ID do produto"
// @Success 204 "Nenhum conteúdo"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Produto já excluído"
// @Security ApiKeyAuth
// @Router /products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	err = h.Service.DeleteProduct(r.Context(), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// AddImageHandler lida com a requisição POST /v1/products/{id}/images.
// @Summary Adiciona uma imagem (máximo de 6 por produto)
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "ID do produto"
// @Param image body domain.ImageInput true "URL da imagem"
// @Success 201 {object} domain.ProductImage
// @Failure 400 {object} domain.ErrorResponse "URL inválida ou limite atingido"
// @Security ApiKeyAuth
// @Router /products/{id}/images [post]
func (h *Handler) AddImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in domain.ImageInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	image, err := h.Service.AddImage(r.Context(), id, in)
	h.handleServiceResponse(w, r, image, err, http.StatusCreated)
}

// DeleteImageHandler lida com a requisição DELETE /v1/products/{id}/images/{imageId}.
// @Summary Remove uma imagem do produto
// @Tags products
// @Param id path int true "ID do produto"
// @Param imageId path int true "ID da imagem"
// @Success 204 "Nenhum conteúdo"
// @Failure 404 {object} domain.ErrorResponse "Imagem não encontrada"
// @Security ApiKeyAuth
// @Router /products/{id}/images/{imageId} [delete]
func (h *Handler) DeleteImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	imageID, err := httpx.PathID(r, "imageId")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	err = h.Service.DeleteImage(r.Context(), id, imageID)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// ReplaceAttributesHandler lida com a requisição PUT /v1/products/{id}/attributes.
// @Summary Substitui o conjunto de atributos do produto
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "ID do produto"
// @Param attributes body []domain.AttributeInput true "Atributos"
// @Success 200 {array} domain.ProductAttribute
// @Failure 400 {object} domain.ErrorResponse "Nomes vazios ou repetidos"
// @Security ApiKeyAuth
// @Router /products/{id}/attributes [put]
func (h *Handler) ReplaceAttributesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
	var in []domain.AttributeInput
	if err := httpx.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	attrs, err := h.Service.ReplaceAttributes(r.Context(), id, in)
	h.handleServiceResponse(w, r, attrs, err, http.StatusOK)
}
