package productservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/metrics"
	"gocatalog/internal/pkg/slug"
)

const (
	productUpdateReason = "product update"
	priceUpdateReason   = "price update"
)

// Repository é o contrato de persistência de produtos (productrepo).
type Repository interface {
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id int64) (domain.Product, error)
	FindAnyByID(ctx context.Context, id int64) (domain.Product, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	DeleteImage(ctx context.Context, productID, imageID int64) error
	FindStatus(ctx context.Context, id int64) (domain.ProductStatus, error)
	ListStatuses(ctx context.Context) ([]domain.ProductStatus, error)
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.ProductTx) error) error
	Invalidate(ctx context.Context, id int64)
}

// QueryRepository é o read model paginado (queryrepo).
type QueryRepository interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, int64, error)
}

type BrandReader interface {
	FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Brand, error)
}

type CategoryReader interface {
	FindByID(ctx context.Context, id int64, includeDeleted bool) (domain.Category, error)
}

// PriceRecorder grava o histórico de preços na transação corrente.
type PriceRecorder interface {
	Record(ctx context.Context, w domain.PriceHistoryWriter, change domain.PriceChange) (bool, error)
}

// ProductService contém a lógica de negócio de produtos.
type ProductService struct {
	repo        Repository
	queries     QueryRepository
	brands      BrandReader
	categories  CategoryReader
	recorder    PriceRecorder
	logger      logger.Logger
	metrics     *metrics.Metrics
	maxPageSize int
}

// NewService cria uma nova instância do ProductService.
func NewService(repo Repository, queries QueryRepository, brands BrandReader, categories CategoryReader,
	recorder PriceRecorder, logger logger.Logger, m *metrics.Metrics, maxPageSize int) *ProductService {
	return &ProductService{
		repo:        repo,
		queries:     queries,
		brands:      brands,
		categories:  categories,
		recorder:    recorder,
		logger:      logger,
		metrics:     m,
		maxPageSize: maxPageSize,
	}
}

// ListProducts devolve uma página de produtos não excluídos, mais novos primeiro.
func (s *ProductService) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.Page[domain.ProductSummary], error) {
	filter.PageRequest = filter.PageRequest.Normalize(s.maxPageSize)
	filter.Search = strings.TrimSpace(filter.Search)

	s.logger.Debug("Buscando produtos.", map[string]interface{}{"page": filter.Page, "size": filter.Size, "search": filter.Search})

	products, total, err := s.queries.ListProducts(ctx, filter)
	if err != nil {
		s.logger.Error("Falha ao listar produtos.", err)
		return domain.Page[domain.ProductSummary]{}, err
	}
	return domain.NewPage(products, filter.PageRequest, total), nil
}

// GetProduct busca um produto (com imagens e atributos) pelo ID.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// ListStatuses devolve a tabela de status.
func (s *ProductService) ListStatuses(ctx context.Context) ([]domain.ProductStatus, error) {
	return s.repo.ListStatuses(ctx)
}

// CreateProduct cria um produto. O slug é derivado do nome.
func (s *ProductService) CreateProduct(ctx context.Context, caller domain.Caller, in domain.ProductInput) (product domain.Product, err error) {
	defer func() { s.metrics.CatalogOperation("product", "create", err) }()

	name, err := validateProductInput(in)
	if err != nil {
		return domain.Product{}, err
	}
	if err = s.checkReferences(ctx, in); err != nil {
		return domain.Product{}, err
	}

	product, err = s.repo.Create(ctx, domain.Product{
		Name:         name,
		Slug:         slug.Make(name),
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price,
		Availability: in.Availability,
		StatusID:     in.StatusID,
		CategoryID:   in.CategoryID,
		BrandID:      in.BrandID,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado.", map[string]interface{}{"product_id": product.ID, "created_by": caller.UserID})
	return product, nil
}

// UpdateProduct substitui os dados do produto. Mudança de preço gera uma
// linha de histórico na mesma transação.
func (s *ProductService) UpdateProduct(ctx context.Context, caller domain.Caller, id int64, in domain.ProductInput) (product domain.Product, err error) {
	defer func() { s.metrics.CatalogOperation("product", "update", err) }()

	name, err := validateProductInput(in)
	if err != nil {
		return domain.Product{}, err
	}
	if err = s.checkReferences(ctx, in); err != nil {
		return domain.Product{}, err
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.ProductTx) error {
		current, err := tx.LockProduct(ctx, id)
		if err != nil {
			return err
		}

		updated := current
		updated.Name = name
		updated.Slug = slug.Make(name)
		updated.Description = strings.TrimSpace(in.Description)
		updated.Price = in.Price
		updated.Availability = in.Availability
		updated.StatusID = in.StatusID
		updated.CategoryID = in.CategoryID
		updated.BrandID = in.BrandID

		if _, err := tx.UpdateProduct(ctx, updated); err != nil {
			return err
		}
		_, err = s.recorder.Record(ctx, tx, domain.PriceChange{
			ProductID: id,
			OldPrice:  current.Price,
			NewPrice:  updated.Price,
			Reason:    productUpdateReason,
			ChangedBy: caller.UserID,
		})
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.repo.Invalidate(ctx, id)
	return s.repo.FindByID(ctx, id)
}

// UpdatePrice altera apenas o preço, registrando o motivo no histórico.
func (s *ProductService) UpdatePrice(ctx context.Context, caller domain.Caller, id int64, in domain.PriceUpdate) (product domain.Product, err error) {
	defer func() { s.metrics.CatalogOperation("product", "update_price", err) }()

	if !in.Price.IsPositive() {
		err = apperror.NewValidationError("O preço deve ser maior que zero.")
		return domain.Product{}, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = priceUpdateReason
	}

	var recorded bool
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.ProductTx) error {
		current, err := tx.LockProduct(ctx, id)
		if err != nil {
			return err
		}
		oldPrice := current.Price
		current.Price = in.Price
		if product, err = tx.UpdateProduct(ctx, current); err != nil {
			return err
		}
		recorded, err = s.recorder.Record(ctx, tx, domain.PriceChange{
			ProductID: id,
			OldPrice:  oldPrice,
			NewPrice:  in.Price,
			Reason:    reason,
			ChangedBy: caller.UserID,
		})
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.repo.Invalidate(ctx, id)
	s.logger.Info("Preço do produto atualizado.", map[string]interface{}{
		"product_id": id, "price": in.Price.String(), "recorded": recorded,
	})
	return product, nil
}

// DeleteProduct exclui logicamente o produto. Excluir duas vezes é Conflict.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.CatalogOperation("product", "delete", err) }()

	current, err := s.repo.FindAnyByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Lifecycle.IsDeleted() {
		err = apperror.NewConflictError(fmt.Sprintf("O produto %d já foi excluído.", id))
		return err
	}
	if err = s.repo.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return err
	}

	s.repo.Invalidate(ctx, id)
	s.logger.Info("Produto excluído.", map[string]interface{}{"product_id": id})
	return nil
}

// AddImage inclui uma imagem. Uma nova miniatura substitui a anterior.
func (s *ProductService) AddImage(ctx context.Context, productID int64, in domain.ImageInput) (image domain.ProductImage, err error) {
	defer func() { s.metrics.CatalogOperation("product", "add_image", err) }()

	url := strings.TrimSpace(in.URL)
	if url == "" {
		err = apperror.NewValidationError("A URL da imagem é obrigatória.")
		return domain.ProductImage{}, err
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.ProductTx) error {
		if _, err := tx.LockProduct(ctx, productID); err != nil {
			return err
		}
		count, err := tx.CountImages(ctx, productID)
		if err != nil {
			return err
		}
		if count >= domain.MaxImagesPerProduct {
			return apperror.NewValidationErrorf("Um produto aceita no máximo %d imagens.", domain.MaxImagesPerProduct)
		}
		if in.IsThumbnail {
			if err := tx.ClearThumbnail(ctx, productID); err != nil {
				return err
			}
		}
		image, err = tx.InsertImage(ctx, domain.ProductImage{
			ProductID:    productID,
			URL:          url,
			IsThumbnail:  in.IsThumbnail,
			DisplayOrder: count,
		})
		return err
	})
	if err != nil {
		return domain.ProductImage{}, err
	}

	s.repo.Invalidate(ctx, productID)
	return image, nil
}

// DeleteImage remove uma imagem do produto.
func (s *ProductService) DeleteImage(ctx context.Context, productID, imageID int64) (err error) {
	defer func() { s.metrics.CatalogOperation("product", "delete_image", err) }()

	if _, err = s.repo.FindByID(ctx, productID); err != nil {
		return err
	}
	if err = s.repo.DeleteImage(ctx, productID, imageID); err != nil {
		return err
	}
	s.repo.Invalidate(ctx, productID)
	return nil
}

// ReplaceAttributes substitui todos os atributos do produto.
func (s *ProductService) ReplaceAttributes(ctx context.Context, productID int64, in []domain.AttributeInput) (attrs []domain.ProductAttribute, err error) {
	defer func() { s.metrics.CatalogOperation("product", "replace_attributes", err) }()

	attributes := make([]domain.ProductAttribute, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			err = apperror.NewValidationError("O nome do atributo é obrigatório.")
			return nil, err
		}
		key := strings.ToLower(name)
		if seen[key] {
			err = apperror.NewValidationErrorf("Atributo '%s' repetido.", name)
			return nil, err
		}
		seen[key] = true
		attributes = append(attributes, domain.ProductAttribute{Name: name, Value: strings.TrimSpace(a.Value)})
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx domain.ProductTx) error {
		if _, err := tx.LockProduct(ctx, productID); err != nil {
			return err
		}
		var txErr error
		attrs, txErr = tx.ReplaceAttributes(ctx, productID, attributes)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.repo.Invalidate(ctx, productID)
	return attrs, nil
}

func validateProductInput(in domain.ProductInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if slug.Make(name) == "" {
		return "", apperror.NewValidationErrorf("O nome '%s' não gera um slug válido.", name)
	}
	if !in.Price.IsPositive() {
		return "", apperror.NewValidationError("O preço deve ser maior que zero.")
	}
	if in.Availability < 0 {
		return "", apperror.NewValidationError("A disponibilidade não pode ser negativa.")
	}
	return name, nil
}

// checkReferences garante que status, categoria e marca existem e não foram excluídos.
func (s *ProductService) checkReferences(ctx context.Context, in domain.ProductInput) error {
	if _, err := s.repo.FindStatus(ctx, in.StatusID); err != nil {
		return err
	}
	if in.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *in.CategoryID, false); err != nil {
			return err
		}
	}
	if in.BrandID != nil {
		if _, err := s.brands.FindByID(ctx, *in.BrandID, false); err != nil {
			return err
		}
	}
	return nil
}
