package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MaxImagesPerProduct é o limite de imagens por produto.
const MaxImagesPerProduct = 6

// Product representa o item principal do catálogo.
type Product struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Slug         string             `json:"slug"`
	Description  string             `json:"description"`
	Price        decimal.Decimal    `json:"price"`
	Availability int                `json:"availability"`
	Lifecycle    Lifecycle          `json:"lifecycle"`
	StatusID     int64              `json:"status_id"`
	Status       *ProductStatus     `json:"status,omitempty"`
	CategoryID   *int64             `json:"category_id,omitempty"`
	BrandID      *int64             `json:"brand_id,omitempty"`
	Images       []ProductImage     `json:"images"`
	Attributes   []ProductAttribute `json:"attributes"`
	DeletedAt    *time.Time         `json:"deleted_at,omitempty"`
	Timestamps
}

// ProductStatus é a tabela de referência de status (DRAFT, ACTIVE...).
type ProductStatus struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"display_order"`
}

// ProductImage é uma imagem (apenas a URL) de um produto.
type ProductImage struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	URL          string    `json:"url"`
	IsThumbnail  bool      `json:"is_thumbnail"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductAttribute é um par nome/valor livre.
type ProductAttribute struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

// ProductSummary é a linha do read model de listagem paginada.
type ProductSummary struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Availability int             `json:"availability"`
	StatusID     int64           `json:"status_id"`
	StatusCode   string          `json:"status_code"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	BrandID      *int64          `json:"brand_id,omitempty"`
	ThumbnailURL *string         `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// --- Payloads de entrada ---

// ProductInput é o payload de criação/atualização de produto.
type ProductInput struct {
	Name         string          `json:"name" validate:"required,notblank,max=255"`
	Description  string          `json:"description" validate:"max=5000"`
	Price        decimal.Decimal `json:"price" validate:"money"`
	Availability int             `json:"availability" validate:"gte=0"`
	StatusID     int64           `json:"status_id" validate:"required,gt=0"`
	CategoryID   *int64          `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	BrandID      *int64          `json:"brand_id,omitempty" validate:"omitempty,gt=0"`
}

// PriceUpdate é o payload de alteração isolada de preço.
type PriceUpdate struct {
	Price  decimal.Decimal `json:"price" validate:"money"`
	Reason string          `json:"reason" validate:"max=255"`
}

// ImageInput é o payload de inclusão de imagem.
type ImageInput struct {
	URL         string `json:"url" validate:"required,url,max=2048"`
	IsThumbnail bool   `json:"is_thumbnail"`
}

// AttributeInput é um item do payload de substituição de atributos.
type AttributeInput struct {
	Name  string `json:"name" validate:"required,notblank,max=100"`
	Value string `json:"value" validate:"max=500"`
}

// ProductFilter define busca e paginação da listagem de produtos.
type ProductFilter struct {
	Search         string
	StatusID       *int64
	CategoryID     *int64
	BrandID        *int64
	IncludeDeleted bool
	PageRequest
}

// ProductTx é a unidade de trabalho das alterações de produto: preço (com
// histórico na mesma transação), imagens e atributos.
type ProductTx interface {
	PriceHistoryWriter
	LockProduct(ctx context.Context, id int64) (Product, error)
	UpdateProduct(ctx context.Context, product Product) (Product, error)

	CountImages(ctx context.Context, productID int64) (int, error)
	ClearThumbnail(ctx context.Context, productID int64) error
	InsertImage(ctx context.Context, image ProductImage) (ProductImage, error)
	ReplaceAttributes(ctx context.Context, productID int64, attributes []ProductAttribute) ([]ProductAttribute, error)
}
