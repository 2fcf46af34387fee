package domain

import (
	"context"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Limites das opções de variação por produto.
const (
	MaxVariantOptions = 5
	MaxOptionValues   = 20
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// ValidSKU informa se o SKU segue o padrão ^[A-Z0-9-]+$ (sensível a caixa).
func ValidSKU(sku string) bool {
	return skuPattern.MatchString(sku)
}

// VariantOption é um eixo de variação (ex.: "Cor") com os valores permitidos.
type VariantOption struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	Name         string    `json:"name"`
	Values       []string  `json:"values"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// Allows informa se value está entre os valores permitidos da opção.
func (o VariantOption) Allows(value string) bool {
	for _, v := range o.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Variant é uma configuração comprável de um produto (ex.: "Vermelho / G").
type Variant struct {
	ID                int64             `json:"id"`
	ProductID         int64             `json:"product_id"`
	SKU               string            `json:"sku"`
	Price             decimal.Decimal   `json:"price"`
	CompareAtPrice    *decimal.Decimal  `json:"compare_at_price,omitempty"`
	StockQuantity     int               `json:"stock_quantity"`
	LowStockThreshold int               `json:"low_stock_threshold"`
	OptionValues      map[string]string `json:"option_values"`
	IsDefault         bool              `json:"is_default"`
	IsActive          bool              `json:"is_active"`
	DisplayOrder      int               `json:"display_order"`
	Lifecycle         Lifecycle         `json:"lifecycle"`
	DeletedAt         *time.Time        `json:"deleted_at,omitempty"`
	Timestamps
}

// IsAvailable é verdadeiro para variantes ativas e não excluídas.
func (v Variant) IsAvailable() bool {
	return v.IsActive && !v.Lifecycle.IsDeleted()
}

// IsLowStock é verdadeiro quando o estoque chegou ao limite de alerta.
func (v Variant) IsLowStock() bool {
	return v.StockQuantity <= v.LowStockThreshold
}

// VariantOptionInput é um item do payload de definição de opções.
type VariantOptionInput struct {
	Name   string   `json:"name" validate:"required,notblank,max=50"`
	Values []string `json:"values" validate:"required,min=1,dive,required,notblank,max=50"`
}

// VariantInput é o payload de criação/atualização de variante.
// IsActive nulo significa "ativa" na criação e "inalterado" na atualização.
type VariantInput struct {
	SKU               string            `json:"sku" validate:"required,max=64"`
	Price             decimal.Decimal   `json:"price" validate:"money"`
	CompareAtPrice    *decimal.Decimal  `json:"compare_at_price,omitempty" validate:"omitempty,money"`
	StockQuantity     int               `json:"stock_quantity" validate:"gte=0"`
	LowStockThreshold int               `json:"low_stock_threshold" validate:"gte=0"`
	OptionValues      map[string]string `json:"option_values"`
	IsDefault         bool              `json:"is_default"`
	IsActive          *bool             `json:"is_active,omitempty"`
	DisplayOrder      int               `json:"display_order" validate:"gte=0"`
}

// BulkVariantsInput é o payload de criação em lote (opções + variantes).
type BulkVariantsInput struct {
	Options  []VariantOptionInput `json:"options" validate:"dive"`
	Variants []VariantInput       `json:"variants" validate:"required,min=1,dive"`
}

// StockUpdate é o payload de sobrescrita de estoque.
type StockUpdate struct {
	StockQuantity int `json:"stock_quantity"`
}

// VariantSummary é a visão agregada das variantes de um produto.
type VariantSummary struct {
	ProductID      int64            `json:"product_id"`
	TotalVariants  int              `json:"total_variants"`
	ActiveVariants int              `json:"active_variants"`
	TotalStock     int64            `json:"total_stock"`
	MinPrice       *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice       *decimal.Decimal `json:"max_price,omitempty"`
	LowStock       []Variant        `json:"low_stock"`
}

// VariantTx é a unidade de trabalho transacional do motor de regras de
// variantes. Todas as leituras ignoram variantes excluídas.
type VariantTx interface {
	PriceHistoryWriter

	// LockProduct carrega o produto (não excluído) com SELECT ... FOR UPDATE.
	LockProduct(ctx context.Context, productID int64) (Product, error)

	ListOptions(ctx context.Context, productID int64) ([]VariantOption, error)
	ReplaceOptions(ctx context.Context, productID int64, options []VariantOption) ([]VariantOption, error)

	// ListVariants devolve as variantes não excluídas em display_order, id.
	ListVariants(ctx context.Context, productID int64) ([]Variant, error)
	GetVariant(ctx context.Context, variantID int64) (Variant, error)
	SKUTaken(ctx context.Context, sku string, excludeVariantID int64) (bool, error)
	InsertVariant(ctx context.Context, variant Variant) (Variant, error)
	UpdateVariant(ctx context.Context, variant Variant) (Variant, error)
	ClearDefault(ctx context.Context, productID int64) error
	SetDefault(ctx context.Context, variantID int64) error
	SoftDeleteVariant(ctx context.Context, variantID int64, at time.Time) error
	UpdateStock(ctx context.Context, variantID int64, stock int) error
}
