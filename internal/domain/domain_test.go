package domain_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gocatalog/internal/domain"
)

func TestValidSKU(t *testing.T) {
	assert.True(t, domain.ValidSKU("SKU-001"))
	assert.True(t, domain.ValidSKU("TSHIRT-RED-XL"))
	assert.False(t, domain.ValidSKU("sku with spaces"))
	assert.False(t, domain.ValidSKU("sku-001"))
	assert.False(t, domain.ValidSKU(""))
	assert.False(t, domain.ValidSKU("SKU_001"))
}

func TestPageRequest_Normalize(t *testing.T) {
	assert.Equal(t, domain.PageRequest{Page: 0, Size: 10}, domain.PageRequest{Page: -3, Size: 0}.Normalize(100))
	assert.Equal(t, domain.PageRequest{Page: 2, Size: 100}, domain.PageRequest{Page: 2, Size: 150}.Normalize(100))
	assert.Equal(t, domain.PageRequest{Page: 1, Size: 50}, domain.PageRequest{Page: 1, Size: 80}.Normalize(50))
	assert.Equal(t, domain.PageRequest{Page: 0, Size: 100}, domain.PageRequest{Size: 500}.Normalize(0))
}

func TestPageRequest_HugePageKeepsOffsetPositive(t *testing.T) {
	req := domain.PageRequest{Page: 92233720368547760, Size: 100}.Normalize(100)

	assert.Equal(t, 100, req.Size)
	assert.Positive(t, req.Offset())
	assert.LessOrEqual(t, req.Offset(), math.MaxInt)

	page := domain.NewPage[int](nil, req, 3)
	assert.Empty(t, page.Content)
	assert.True(t, page.Last)
}

func TestNewPage_Totals(t *testing.T) {
	req := domain.PageRequest{Page: 0, Size: 10}
	page := domain.NewPage(make([]int, 10), req, 25)

	assert.Len(t, page.Content, 10)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(25), page.TotalElements)
	assert.False(t, page.Last)

	lastPage := domain.NewPage(make([]int, 5), domain.PageRequest{Page: 2, Size: 10}, 25)
	assert.True(t, lastPage.Last)
}

func TestNewPage_Empty(t *testing.T) {
	page := domain.NewPage[int](nil, domain.PageRequest{Page: 0, Size: 10}, 0)

	assert.NotNil(t, page.Content)
	assert.Equal(t, 0, page.TotalPages)
	assert.True(t, page.Last)
}

func TestPriceChange_Changed(t *testing.T) {
	same := domain.PriceChange{OldPrice: decimal.RequireFromString("100.00"), NewPrice: decimal.NewFromInt(100)}
	diff := domain.PriceChange{OldPrice: decimal.RequireFromString("100.00"), NewPrice: decimal.RequireFromString("120.00")}

	assert.False(t, same.Changed())
	assert.True(t, diff.Changed())
}

func TestVariantHelpers(t *testing.T) {
	opt := domain.VariantOption{Name: "Cor", Values: []string{"Vermelho", "Azul"}}
	assert.True(t, opt.Allows("Azul"))
	assert.False(t, opt.Allows("azul"))

	v := domain.Variant{IsActive: true, Lifecycle: domain.LifecycleActive, StockQuantity: 2, LowStockThreshold: 2}
	assert.True(t, v.IsAvailable())
	assert.True(t, v.IsLowStock())

	v.Lifecycle = domain.LifecycleDeleted
	assert.False(t, v.IsAvailable())
}
