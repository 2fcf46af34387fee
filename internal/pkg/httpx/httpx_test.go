package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/httpx"
	"gocatalog/internal/pkg/logger"
)

func TestValidMoney(t *testing.T) {
	assert.True(t, httpx.ValidMoney("100"))
	assert.True(t, httpx.ValidMoney("100.00"))
	assert.True(t, httpx.ValidMoney("0.01"))
	assert.True(t, httpx.ValidMoney("9999999999.99"))
	assert.False(t, httpx.ValidMoney("0"))
	assert.False(t, httpx.ValidMoney("-5"))
	assert.False(t, httpx.ValidMoney("1.005"))
	assert.False(t, httpx.ValidMoney("12345678901"))
	assert.False(t, httpx.ValidMoney("abc"))
}

func TestDecode_ValidVariant(t *testing.T) {
	body := `{"sku":"SKU-001","price":"100.00","compare_at_price":"120.00","stock_quantity":5,"low_stock_threshold":1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var in domain.VariantInput
	require.NoError(t, httpx.Decode(req, &in))
	assert.Equal(t, "SKU-001", in.SKU)
	assert.Equal(t, "100", in.Price.String())
	require.NotNil(t, in.CompareAtPrice)
}

func TestDecode_RejectsNegativeStockAndMissingPrice(t *testing.T) {
	body := `{"sku":"SKU-001","stock_quantity":-1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var in domain.VariantInput
	err := httpx.Decode(req, &in)

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "price")
	assert.Contains(t, err.Error(), "stock_quantity")
}

func TestDecode_RejectsBlankName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))

	var in domain.BrandInput
	err := httpx.Decode(req, &in)

	assert.True(t, apperror.IsValidation(err))
}

func TestDecode_RejectsUnknownFieldsAndBadJSON(t *testing.T) {
	var in domain.BrandInput

	err := httpx.Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Acme","x":1}`)), &in)
	assert.True(t, apperror.IsValidation(err))

	err = httpx.Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), &in)
	assert.True(t, apperror.IsValidation(err))
}

func TestWriteError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/brands/1", nil)

	httpx.WriteError(rec, req, logger.NewNop(), apperror.NewConflictError("Marca em uso."))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Category)
	assert.Contains(t, body.Message, "Marca em uso.")
}

func TestPathIDAndPageRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/products/42?page=2&size=5", nil)
	req.SetPathValue("id", "42")

	id, err := httpx.PathID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	page, err := httpx.PageRequest(req)
	require.NoError(t, err)
	assert.Equal(t, domain.PageRequest{Page: 2, Size: 5}, page)

	req.SetPathValue("id", "abc")
	_, err = httpx.PathID(req, "id")
	assert.True(t, apperror.IsValidation(err))
}

func TestDecode_ValidatesEachListItem(t *testing.T) {
	var ok []domain.AttributeInput
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`[{"name":"Material","value":"Algodão"}]`))
	require.NoError(t, httpx.Decode(req, &ok))
	assert.Len(t, ok, 1)

	var bad []domain.AttributeInput
	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`[{"name":"Material"},{"name":" "}]`))
	err := httpx.Decode(req, &bad)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "name")
}
