package errors_test

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperror "gocatalog/internal/errors"
)

func TestFromDB_NoRowsBecomesNotFound(t *testing.T) {
	err := apperror.FromDB("Produto 7 não encontrado", sql.ErrNoRows)

	assert.True(t, apperror.IsNotFound(err))
	assert.Contains(t, err.Error(), "Produto 7")
}

func TestFromDB_UniqueViolationBecomesConflict(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "ux_variants_sku_active"}

	err := apperror.FromDB("Falha ao inserir variante", pqErr)

	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "ux_variants_sku_active")
	assert.True(t, stderrors.Is(err, pqErr))
}

func TestFromDB_ForeignKeyViolationBecomesConflict(t *testing.T) {
	err := apperror.FromDB("Falha ao remover marca", &pq.Error{Code: "23503"})

	assert.True(t, apperror.IsConflict(err))
}

func TestFromDB_OtherErrorsBecomeInternal(t *testing.T) {
	err := apperror.FromDB("Falha ao buscar", stderrors.New("connection reset"))

	var internal *apperror.InternalError
	assert.True(t, stderrors.As(err, &internal))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFromDB_KeepsAppErrors(t *testing.T) {
	original := apperror.NewValidationError("SKU inválido")

	assert.Same(t, original, apperror.FromDB("ignorado", original))
	assert.Nil(t, apperror.FromDB("ignorado", nil))
}

func TestMapToHTTPStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"validation", apperror.NewValidationError("x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", apperror.NewNotFoundError("x"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperror.NewConflictError("x"), http.StatusConflict, "CONFLICT"},
		{"unauthorized", apperror.NewUnauthorizedError("x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", apperror.NewForbiddenError("x"), http.StatusForbidden, "FORBIDDEN"},
		{"internal", apperror.NewInternalError("x", stderrors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"wrapped conflict", fmt.Errorf("camada: %w", apperror.NewConflictError("x")), http.StatusConflict, "CONFLICT"},
		{"untyped", stderrors.New("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, category, _ := apperror.MapToHTTPStatus(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.category, category)
		})
	}
}

func TestMapToHTTPStatus_HidesInternalDetails(t *testing.T) {
	_, _, msg := apperror.MapToHTTPStatus(apperror.NewDBError("Falha", stderrors.New("password=secret")))

	assert.NotContains(t, msg, "secret")
}
