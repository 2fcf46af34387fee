package database

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// RowScanner cobre *sql.Row e *sql.Rows.
type RowScanner interface {
	Scan(dest ...interface{}) error
}

// Int64Ptr converte uma coluna anulável em ponteiro.
func Int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func StringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func TimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

func DecimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}

// NullDecimal é o inverso de DecimalPtr, usado nos parâmetros de INSERT/UPDATE.
func NullDecimal(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *p, Valid: true}
}
