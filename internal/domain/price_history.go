package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory é uma linha imutável do histórico de preços.
type PriceHistory struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	VariantID *int64          `json:"variant_id,omitempty"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	Reason    *string         `json:"reason,omitempty"`
	ChangedBy *string         `json:"changed_by,omitempty"`
	ChangedAt time.Time       `json:"changed_at"`
}

// PriceChange descreve uma transição de preço a ser auditada.
type PriceChange struct {
	ProductID int64
	VariantID *int64
	OldPrice  decimal.Decimal
	NewPrice  decimal.Decimal
	Reason    string
	ChangedBy string
}

// Changed informa se houve de fato mudança (100 e 100.00 são iguais).
func (c PriceChange) Changed() bool {
	return !c.OldPrice.Equal(c.NewPrice)
}

// PriceHistoryWriter grava linhas de histórico dentro da transação corrente.
type PriceHistoryWriter interface {
	InsertPriceHistory(ctx context.Context, entry PriceHistory) (PriceHistory, error)
}
