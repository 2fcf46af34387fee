package domain

import "math"

// Tamanhos de página usados quando o chamador não informa ou exagera.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest é a paginação zero-based pedida pelo chamador.
type PageRequest struct {
	Page int
	Size int
}

// Normalize aplica os limites: página negativa vira 0, tamanho <= 0 vira o
// padrão e tamanho acima de maxSize é cortado (maxSize <= 0 usa MaxPageSize).
// A página é limitada para que Offset não estoure int; além do fim o
// resultado é apenas uma página vazia.
func (p PageRequest) Normalize(maxSize int) PageRequest {
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	if limit := math.MaxInt / p.Size; p.Page > limit {
		p.Page = limit
	}
	return p
}

// Offset é o deslocamento SQL correspondente.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page é o envelope paginado devolvido à camada HTTP.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	Last          bool  `json:"last"`
}

// NewPage monta o envelope a partir do conteúdo da página e do total geral.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          req.Page >= totalPages-1,
	}
}
