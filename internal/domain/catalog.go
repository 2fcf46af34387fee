package domain

import "time"

// Brand é a marca de um produto.
type Brand struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Lifecycle Lifecycle  `json:"lifecycle"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Timestamps
}

// BrandInput é o payload de criação/atualização de marca.
type BrandInput struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
}

// Category é um nó da árvore de categorias (referência ao pai, sem posse).
type Category struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	ParentID  *int64     `json:"parent_id,omitempty"`
	Lifecycle Lifecycle  `json:"lifecycle"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Children  []Category `json:"children,omitempty"`
	Timestamps
}

// CategoryInput é o payload de criação/atualização de categoria.
type CategoryInput struct {
	Name     string `json:"name" validate:"required,notblank,max=120"`
	ParentID *int64 `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
}
