package domain

import "time"

// Lifecycle é o estado de vida uniforme das entidades com exclusão lógica
// (Product, Brand, Category, Variant). Linhas DELETED continuam no banco.
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "ACTIVE"
	LifecycleDeleted Lifecycle = "DELETED"
)

// IsDeleted informa se a entidade foi excluída logicamente.
func (l Lifecycle) IsDeleted() bool { return l == LifecycleDeleted }

// Timestamps agrupa os metadados comuns a todas as entidades.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
