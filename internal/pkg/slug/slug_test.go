package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gocatalog/internal/pkg/slug"
)

func TestMake(t *testing.T) {
	assert.Equal(t, "camiseta-basica-azul", slug.Make("Camiseta Básica (Azul)"))
	assert.Equal(t, "tenis-corrida-2024", slug.Make("  Tênis   Corrida -- 2024 "))
	assert.Equal(t, "acao", slug.Make("Ação!"))
	assert.Equal(t, "", slug.Make("!!!"))
}
