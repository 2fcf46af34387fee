package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/token"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := token.NewService("segredo-de-teste", time.Hour)

	raw, err := svc.GenerateToken("user-1", "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.Caller{UserID: "user-1", Role: domain.RoleAdmin}, claims.Caller())
}

func TestValidate_WrongSecret(t *testing.T) {
	raw, err := token.NewService("um", time.Hour).GenerateToken("user-1", "user")
	require.NoError(t, err)

	_, err = token.NewService("outro", time.Hour).ValidateToken(raw)
	assert.True(t, errors.Is(err, token.ErrInvalidToken))
}

func TestValidate_Expired(t *testing.T) {
	svc := token.NewService("segredo", -time.Minute)
	raw, err := svc.GenerateToken("user-1", "user")
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	assert.True(t, errors.Is(err, token.ErrInvalidToken))
}

func TestValidate_Garbage(t *testing.T) {
	_, err := token.NewService("segredo", time.Hour).ValidateToken("nao.e.jwt")
	assert.True(t, errors.Is(err, token.ErrInvalidToken))
}
