package middleware

import (
	"context"
	"net/http"
	"strings"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/httpx"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto deste pacote.
type ContextKey int

const (
	callerKey ContextKey = iota
	requestIDKey
)

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// Authenticator valida o JWT e controla papéis.
type Authenticator struct {
	tokens TokenService
	log    logger.Logger
}

// NewAuthenticator cria o middleware de autenticação.
func NewAuthenticator(tokens TokenService, log logger.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, log: log}
}

// Require exige um Bearer válido e um dos papéis informados (nenhum papel =
// qualquer usuário autenticado). A identidade fica no contexto apenas para
// que o handler a extraia e repasse explicitamente ao serviço.
func (a *Authenticator) Require(roles ...domain.UserRole) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				httpx.WriteError(w, r, a.log, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			claims, err := a.tokens.ValidateToken(tokenString)
			if err != nil {
				httpx.WriteError(w, r, a.log, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			caller := claims.Caller()
			if len(roles) > 0 && !hasRole(caller.Role, roles) {
				a.log.Warn("Acesso negado por papel.", map[string]interface{}{
					"user_id": caller.UserID,
					"role":    caller.Role,
					"path":    r.URL.Path,
				})
				httpx.WriteError(w, r, a.log, apperror.NewForbiddenError("Você não tem a permissão necessária."))
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

func hasRole(role domain.UserRole, allowed []domain.UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// CallerFromContext extrai a identidade anexada por Require.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(domain.Caller)
	return caller, ok
}

// CallerOrAnonymous é o atalho usado pelos handlers.
func CallerOrAnonymous(r *http.Request) domain.Caller {
	if caller, ok := CallerFromContext(r.Context()); ok {
		return caller
	}
	return domain.Anonymous
}
