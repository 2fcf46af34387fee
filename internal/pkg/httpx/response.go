package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

// WriteJSON serializa data com o status informado.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError traduz err para o corpo padronizado {code, category, message}.
// 5xx são registrados como Error; 4xx apenas em Debug.
func WriteError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= http.StatusInternalServerError {
		log.Error(fmt.Sprintf("Erro de Servidor: %s %s", r.Method, r.URL.Path), err)
	} else {
		log.Debug("Requisição rejeitada.", map[string]interface{}{
			"path":     r.URL.Path,
			"status":   status,
			"category": category,
		})
	}

	WriteJSON(w, status, domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// Decode lê o corpo JSON em dst e aplica as regras `validate`.
// Falhas viram ValidationError.
func Decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	if err := Struct(dst); err != nil {
		return apperror.NewValidationError(err.Error())
	}
	return nil
}

// PathID lê um identificador numérico positivo do padrão de rota.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidationErrorf("O parâmetro %s deve ser um inteiro positivo.", name)
	}
	return id, nil
}

// QueryInt lê um inteiro opcional da query string.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationErrorf("O parâmetro %s deve ser numérico.", name)
	}
	return v, nil
}

// QueryID lê um identificador opcional da query string (nil quando ausente).
func QueryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, apperror.NewValidationErrorf("O parâmetro %s deve ser um inteiro positivo.", name)
	}
	return &v, nil
}

// PageRequest lê page/size da query string.
func PageRequest(r *http.Request) (domain.PageRequest, error) {
	page, err := QueryInt(r, "page", 0)
	if err != nil {
		return domain.PageRequest{}, err
	}
	size, err := QueryInt(r, "size", domain.DefaultPageSize)
	if err != nil {
		return domain.PageRequest{}, err
	}
	return domain.PageRequest{Page: page, Size: size}, nil
}
