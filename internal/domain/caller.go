package domain

// Caller é a identidade autenticada que a camada HTTP repassa explicitamente
// aos serviços (auditoria e changed_by do histórico de preços).
type Caller struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}

// IsAdmin informa se o chamador tem o papel de administrador.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// Anonymous é o chamador usado quando nenhuma identidade foi fornecida.
var Anonymous = Caller{Role: RoleGuest}
