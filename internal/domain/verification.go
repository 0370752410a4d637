package domain

import "time"

// PendingVerification es el registro activo de un código enviado a un contacto.
// A lo sumo existe uno activo por contacto: un nuevo envío invalida el anterior.
type PendingVerification struct {
	Contact     string     `json:"contact"`
	DisplayName string     `json:"display_name,omitempty"`
	CodeHash    string     `json:"code_hash"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Consumed    bool       `json:"consumed"`
	UserID      string     `json:"user_id,omitempty"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"`
}

// Active indica si el registro sigue siendo utilizable en el instante dado.
func (v PendingVerification) Active(now time.Time) bool {
	return !v.Consumed && now.Before(v.ExpiresAt)
}
