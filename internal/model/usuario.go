package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolMesero        = "mesero"
	RolCajero        = "cajero"
	RolCocina        = "cocina"
	RolAdministrador = "administrador"
)

// Usuario stores system users with role-based access.
// Rol: "mesero" | "cajero" | "cocina" | "administrador"
type Usuario struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username string    `gorm:"uniqueIndex;not null"`
	// Identificacion is the national id number; password recovery is keyed on it.
	Identificacion string `gorm:"uniqueIndex;not null"`
	Nombre         string `gorm:"not null"`
	Email          *string
	PasswordHash   string `gorm:"not null"`
	Rol            string `gorm:"type:varchar(20);not null"`
	// SucursalID restricts staff to one branch; nil = all branches
	SucursalID *uuid.UUID `gorm:"type:uuid;index"`
	Activo     bool       `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Sesion backs every issued token pair. Tokens carry its ID in the "sid" claim
// and stop being accepted once the session is revoked or expired.
type Sesion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	IP        string
	UserAgent string
	CreatedAt time.Time
}

func (Sesion) TableName() string { return "sesiones" }

// Activa reports whether the session can still authenticate requests at now.
func (s *Sesion) Activa(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
