package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxIntentosCodigo is the number of failed verifications a code tolerates.
const MaxIntentosCodigo = 3

// CodigoRecuperacion is a one-time 6-digit password reset code.
// At most one unused, unexpired code exists per user.
type CodigoRecuperacion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	Codigo    string    `gorm:"type:varchar(6);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Usado     bool      `gorm:"not null;default:false"`
	Intentos  int       `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (CodigoRecuperacion) TableName() string { return "codigos_recuperacion" }
