package model

import (
	"time"

	"github.com/google/uuid"
)

// Mesa is a seating unit within a branch.
// OrdenActualID points at the active order occupying the table; it is set and
// cleared in the same transaction as the order transition that takes or frees it.
type Mesa struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SucursalID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mesa_sucursal_numero"`
	Numero        int       `gorm:"not null;uniqueIndex:idx_mesa_sucursal_numero"`
	Capacidad     int       `gorm:"not null;default:4"`
	Disponible    bool      `gorm:"not null;default:true"`
	Ubicacion     *string
	Notas         *string
	OrdenActualID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Sucursal *Sucursal `gorm:"foreignKey:SucursalID"`
}

func (Mesa) TableName() string { return "mesas" }
