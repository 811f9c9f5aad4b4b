package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
	MovimientoAjuste  = "ajuste"
)

// MovimientoStock registra cada cambio de stock en un producto.
// Los registros son inmutables; nunca se modifican ni eliminan.
// For "ajuste" Cantidad holds |nuevo - anterior|, not the requested level.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo          string    `gorm:"type:varchar(10);not null;index"` // "entrada" | "salida" | "ajuste"
	Cantidad      int       `gorm:"not null"`
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        *string
	Referencia    *string
	UsuarioID     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time  `gorm:"index"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
