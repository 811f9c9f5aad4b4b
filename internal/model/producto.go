package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a menu item. StockActual is a denormalized balance owned by the
// stock ledger; nothing else writes it.
// When ControlarStock is true, Disponible follows StockActual > 0.
type Producto struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre         string    `gorm:"index;not null"`
	Descripcion    *string
	CategoriaID    *uuid.UUID      `gorm:"type:uuid;index"`
	Precio         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockActual    int             `gorm:"not null;default:0;check:stock_actual >= 0"`
	StockMinimo    int             `gorm:"not null;default:0"`
	StockMaximo    *int
	ControlarStock bool `gorm:"not null;default:false"`
	Disponible     bool `gorm:"not null;default:true"`
	Activo         bool `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
}

func (Producto) TableName() string { return "productos" }
