package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TipoLocal      = "LOCAL"
	TipoDomicilio  = "DOMICILIO"
	TipoParaLlevar = "PARA_LLEVAR"
)

const (
	EstadoPendiente     = "PENDIENTE"
	EstadoEnPreparacion = "EN_PREPARACION"
	EstadoLista         = "LISTA"
	EstadoEntregada     = "ENTREGADA"
	EstadoCancelada     = "CANCELADA"
)

// EstadosActivos are the states in which an order occupies its table.
var EstadosActivos = []string{EstadoPendiente, EstadoEnPreparacion, EstadoLista}

// Orden is one customer transaction.
// Total = Subtotal - Descuento + CostoEnvio + CostoAdicional.
type Orden struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SucursalID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo             string          `gorm:"type:varchar(20);not null"`
	MesaID           *uuid.UUID      `gorm:"type:uuid;index"`
	ClienteID        *uuid.UUID      `gorm:"type:uuid;index"`
	UsuarioID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Estado           string          `gorm:"type:varchar(20);not null;default:'PENDIENTE';index"`
	DireccionEntrega *string
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CostoEnvio       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CostoAdicional   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notas            *string
	CreadaOffline    bool `gorm:"not null;default:false"`
	Sincronizada     bool `gorm:"not null;default:true"`
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time

	Items    []OrdenItem `gorm:"foreignKey:OrdenID;constraint:OnDelete:CASCADE"`
	Mesa     *Mesa       `gorm:"foreignKey:MesaID"`
	Cliente  *Cliente    `gorm:"foreignKey:ClienteID"`
	Usuario  *Usuario    `gorm:"foreignKey:UsuarioID"`
	Sucursal *Sucursal   `gorm:"foreignKey:SucursalID"`
}

func (Orden) TableName() string { return "ordenes" }

// Activa reports whether the order still occupies its table.
func (o *Orden) Activa() bool { return EsEstadoActivo(o.Estado) }

// Terminal reports whether the order is delivered or cancelled.
func (o *Orden) Terminal() bool {
	return o.Estado == EstadoEntregada || o.Estado == EstadoCancelada
}

func EsEstadoActivo(estado string) bool {
	for _, e := range EstadosActivos {
		if e == estado {
			return true
		}
	}
	return false
}

// OrdenItem is one line of an order. PrecioUnitario is a snapshot taken when
// the line was written; later price changes do not touch it.
type OrdenItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrdenID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notas          *string

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (OrdenItem) TableName() string { return "orden_items" }
