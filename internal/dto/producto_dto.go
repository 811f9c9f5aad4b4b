package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearProductoRequest: StockInicial is recorded as the first ledger entry.
type CrearProductoRequest struct {
	Nombre         string          `json:"nombre"          validate:"required,min=2,max=120"`
	Descripcion    *string         `json:"descripcion"`
	CategoriaID    *string         `json:"categoria_id"    validate:"omitempty,uuid"`
	Precio         decimal.Decimal `json:"precio"          validate:"required"`
	StockInicial   int             `json:"stock_inicial"   validate:"min=0"`
	StockMinimo    int             `json:"stock_minimo"    validate:"min=0"`
	StockMaximo    *int            `json:"stock_maximo"    validate:"omitempty,min=1"`
	ControlarStock bool            `json:"controlar_stock"`
}

// ActualizarProductoRequest never touches stock_actual; that goes through the ledger.
type ActualizarProductoRequest struct {
	Nombre         *string          `json:"nombre"          validate:"omitempty,min=2,max=120"`
	Descripcion    *string          `json:"descripcion"`
	CategoriaID    *string          `json:"categoria_id"    validate:"omitempty,uuid"`
	Precio         *decimal.Decimal `json:"precio"`
	StockMinimo    *int             `json:"stock_minimo"    validate:"omitempty,min=0"`
	StockMaximo    *int             `json:"stock_maximo"    validate:"omitempty,min=1"`
	ControlarStock *bool            `json:"controlar_stock"`
	Disponible     *bool            `json:"disponible"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre      string `form:"nombre"`
	CategoriaID string `form:"categoria_id" validate:"omitempty,uuid"`
	Disponible  *bool  `form:"disponible"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID             string          `json:"id"`
	Nombre         string          `json:"nombre"`
	Descripcion    *string         `json:"descripcion"`
	CategoriaID    *string         `json:"categoria_id"`
	Categoria      string          `json:"categoria"`
	Precio         decimal.Decimal `json:"precio"`
	StockActual    int             `json:"stock_actual"`
	StockMinimo    int             `json:"stock_minimo"`
	StockMaximo    *int            `json:"stock_maximo"`
	ControlarStock bool            `json:"controlar_stock"`
	Disponible     bool            `json:"disponible"`
	Activo         bool            `json:"activo"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
