package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemOrdenRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
	Notas          *string         `json:"notas"           validate:"omitempty,max=255"`
}

type CrearOrdenRequest struct {
	SucursalID       string             `json:"sucursal_id"       validate:"required,uuid"`
	Tipo             string             `json:"tipo"              validate:"required,oneof=LOCAL DOMICILIO PARA_LLEVAR"`
	MesaID           *string            `json:"mesa_id"           validate:"omitempty,uuid"`
	ClienteID        *string            `json:"cliente_id"        validate:"omitempty,uuid"`
	DireccionEntrega *string            `json:"direccion_entrega" validate:"omitempty,max=255"`
	Items            []ItemOrdenRequest `json:"items"             validate:"required,min=1,dive"`
	Descuento        decimal.Decimal    `json:"descuento"         validate:"min=0"`
	CostoEnvio       decimal.Decimal    `json:"costo_envio"       validate:"min=0"`
	CostoAdicional   decimal.Decimal    `json:"costo_adicional"   validate:"min=0"`
	Notas            *string            `json:"notas"`
	// CreadaOffline is set by the PWA when the order was taken without connectivity
	CreadaOffline bool `json:"creada_offline"`
}

// ActualizarOrdenRequest carries a partial update; nil fields are left untouched.
// When Items is present the order lines are replaced wholesale.
type ActualizarOrdenRequest struct {
	Estado           *string            `json:"estado"            validate:"omitempty,oneof=PENDIENTE EN_PREPARACION LISTA ENTREGADA CANCELADA"`
	ClienteID        *string            `json:"cliente_id"        validate:"omitempty,uuid"`
	DireccionEntrega *string            `json:"direccion_entrega" validate:"omitempty,max=255"`
	Items            []ItemOrdenRequest `json:"items"             validate:"omitempty,min=1,dive"`
	Descuento        *decimal.Decimal   `json:"descuento"`
	CostoEnvio       *decimal.Decimal   `json:"costo_envio"`
	CostoAdicional   *decimal.Decimal   `json:"costo_adicional"`
	Notas            *string            `json:"notas"`
	Sincronizada     *bool              `json:"sincronizada"`
}

// ActualizarOrdenBody is the PUT /v1/ordenes body: the id travels with the fields.
type ActualizarOrdenBody struct {
	ID string `json:"id" validate:"required,uuid"`
	ActualizarOrdenRequest
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

// OrdenFilter is bound from the query string of GET /v1/ordenes.
// Fecha selects one calendar day: [fecha, fecha+1d).
type OrdenFilter struct {
	SucursalID   string `form:"sucursal_id"  validate:"omitempty,uuid"`
	UsuarioID    string `form:"usuario_id"   validate:"omitempty,uuid"`
	MesaID       string `form:"mesa_id"      validate:"omitempty,uuid"`
	ClienteID    string `form:"cliente_id"   validate:"omitempty,uuid"`
	Estado       string `form:"estado"       validate:"omitempty,oneof=PENDIENTE EN_PREPARACION LISTA ENTREGADA CANCELADA"`
	Tipo         string `form:"tipo"         validate:"omitempty,oneof=LOCAL DOMICILIO PARA_LLEVAR"`
	Sincronizada *bool  `form:"sincronizada"`
	Fecha        string `form:"fecha"        validate:"omitempty,datetime=2006-01-02"`
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemOrdenResponse struct {
	ID             string          `json:"id"`
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Notas          *string         `json:"notas"`
}

type OrdenResponse struct {
	ID               string              `json:"id"`
	SucursalID       string              `json:"sucursal_id"`
	Tipo             string              `json:"tipo"`
	Estado           string              `json:"estado"`
	Mesa             *MesaResponse       `json:"mesa"`
	Cliente          *ClienteResponse    `json:"cliente"`
	UsuarioID        string              `json:"usuario_id"`
	Mesero           string              `json:"mesero"`
	DireccionEntrega *string             `json:"direccion_entrega"`
	Items            []ItemOrdenResponse `json:"items"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	Descuento        decimal.Decimal     `json:"descuento"`
	CostoEnvio       decimal.Decimal     `json:"costo_envio"`
	CostoAdicional   decimal.Decimal     `json:"costo_adicional"`
	Total            decimal.Decimal     `json:"total"`
	Notas            *string             `json:"notas"`
	CreadaOffline    bool                `json:"creada_offline"`
	Sincronizada     bool                `json:"sincronizada"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
}

type OrdenListResponse struct {
	Data       []OrdenResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}
