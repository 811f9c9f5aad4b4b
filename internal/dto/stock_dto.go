package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegistrarMovimientoRequest: Tipo and Cantidad are checked by the ledger itself
// so the error messages stay the same for HTTP and internal callers.
type RegistrarMovimientoRequest struct {
	ProductoID string  `json:"producto_id" validate:"required,uuid"`
	Tipo       string  `json:"tipo"        validate:"required"`
	Cantidad   int     `json:"cantidad"`
	Motivo     *string `json:"motivo"      validate:"omitempty,max=255"`
	Referencia *string `json:"referencia"  validate:"omitempty,max=100"`
	UsuarioID  *string `json:"usuario_id"  validate:"omitempty,uuid"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type MovimientoFilter struct {
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Tipo       string `form:"tipo"        validate:"omitempty,oneof=entrada salida ajuste"`
	Desde      string `form:"desde"       validate:"omitempty,datetime=2006-01-02"`
	Hasta      string `form:"hasta"       validate:"omitempty,datetime=2006-01-02"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type StockResumenFilter struct {
	CategoriaID string `form:"categoria_id" validate:"omitempty,uuid"`
	SoloBajo    bool   `form:"solo_bajo"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoResponse struct {
	ID            string  `json:"id"`
	ProductoID    string  `json:"producto_id"`
	Producto      string  `json:"producto"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	Motivo        *string `json:"motivo"`
	Referencia    *string `json:"referencia"`
	UsuarioID     *string `json:"usuario_id"`
	CreatedAt     string  `json:"created_at"`
}

type MovimientoListResponse struct {
	Data       []MovimientoResponse `json:"data"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}

type StockResumenItem struct {
	ProductoID  string   `json:"producto_id"`
	Nombre      string   `json:"nombre"`
	Categoria   string   `json:"categoria"`
	StockActual int      `json:"stock_actual"`
	StockMinimo int      `json:"stock_minimo"`
	StockMaximo *int     `json:"stock_maximo"`
	Estado      string   `json:"estado"` // sin_stock | stock_bajo | stock_normal | stock_alto
	Porcentaje  *float64 `json:"porcentaje"`
	Disponible  bool     `json:"disponible"`
}

type StockResumenResponse struct {
	Productos []StockResumenItem `json:"productos"`
	Conteo    map[string]int     `json:"conteo"`
	Total     int                `json:"total"`
}
