package handler

import (
	"net/http"

	"restopos/internal/dto"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// RegistrarMovimiento godoc
// @Summary Registrar movimiento de stock
// @Description entrada suma, salida resta (rechazada si deja stock negativo), ajuste fija el valor.
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarMovimientoRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/stock/movimientos [post]
func (h *StockHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.RegistrarMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	// The author defaults to the caller.
	if req.UsuarioID == nil {
		id, found := currentUserID(c)
		if !found {
			return
		}
		autor := id.String()
		req.UsuarioID = &autor
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// ListarMovimientos godoc
// @Summary Listar movimientos de stock
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param producto_id query string false "Producto"
// @Param tipo query string false "entrada | salida | ajuste"
// @Param desde query string false "YYYY-MM-DD"
// @Param hasta query string false "YYYY-MM-DD (inclusive)"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamaño de pagina"
// @Success 200 {object} dto.MovimientoListResponse
// @Router /v1/stock/movimientos [get]
func (h *StockHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// Resumen godoc
// @Summary Resumen de stock por producto
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param categoria_id query string false "Categoria"
// @Param solo_bajo query bool false "Solo sin stock o stock bajo"
// @Success 200 {object} dto.StockResumenResponse
// @Router /v1/stock/resumen [get]
func (h *StockHandler) Resumen(c *gin.Context) {
	var filter dto.StockResumenFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}
