package handler

import (
	"fmt"
	"net/http"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/middleware"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdenesHandler struct{ svc service.OrdenService }

func NewOrdenesHandler(svc service.OrdenService) *OrdenesHandler {
	return &OrdenesHandler{svc: svc}
}

// Crear godoc
// @Summary Crear orden
// @Description Una orden LOCAL ocupa su mesa en la misma transaccion.
// @Tags ordenes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearOrdenRequest true "Orden"
// @Success 201 {object} dto.OrdenResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ordenes [post]
func (h *OrdenesHandler) Crear(c *gin.Context) {
	usuarioID, found := currentUserID(c)
	if !found {
		return
	}
	var req dto.CrearOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// Listar godoc
// @Summary Listar ordenes
// @Tags ordenes
// @Produce json
// @Security BearerAuth
// @Param sucursal_id query string false "Sucursal"
// @Param usuario_id query string false "Mesero"
// @Param mesa_id query string false "Mesa"
// @Param cliente_id query string false "Cliente"
// @Param estado query string false "Estado"
// @Param tipo query string false "Tipo"
// @Param fecha query string false "YYYY-MM-DD"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamaño de pagina"
// @Success 200 {object} dto.OrdenListResponse
// @Router /v1/ordenes [get]
func (h *OrdenesHandler) Listar(c *gin.Context) {
	var filter dto.OrdenFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// ObtenerPorID GET /v1/ordenes/:id
func (h *OrdenesHandler) ObtenerPorID(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// Actualizar godoc
// @Summary Actualizar orden
// @Description Actualizacion parcial; las ordenes ENTREGADA o CANCELADA no admiten cambios.
// @Tags ordenes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ActualizarOrdenBody true "Id y campos a modificar"
// @Success 200 {object} dto.OrdenResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ordenes [put]
func (h *OrdenesHandler) Actualizar(c *gin.Context) {
	var body dto.ActualizarOrdenBody
	if !bindAndValidate(c, &body) {
		return
	}
	// Kitchen staff only move orders through their states.
	if claims := middleware.GetClaims(c); claims != nil && claims.Rol == "cocina" && !soloEstado(body.ActualizarOrdenRequest) {
		c.JSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
		return
	}
	id, err := uuid.Parse(body.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, body.ActualizarOrdenRequest)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

func soloEstado(req dto.ActualizarOrdenRequest) bool {
	return req.Estado != nil &&
		req.ClienteID == nil && req.DireccionEntrega == nil && req.Items == nil &&
		req.Descuento == nil && req.CostoEnvio == nil && req.CostoAdicional == nil &&
		req.Notas == nil && req.Sincronizada == nil
}

// Eliminar godoc
// @Summary Eliminar orden
// @Description Libera la mesa que la orden ocupaba.
// @Tags ordenes
// @Security BearerAuth
// @Param id query string true "Orden"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ordenes [delete]
func (h *OrdenesHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Ticket godoc
// @Summary Ticket PDF de la orden
// @Tags ordenes
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Orden"
// @Success 200 {file} binary
// @Router /v1/ordenes/{id}/ticket [get]
func (h *OrdenesHandler) Ticket(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	pdf, err := h.svc.Ticket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="ticket-%s.pdf"`, id.String()[:8]))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
