package handler

import (
	"net/http"

	"restopos/internal/dto"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
)

type MesasHandler struct{ svc service.MesaService }

func NewMesasHandler(svc service.MesaService) *MesasHandler {
	return &MesasHandler{svc: svc}
}

// Crear POST /v1/mesas
func (h *MesasHandler) Crear(c *gin.Context) {
	var req dto.CrearMesaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// Listar GET /v1/mesas?sucursal_id=&disponibles=true
func (h *MesasHandler) Listar(c *gin.Context) {
	var filter dto.MesaFilter
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

// ObtenerPorID GET /v1/mesas/:id
func (h *MesasHandler) ObtenerPorID(c *gin.Context) {
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

// Actualizar PUT /v1/mesas/:id
func (h *MesasHandler) Actualizar(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req dto.ActualizarMesaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// Eliminar DELETE /v1/mesas/:id
func (h *MesasHandler) Eliminar(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Liberar godoc
// @Summary Liberar mesa
// @Description Solo el mesero asignado puede liberar la mesa, y solo cuando su ultima orden fue entregada o cancelada.
// @Tags mesas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mesa"
// @Param body body dto.LiberarMesaRequest true "Mesero"
// @Success 200 {object} dto.LiberarMesaResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/mesas/{id}/liberar [put]
func (h *MesasHandler) Liberar(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req dto.LiberarMesaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Liberar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// OrdenActual GET /v1/mesas/:id/orden-actual
func (h *MesasHandler) OrdenActual(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	resp, err := h.svc.OrdenActual(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}
