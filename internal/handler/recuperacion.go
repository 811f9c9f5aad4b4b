package handler

import (
	"net/http"

	"restopos/internal/dto"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
)

// RecuperacionHandler serves the forgot-password flow. All three endpoints are public.
type RecuperacionHandler struct{ svc service.RecuperacionService }

func NewRecuperacionHandler(svc service.RecuperacionService) *RecuperacionHandler {
	return &RecuperacionHandler{svc: svc}
}

// SolicitarCodigo godoc
// @Summary Solicitar codigo de recuperacion
// @Description Responde el mismo mensaje exista o no la identificacion.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.SolicitarCodigoRequest true "Identificacion"
// @Success 200 {object} dto.MensajeResponse
// @Failure 500 {object} apierror.APIError
// @Router /v1/auth/forgot-password [post]
func (h *RecuperacionHandler) SolicitarCodigo(c *gin.Context) {
	var req dto.SolicitarCodigoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SolicitarCodigo(c.Request.Context(), req.Identificacion)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// VerificarCodigo godoc
// @Summary Verificar codigo OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.VerificarCodigoRequest true "Identificacion y codigo"
// @Success 200 {object} dto.VerificarCodigoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 429 {object} apierror.APIError
// @Router /v1/auth/verify-otp [post]
func (h *RecuperacionHandler) VerificarCodigo(c *gin.Context) {
	var req dto.VerificarCodigoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.VerificarCodigo(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

// RestablecerPassword godoc
// @Summary Restablecer contraseña con el token de verificacion
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RestablecerPasswordRequest true "Token y nueva contraseña"
// @Success 200 {object} dto.MensajeResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/auth/reset-password [post]
func (h *RecuperacionHandler) RestablecerPassword(c *gin.Context) {
	var req dto.RestablecerPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RestablecerPassword(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}
