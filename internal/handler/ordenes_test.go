package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/middleware"
	"restopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Service fake ─────────────────────────────────────────────────────────────

type fakeOrdenService struct {
	err         error
	creadaPor   uuid.UUID
	actualizada *dto.ActualizarOrdenRequest
	eliminada   uuid.UUID
}

func (f *fakeOrdenService) Crear(_ context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.creadaPor = usuarioID
	return &dto.OrdenResponse{ID: uuid.NewString(), Tipo: req.Tipo, Estado: "PENDIENTE", UsuarioID: usuarioID.String()}, nil
}

func (f *fakeOrdenService) Listar(context.Context, dto.OrdenFilter) (*dto.OrdenListResponse, error) {
	return &dto.OrdenListResponse{Data: []dto.OrdenResponse{}, Page: 1, Limit: 50}, f.err
}

func (f *fakeOrdenService) ObtenerPorID(_ context.Context, id uuid.UUID) (*dto.OrdenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.OrdenResponse{ID: id.String()}, nil
}

func (f *fakeOrdenService) Actualizar(_ context.Context, id uuid.UUID, req dto.ActualizarOrdenRequest) (*dto.OrdenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.actualizada = &req
	return &dto.OrdenResponse{ID: id.String()}, nil
}

func (f *fakeOrdenService) Eliminar(_ context.Context, id uuid.UUID) error {
	f.eliminada = id
	return f.err
}

func (f *fakeOrdenService) Ticket(context.Context, uuid.UUID) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// withClaims stands in for JWTAuth.
func withClaims(userID uuid.UUID, rol string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &service.AuthClaims{UserID: userID.String(), Rol: rol, Tipo: "access"})
		c.Next()
	}
}

func ordenesRouter(svc service.OrdenService, userID uuid.UUID, rol string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(), withClaims(userID, rol))
	h := NewOrdenesHandler(svc)
	r.POST("/v1/ordenes", h.Crear)
	r.GET("/v1/ordenes", h.Listar)
	r.GET("/v1/ordenes/:id", h.ObtenerPorID)
	r.GET("/v1/ordenes/:id/ticket", h.Ticket)
	r.PUT("/v1/ordenes", h.Actualizar)
	r.DELETE("/v1/ordenes", h.Eliminar)
	return r
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func crearOrdenBody() map[string]interface{} {
	return map[string]interface{}{
		"sucursal_id": uuid.NewString(),
		"tipo":        "PARA_LLEVAR",
		"items": []map[string]interface{}{
			{"producto_id": uuid.NewString(), "cantidad": 2, "precio_unitario": "10000"},
		},
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCrearOrden_Created(t *testing.T) {
	svc := &fakeOrdenService{}
	mesero := uuid.New()
	w := do(ordenesRouter(svc, mesero, "mesero"), http.MethodPost, "/v1/ordenes", crearOrdenBody())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var env struct {
		Success bool              `json:"success"`
		Data    dto.OrdenResponse `json:"data"`
	}
	decodeJSON(t, w, &env)
	assert.True(t, env.Success)
	assert.Equal(t, "PARA_LLEVAR", env.Data.Tipo)
	assert.Equal(t, mesero, svc.creadaPor)
}

func TestCrearOrden_Validacion422(t *testing.T) {
	body := crearOrdenBody()
	body["tipo"] = "DRIVE_THRU"
	body["items"] = []map[string]interface{}{}

	w := do(ordenesRouter(&fakeOrdenService{}, uuid.New(), "mesero"), http.MethodPost, "/v1/ordenes", body)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var verr apierror.ValidationError
	decodeJSON(t, w, &verr)
	assert.False(t, verr.Success)
	assert.Equal(t, "oneof", verr.Fields["Tipo"])
	assert.Equal(t, "min", verr.Fields["Items"])
}

func TestCrearOrden_JSONInvalido(t *testing.T) {
	r := ordenesRouter(&fakeOrdenService{}, uuid.New(), "mesero")
	req := httptest.NewRequest(http.MethodPost, "/v1/ordenes", bytes.NewBufferString("{tipo:"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrearOrden_ErroresDeNegocio(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apierror.Conflict("la mesa 3 ya tiene una orden activa"), http.StatusConflict},
		{apierror.NotFound("sucursal no encontrada"), http.StatusNotFound},
		{apierror.BadRequest("mesa_id es requerido para ordenes LOCAL"), http.StatusBadRequest},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := do(ordenesRouter(&fakeOrdenService{err: tc.err}, uuid.New(), "mesero"), http.MethodPost, "/v1/ordenes", crearOrdenBody())
		assert.Equal(t, tc.code, w.Code, tc.err.Error())

		var body apierror.APIError
		decodeJSON(t, w, &body)
		assert.False(t, body.Success)
		if tc.code == http.StatusInternalServerError {
			assert.Equal(t, "Error interno del servidor", body.Message)
		} else {
			assert.Equal(t, tc.err.Error(), body.Message)
		}
	}
}

func TestObtenerOrden_IDInvalido(t *testing.T) {
	w := do(ordenesRouter(&fakeOrdenService{}, uuid.New(), "mesero"), http.MethodGet, "/v1/ordenes/no-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActualizarOrden_CocinaSoloEstado(t *testing.T) {
	svc := &fakeOrdenService{}
	r := ordenesRouter(svc, uuid.New(), "cocina")
	id := uuid.NewString()

	w := do(r, http.MethodPut, "/v1/ordenes", map[string]interface{}{"id": id, "estado": "EN_PREPARACION"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.actualizada)
	assert.Equal(t, "EN_PREPARACION", *svc.actualizada.Estado)

	w = do(r, http.MethodPut, "/v1/ordenes", map[string]interface{}{"id": id, "estado": "LISTA", "descuento": "500"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestActualizarOrden_SinID(t *testing.T) {
	w := do(ordenesRouter(&fakeOrdenService{}, uuid.New(), "mesero"), http.MethodPut, "/v1/ordenes", map[string]interface{}{"estado": "LISTA"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var verr apierror.ValidationError
	decodeJSON(t, w, &verr)
	assert.Equal(t, "required", verr.Fields["ID"])
}

func TestEliminarOrden(t *testing.T) {
	svc := &fakeOrdenService{}
	id := uuid.New()
	w := do(ordenesRouter(svc, uuid.New(), "mesero"), http.MethodDelete, "/v1/ordenes?id="+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, id, svc.eliminada)

	w = do(ordenesRouter(svc, uuid.New(), "mesero"), http.MethodDelete, "/v1/ordenes", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTicketOrden_PDF(t *testing.T) {
	id := uuid.New()
	w := do(ordenesRouter(&fakeOrdenService{}, uuid.New(), "cajero"), http.MethodGet, "/v1/ordenes/"+id.String()+"/ticket", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ticket-"+id.String()[:8]+".pdf")
}

func TestListarOrdenes_FiltroInvalido(t *testing.T) {
	w := do(ordenesRouter(&fakeOrdenService{}, uuid.New(), "mesero"), http.MethodGet, "/v1/ordenes?estado=PERDIDA", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(ordenesRouter(&fakeOrdenService{}, uuid.New(), "mesero"), http.MethodGet, "/v1/ordenes?fecha=2026-02-30x", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(ordenesRouter(&fakeOrdenService{}, uuid.New(), "mesero"), http.MethodGet, "/v1/ordenes?estado=LISTA", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
