package handler

import (
	"context"
	"net/http"
	"testing"

	"restopos/internal/apierror"
	"restopos/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStockService struct {
	req *dto.RegistrarMovimientoRequest
	err error
}

func (f *fakeStockService) RegistrarMovimiento(_ context.Context, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.req = &req
	return &dto.MovimientoResponse{ID: uuid.NewString(), Tipo: req.Tipo, Cantidad: req.Cantidad, UsuarioID: req.UsuarioID}, nil
}

func (f *fakeStockService) ListarMovimientos(context.Context, dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	return &dto.MovimientoListResponse{Data: []dto.MovimientoResponse{}}, nil
}

func (f *fakeStockService) Resumen(context.Context, dto.StockResumenFilter) (*dto.StockResumenResponse, error) {
	return &dto.StockResumenResponse{Productos: []dto.StockResumenItem{}, Conteo: map[string]int{}}, nil
}

func stockRouter(svc *fakeStockService, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewStockHandler(svc)
	r.POST("/v1/stock/movimientos", withClaims(userID, "cajero"), h.RegistrarMovimiento)
	r.GET("/v1/stock/movimientos", h.ListarMovimientos)
	return r
}

func TestRegistrarMovimiento_AutorPorDefecto(t *testing.T) {
	svc := &fakeStockService{}
	cajero := uuid.New()

	w := do(stockRouter(svc, cajero), http.MethodPost, "/v1/stock/movimientos", map[string]interface{}{
		"producto_id": uuid.NewString(), "tipo": "entrada", "cantidad": 12,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, svc.req.UsuarioID)
	assert.Equal(t, cajero.String(), *svc.req.UsuarioID)

	otro := uuid.NewString()
	w = do(stockRouter(svc, cajero), http.MethodPost, "/v1/stock/movimientos", map[string]interface{}{
		"producto_id": uuid.NewString(), "tipo": "entrada", "cantidad": 1, "usuario_id": otro,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, otro, *svc.req.UsuarioID)
}

func TestRegistrarMovimiento_StockInsuficiente(t *testing.T) {
	svc := &fakeStockService{err: apierror.BadRequest("stock insuficiente: stock actual 30, cantidad solicitada 50")}

	w := do(stockRouter(svc, uuid.New()), http.MethodPost, "/v1/stock/movimientos", map[string]interface{}{
		"producto_id": uuid.NewString(), "tipo": "salida", "cantidad": 50,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body apierror.APIError
	decodeJSON(t, w, &body)
	assert.Contains(t, body.Message, "stock actual 30")
}

func TestListarMovimientos_TipoInvalido(t *testing.T) {
	w := do(stockRouter(&fakeStockService{}, uuid.New()), http.MethodGet, "/v1/stock/movimientos?tipo=robo", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
