package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fixture ──────────────────────────────────────────────────────────────────

type ordenFixture struct {
	svc         OrdenService
	ordenes     *stubOrdenRepo
	mesas       *stubMesaRepo
	productos   *stubProductoRepo
	eventos     *stubEventos
	sucursal    *model.Sucursal
	mesa        *model.Mesa
	hamburguesa *model.Producto
	gaseosa     *model.Producto
	mesero      uuid.UUID
}

func newOrdenFixture() *ordenFixture {
	f := &ordenFixture{
		ordenes:   newStubOrdenRepo(),
		mesas:     newStubMesaRepo(),
		productos: newStubProductoRepo(),
		eventos:   &stubEventos{},
		mesero:    uuid.New(),
	}
	sucursales := newStubSucursalRepo()
	f.sucursal = sucursales.seed("Centro")
	f.mesa = f.mesas.seed(f.sucursal.ID, 1)
	f.hamburguesa = f.productos.seed("Hamburguesa", 0, false)
	f.gaseosa = f.productos.seed("Gaseosa", 0, false)
	f.svc = NewOrdenService(f.ordenes, f.mesas, sucursales, newStubClienteRepo(), f.productos, f.eventos, 0)
	return f
}

func (f *ordenFixture) localReq() dto.CrearOrdenRequest {
	mesaID := f.mesa.ID.String()
	return dto.CrearOrdenRequest{
		SucursalID: f.sucursal.ID.String(),
		Tipo:       model.TipoLocal,
		MesaID:     &mesaID,
		Items: []dto.ItemOrdenRequest{
			{ProductoID: f.hamburguesa.ID.String(), Cantidad: 2, PrecioUnitario: decimal.NewFromInt(10000)},
			{ProductoID: f.gaseosa.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromInt(5000)},
		},
	}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	e, ok := apierror.As(err)
	require.True(t, ok, "expected business error, got %v", err)
	assert.Equal(t, status, e.Status, e.Message)
}

func estado(s string) *string { return &s }

// ── Totals ───────────────────────────────────────────────────────────────────

func TestCalcularTotal(t *testing.T) {
	d := decimal.NewFromInt
	total, err := calcularTotal(d(25000), d(0), d(0), d(0))
	require.NoError(t, err)
	assert.True(t, total.Equal(d(25000)))

	total, err = calcularTotal(d(25000), d(3000), d(1500), d(500))
	require.NoError(t, err)
	assert.True(t, total.Equal(d(24000)), total.String())

	_, err = calcularTotal(d(1000), d(2000), d(0), d(0))
	assertStatus(t, err, http.StatusBadRequest)
}

func TestTransicionValida(t *testing.T) {
	assert.True(t, transicionValida(model.EstadoPendiente, model.EstadoEnPreparacion))
	assert.True(t, transicionValida(model.EstadoLista, model.EstadoEntregada))
	assert.True(t, transicionValida(model.EstadoEnPreparacion, model.EstadoCancelada))
	assert.False(t, transicionValida(model.EstadoPendiente, model.EstadoEntregada))
	assert.False(t, transicionValida(model.EstadoEntregada, model.EstadoPendiente))
	assert.False(t, transicionValida(model.EstadoCancelada, model.EstadoPendiente))
}

// ── Crear ────────────────────────────────────────────────────────────────────

func TestCrearOrden_LocalOcupaMesa(t *testing.T) {
	f := newOrdenFixture()

	resp, err := f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)

	assert.Equal(t, model.EstadoPendiente, resp.Estado)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(25000)))
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(25000)))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, f.mesero.String(), resp.UsuarioID)

	mesa := f.mesas.m[f.mesa.ID]
	assert.False(t, mesa.Disponible)
	require.NotNil(t, mesa.OrdenActualID)
	assert.Equal(t, resp.ID, mesa.OrdenActualID.String())

	require.Len(t, f.eventos.eventos, 1)
	assert.Equal(t, worker.EventoOrdenCreada, f.eventos.eventos[0].Evento)
}

func TestCrearOrden_MesaOcupada(t *testing.T) {
	f := newOrdenFixture()
	_, err := f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)

	_, err = f.svc.Crear(context.Background(), uuid.New(), f.localReq())
	assertStatus(t, err, http.StatusConflict)
	assert.Len(t, f.ordenes.m, 1)
}

func TestCrearOrden_ConDescuentoYEnvio(t *testing.T) {
	f := newOrdenFixture()
	dir := "Calle 10 # 5-20"
	req := dto.CrearOrdenRequest{
		SucursalID:       f.sucursal.ID.String(),
		Tipo:             model.TipoDomicilio,
		DireccionEntrega: &dir,
		Items: []dto.ItemOrdenRequest{
			{ProductoID: f.hamburguesa.ID.String(), Cantidad: 2, PrecioUnitario: decimal.NewFromInt(10000)},
			{ProductoID: f.gaseosa.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromInt(5000)},
		},
		Descuento:      decimal.NewFromInt(3000),
		CostoEnvio:     decimal.NewFromInt(1500),
		CostoAdicional: decimal.NewFromInt(500),
	}

	resp, err := f.svc.Crear(context.Background(), f.mesero, req)
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(24000)), resp.Total.String())
	assert.Nil(t, resp.Mesa)
}

func TestCrearOrden_Validaciones(t *testing.T) {
	f := newOrdenFixture()

	t.Run("local sin mesa", func(t *testing.T) {
		req := f.localReq()
		req.MesaID = nil
		_, err := f.svc.Crear(context.Background(), f.mesero, req)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("domicilio sin direccion", func(t *testing.T) {
		req := f.localReq()
		req.Tipo, req.MesaID = model.TipoDomicilio, nil
		_, err := f.svc.Crear(context.Background(), f.mesero, req)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("para llevar con mesa", func(t *testing.T) {
		req := f.localReq()
		req.Tipo = model.TipoParaLlevar
		_, err := f.svc.Crear(context.Background(), f.mesero, req)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("producto inexistente", func(t *testing.T) {
		req := f.localReq()
		req.Items[0].ProductoID = uuid.NewString()
		_, err := f.svc.Crear(context.Background(), f.mesero, req)
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("sucursal inexistente", func(t *testing.T) {
		req := f.localReq()
		req.SucursalID = uuid.NewString()
		_, err := f.svc.Crear(context.Background(), f.mesero, req)
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("mesa de otra sucursal", func(t *testing.T) {
		otra := f.mesas.seed(uuid.New(), 7)
		req := f.localReq()
		id := otra.ID.String()
		req.MesaID = &id
		_, err := f.svc.Crear(context.Background(), f.mesero, req)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("descuento mayor al total", func(t *testing.T) {
		req := f.localReq()
		req.Descuento = decimal.NewFromInt(30000)
		_, err := f.svc.Crear(context.Background(), f.mesero, req)
		assertStatus(t, err, http.StatusBadRequest)
	})

	assert.Empty(t, f.ordenes.m)
	assert.True(t, f.mesas.m[f.mesa.ID].Disponible)
}

// ── Actualizar ───────────────────────────────────────────────────────────────

func TestActualizarOrden_TransicionInvalida(t *testing.T) {
	f := newOrdenFixture()
	o, err := f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)
	id := uuid.MustParse(o.ID)

	_, err = f.svc.Actualizar(context.Background(), id, dto.ActualizarOrdenRequest{Estado: estado(model.EstadoEntregada)})
	assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, model.EstadoPendiente, f.ordenes.m[id].Estado)
}

func TestActualizarOrden_EstadoTerminalLiberaMesa(t *testing.T) {
	f := newOrdenFixture()
	o, err := f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)
	id := uuid.MustParse(o.ID)

	for _, e := range []string{model.EstadoEnPreparacion, model.EstadoLista} {
		_, err := f.svc.Actualizar(context.Background(), id, dto.ActualizarOrdenRequest{Estado: estado(e)})
		require.NoError(t, err)
		assert.False(t, f.mesas.m[f.mesa.ID].Disponible, "mesa must stay occupied while %s", e)
	}

	resp, err := f.svc.Actualizar(context.Background(), id, dto.ActualizarOrdenRequest{Estado: estado(model.EstadoEntregada)})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoEntregada, resp.Estado)

	mesa := f.mesas.m[f.mesa.ID]
	assert.True(t, mesa.Disponible)
	assert.Nil(t, mesa.OrdenActualID)
}

func TestActualizarOrden_TerminalNoAdmiteCambios(t *testing.T) {
	f := newOrdenFixture()
	o, err := f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)
	id := uuid.MustParse(o.ID)

	_, err = f.svc.Actualizar(context.Background(), id, dto.ActualizarOrdenRequest{Estado: estado(model.EstadoCancelada)})
	require.NoError(t, err)

	nota := "sin cebolla"
	_, err = f.svc.Actualizar(context.Background(), id, dto.ActualizarOrdenRequest{Notas: &nota})
	assertStatus(t, err, http.StatusConflict)

	err = f.svc.Eliminar(context.Background(), id)
	assertStatus(t, err, http.StatusConflict)
}

func TestActualizarOrden_ReemplazaItemsYRecalcula(t *testing.T) {
	f := newOrdenFixture()
	o, err := f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)
	id := uuid.MustParse(o.ID)

	descuento := decimal.NewFromInt(1000)
	resp, err := f.svc.Actualizar(context.Background(), id, dto.ActualizarOrdenRequest{
		Items: []dto.ItemOrdenRequest{
			{ProductoID: f.gaseosa.ID.String(), Cantidad: 3, PrecioUnitario: decimal.NewFromInt(5000)},
		},
		Descuento: &descuento,
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Cantidad)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(15000)))
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(14000)), resp.Total.String())
}

func TestActualizarOrden_NoExiste(t *testing.T) {
	f := newOrdenFixture()
	_, err := f.svc.Actualizar(context.Background(), uuid.New(), dto.ActualizarOrdenRequest{Estado: estado(model.EstadoLista)})
	assertStatus(t, err, http.StatusNotFound)
}

// ── Eliminar ─────────────────────────────────────────────────────────────────

func TestEliminarOrden_LiberaMesa(t *testing.T) {
	f := newOrdenFixture()
	o, err := f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)
	id := uuid.MustParse(o.ID)

	require.NoError(t, f.svc.Eliminar(context.Background(), id))

	assert.NotContains(t, f.ordenes.m, id)
	mesa := f.mesas.m[f.mesa.ID]
	assert.True(t, mesa.Disponible)
	assert.Nil(t, mesa.OrdenActualID)

	// the table accepts a new order right away
	_, err = f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)
}

func TestEliminarOrden_NoTocaMesaDeOtraOrden(t *testing.T) {
	f := newOrdenFixture()
	vieja := f.ordenes.seed(&model.Orden{
		SucursalID: f.sucursal.ID, Tipo: model.TipoLocal, MesaID: &f.mesa.ID,
		UsuarioID: f.mesero, Estado: model.EstadoPendiente,
	})
	otra := uuid.New()
	f.mesas.m[f.mesa.ID].Disponible = false
	f.mesas.m[f.mesa.ID].OrdenActualID = &otra

	require.NoError(t, f.svc.Eliminar(context.Background(), vieja.ID))

	mesa := f.mesas.m[f.mesa.ID]
	assert.False(t, mesa.Disponible)
	require.NotNil(t, mesa.OrdenActualID)
	assert.Equal(t, otra, *mesa.OrdenActualID)
}

func TestTicketOrden(t *testing.T) {
	f := newOrdenFixture()
	o, err := f.svc.Crear(context.Background(), f.mesero, f.localReq())
	require.NoError(t, err)

	pdf, err := f.svc.Ticket(context.Background(), uuid.MustParse(o.ID))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	_, err = f.svc.Ticket(context.Background(), uuid.New())
	assertStatus(t, err, http.StatusNotFound)
}

func TestListarOrdenes_FiltroYPaginacion(t *testing.T) {
	f := newOrdenFixture()
	f.ordenes.total = 101
	no := false

	resp, err := f.svc.Listar(context.Background(), dto.OrdenFilter{
		SucursalID:   f.sucursal.ID.String(),
		MesaID:       f.mesa.ID.String(),
		UsuarioID:    f.mesero.String(),
		Estado:       model.EstadoLista,
		Tipo:         model.TipoLocal,
		Sincronizada: &no,
		Fecha:        "2026-03-14",
	})
	require.NoError(t, err)

	got := f.ordenes.filtro
	require.NotNil(t, got)
	assert.Equal(t, f.sucursal.ID, *got.SucursalID)
	assert.Equal(t, f.mesa.ID, *got.MesaID)
	assert.Equal(t, f.mesero, *got.UsuarioID)
	assert.Nil(t, got.ClienteID)
	assert.Equal(t, model.EstadoLista, got.Estado)
	assert.Equal(t, model.TipoLocal, got.Tipo)
	require.NotNil(t, got.Sincronizada)
	assert.False(t, *got.Sincronizada)

	// fecha selects [dia, dia+1d)
	require.NotNil(t, got.Desde)
	require.NotNil(t, got.Hasta)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local), *got.Desde)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local), *got.Hasta)

	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 50, got.Limit)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 50, resp.Limit)
	assert.Equal(t, int64(101), resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
}

func TestListarOrdenes_LimiteMaximo(t *testing.T) {
	f := newOrdenFixture()
	f.ordenes.total = 101

	resp, err := f.svc.Listar(context.Background(), dto.OrdenFilter{Page: 2, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 200, f.ordenes.filtro.Limit)
	assert.Equal(t, 2, f.ordenes.filtro.Page)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Nil(t, f.ordenes.filtro.Desde)
	assert.Nil(t, f.ordenes.filtro.SucursalID)
}

func TestListarOrdenes_FiltroInvalido(t *testing.T) {
	f := newOrdenFixture()

	_, err := f.svc.Listar(context.Background(), dto.OrdenFilter{MesaID: "mesa-7"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Listar(context.Background(), dto.OrdenFilter{Fecha: "14/03/2026"})
	assertStatus(t, err, http.StatusBadRequest)
	assert.Nil(t, f.ordenes.filtro)
}
