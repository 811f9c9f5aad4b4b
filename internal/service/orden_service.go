package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/repository"
	"restopos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrdenEventos publishes committed order changes. Implemented by worker.EventPublisher.
type OrdenEventos interface {
	PublicarOrden(ctx context.Context, sucursalID uuid.UUID, ev worker.EventoOrden) error
}

type OrdenService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error)
	Listar(ctx context.Context, filter dto.OrdenFilter) (*dto.OrdenListResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.OrdenResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarOrdenRequest) (*dto.OrdenResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	// Ticket renders the order as a receipt PDF.
	Ticket(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type ordenService struct {
	repo       repository.OrdenRepository
	mesas      repository.MesaRepository
	sucursales repository.SucursalRepository
	clientes   repository.ClienteRepository
	productos  repository.ProductoRepository
	eventos    OrdenEventos
	dbTimeout  time.Duration
}

func NewOrdenService(
	repo repository.OrdenRepository,
	mesas repository.MesaRepository,
	sucursales repository.SucursalRepository,
	clientes repository.ClienteRepository,
	productos repository.ProductoRepository,
	eventos OrdenEventos,
	dbTimeout time.Duration,
) OrdenService {
	return &ordenService{
		repo:       repo,
		mesas:      mesas,
		sucursales: sucursales,
		clientes:   clientes,
		productos:  productos,
		eventos:    eventos,
		dbTimeout:  dbTimeout,
	}
}

// transiciones lists the states reachable from each non-terminal state.
var transiciones = map[string][]string{
	model.EstadoPendiente:     {model.EstadoEnPreparacion, model.EstadoCancelada},
	model.EstadoEnPreparacion: {model.EstadoLista, model.EstadoCancelada},
	model.EstadoLista:         {model.EstadoEntregada, model.EstadoCancelada},
}

func transicionValida(desde, hacia string) bool {
	for _, e := range transiciones[desde] {
		if e == hacia {
			return true
		}
	}
	return false
}

// calcularTotal applies total = subtotal - descuento + envio + adicional.
func calcularTotal(subtotal, descuento, envio, adicional decimal.Decimal) (decimal.Decimal, error) {
	total := subtotal.Sub(descuento).Add(envio).Add(adicional)
	if total.IsNegative() {
		return decimal.Zero, apierror.BadRequest("el descuento no puede superar el total de la orden")
	}
	return total, nil
}

// construirItems resolves the requested lines and returns them with their subtotal.
func (s *ordenService) construirItems(ctx context.Context, reqs []dto.ItemOrdenRequest) ([]model.OrdenItem, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, apierror.BadRequest("la orden debe tener al menos un item")
	}
	items := make([]model.OrdenItem, 0, len(reqs))
	subtotal := decimal.Zero
	for _, r := range reqs {
		if r.Cantidad < 1 {
			return nil, decimal.Zero, apierror.BadRequest("la cantidad de cada item debe ser al menos 1")
		}
		if r.PrecioUnitario.IsNegative() {
			return nil, decimal.Zero, apierror.BadRequest("el precio unitario no puede ser negativo")
		}
		pid, err := parseID(r.ProductoID, "producto_id")
		if err != nil {
			return nil, decimal.Zero, err
		}
		if _, err := s.productos.FindByID(ctx, pid); err != nil {
			return nil, decimal.Zero, notFound(err, fmt.Sprintf("producto %s no encontrado", pid))
		}
		linea := r.PrecioUnitario.Mul(decimal.NewFromInt(int64(r.Cantidad)))
		items = append(items, model.OrdenItem{
			ID:             uuid.New(),
			ProductoID:     pid,
			Cantidad:       r.Cantidad,
			PrecioUnitario: r.PrecioUnitario,
			Subtotal:       linea,
			Notas:          r.Notas,
		})
		subtotal = subtotal.Add(linea)
	}
	return items, subtotal, nil
}

func (s *ordenService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error) {
	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	sucursalID, err := parseID(req.SucursalID, "sucursal_id")
	if err != nil {
		return nil, err
	}
	if _, err := s.sucursales.FindByID(ctx, sucursalID); err != nil {
		return nil, notFound(err, "sucursal no encontrada")
	}

	mesaID, err := parseOptID(req.MesaID, "mesa_id")
	if err != nil {
		return nil, err
	}
	switch req.Tipo {
	case model.TipoLocal:
		if mesaID == nil {
			return nil, apierror.BadRequest("mesa_id es requerido para ordenes LOCAL")
		}
	case model.TipoDomicilio:
		if req.DireccionEntrega == nil || strings.TrimSpace(*req.DireccionEntrega) == "" {
			return nil, apierror.BadRequest("direccion_entrega es requerida para ordenes DOMICILIO")
		}
	case model.TipoParaLlevar:
	default:
		return nil, apierror.BadRequest("tipo de orden invalido")
	}
	if req.Tipo != model.TipoLocal && mesaID != nil {
		return nil, apierror.BadRequest("mesa_id solo aplica a ordenes LOCAL")
	}

	clienteID, err := parseOptID(req.ClienteID, "cliente_id")
	if err != nil {
		return nil, err
	}
	if clienteID != nil {
		if _, err := s.clientes.FindByID(ctx, *clienteID); err != nil {
			return nil, notFound(err, "cliente no encontrado")
		}
	}

	items, subtotal, err := s.construirItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	total, err := calcularTotal(subtotal, req.Descuento, req.CostoEnvio, req.CostoAdicional)
	if err != nil {
		return nil, err
	}

	orden := &model.Orden{
		ID:               uuid.New(),
		SucursalID:       sucursalID,
		Tipo:             req.Tipo,
		MesaID:           mesaID,
		ClienteID:        clienteID,
		UsuarioID:        usuarioID,
		Estado:           model.EstadoPendiente,
		DireccionEntrega: req.DireccionEntrega,
		Subtotal:         subtotal,
		Descuento:        req.Descuento,
		CostoEnvio:       req.CostoEnvio,
		CostoAdicional:   req.CostoAdicional,
		Total:            total,
		Notas:            req.Notas,
		CreadaOffline:    req.CreadaOffline,
		Sincronizada:     true,
		Items:            items,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if mesaID != nil {
			mesa, err := s.mesas.FindByIDForUpdateTx(tx, *mesaID)
			if err != nil {
				return notFound(err, "mesa no encontrada")
			}
			if mesa.SucursalID != sucursalID {
				return apierror.BadRequest("la mesa no pertenece a la sucursal")
			}
			if mesa.OrdenActualID != nil || !mesa.Disponible {
				return apierror.Conflict(fmt.Sprintf("la mesa %d ya tiene una orden activa", mesa.Numero))
			}
		}
		if err := s.repo.CreateTx(tx, orden); err != nil {
			return err
		}
		if mesaID != nil {
			return s.mesas.OcuparTx(tx, *mesaID, orden.ID)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publicar(ctx, worker.EventoOrdenCreada, orden)
	return s.ObtenerPorID(ctx, orden.ID)
}

func (s *ordenService) Listar(ctx context.Context, filter dto.OrdenFilter) (*dto.OrdenListResponse, error) {
	page, limit := paginacion(filter.Page, filter.Limit, 50, 200)
	f := repository.OrdenFilter{
		Estado:       filter.Estado,
		Tipo:         filter.Tipo,
		Sincronizada: filter.Sincronizada,
		Page:         page,
		Limit:        limit,
	}
	var err error
	if f.SucursalID, err = parseOptID(&filter.SucursalID, "sucursal_id"); err != nil {
		return nil, err
	}
	if f.UsuarioID, err = parseOptID(&filter.UsuarioID, "usuario_id"); err != nil {
		return nil, err
	}
	if f.MesaID, err = parseOptID(&filter.MesaID, "mesa_id"); err != nil {
		return nil, err
	}
	if f.ClienteID, err = parseOptID(&filter.ClienteID, "cliente_id"); err != nil {
		return nil, err
	}
	if filter.Fecha != "" {
		if f.Desde, f.Hasta, err = diaCompleto(filter.Fecha); err != nil {
			return nil, err
		}
	}

	ordenes, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.OrdenResponse, 0, len(ordenes))
	for i := range ordenes {
		data = append(data, mapOrden(&ordenes[i]))
	}
	return &dto.OrdenListResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *ordenService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.OrdenResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "orden no encontrada")
	}
	resp := mapOrden(o)
	return &resp, nil
}

func (s *ordenService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarOrdenRequest) (*dto.OrdenResponse, error) {
	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	clienteID, err := parseOptID(req.ClienteID, "cliente_id")
	if err != nil {
		return nil, err
	}
	if clienteID != nil {
		if _, err := s.clientes.FindByID(ctx, *clienteID); err != nil {
			return nil, notFound(err, "cliente no encontrado")
		}
	}

	var (
		items       []model.OrdenItem
		subtotalNew decimal.Decimal
	)
	if req.Items != nil {
		if items, subtotalNew, err = s.construirItems(ctx, req.Items); err != nil {
			return nil, err
		}
	}
	for _, v := range []*decimal.Decimal{req.Descuento, req.CostoEnvio, req.CostoAdicional} {
		if v != nil && v.IsNegative() {
			return nil, apierror.BadRequest("los montos no pueden ser negativos")
		}
	}

	var orden *model.Orden
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		o, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, "orden no encontrada")
		}
		if o.Terminal() {
			return apierror.Conflict(fmt.Sprintf("la orden esta %s y no admite cambios", o.Estado))
		}

		if req.Estado != nil && *req.Estado != o.Estado {
			if !transicionValida(o.Estado, *req.Estado) {
				return apierror.BadRequest(fmt.Sprintf("transicion de estado invalida: %s -> %s", o.Estado, *req.Estado))
			}
			o.Estado = *req.Estado
		}
		if clienteID != nil {
			o.ClienteID = clienteID
		}
		if req.DireccionEntrega != nil {
			if o.Tipo == model.TipoDomicilio && strings.TrimSpace(*req.DireccionEntrega) == "" {
				return apierror.BadRequest("direccion_entrega es requerida para ordenes DOMICILIO")
			}
			o.DireccionEntrega = req.DireccionEntrega
		}
		if req.Notas != nil {
			o.Notas = req.Notas
		}
		if req.Sincronizada != nil {
			o.Sincronizada = *req.Sincronizada
		}

		recalcular := false
		if req.Descuento != nil {
			o.Descuento, recalcular = *req.Descuento, true
		}
		if req.CostoEnvio != nil {
			o.CostoEnvio, recalcular = *req.CostoEnvio, true
		}
		if req.CostoAdicional != nil {
			o.CostoAdicional, recalcular = *req.CostoAdicional, true
		}
		if items != nil {
			if err := s.repo.ReplaceItemsTx(tx, o.ID, items); err != nil {
				return err
			}
			o.Subtotal, recalcular = subtotalNew, true
		}
		if recalcular {
			if o.Total, err = calcularTotal(o.Subtotal, o.Descuento, o.CostoEnvio, o.CostoAdicional); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateTx(tx, o); err != nil {
			return err
		}
		if o.Terminal() && o.MesaID != nil {
			if err := s.liberarMesaDeOrdenTx(tx, o); err != nil {
				return err
			}
		}
		orden = o
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publicar(ctx, worker.EventoOrdenActualizada, orden)
	return s.ObtenerPorID(ctx, id)
}

func (s *ordenService) Eliminar(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	var orden *model.Orden
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		o, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, "orden no encontrada")
		}
		if o.Terminal() {
			return apierror.Conflict(fmt.Sprintf("la orden esta %s y no puede eliminarse", o.Estado))
		}
		if o.MesaID != nil {
			if err := s.liberarMesaDeOrdenTx(tx, o); err != nil {
				return err
			}
		}
		orden = o
		return s.repo.DeleteTx(tx, o.ID)
	})
	if txErr != nil {
		return txErr
	}

	s.publicar(ctx, worker.EventoOrdenEliminada, orden)
	return nil
}

func (s *ordenService) Ticket(ctx context.Context, id uuid.UUID) ([]byte, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "orden no encontrada")
	}
	return infra.GenerarTicketOrden(o)
}

// liberarMesaDeOrdenTx frees the order's table unless it already points at
// another order. A table that disappeared is left alone.
func (s *ordenService) liberarMesaDeOrdenTx(tx *gorm.DB, o *model.Orden) error {
	mesa, err := s.mesas.FindByIDForUpdateTx(tx, *o.MesaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if mesa.OrdenActualID != nil && *mesa.OrdenActualID != o.ID {
		return nil
	}
	return s.mesas.LiberarTx(tx, mesa.ID)
}

// publicar is best effort: the change is already committed.
func (s *ordenService) publicar(ctx context.Context, evento string, o *model.Orden) {
	if s.eventos == nil || o == nil {
		return
	}
	ev := worker.EventoOrden{
		Evento:     evento,
		OrdenID:    o.ID.String(),
		SucursalID: o.SucursalID.String(),
		Estado:     o.Estado,
		MesaID:     optString(o.MesaID),
	}
	if err := s.eventos.PublicarOrden(ctx, o.SucursalID, ev); err != nil {
		log.Warn().Err(err).Str("orden_id", o.ID.String()).Str("event", evento).Msg("no se pudo publicar evento de orden")
	}
}
