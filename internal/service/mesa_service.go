package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MesaService interface {
	Crear(ctx context.Context, req dto.CrearMesaRequest) (*dto.MesaResponse, error)
	Listar(ctx context.Context, filter dto.MesaFilter) ([]dto.MesaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.MesaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarMesaRequest) (*dto.MesaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	// Liberar frees the table once its latest order is delivered or cancelled.
	Liberar(ctx context.Context, id uuid.UUID, req dto.LiberarMesaRequest) (*dto.LiberarMesaResponse, error)
	OrdenActual(ctx context.Context, id uuid.UUID) (*dto.OrdenResponse, error)
}

type mesaService struct {
	repo       repository.MesaRepository
	ordenes    repository.OrdenRepository
	sucursales repository.SucursalRepository
	dbTimeout  time.Duration
}

func NewMesaService(
	repo repository.MesaRepository,
	ordenes repository.OrdenRepository,
	sucursales repository.SucursalRepository,
	dbTimeout time.Duration,
) MesaService {
	return &mesaService{repo: repo, ordenes: ordenes, sucursales: sucursales, dbTimeout: dbTimeout}
}

func mesaDuplicada(numero int) error {
	return apierror.Conflict(fmt.Sprintf("ya existe la mesa %d en la sucursal", numero))
}

func (s *mesaService) Crear(ctx context.Context, req dto.CrearMesaRequest) (*dto.MesaResponse, error) {
	sucursalID, err := parseID(req.SucursalID, "sucursal_id")
	if err != nil {
		return nil, err
	}
	if _, err := s.sucursales.FindByID(ctx, sucursalID); err != nil {
		return nil, notFound(err, "sucursal no encontrada")
	}

	m := &model.Mesa{
		ID:         uuid.New(),
		SucursalID: sucursalID,
		Numero:     req.Numero,
		Capacidad:  req.Capacidad,
		Disponible: true,
		Ubicacion:  req.Ubicacion,
		Notas:      req.Notas,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, mesaDuplicada(req.Numero)
		}
		return nil, err
	}
	resp := mapMesa(m)
	return &resp, nil
}

func (s *mesaService) Listar(ctx context.Context, filter dto.MesaFilter) ([]dto.MesaResponse, error) {
	sucursalID, err := parseOptID(&filter.SucursalID, "sucursal_id")
	if err != nil {
		return nil, err
	}
	mesas, err := s.repo.List(ctx, sucursalID, filter.Disponibles)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MesaResponse, 0, len(mesas))
	for i := range mesas {
		out = append(out, mapMesa(&mesas[i]))
	}
	return out, nil
}

func (s *mesaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.MesaResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "mesa no encontrada")
	}
	resp := mapMesa(m)
	return &resp, nil
}

func (s *mesaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarMesaRequest) (*dto.MesaResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "mesa no encontrada")
	}
	if req.Numero != nil {
		m.Numero = *req.Numero
	}
	if req.Capacidad != nil {
		m.Capacidad = *req.Capacidad
	}
	if req.Ubicacion != nil {
		m.Ubicacion = req.Ubicacion
	}
	if req.Notas != nil {
		m.Notas = req.Notas
	}
	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, mesaDuplicada(m.Numero)
		}
		return nil, err
	}
	return s.ObtenerPorID(ctx, id)
}

// Eliminar refuses to drop a table that any order still references.
func (s *mesaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, "mesa no encontrada")
	}
	n, err := s.ordenes.CountByMesa(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierror.Conflict("la mesa tiene ordenes asociadas y no puede eliminarse")
	}
	return s.repo.Delete(ctx, id)
}

func (s *mesaService) Liberar(ctx context.Context, id uuid.UUID, req dto.LiberarMesaRequest) (*dto.LiberarMesaResponse, error) {
	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	usuarioID, err := parseID(req.UsuarioID, "usuario_id")
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, "mesa no encontrada")
	}
	orden, err := s.ordenes.FindUltimaPorMesa(ctx, id)
	if err != nil {
		return nil, notFound(err, "la mesa no tiene ordenes registradas")
	}
	if orden.UsuarioID != usuarioID {
		return nil, apierror.Forbidden("solo el mesero asignado puede liberar la mesa")
	}
	if orden.Activa() {
		return nil, apierror.Conflict(fmt.Sprintf("la orden de la mesa sigue %s; debe estar ENTREGADA o CANCELADA", orden.Estado))
	}

	var mesa *model.Mesa
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		m, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, "mesa no encontrada")
		}
		if m.OrdenActualID == nil || *m.OrdenActualID == orden.ID {
			if err := s.repo.LiberarTx(tx, m.ID); err != nil {
				return err
			}
			m.Disponible = true
			m.OrdenActualID = nil
		}
		mesa = m
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &dto.LiberarMesaResponse{
		Mesa:    mapMesa(mesa),
		OrdenID: orden.ID.String(),
		Estado:  orden.Estado,
	}, nil
}

func (s *mesaService) OrdenActual(ctx context.Context, id uuid.UUID) (*dto.OrdenResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, "mesa no encontrada")
	}
	o, err := s.ordenes.FindActivaPorMesa(ctx, id)
	if err != nil {
		return nil, notFound(err, "la mesa no tiene una orden activa")
	}
	resp := mapOrden(o)
	return &resp, nil
}
