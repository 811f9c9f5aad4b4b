package service

import (
	"context"
	"errors"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SucursalService interface {
	Crear(ctx context.Context, req dto.CrearSucursalRequest) (*dto.SucursalResponse, error)
	Listar(ctx context.Context, soloActivas bool) ([]dto.SucursalResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.SucursalResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarSucursalRequest) (*dto.SucursalResponse, error)
}

type sucursalService struct {
	repo repository.SucursalRepository
}

func NewSucursalService(repo repository.SucursalRepository) SucursalService {
	return &sucursalService{repo: repo}
}

func mapSucursal(s *model.Sucursal) dto.SucursalResponse {
	return dto.SucursalResponse{
		ID:        s.ID.String(),
		Nombre:    s.Nombre,
		Direccion: s.Direccion,
		Telefono:  s.Telefono,
		Activo:    s.Activo,
	}
}

func (s *sucursalService) Crear(ctx context.Context, req dto.CrearSucursalRequest) (*dto.SucursalResponse, error) {
	suc := &model.Sucursal{
		ID:        uuid.New(),
		Nombre:    req.Nombre,
		Direccion: req.Direccion,
		Telefono:  req.Telefono,
		Activo:    true,
	}
	if err := s.repo.Create(ctx, suc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("ya existe una sucursal con ese nombre")
		}
		return nil, err
	}
	resp := mapSucursal(suc)
	return &resp, nil
}

func (s *sucursalService) Listar(ctx context.Context, soloActivas bool) ([]dto.SucursalResponse, error) {
	list, err := s.repo.List(ctx, soloActivas)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SucursalResponse, 0, len(list))
	for i := range list {
		out = append(out, mapSucursal(&list[i]))
	}
	return out, nil
}

func (s *sucursalService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.SucursalResponse, error) {
	suc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "sucursal no encontrada")
	}
	resp := mapSucursal(suc)
	return &resp, nil
}

func (s *sucursalService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarSucursalRequest) (*dto.SucursalResponse, error) {
	suc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "sucursal no encontrada")
	}
	if req.Nombre != nil {
		suc.Nombre = *req.Nombre
	}
	if req.Direccion != nil {
		suc.Direccion = req.Direccion
	}
	if req.Telefono != nil {
		suc.Telefono = req.Telefono
	}
	if req.Activo != nil {
		suc.Activo = *req.Activo
	}
	if err := s.repo.Update(ctx, suc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("ya existe una sucursal con ese nombre")
		}
		return nil, err
	}
	resp := mapSucursal(suc)
	return &resp, nil
}
