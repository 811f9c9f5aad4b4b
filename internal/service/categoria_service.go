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

// CategoriaService defines business operations for menu categories.
type CategoriaService interface {
	Crear(ctx context.Context, req dto.CrearCategoriaRequest) (dto.CategoriaResponse, error)
	Listar(ctx context.Context, incluirInactivas bool) ([]dto.CategoriaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCategoriaRequest) (dto.CategoriaResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type categoriaService struct {
	repo repository.CategoriaRepository
}

func NewCategoriaService(repo repository.CategoriaRepository) CategoriaService {
	return &categoriaService{repo: repo}
}

func mapCategoria(c model.Categoria) dto.CategoriaResponse {
	return dto.CategoriaResponse{
		ID:          c.ID,
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		Orden:       c.Orden,
		Activo:      c.Activo,
	}
}

var errCategoriaDuplicada = apierror.Conflict("ya existe una categoría con ese nombre")

// nombreTomado reports whether another category already uses nombre (case-insensitive).
func (s *categoriaService) nombreTomado(ctx context.Context, nombre string, excepto uuid.UUID) (bool, error) {
	existing, err := s.repo.ObtenerPorNombre(ctx, nombre)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excepto, nil
}

func (s *categoriaService) Crear(ctx context.Context, req dto.CrearCategoriaRequest) (dto.CategoriaResponse, error) {
	tomado, err := s.nombreTomado(ctx, req.Nombre, uuid.Nil)
	if err != nil {
		return dto.CategoriaResponse{}, err
	}
	if tomado {
		return dto.CategoriaResponse{}, errCategoriaDuplicada
	}

	c := &model.Categoria{
		ID:          uuid.New(),
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Orden:       req.Orden,
		Activo:      true,
	}
	if err := s.repo.Crear(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CategoriaResponse{}, errCategoriaDuplicada
		}
		return dto.CategoriaResponse{}, err
	}
	return mapCategoria(*c), nil
}

func (s *categoriaService) Listar(ctx context.Context, incluirInactivas bool) ([]dto.CategoriaResponse, error) {
	list, err := s.repo.Listar(ctx, incluirInactivas)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CategoriaResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategoria(c))
	}
	return result, nil
}

func (s *categoriaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCategoriaRequest) (dto.CategoriaResponse, error) {
	c, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		return dto.CategoriaResponse{}, notFound(err, "categoría no encontrada")
	}

	if req.Nombre != nil && *req.Nombre != c.Nombre {
		tomado, err := s.nombreTomado(ctx, *req.Nombre, id)
		if err != nil {
			return dto.CategoriaResponse{}, err
		}
		if tomado {
			return dto.CategoriaResponse{}, errCategoriaDuplicada
		}
		c.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		c.Descripcion = req.Descripcion
	}
	if req.Orden != nil {
		c.Orden = *req.Orden
	}
	if req.Activo != nil {
		c.Activo = *req.Activo
	}

	if err := s.repo.Actualizar(ctx, c); err != nil {
		return dto.CategoriaResponse{}, err
	}
	return mapCategoria(*c), nil
}

// Desactivar hides the category from the menu; it is refused while active
// products still belong to it.
func (s *categoriaService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.ObtenerPorID(ctx, id); err != nil {
		return notFound(err, "categoría no encontrada")
	}
	n, err := s.repo.ContarProductosActivos(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apierror.Conflict("la categoría tiene productos activos")
	}
	return s.repo.Desactivar(ctx, id)
}
