package service

import (
	"context"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductoService defines the business logic contract for products.
// Stock levels are not editable here: they move only through the stock ledger.
type ProductoService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo        repository.ProductoRepository
	categorias  repository.CategoriaRepository
	movimientos repository.MovimientoStockRepository
	cache       ResumenCache
}

func NewProductoService(
	repo repository.ProductoRepository,
	categorias repository.CategoriaRepository,
	movimientos repository.MovimientoStockRepository,
	cache ResumenCache,
) ProductoService {
	return &productoService{repo: repo, categorias: categorias, movimientos: movimientos, cache: cache}
}

func mapProducto(p *model.Producto) dto.ProductoResponse {
	resp := dto.ProductoResponse{
		ID:             p.ID.String(),
		Nombre:         p.Nombre,
		Descripcion:    p.Descripcion,
		CategoriaID:    optString(p.CategoriaID),
		Precio:         p.Precio,
		StockActual:    p.StockActual,
		StockMinimo:    p.StockMinimo,
		StockMaximo:    p.StockMaximo,
		ControlarStock: p.ControlarStock,
		Disponible:     p.Disponible,
		Activo:         p.Activo,
	}
	if p.Categoria != nil {
		resp.Categoria = p.Categoria.Nombre
	}
	return resp
}

func (s *productoService) resolverCategoria(ctx context.Context, raw *string) (*uuid.UUID, error) {
	id, err := parseOptID(raw, "categoria_id")
	if err != nil || id == nil {
		return nil, err
	}
	if _, err := s.categorias.ObtenerPorID(ctx, *id); err != nil {
		return nil, notFound(err, "categoría no encontrada")
	}
	return id, nil
}

func validarLimites(minimo int, maximo *int) error {
	if maximo != nil && *maximo < minimo {
		return apierror.BadRequest("stock_maximo no puede ser menor que stock_minimo")
	}
	return nil
}

// Crear stores the product and, when StockInicial > 0, its opening ledger
// entry in the same transaction.
func (s *productoService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if req.Precio.IsNegative() {
		return nil, apierror.BadRequest("el precio no puede ser negativo")
	}
	if err := validarLimites(req.StockMinimo, req.StockMaximo); err != nil {
		return nil, err
	}
	categoriaID, err := s.resolverCategoria(ctx, req.CategoriaID)
	if err != nil {
		return nil, err
	}

	p := &model.Producto{
		ID:             uuid.New(),
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		CategoriaID:    categoriaID,
		Precio:         req.Precio,
		StockActual:    req.StockInicial,
		StockMinimo:    req.StockMinimo,
		StockMaximo:    req.StockMaximo,
		ControlarStock: req.ControlarStock,
		Disponible:     !req.ControlarStock || req.StockInicial > 0,
		Activo:         true,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return err
		}
		if req.StockInicial == 0 {
			return nil
		}
		motivo := "stock inicial"
		return s.movimientos.CreateTx(tx, &model.MovimientoStock{
			ID:            uuid.New(),
			ProductoID:    p.ID,
			Tipo:          model.MovimientoEntrada,
			Cantidad:      req.StockInicial,
			StockAnterior: 0,
			StockNuevo:    req.StockInicial,
			Motivo:        &motivo,
			UsuarioID:     &usuarioID,
			CreatedAt:     time.Now(),
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	s.invalidarResumen(ctx)
	return s.ObtenerPorID(ctx, p.ID)
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "producto no encontrado")
	}
	resp := mapProducto(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	filter.Page, filter.Limit = paginacion(filter.Page, filter.Limit, 20, 100)
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, mapProducto(&productos[i]))
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	if req.Precio != nil && req.Precio.IsNegative() {
		return nil, apierror.BadRequest("el precio no puede ser negativo")
	}
	var categoriaID *uuid.UUID
	if req.CategoriaID != nil {
		var err error
		if categoriaID, err = s.resolverCategoria(ctx, req.CategoriaID); err != nil {
			return nil, err
		}
	}

	// The row is locked so disponible is derived from the committed balance and
	// a concurrent ledger movement cannot be overwritten.
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, "producto no encontrado")
		}
		if req.Nombre != nil {
			p.Nombre = *req.Nombre
		}
		if req.Descripcion != nil {
			p.Descripcion = req.Descripcion
		}
		if req.CategoriaID != nil {
			p.CategoriaID = categoriaID
		}
		if req.Precio != nil {
			p.Precio = *req.Precio
		}
		if req.StockMinimo != nil {
			p.StockMinimo = *req.StockMinimo
		}
		if req.StockMaximo != nil {
			p.StockMaximo = req.StockMaximo
		}
		if err := validarLimites(p.StockMinimo, p.StockMaximo); err != nil {
			return err
		}
		if req.ControlarStock != nil {
			p.ControlarStock = *req.ControlarStock
		}
		switch {
		case p.ControlarStock:
			// availability follows the balance while stock is controlled
			p.Disponible = p.StockActual > 0
		case req.Disponible != nil:
			p.Disponible = *req.Disponible
		}
		return s.repo.UpdateTx(tx, p)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.invalidarResumen(ctx)
	return s.ObtenerPorID(ctx, id)
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, "producto no encontrado")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidarResumen(ctx)
	return nil
}

func (s *productoService) invalidarResumen(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar el cache de resumen de stock")
	}
}
