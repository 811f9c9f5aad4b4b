package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	EstadoSinStock    = "sin_stock"
	EstadoStockBajo   = "stock_bajo"
	EstadoStockNormal = "stock_normal"
	EstadoStockAlto   = "stock_alto"

	resumenTTL = 60 * time.Second
)

// ResumenCache stores serialized stock summaries. Implemented by infra.Cache.
type ResumenCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type StockService interface {
	RegistrarMovimiento(ctx context.Context, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
	Resumen(ctx context.Context, filter dto.StockResumenFilter) (*dto.StockResumenResponse, error)
}

type stockService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	cache       ResumenCache
	dbTimeout   time.Duration
}

func NewStockService(
	productos repository.ProductoRepository,
	movimientos repository.MovimientoStockRepository,
	cache ResumenCache,
	dbTimeout time.Duration,
) StockService {
	return &stockService{productos: productos, movimientos: movimientos, cache: cache, dbTimeout: dbTimeout}
}

func validarMovimiento(tipo string, cantidad int) error {
	switch tipo {
	case model.MovimientoEntrada, model.MovimientoSalida, model.MovimientoAjuste:
	default:
		return apierror.BadRequest(fmt.Sprintf("tipo de movimiento invalido: %q (entrada, salida o ajuste)", tipo))
	}
	if cantidad <= 0 {
		return apierror.BadRequest("la cantidad debe ser mayor a cero")
	}
	return nil
}

// calcularMovimiento returns the new balance and the quantity recorded on the
// ledger row. For ajuste the recorded quantity is |nuevo - anterior|.
func calcularMovimiento(anterior int, tipo string, cantidad int) (nuevo, registrada int, err error) {
	if err := validarMovimiento(tipo, cantidad); err != nil {
		return 0, 0, err
	}

	switch tipo {
	case model.MovimientoEntrada:
		return anterior + cantidad, cantidad, nil
	case model.MovimientoSalida:
		if anterior-cantidad < 0 {
			return 0, 0, apierror.BadRequest(fmt.Sprintf(
				"stock insuficiente: stock actual %d, cantidad solicitada %d", anterior, cantidad))
		}
		return anterior - cantidad, cantidad, nil
	default:
		diff := cantidad - anterior
		if diff < 0 {
			diff = -diff
		}
		return cantidad, diff, nil
	}
}

func (s *stockService) RegistrarMovimiento(ctx context.Context, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error) {
	ctx, cancel := withTimeout(ctx, s.dbTimeout)
	defer cancel()

	productoID, err := parseID(req.ProductoID, "producto_id")
	if err != nil {
		return nil, err
	}
	usuarioID, err := parseOptID(req.UsuarioID, "usuario_id")
	if err != nil {
		return nil, err
	}
	if err := validarMovimiento(req.Tipo, req.Cantidad); err != nil {
		return nil, err
	}

	var (
		mov      model.MovimientoStock
		producto *model.Producto
	)
	txErr := runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		p, err := s.productos.FindByIDForUpdateTx(tx, productoID)
		if err != nil {
			return notFound(err, "producto no encontrado")
		}
		nuevo, registrada, err := calcularMovimiento(p.StockActual, req.Tipo, req.Cantidad)
		if err != nil {
			return err
		}

		mov = model.MovimientoStock{
			ID:            uuid.New(),
			ProductoID:    p.ID,
			Tipo:          req.Tipo,
			Cantidad:      registrada,
			StockAnterior: p.StockActual,
			StockNuevo:    nuevo,
			Motivo:        req.Motivo,
			Referencia:    req.Referencia,
			UsuarioID:     usuarioID,
			CreatedAt:     time.Now(),
		}
		if err := s.movimientos.CreateTx(tx, &mov); err != nil {
			return err
		}

		var disponible *bool
		if p.ControlarStock {
			d := nuevo > 0
			disponible = &d
		}
		if err := s.productos.UpdateStockTx(tx, p.ID, nuevo, disponible); err != nil {
			return err
		}
		producto = p
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidarResumen(ctx)

	resp := mapMovimiento(&mov)
	resp.Producto = producto.Nombre
	return &resp, nil
}

func (s *stockService) invalidarResumen(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar el cache de resumen de stock")
	}
}

func mapMovimiento(m *model.MovimientoStock) dto.MovimientoResponse {
	resp := dto.MovimientoResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		Referencia:    m.Referencia,
		UsuarioID:     optString(m.UsuarioID),
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.Producto != nil {
		resp.Producto = m.Producto.Nombre
	}
	return resp
}

func (s *stockService) ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	page, limit := paginacion(filter.Page, filter.Limit, 50, 500)
	f := repository.MovimientoStockFilter{Tipo: filter.Tipo, Page: page, Limit: limit}

	var err error
	if f.ProductoID, err = parseOptID(&filter.ProductoID, "producto_id"); err != nil {
		return nil, err
	}
	if filter.Desde != "" {
		if f.Desde, _, err = diaCompleto(filter.Desde); err != nil {
			return nil, err
		}
	}
	if filter.Hasta != "" {
		// hasta is inclusive for the caller: the whole day counts
		if _, f.Hasta, err = diaCompleto(filter.Hasta); err != nil {
			return nil, err
		}
	}

	movs, total, err := s.movimientos.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		data = append(data, mapMovimiento(&movs[i]))
	}
	return &dto.MovimientoListResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// clasificarStock applies sin_stock, stock_bajo, stock_alto, stock_normal in
// that precedence. porcentaje is relative to the maximum when one is set.
func clasificarStock(p *model.Producto) (string, *float64) {
	var pct *float64
	if p.StockMaximo != nil && *p.StockMaximo > 0 {
		v := math.Round(float64(p.StockActual)/float64(*p.StockMaximo)*10000) / 100
		pct = &v
	}
	switch {
	case p.StockActual <= 0:
		return EstadoSinStock, pct
	case p.StockActual <= p.StockMinimo:
		return EstadoStockBajo, pct
	case p.StockMaximo != nil && p.StockActual >= *p.StockMaximo:
		return EstadoStockAlto, pct
	default:
		return EstadoStockNormal, pct
	}
}

func (s *stockService) Resumen(ctx context.Context, filter dto.StockResumenFilter) (*dto.StockResumenResponse, error) {
	categoriaID, err := parseOptID(&filter.CategoriaID, "categoria_id")
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("cat=%s:bajo=%t", filter.CategoriaID, filter.SoloBajo)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err != nil {
			log.Warn().Err(err).Msg("cache de resumen de stock no disponible")
		} else if ok {
			var cached dto.StockResumenResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	productos, err := s.productos.ListStockControlado(ctx, categoriaID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StockResumenResponse{
		Productos: make([]dto.StockResumenItem, 0, len(productos)),
		Conteo: map[string]int{
			EstadoSinStock:    0,
			EstadoStockBajo:   0,
			EstadoStockNormal: 0,
			EstadoStockAlto:   0,
		},
	}
	for i := range productos {
		p := &productos[i]
		estado, pct := clasificarStock(p)
		if filter.SoloBajo && estado != EstadoSinStock && estado != EstadoStockBajo {
			continue
		}
		item := dto.StockResumenItem{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			StockActual: p.StockActual,
			StockMinimo: p.StockMinimo,
			StockMaximo: p.StockMaximo,
			Estado:      estado,
			Porcentaje:  pct,
			Disponible:  p.Disponible,
		}
		if p.Categoria != nil {
			item.Categoria = p.Categoria.Nombre
		}
		resp.Productos = append(resp.Productos, item)
		resp.Conteo[estado]++
	}
	resp.Total = len(resp.Productos)

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, raw, resumenTTL); err != nil {
				log.Warn().Err(err).Msg("no se pudo guardar el resumen de stock en cache")
			}
		}
	}
	return resp, nil
}
