package router

import (
	"time"

	"restopos/internal/config"
	"restopos/internal/handler"
	"restopos/internal/infra"
	"restopos/internal/middleware"
	"restopos/internal/repository"
	"restopos/internal/service"
	"restopos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	rolMesero = "mesero"
	rolCajero = "cajero"
	rolCocina = "cocina"
	rolAdmin  = "administrador"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailer infra.Mailer) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Each engine owns its registry so tests can build several routers.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.RegisterMetrics(reg)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimit, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	eventos := worker.NewEventPublisher(rdb)
	stockCache := infra.NewCache(rdb, "cache:stock:resumen:")

	var emailCB *infra.CircuitBreaker
	if bm, isBreaker := mailer.(interface{ Breaker() *infra.CircuitBreaker }); isBreaker {
		emailCB = bm.Breaker()
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	sesionRepo := repository.NewSesionRepository(db)
	codigoRepo := repository.NewCodigoRecuperacionRepository(db)
	sucursalRepo := repository.NewSucursalRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	mesaRepo := repository.NewMesaRepository(db)
	ordenRepo := repository.NewOrdenRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, sesionRepo, cfg)
	recuperacionSvc := service.NewRecuperacionService(usuarioRepo, codigoRepo, sesionRepo, mailer, dispatcher, cfg)
	sucursalSvc := service.NewSucursalService(sucursalRepo)
	categoriaSvc := service.NewCategoriaService(categoriaRepo)
	productoSvc := service.NewProductoService(productoRepo, categoriaRepo, movimientoStockRepo, stockCache)
	stockSvc := service.NewStockService(productoRepo, movimientoStockRepo, stockCache, cfg.DBTimeout)
	clienteSvc := service.NewClienteService(clienteRepo)
	mesaSvc := service.NewMesaService(mesaRepo, ordenRepo, sucursalRepo, cfg.DBTimeout)
	ordenSvc := service.NewOrdenService(ordenRepo, mesaRepo, sucursalRepo, clienteRepo, productoRepo, eventos, cfg.DBTimeout)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	recuperacionH := handler.NewRecuperacionHandler(recuperacionSvc)
	sucursalesH := handler.NewSucursalesHandler(sucursalSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	stockH := handler.NewStockHandler(stockSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	mesasH := handler.NewMesasHandler(mesaSvc)
	ordenesH := handler.NewOrdenesHandler(ordenSvc)
	eventosH := handler.NewEventosHandler(eventos)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, emailCB))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/forgot-password", middleware.RecoveryRateLimiter(), recuperacionH.SolicitarCodigo)
		auth.POST("/verify-otp", middleware.RecoveryRateLimiter(), recuperacionH.VerificarCodigo)
		auth.POST("/reset-password", middleware.RecoveryRateLimiter(), recuperacionH.RestablecerPassword)
	}

	staff := middleware.RequireRole(rolMesero, rolCajero, rolCocina, rolAdmin)
	salon := middleware.RequireRole(rolMesero, rolCajero, rolAdmin)
	admin := middleware.RequireRole(rolAdmin)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret, authSvc)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.POST("/auth/logout", authH.Logout)

		// Ordenes: kitchen reads and moves states; floor staff take and edit orders
		v1.GET("/ordenes", staff, ordenesH.Listar)
		v1.GET("/ordenes/eventos", staff, eventosH.Stream)
		v1.GET("/ordenes/:id", staff, ordenesH.ObtenerPorID)
		v1.GET("/ordenes/:id/ticket", salon, ordenesH.Ticket)
		v1.POST("/ordenes", salon, ordenesH.Crear)
		v1.PUT("/ordenes", staff, ordenesH.Actualizar)
		v1.DELETE("/ordenes", salon, ordenesH.Eliminar)

		v1.GET("/mesas", staff, mesasH.Listar)
		v1.GET("/mesas/:id", staff, mesasH.ObtenerPorID)
		v1.GET("/mesas/:id/orden-actual", staff, mesasH.OrdenActual)
		v1.PUT("/mesas/:id/liberar", salon, mesasH.Liberar)
		mesas := v1.Group("/mesas", admin)
		{
			mesas.POST("", mesasH.Crear)
			mesas.PUT("/:id", mesasH.Actualizar)
			mesas.DELETE("/:id", mesasH.Eliminar)
		}

		stock := v1.Group("/stock")
		{
			stock.POST("/movimientos", middleware.RequireRole(rolCajero, rolAdmin), stockH.RegistrarMovimiento)
			stock.GET("/movimientos", middleware.RequireRole(rolCajero, rolAdmin), stockH.ListarMovimientos)
			stock.GET("/resumen", staff, stockH.Resumen)
		}

		// Catalog: every role reads, administrador writes
		v1.GET("/productos", staff, productosH.Listar)
		v1.GET("/productos/:id", staff, productosH.ObtenerPorID)
		prods := v1.Group("/productos", admin)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
		}

		v1.GET("/categorias", staff, categoriasH.Listar)
		categorias := v1.Group("/categorias", admin)
		{
			categorias.POST("", categoriasH.Crear)
			categorias.PUT("/:id", categoriasH.Actualizar)
			categorias.DELETE("/:id", categoriasH.Desactivar)
		}

		v1.GET("/sucursales", staff, sucursalesH.Listar)
		v1.GET("/sucursales/:id", staff, sucursalesH.ObtenerPorID)
		sucursales := v1.Group("/sucursales", admin)
		{
			sucursales.POST("", sucursalesH.Crear)
			sucursales.PUT("/:id", sucursalesH.Actualizar)
		}

		clientes := v1.Group("/clientes", salon)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.PUT("/:id", clientesH.Actualizar)
		}

		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
