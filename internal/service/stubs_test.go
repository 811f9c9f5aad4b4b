package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"restopos/internal/dto"
	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/repository"
	"restopos/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repositories. DB() returns nil so runTx calls fn(nil) directly.

// ── Sucursales ───────────────────────────────────────────────────────────────

type stubSucursalRepo struct{ m map[uuid.UUID]*model.Sucursal }

func newStubSucursalRepo() *stubSucursalRepo {
	return &stubSucursalRepo{m: make(map[uuid.UUID]*model.Sucursal)}
}

func (r *stubSucursalRepo) seed(nombre string) *model.Sucursal {
	s := &model.Sucursal{ID: uuid.New(), Nombre: nombre, Activo: true}
	r.m[s.ID] = s
	return s
}

func (r *stubSucursalRepo) Create(_ context.Context, s *model.Sucursal) error {
	for _, e := range r.m {
		if e.Nombre == s.Nombre {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.m[s.ID] = s
	return nil
}

func (r *stubSucursalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sucursal, error) {
	s, ok := r.m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSucursalRepo) List(_ context.Context, soloActivas bool) ([]model.Sucursal, error) {
	out := make([]model.Sucursal, 0, len(r.m))
	for _, s := range r.m {
		if soloActivas && !s.Activo {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSucursalRepo) Update(_ context.Context, s *model.Sucursal) error {
	r.m[s.ID] = s
	return nil
}

// ── Clientes ─────────────────────────────────────────────────────────────────

type stubClienteRepo struct{ m map[uuid.UUID]*model.Cliente }

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{m: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.m[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClienteRepo) List(_ context.Context, _ dto.ClienteFilter) ([]model.Cliente, int64, error) {
	out := make([]model.Cliente, 0, len(r.m))
	for _, c := range r.m {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.m[c.ID] = c
	return nil
}

// ── Productos ────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	m map[uuid.UUID]*model.Producto
	// afterLock runs once the row has been read for update
	afterLock func()
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{m: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) seed(nombre string, stock int, controlar bool) *model.Producto {
	p := &model.Producto{
		ID: uuid.New(), Nombre: nombre, StockActual: stock,
		ControlarStock: controlar, Disponible: stock > 0 || !controlar, Activo: true,
	}
	r.m[p.ID] = p
	return p
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	return r.CreateTx(nil, p)
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	out := make([]model.Producto, 0, len(r.m))
	for _, p := range r.m {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) ListStockControlado(_ context.Context, categoriaID *uuid.UUID) ([]model.Producto, error) {
	out := make([]model.Producto, 0)
	for _, p := range r.m {
		if !p.Activo || !p.ControlarStock {
			continue
		}
		if categoriaID != nil && (p.CategoriaID == nil || *p.CategoriaID != *categoriaID) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

// UpdateTx mirrors the column list of the GORM repository: the balance is
// never written back.
func (r *stubProductoRepo) UpdateTx(_ *gorm.DB, p *model.Producto) error {
	e, ok := r.m[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Nombre, e.Descripcion, e.CategoriaID, e.Precio = p.Nombre, p.Descripcion, p.CategoriaID, p.Precio
	e.StockMinimo, e.StockMaximo = p.StockMinimo, p.StockMaximo
	e.ControlarStock, e.Disponible = p.ControlarStock, p.Disponible
	return nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.m[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	return nil
}

func (r *stubProductoRepo) CreateTx(_ *gorm.DB, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.m[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	p, err := r.FindByID(context.Background(), id)
	if err == nil && r.afterLock != nil {
		r.afterLock()
	}
	return p, err
}

func (r *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, stock int, disponible *bool) error {
	p, ok := r.m[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockActual = stock
	if disponible != nil {
		p.Disponible = *disponible
	}
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

// ── Movimientos de stock ─────────────────────────────────────────────────────

type stubMovimientoRepo struct {
	movs   []model.MovimientoStock
	filtro *repository.MovimientoStockFilter
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	r.movs = append(r.movs, *m)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	r.filtro = &f
	out := make([]model.MovimientoStock, 0)
	for _, m := range r.movs {
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// ── Mesas ────────────────────────────────────────────────────────────────────

type stubMesaRepo struct {
	m map[uuid.UUID]*model.Mesa
	// afterFind runs after a plain read, before the caller writes
	afterFind func()
}

func newStubMesaRepo() *stubMesaRepo {
	return &stubMesaRepo{m: make(map[uuid.UUID]*model.Mesa)}
}

func (r *stubMesaRepo) seed(sucursalID uuid.UUID, numero int) *model.Mesa {
	m := &model.Mesa{ID: uuid.New(), SucursalID: sucursalID, Numero: numero, Capacidad: 4, Disponible: true}
	r.m[m.ID] = m
	return m
}

func (r *stubMesaRepo) Create(_ context.Context, m *model.Mesa) error {
	for _, e := range r.m {
		if e.SucursalID == m.SucursalID && e.Numero == m.Numero {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *m
	r.m[m.ID] = &cp
	return nil
}

func (r *stubMesaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Mesa, error) {
	m, ok := r.m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	if r.afterFind != nil {
		hook := r.afterFind
		r.afterFind = nil
		hook()
	}
	return &cp, nil
}

func (r *stubMesaRepo) List(_ context.Context, sucursalID *uuid.UUID, soloDisponibles bool) ([]model.Mesa, error) {
	out := make([]model.Mesa, 0)
	for _, m := range r.m {
		if sucursalID != nil && m.SucursalID != *sucursalID {
			continue
		}
		if soloDisponibles && !m.Disponible {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *stubMesaRepo) Update(_ context.Context, m *model.Mesa) error {
	for _, e := range r.m {
		if e.ID != m.ID && e.SucursalID == m.SucursalID && e.Numero == m.Numero {
			return gorm.ErrDuplicatedKey
		}
	}
	e, ok := r.m[m.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Numero, e.Capacidad, e.Ubicacion, e.Notas = m.Numero, m.Capacidad, m.Ubicacion, m.Notas
	return nil
}

func (r *stubMesaRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.m, id)
	return nil
}

func (r *stubMesaRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Mesa, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubMesaRepo) OcuparTx(_ *gorm.DB, mesaID, ordenID uuid.UUID) error {
	m, ok := r.m[mesaID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Disponible = false
	m.OrdenActualID = &ordenID
	return nil
}

func (r *stubMesaRepo) LiberarTx(_ *gorm.DB, mesaID uuid.UUID) error {
	m, ok := r.m[mesaID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Disponible = true
	m.OrdenActualID = nil
	return nil
}

func (r *stubMesaRepo) DB() *gorm.DB { return nil }

// ── Ordenes ──────────────────────────────────────────────────────────────────

type stubOrdenRepo struct {
	m     map[uuid.UUID]*model.Orden
	orden []uuid.UUID // insertion order
	// filtro is the last filter List received; total overrides the count when set
	filtro *repository.OrdenFilter
	total  int64
}

func newStubOrdenRepo() *stubOrdenRepo {
	return &stubOrdenRepo{m: make(map[uuid.UUID]*model.Orden)}
}

func copiarOrden(o *model.Orden) *model.Orden {
	cp := *o
	cp.Items = append([]model.OrdenItem(nil), o.Items...)
	return &cp
}

func (r *stubOrdenRepo) seed(o *model.Orden) *model.Orden {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.m[o.ID] = copiarOrden(o)
	r.orden = append(r.orden, o.ID)
	return o
}

func (r *stubOrdenRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Orden, error) {
	o, ok := r.m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copiarOrden(o), nil
}

func (r *stubOrdenRepo) List(_ context.Context, f repository.OrdenFilter) ([]model.Orden, int64, error) {
	r.filtro = &f
	out := make([]model.Orden, 0)
	for _, id := range r.orden {
		o, ok := r.m[id]
		if !ok {
			continue
		}
		if f.Estado != "" && o.Estado != f.Estado {
			continue
		}
		if f.MesaID != nil && (o.MesaID == nil || *o.MesaID != *f.MesaID) {
			continue
		}
		out = append(out, *copiarOrden(o))
	}
	if r.total > 0 {
		return out, r.total, nil
	}
	return out, int64(len(out)), nil
}

func (r *stubOrdenRepo) FindUltimaPorMesa(_ context.Context, mesaID uuid.UUID) (*model.Orden, error) {
	for i := len(r.orden) - 1; i >= 0; i-- {
		o, ok := r.m[r.orden[i]]
		if ok && o.MesaID != nil && *o.MesaID == mesaID {
			return copiarOrden(o), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrdenRepo) FindActivaPorMesa(_ context.Context, mesaID uuid.UUID) (*model.Orden, error) {
	for _, id := range r.orden {
		o, ok := r.m[id]
		if ok && o.MesaID != nil && *o.MesaID == mesaID && o.Activa() {
			return copiarOrden(o), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrdenRepo) CountByMesa(_ context.Context, mesaID uuid.UUID) (int64, error) {
	var n int64
	for _, o := range r.m {
		if o.MesaID != nil && *o.MesaID == mesaID {
			n++
		}
	}
	return n, nil
}

func (r *stubOrdenRepo) CreateTx(_ *gorm.DB, o *model.Orden) error {
	for i := range o.Items {
		o.Items[i].OrdenID = o.ID
	}
	r.seed(o)
	return nil
}

func (r *stubOrdenRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Orden, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubOrdenRepo) UpdateTx(_ *gorm.DB, o *model.Orden) error {
	prev, ok := r.m[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := copiarOrden(o)
	cp.Items = prev.Items // lines only change through ReplaceItemsTx
	r.m[o.ID] = cp
	return nil
}

func (r *stubOrdenRepo) ReplaceItemsTx(_ *gorm.DB, ordenID uuid.UUID, items []model.OrdenItem) error {
	o, ok := r.m[ordenID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range items {
		items[i].OrdenID = ordenID
	}
	o.Items = append([]model.OrdenItem(nil), items...)
	return nil
}

func (r *stubOrdenRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.m, id)
	return nil
}

func (r *stubOrdenRepo) DB() *gorm.DB { return nil }

// ── Usuarios / sesiones ──────────────────────────────────────────────────────

type stubUsuarioRepo struct{ m map[uuid.UUID]*model.Usuario }

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{m: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	for _, e := range r.m {
		if e.Username == u.Username || e.Identificacion == u.Identificacion {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.m[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.m {
		if !u.Activo {
			continue
		}
		if u.Username == username || (u.Email != nil && *u.Email == username) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByIdentificacion(_ context.Context, identificacion string) (*model.Usuario, error) {
	for _, u := range r.m {
		if u.Identificacion == identificacion {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context, incluirInactivos bool) ([]model.Usuario, error) {
	out := make([]model.Usuario, 0, len(r.m))
	for _, u := range r.m {
		if !incluirInactivos && !u.Activo {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.m[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.m[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = false
	return nil
}

func (r *stubUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	u, ok := r.m[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = true
	return nil
}

func (r *stubUsuarioRepo) UpdatePasswordTx(_ *gorm.DB, id uuid.UUID, hash string) error {
	u, ok := r.m[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUsuarioRepo) DB() *gorm.DB { return nil }

type stubSesionRepo struct{ m map[uuid.UUID]*model.Sesion }

func newStubSesionRepo() *stubSesionRepo {
	return &stubSesionRepo{m: make(map[uuid.UUID]*model.Sesion)}
}

func (r *stubSesionRepo) Create(_ context.Context, s *model.Sesion) error {
	r.m[s.ID] = s
	return nil
}

func (r *stubSesionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sesion, error) {
	s, ok := r.m[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSesionRepo) Revoke(_ context.Context, id uuid.UUID) error {
	if s, ok := r.m[id]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (r *stubSesionRepo) RevokeAllTx(_ *gorm.DB, usuarioID uuid.UUID) error {
	now := time.Now()
	for _, s := range r.m {
		if s.UsuarioID == usuarioID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (r *stubSesionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, s := range r.m {
		if s.ExpiresAt.Before(before) {
			delete(r.m, id)
			n++
		}
	}
	return n, nil
}

// ── Codigos de recuperacion ──────────────────────────────────────────────────

type stubCodigoRepo struct{ codigos []*model.CodigoRecuperacion }

func (r *stubCodigoRepo) CreateTx(_ *gorm.DB, c *model.CodigoRecuperacion) error {
	cp := *c
	r.codigos = append(r.codigos, &cp)
	return nil
}

func (r *stubCodigoRepo) InvalidarPendientesTx(_ *gorm.DB, usuarioID uuid.UUID, now time.Time) error {
	for _, c := range r.codigos {
		if c.UsuarioID == usuarioID && !c.Usado && c.ExpiresAt.After(now) {
			c.Usado = true
		}
	}
	return nil
}

func (r *stubCodigoRepo) InvalidarTodosTx(_ *gorm.DB, usuarioID uuid.UUID) error {
	for _, c := range r.codigos {
		if c.UsuarioID == usuarioID {
			c.Usado = true
		}
	}
	return nil
}

func (r *stubCodigoRepo) FindVigente(_ context.Context, usuarioID uuid.UUID, codigo string, now time.Time) (*model.CodigoRecuperacion, error) {
	for i := len(r.codigos) - 1; i >= 0; i-- {
		c := r.codigos[i]
		if c.UsuarioID == usuarioID && c.Codigo == codigo && !c.Usado && c.ExpiresAt.After(now) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCodigoRepo) IncrementarIntentos(_ context.Context, usuarioID uuid.UUID) error {
	for _, c := range r.codigos {
		if c.UsuarioID == usuarioID && !c.Usado {
			c.Intentos++
		}
	}
	return nil
}

func (r *stubCodigoRepo) MarcarUsado(_ context.Context, id uuid.UUID) (bool, error) {
	for _, c := range r.codigos {
		if c.ID == id {
			if c.Usado {
				return false, nil
			}
			c.Usado = true
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCodigoRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (r *stubCodigoRepo) DB() *gorm.DB { return nil }

func (r *stubCodigoRepo) vigentes(usuarioID uuid.UUID, now time.Time) []*model.CodigoRecuperacion {
	var out []*model.CodigoRecuperacion
	for _, c := range r.codigos {
		if c.UsuarioID == usuarioID && !c.Usado && c.ExpiresAt.After(now) {
			out = append(out, c)
		}
	}
	return out
}

// ── Side effects ─────────────────────────────────────────────────────────────

type stubMailer struct {
	mu   sync.Mutex
	sent []infra.Email
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg infra.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type stubQueue struct {
	queued []infra.Email
	err    error
}

func (q *stubQueue) EnqueueEmail(_ context.Context, msg infra.Email) error {
	if q.err != nil {
		return q.err
	}
	q.queued = append(q.queued, msg)
	return nil
}

type stubEventos struct{ eventos []worker.EventoOrden }

func (e *stubEventos) PublicarOrden(_ context.Context, _ uuid.UUID, ev worker.EventoOrden) error {
	e.eventos = append(e.eventos, ev)
	return nil
}

type stubCache struct {
	data        map[string][]byte
	invalidated int
	err         error
}

func newStubCache() *stubCache { return &stubCache{data: make(map[string][]byte)} }

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.data[key] = val
	return nil
}

func (c *stubCache) Invalidate(_ context.Context) error {
	c.invalidated++
	c.data = make(map[string][]byte)
	return c.err
}
