package repository

import (
	"context"
	"time"

	"restopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrdenFilter is the typed list query. Nil / empty fields are ignored.
// Desde/Hasta bound created_at as [Desde, Hasta).
type OrdenFilter struct {
	SucursalID   *uuid.UUID
	UsuarioID    *uuid.UUID
	MesaID       *uuid.UUID
	ClienteID    *uuid.UUID
	Estado       string
	Tipo         string
	Sincronizada *bool
	Desde        *time.Time
	Hasta        *time.Time
	Page         int
	Limit        int
}

type OrdenRepository interface {
	// FindByID loads the order with items, mesa, cliente and usuario.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Orden, error)
	List(ctx context.Context, filter OrdenFilter) ([]model.Orden, int64, error)
	// FindUltimaPorMesa returns the most recent order that referenced the table.
	FindUltimaPorMesa(ctx context.Context, mesaID uuid.UUID) (*model.Orden, error)
	FindActivaPorMesa(ctx context.Context, mesaID uuid.UUID) (*model.Orden, error)
	CountByMesa(ctx context.Context, mesaID uuid.UUID) (int64, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, o *model.Orden) error
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Orden, error)
	UpdateTx(tx *gorm.DB, o *model.Orden) error
	// ReplaceItemsTx deletes every line of the order and inserts items.
	ReplaceItemsTx(tx *gorm.DB, ordenID uuid.UUID, items []model.OrdenItem) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type ordenRepo struct{ db *gorm.DB }

func NewOrdenRepository(db *gorm.DB) OrdenRepository { return &ordenRepo{db: db} }

func (r *ordenRepo) DB() *gorm.DB { return r.db }

func withRelaciones(q *gorm.DB) *gorm.DB {
	return q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Producto").
		Preload("Mesa").
		Preload("Cliente").
		Preload("Usuario")
}

func (r *ordenRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	if err := withRelaciones(r.db.WithContext(ctx)).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// applyOrdenFilter is the only place list filters become SQL.
func applyOrdenFilter(q *gorm.DB, f OrdenFilter) *gorm.DB {
	if f.SucursalID != nil {
		q = q.Where("sucursal_id = ?", *f.SucursalID)
	}
	if f.UsuarioID != nil {
		q = q.Where("usuario_id = ?", *f.UsuarioID)
	}
	if f.MesaID != nil {
		q = q.Where("mesa_id = ?", *f.MesaID)
	}
	if f.ClienteID != nil {
		q = q.Where("cliente_id = ?", *f.ClienteID)
	}
	if f.Estado != "" {
		q = q.Where("estado = ?", f.Estado)
	}
	if f.Tipo != "" {
		q = q.Where("tipo = ?", f.Tipo)
	}
	if f.Sincronizada != nil {
		q = q.Where("sincronizada = ?", *f.Sincronizada)
	}
	if f.Desde != nil {
		q = q.Where("created_at >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("created_at < ?", *f.Hasta)
	}
	return q
}

func (r *ordenRepo) List(ctx context.Context, filter OrdenFilter) ([]model.Orden, int64, error) {
	var ordenes []model.Orden
	var total int64

	q := applyOrdenFilter(r.db.WithContext(ctx).Model(&model.Orden{}), filter)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := withRelaciones(q).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ordenes).Error
	return ordenes, total, err
}

func (r *ordenRepo) FindUltimaPorMesa(ctx context.Context, mesaID uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	err := r.db.WithContext(ctx).Where("mesa_id = ?", mesaID).Order("created_at DESC").First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *ordenRepo) FindActivaPorMesa(ctx context.Context, mesaID uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	err := withRelaciones(r.db.WithContext(ctx)).
		Where("mesa_id = ? AND estado IN ?", mesaID, model.EstadosActivos).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *ordenRepo) CountByMesa(ctx context.Context, mesaID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Orden{}).Where("mesa_id = ?", mesaID).Count(&n).Error
	return n, err
}

func (r *ordenRepo) CreateTx(tx *gorm.DB, o *model.Orden) error {
	return tx.Omit("Mesa", "Cliente", "Usuario", "Sucursal").Create(o).Error
}

func (r *ordenRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *ordenRepo) UpdateTx(tx *gorm.DB, o *model.Orden) error {
	return tx.Omit(clause.Associations).Save(o).Error
}

func (r *ordenRepo) ReplaceItemsTx(tx *gorm.DB, ordenID uuid.UUID, items []model.OrdenItem) error {
	if err := tx.Where("orden_id = ?", ordenID).Delete(&model.OrdenItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrdenID = ordenID
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Omit("Producto").Create(&items).Error
}

func (r *ordenRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Orden{}, "id = ?", id).Error
}
