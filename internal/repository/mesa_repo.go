package repository

import (
	"context"

	"restopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MesaRepository interface {
	Create(ctx context.Context, m *model.Mesa) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Mesa, error)
	List(ctx context.Context, sucursalID *uuid.UUID, soloDisponibles bool) ([]model.Mesa, error)
	// Update writes the descriptive columns; occupancy only moves through OcuparTx/LiberarTx.
	Update(ctx context.Context, m *model.Mesa) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Used inside transactions; callers must pass the tx instance
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Mesa, error)
	// OcuparTx marks the table unavailable and points it at the order.
	OcuparTx(tx *gorm.DB, mesaID, ordenID uuid.UUID) error
	// LiberarTx marks the table available and clears its order pointer.
	LiberarTx(tx *gorm.DB, mesaID uuid.UUID) error

	DB() *gorm.DB
}

type mesaRepo struct{ db *gorm.DB }

func NewMesaRepository(db *gorm.DB) MesaRepository { return &mesaRepo{db: db} }

func (r *mesaRepo) DB() *gorm.DB { return r.db }

func (r *mesaRepo) Create(ctx context.Context, m *model.Mesa) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *mesaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Mesa, error) {
	var m model.Mesa
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mesaRepo) List(ctx context.Context, sucursalID *uuid.UUID, soloDisponibles bool) ([]model.Mesa, error) {
	var mesas []model.Mesa
	q := r.db.WithContext(ctx).Order("numero ASC")
	if sucursalID != nil {
		q = q.Where("sucursal_id = ?", *sucursalID)
	}
	if soloDisponibles {
		q = q.Where("disponible = true")
	}
	err := q.Find(&mesas).Error
	return mesas, err
}

func (r *mesaRepo) Update(ctx context.Context, m *model.Mesa) error {
	return r.db.WithContext(ctx).Model(&model.Mesa{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
		"numero":    m.Numero,
		"capacidad": m.Capacidad,
		"ubicacion": m.Ubicacion,
		"notas":     m.Notas,
	}).Error
}

func (r *mesaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Mesa{}, "id = ?", id).Error
}

func (r *mesaRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Mesa, error) {
	var m model.Mesa
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mesaRepo) OcuparTx(tx *gorm.DB, mesaID, ordenID uuid.UUID) error {
	return tx.Model(&model.Mesa{}).Where("id = ?", mesaID).Updates(map[string]interface{}{
		"disponible":      false,
		"orden_actual_id": ordenID,
	}).Error
}

func (r *mesaRepo) LiberarTx(tx *gorm.DB, mesaID uuid.UUID) error {
	return tx.Model(&model.Mesa{}).Where("id = ?", mesaID).Updates(map[string]interface{}{
		"disponible":      true,
		"orden_actual_id": gorm.Expr("NULL"),
	}).Error
}
