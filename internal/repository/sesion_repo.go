package repository

import (
	"context"
	"time"

	"restopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SesionRepository interface {
	Create(ctx context.Context, s *model.Sesion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sesion, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeAllTx(tx *gorm.DB, usuarioID uuid.UUID) error
	// DeleteExpired removes sessions that expired or were revoked before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sesionRepo struct{ db *gorm.DB }

func NewSesionRepository(db *gorm.DB) SesionRepository { return &sesionRepo{db: db} }

func (r *sesionRepo) Create(ctx context.Context, s *model.Sesion) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sesionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sesion, error) {
	var s model.Sesion
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sesionRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Sesion{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now()).Error
}

func (r *sesionRepo) RevokeAllTx(tx *gorm.DB, usuarioID uuid.UUID) error {
	return tx.Model(&model.Sesion{}).
		Where("usuario_id = ? AND revoked_at IS NULL", usuarioID).
		Update("revoked_at", time.Now()).Error
}

func (r *sesionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", before, before).
		Delete(&model.Sesion{})
	return res.RowsAffected, res.Error
}
