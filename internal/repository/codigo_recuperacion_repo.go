package repository

import (
	"context"
	"time"

	"restopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CodigoRecuperacionRepository interface {
	CreateTx(tx *gorm.DB, c *model.CodigoRecuperacion) error
	// InvalidarPendientesTx marks every unused, unexpired code of the user as used.
	InvalidarPendientesTx(tx *gorm.DB, usuarioID uuid.UUID, now time.Time) error
	// InvalidarTodosTx marks every unused code of the user as used, expired or not.
	InvalidarTodosTx(tx *gorm.DB, usuarioID uuid.UUID) error
	// FindVigente returns the most recent unused, unexpired code with that value.
	FindVigente(ctx context.Context, usuarioID uuid.UUID, codigo string, now time.Time) (*model.CodigoRecuperacion, error)
	IncrementarIntentos(ctx context.Context, usuarioID uuid.UUID) error
	// MarcarUsado flips usado on an unused code and reports whether this call did it.
	MarcarUsado(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	DB() *gorm.DB
}

type codigoRecuperacionRepo struct{ db *gorm.DB }

func NewCodigoRecuperacionRepository(db *gorm.DB) CodigoRecuperacionRepository {
	return &codigoRecuperacionRepo{db: db}
}

func (r *codigoRecuperacionRepo) DB() *gorm.DB { return r.db }

func (r *codigoRecuperacionRepo) CreateTx(tx *gorm.DB, c *model.CodigoRecuperacion) error {
	return tx.Create(c).Error
}

func (r *codigoRecuperacionRepo) InvalidarPendientesTx(tx *gorm.DB, usuarioID uuid.UUID, now time.Time) error {
	return tx.Model(&model.CodigoRecuperacion{}).
		Where("usuario_id = ? AND usado = false AND expires_at > ?", usuarioID, now).
		Update("usado", true).Error
}

func (r *codigoRecuperacionRepo) InvalidarTodosTx(tx *gorm.DB, usuarioID uuid.UUID) error {
	return tx.Model(&model.CodigoRecuperacion{}).
		Where("usuario_id = ? AND usado = false", usuarioID).
		Update("usado", true).Error
}

func (r *codigoRecuperacionRepo) FindVigente(ctx context.Context, usuarioID uuid.UUID, codigo string, now time.Time) (*model.CodigoRecuperacion, error) {
	var c model.CodigoRecuperacion
	err := r.db.WithContext(ctx).
		Where("usuario_id = ? AND codigo = ? AND usado = false AND expires_at > ?", usuarioID, codigo, now).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *codigoRecuperacionRepo) IncrementarIntentos(ctx context.Context, usuarioID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.CodigoRecuperacion{}).
		Where("usuario_id = ? AND usado = false", usuarioID).
		Update("intentos", gorm.Expr("intentos + 1")).Error
}

func (r *codigoRecuperacionRepo) MarcarUsado(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CodigoRecuperacion{}).
		Where("id = ? AND usado = false", id).
		Update("usado", true)
	return res.RowsAffected == 1, res.Error
}

func (r *codigoRecuperacionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&model.CodigoRecuperacion{})
	return res.RowsAffected, res.Error
}
