package service

import (
	"context"
	"errors"
	"time"

	"restopos/internal/apierror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// withTimeout bounds a unit of database work. A zero timeout leaves ctx alone.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// notFound maps gorm.ErrRecordNotFound to a 404 with msg and passes any
// other error through untouched.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(msg)
	}
	return err
}

func parseID(raw, campo string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.BadRequest(campo + " invalido")
	}
	return id, nil
}

func parseOptID(raw *string, campo string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(*raw, campo)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func paginacion(page, limit, defLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func optString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

const fechaLayout = "2006-01-02"

// diaCompleto turns YYYY-MM-DD into the half-open interval [dia, dia+1d).
func diaCompleto(raw string) (*time.Time, *time.Time, error) {
	desde, err := time.ParseInLocation(fechaLayout, raw, time.Local)
	if err != nil {
		return nil, nil, apierror.BadRequest("fecha invalida, use AAAA-MM-DD")
	}
	hasta := desde.AddDate(0, 0, 1)
	return &desde, &hasta, nil
}
