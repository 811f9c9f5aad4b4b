package infra

import (
	"fmt"

	"restopos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the schema and applies the schema patches.
// Integration tests call it directly against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Sucursal{},
		&model.Usuario{},
		&model.Sesion{},
		&model.CodigoRecuperacion{},
		&model.Categoria{},
		&model.Producto{},
		&model.MovimientoStock{},
		&model.Cliente{},
		&model.Mesa{},
		&model.Orden{},
		&model.OrdenItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// One active order per table. The service checks this under a row lock;
		// the index turns any missed path into a constraint violation.
		{"partial unique index ordenes active per mesa", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_ordenes_mesa_activa') THEN
    CREATE UNIQUE INDEX idx_ordenes_mesa_activa
        ON ordenes (mesa_id)
        WHERE mesa_id IS NOT NULL AND estado IN ('PENDIENTE','EN_PREPARACION','LISTA');
  END IF;
END $$`},
		// Lookup path of VerificarCodigo: unused codes per user.
		{"partial index codigos_recuperacion unused", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_codigos_recuperacion_pendientes') THEN
    CREATE INDEX idx_codigos_recuperacion_pendientes
        ON codigos_recuperacion (usuario_id, created_at DESC)
        WHERE usado = false;
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
