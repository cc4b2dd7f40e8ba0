package infra

import (
	"fmt"

	"caixapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs
// AutoMigrate for all tables, then applies the idempotent SQL patches
// GORM cannot express — most importantly the partial unique index that
// enforces the single-open-session invariant at the store level.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Surface duplicate-key violations as gorm.ErrDuplicatedKey so the
		// register repository can translate them to conflict errors.
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

	if err := db.AutoMigrate(
		&model.User{},
		&model.RegisterSession{},
		&model.Payment{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle.
// Each statement uses IF NOT EXISTS semantics so re-running on an
// already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// The single-open invariant: at most one row with status='open',
		// system-wide. Two concurrent opens both pass any application
		// check; this index makes the second INSERT fail with SQLSTATE
		// 23505 instead of silently creating a second open session.
		{"single open session partial unique index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uq_register_sessions_single_open') THEN
    CREATE UNIQUE INDEX uq_register_sessions_single_open
        ON register_sessions ((true))
        WHERE status = 'open';
  END IF;
END $$`},
		// Covering index for the ledger scan behind balance/summary reads.
		{"payments session+status index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_payments_session_status') THEN
    CREATE INDEX idx_payments_session_status
        ON payments (register_session_id, status);
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
