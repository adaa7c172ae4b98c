package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра бронирования.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Role{},
		&UserRole{},
		&Slot{},
		&Booking{},
		&Event{},
		&AdmissionJob{},
	)
}

// ApplyConstraints добавляет ограничения уровня хранилища, которые GORM
// не умеет выражать тегами. Это независимый от приложения рубеж защиты:
//
//   - частичный уникальный индекс: не более одного confirmed-бронирования на слот;
//   - exclusion constraint: интервалы слотов одного хоста не пересекаются.
//
// Exclusion constraint существует только в Postgres; в SQLite (тесты) остаётся
// частичный уникальный индекс, который SQLite поддерживает.
func ApplyConstraints(db *gorm.DB) error {
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_confirmed_booking_per_slot
		 ON bookings (slot_id) WHERE status = 'confirmed'`,
	).Error; err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return err
	}
	// ADD CONSTRAINT не идемпотентен, поэтому сначала сбрасываем.
	if err := db.Exec(
		`ALTER TABLE slots DROP CONSTRAINT IF EXISTS excl_host_slot_overlap`,
	).Error; err != nil {
		return err
	}
	return db.Exec(
		`ALTER TABLE slots ADD CONSTRAINT excl_host_slot_overlap
		 EXCLUDE USING gist (
			 host_id WITH =,
			 tstzrange(starts_at, ends_at) WITH &&
		 ) WHERE (status <> 'cancelled')`,
	).Error
}
