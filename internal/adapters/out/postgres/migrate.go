package postgres

import (
	"fooddelivery/internal/adapters/out/postgres/orderrepo"
	"fooddelivery/internal/adapters/out/postgres/runrepo"
	"fooddelivery/internal/adapters/out/postgres/settingsrepo"
	"fooddelivery/internal/adapters/out/postgres/shipperrepo"

	"gorm.io/gorm"
)

// Models lists every table owned by the service.
func Models() []any {
	return []any{
		&orderrepo.OrderDTO{},
		&orderrepo.HistoryDTO{},
		&shipperrepo.ShipperDTO{},
		&runrepo.RunDTO{},
		&settingsrepo.SettingsDTO{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
