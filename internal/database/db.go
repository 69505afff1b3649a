package database

import (
	"log"

	"propertyflow-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs the schema auto-migration for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Project{},
		&model.Unit{},
		&model.Tenant{},
		&model.MeterReading{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Payment{},
		&model.PaymentSlip{},
		&model.Receipt{},
		&model.LeaseContract{},
		&model.LineContact{},
		&model.LineMessage{},
	)
}
