package persistence

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"planpilot-service/internal/interface/repository"
)

// NewPostgresDB opens a GORM connection against Postgres
func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the planner tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&repository.PlanRequests{},
		&repository.DestinationCandidates{},
		&repository.FlightOptions{},
		&repository.HotelOptions{},
		&repository.PackageOptions{},
		&repository.FxRates{},
		&repository.Airports{},
	)
}
