package database

import (
	"fmt"

	"puja-booking/config"
	"puja-booking/logger"
	"puja-booking/models/address"
	"puja-booking/models/booking"
	"puja-booking/models/log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB connects to PostgreSQL, migrates the schema and creates the extra
// indexes and constraints AutoMigrate does not manage.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := Migrate(DB); err != nil {
		logger.Error("Failed to migrate the database", err)
		return nil, err
	}
	return DB, nil
}

// Migrate brings the schema up to date. It is safe to run repeatedly.
func Migrate(db *gorm.DB) error {
	if err := autoMigrate(db); err != nil {
		return err
	}
	logger.Success("All migrations completed successfully")

	if err := createForeignKeyConstraints(db); err != nil {
		return err
	}
	logger.Success("All foreign key constraints created successfully")

	if err := createIndexes(db); err != nil {
		return err
	}
	logger.Success("All indexes created successfully")
	return nil
}

// autoMigrate runs auto migration for all models in dependency order
func autoMigrate(db *gorm.DB) error {
	stages := [][]interface{}{
		// Stage 1: Core foundation models
		{&address.Address{}},
		// Stage 2: Bookings reference their venue
		{&booking.Booking{}},
		// Stage 3: History hanging off a booking
		{&booking.StatusTransition{}, &booking.CancellationRequest{}, &booking.BookingEvent{}},
		// Stage 4: Logging
		{&log.Log{}},
	}

	for _, stage := range stages {
		for _, model := range stage {
			if err := db.AutoMigrate(model); err != nil {
				return fmt.Errorf("failed to migrate %T: %w", model, err)
			}
		}
	}
	return nil
}

var indexes = []struct {
	name string
	sql  string
}{
	{"idx_bookings_status_updated_at", "CREATE INDEX IF NOT EXISTS idx_bookings_status_updated_at ON bookings(status, updated_at)"},
	{"idx_bookings_officiant_status", "CREATE INDEX IF NOT EXISTS idx_bookings_officiant_status ON bookings(officiant_id, status)"},
	{"idx_bookings_created_at", "CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)"},
	{"idx_transitions_to_status_created_at", "CREATE INDEX IF NOT EXISTS idx_transitions_to_status_created_at ON booking_status_transitions(to_status, created_at)"},
	{"idx_cancellation_requests_pending", "CREATE INDEX IF NOT EXISTS idx_cancellation_requests_pending ON booking_cancellation_requests(booking_id) WHERE outcome = 'PENDING'"},
	{"idx_booking_events_created_at", "CREATE INDEX IF NOT EXISTS idx_booking_events_created_at ON booking_events(created_at)"},
	{"idx_logs_method", "CREATE INDEX IF NOT EXISTS idx_logs_method ON logs(method)"},
	{"idx_logs_status_code", "CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)"},
	{"idx_logs_created_at", "CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)"},
}

// createIndexes creates additional indexes for better performance
func createIndexes(db *gorm.DB) error {
	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", idx.name, err)
		}
	}
	return nil
}

var constraints = []struct {
	name string
	sql  string
}{
	{
		name: "fk_bookings_venue_address",
		sql: `ALTER TABLE bookings ADD CONSTRAINT fk_bookings_venue_address
			  FOREIGN KEY (venue_address_id) REFERENCES addresses(id)
			  ON UPDATE CASCADE ON DELETE RESTRICT`,
	},
	{
		name: "fk_booking_status_transitions_booking",
		sql: `ALTER TABLE booking_status_transitions ADD CONSTRAINT fk_booking_status_transitions_booking
			  FOREIGN KEY (booking_id) REFERENCES bookings(id)
			  ON UPDATE CASCADE ON DELETE RESTRICT`,
	},
	{
		name: "fk_booking_cancellation_requests_booking",
		sql: `ALTER TABLE booking_cancellation_requests ADD CONSTRAINT fk_booking_cancellation_requests_booking
			  FOREIGN KEY (booking_id) REFERENCES bookings(id)
			  ON UPDATE CASCADE ON DELETE RESTRICT`,
	},
	{
		name: "fk_booking_events_booking",
		sql: `ALTER TABLE booking_events ADD CONSTRAINT fk_booking_events_booking
			  FOREIGN KEY (booking_id) REFERENCES bookings(id)
			  ON UPDATE CASCADE ON DELETE RESTRICT`,
	},
}

// createForeignKeyConstraints creates foreign key constraints after auto migration
func createForeignKeyConstraints(db *gorm.DB) error {
	for _, constraint := range constraints {
		// Check if constraint already exists
		var exists bool
		checkSQL := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE constraint_name = $1
			)
		`

		err := db.Raw(checkSQL, constraint.name).Scan(&exists).Error
		if err != nil {
			logger.Warning(fmt.Sprintf("Failed to check constraint existence: %s - Error: %v", constraint.name, err))
			continue
		}

		if !exists {
			if err := db.Exec(constraint.sql).Error; err != nil {
				logger.Warning(fmt.Sprintf("Failed to create constraint: %s - Error: %v", constraint.name, err))
			} else {
				logger.Success(fmt.Sprintf("Successfully created constraint: %s", constraint.name))
			}
		} else {
			logger.Debug(fmt.Sprintf("Constraint already exists: %s", constraint.name))
		}
	}

	return nil
}
