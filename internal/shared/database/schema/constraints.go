package schema

import (
	"gorm.io/gorm"
)

// constraints are the partial indexes AutoMigrate cannot express.
var constraints = []string{
	// Capacity recounts only ever sum the seats still holding a slot.
	`CREATE INDEX IF NOT EXISTS idx_bookings_active_slot
		ON bookings (restaurant_id, date, time)
		WHERE status IN ('PENDING', 'CONFIRMED', 'COMPLETED')`,

	// Completion sweep scans active bookings by start time.
	`CREATE INDEX IF NOT EXISTS idx_bookings_open_slot_start
		ON bookings (slot_start)
		WHERE status IN ('PENDING', 'CONFIRMED')`,

	`CREATE INDEX IF NOT EXISTS idx_bookings_created_at
		ON bookings (created_at)`,

	`CREATE INDEX IF NOT EXISTS idx_restaurants_approved_city
		ON restaurants (address_city)
		WHERE is_approved`,
}

// MigrateConstraints adds indexes backing the capacity and sweep queries
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
