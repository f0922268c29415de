// Package schema owns table creation. It sits apart from database so that the
// domain packages can depend on database for transactions.
package schema

import (
	"tablewise/internal/availability"
	"tablewise/internal/bookings"
	"tablewise/internal/cancellation"
	"tablewise/internal/restaurants"
	"tablewise/internal/reviews"
	"tablewise/internal/users"

	"gorm.io/gorm"
)

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&users.User{},
		&restaurants.Restaurant{},
		&bookings.Booking{},
		&cancellation.Cancellation{},
		&reviews.Review{},
		&availability.LedgerEntry{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
