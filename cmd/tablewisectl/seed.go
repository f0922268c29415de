package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"tablewise/internal/restaurants"
	"tablewise/internal/shared/constants"
	"tablewise/internal/shared/database/schema"
	"tablewise/internal/users"
	"tablewise/pkg/cache"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Truncated in reverse dependency order.
var seedTables = []string{
	"slot_ledger",
	"reviews",
	"cancellations",
	"bookings",
	"restaurants",
	"users",
}

func newSeedCmd() *cobra.Command {
	var (
		clean    bool
		password string
	)

	c := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and restaurants",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			pg := db.GetPostgreSQL()
			out := cmd.OutOrStdout()
			if err := schema.Migrate(pg); err != nil {
				return err
			}

			if clean {
				if err := cleanDatabase(pg, out); err != nil {
					return err
				}
			}

			s := &seeder{db: pg, out: out}
			if err := s.seedAll(password); err != nil {
				return err
			}

			if client := db.GetRedisClient(); client != nil {
				if err := cache.NewService(client).DeletePattern(context.Background(), constants.CACHE_PREFIX+":*"); err != nil {
					fmt.Fprintf(out, "warning: failed to clear cache: %v\n", err)
				}
			}

			fmt.Fprintln(out, "seeding completed")
			return nil
		},
	}

	c.Flags().BoolVar(&clean, "clean", false, "truncate all tables first")
	c.Flags().StringVar(&password, "password", "qwerty", "password for every seeded account")
	return c
}

func cleanDatabase(db *gorm.DB, out io.Writer) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seedTables {
			fmt.Fprintf(out, "  truncating %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

type seeder struct {
	db  *gorm.DB
	out io.Writer
}

func (s *seeder) seedAll(password string) error {
	userIDs, err := s.seedUsers(password)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if err := s.seedRestaurants(userIDs["manager"]); err != nil {
		return fmt.Errorf("failed to seed restaurants: %w", err)
	}
	return nil
}

func (s *seeder) seedUsers(password string) (map[string]uuid.UUID, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"admin", "Admin", "User", "admin@tablewise.dev", users.RoleAdmin},
		{"manager", "Marie", "Laurent", "manager@tablewise.dev", users.RoleManager},
		{"guest1", "Jordan", "Lee", "jordan@tablewise.dev", users.RoleCustomer},
		{"guest2", "Sam", "Rivera", "sam@tablewise.dev", users.RoleCustomer},
	}

	userIDs := make(map[string]uuid.UUID)
	for _, data := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: data.firstName,
			LastName:  data.lastName,
			Email:     data.email,
			Password:  string(hashedPassword),
			Role:      data.role,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", data.email, err)
		}
		userIDs[data.key] = user.ID
		fmt.Fprintf(s.out, "  created user %s (%s)\n", user.Email, user.Role)
	}
	return userIDs, nil
}

func everyDay(open, closing string, closedOn ...string) restaurants.WeeklyHours {
	hours := restaurants.WeeklyHours{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		hours[day] = restaurants.DayHours{Open: open, Close: closing}
	}
	for _, day := range closedOn {
		delete(hours, strings.ToLower(day))
	}
	return hours
}

func (s *seeder) seedRestaurants(managerID uuid.UUID) error {
	data := []restaurants.Restaurant{
		{
			Name:        "Le Petit Bistro",
			Description: "Classic French bistro fare with a seasonal menu.",
			Cuisine:     "French",
			PriceRange:  3,
			Address:     restaurants.Address{Street: "12 Rue Cler", City: "Paris", Country: "France", ZipCode: "75007"},
			Hours:       everyDay("12:00", "22:00", "monday"),
			Capacity:    40,
			SlotMinutes: 30,
			Timezone:    "Europe/Paris",
		},
		{
			Name:        "Sakura Sushi Bar",
			Description: "Omakase counter and à la carte sushi.",
			Cuisine:     "Japanese",
			PriceRange:  4,
			Address:     restaurants.Address{Street: "5 Harbor St", City: "San Francisco", State: "CA", Country: "USA", ZipCode: "94105"},
			Hours:       everyDay("17:00", "23:00"),
			Capacity:    24,
			SlotMinutes: 30,
			Timezone:    "America/Los_Angeles",
		},
		{
			Name:        "Night Owl Diner",
			Description: "Comfort food served late.",
			Cuisine:     "American",
			PriceRange:  1,
			Address:     restaurants.Address{Street: "88 Main St", City: "New York", State: "NY", Country: "USA", ZipCode: "10001"},
			Hours:       everyDay("18:00", "02:00"),
			Capacity:    60,
			SlotMinutes: 60,
			Timezone:    "America/New_York",
		},
	}

	for i := range data {
		r := data[i]
		r.ID = uuid.New()
		r.ManagerID = managerID
		r.IsApproved = true
		r.CreatedAt = time.Now()
		r.UpdatedAt = r.CreatedAt
		if err := s.db.Create(&r).Error; err != nil {
			return fmt.Errorf("failed to create restaurant %s: %w", r.Name, err)
		}
		fmt.Fprintf(s.out, "  created restaurant %s (%s, %d seats)\n", r.Name, r.Address.City, r.Capacity)
	}
	return nil
}
