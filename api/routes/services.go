package routes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tablewise/internal/analytics"
	"tablewise/internal/auth"
	"tablewise/internal/availability"
	"tablewise/internal/bookings"
	"tablewise/internal/cancellation"
	"tablewise/internal/notifications"
	"tablewise/internal/restaurants"
	"tablewise/internal/reviews"
	"tablewise/internal/shared/config"
	"tablewise/internal/shared/database"
	"tablewise/pkg/cache"
	"tablewise/pkg/logger"
)

// Services is the wired application graph shared by the HTTP server and the CLI.
type Services struct {
	Auth         auth.Service
	Restaurants  restaurants.Service
	Availability availability.Service
	Bookings     bookings.Service
	Cancellation cancellation.Service
	Reviews      reviews.Service
	Analytics    analytics.Service

	Ledger     availability.Ledger
	Dispatcher *notifications.Dispatcher
	Jobs       *bookings.JobProcessor

	kafka *notifications.KafkaNotifier
}

// NewServices builds every service from the configured backends.
func NewServices(cfg *config.Config, db *database.DB) (*Services, error) {
	log := logger.GetDefault()
	pg := db.GetPostgreSQL()

	var cacheService cache.Service = cache.Noop{}
	if db.GetRedisClient() != nil {
		cacheService = cache.NewService(db.GetRedisClient())
	}

	authRepo := auth.NewRepository(pg)
	userDirectory := auth.NewUserServiceAdapter(authRepo)

	restaurantService := restaurants.NewService(restaurants.NewRepository(pg), cacheService)

	bookingRepo := bookings.NewRepository(pg)
	ledger, err := newLedger(cfg, db, bookingRepo)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Auth:        auth.NewService(authRepo, cfg),
		Restaurants: restaurantService,
		Ledger:      ledger,
	}

	var notifier notifications.Notifier = notifications.NewLogNotifier()
	if cfg.Kafka.Enabled {
		kafkaConfig := notifications.DefaultKafkaProducerConfig()
		kafkaConfig.Brokers = cfg.Kafka.Brokers
		kafkaConfig.Topic = cfg.Kafka.Topic
		kafkaConfig.ClientID = cfg.Kafka.ClientID

		kafkaNotifier, err := notifications.NewKafkaNotifier(kafkaConfig)
		if err != nil {
			log.Error("Kafka unavailable, notifications will only be logged", slog.Any("error", err))
		} else {
			s.kafka = kafkaNotifier
			notifier = kafkaNotifier
			log.Info("Kafka notifier initialized", slog.String("topic", kafkaConfig.Topic))
		}
	}
	s.Dispatcher = notifications.NewDispatcher(notifier, userDirectory, 0)

	policy := bookings.PolicyFromConfig(cfg)
	s.Availability = availability.NewService(restaurantService, ledger, policy.Rules(), policy.Now)
	s.Bookings = bookings.NewService(bookingRepo, restaurantService, s.Availability, ledger, policy, s.Dispatcher)
	s.Cancellation = cancellation.NewService(cancellation.NewRepository(pg), s.Bookings, restaurantService, policy, s.Dispatcher)
	s.Reviews = reviews.NewService(reviews.NewRepository(pg), restaurantService, s.Bookings, userDirectory, cfg.Booking.ReviewsRequireVisit)
	s.Analytics = analytics.NewService(analytics.NewRepository(pg), restaurantService, cacheService, nil)
	s.Jobs = bookings.NewJobProcessor(s.Bookings, bookings.JobConfigFromConfig(cfg))

	return s, nil
}

// newLedger selects the capacity ledger backend. Every backend recounts from the bookings table.
func newLedger(cfg *config.Config, db *database.DB, recounter availability.Recounter) (availability.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "memory":
		return availability.NewMemoryLedger(recounter, cfg.Ledger.LockWait), nil
	case "redis":
		if db.GetRedisClient() == nil {
			return nil, fmt.Errorf("redis ledger requires a redis connection")
		}
		ledger := availability.NewRedisLedger(db.GetRedisClient(), recounter, cfg.Ledger.LockTTL, cfg.Ledger.LockWait)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ledger.PreloadScripts(ctx); err != nil {
			// Scripts are loaded again on first use
			logger.GetDefault().Error("Failed to preload ledger scripts", slog.Any("error", err))
		}
		return ledger, nil
	case "postgres", "":
		return availability.NewPostgresLedger(db.GetPostgreSQL(), recounter, cfg.Ledger.LockWait), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

// Shutdown stops background work and flushes pending notifications.
func (s *Services) Shutdown(ctx context.Context) {
	log := logger.GetDefault()
	if s.Jobs != nil {
		s.Jobs.Stop()
	}
	if s.Dispatcher != nil {
		if err := s.Dispatcher.Wait(ctx); err != nil {
			log.Error("Pending notifications dropped", slog.Any("error", err))
		}
	}
	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			log.Error("Error closing Kafka notifier", slog.Any("error", err))
		}
	}
}
