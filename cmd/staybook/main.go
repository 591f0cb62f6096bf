package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"staybook/internal/app/commands"
	availabilityapp "staybook/internal/app/handlers/availability"
	bookingapp "staybook/internal/app/handlers/booking"
	listingapp "staybook/internal/app/handlers/listings"
	meapp "staybook/internal/app/handlers/me"
	reviewsapp "staybook/internal/app/handlers/reviews"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	"staybook/internal/app/schedule"
	authsvc "staybook/internal/app/services/auth"
	"staybook/internal/app/uow"
	domainauth "staybook/internal/domain/auth"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/money"
	domainuser "staybook/internal/domain/user"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	dbmongo "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
	redisstore "staybook/internal/infra/storage/redis"
	"staybook/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	metrics := app.metrics
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	// demo fixtures only make sense against the in-memory stores
	if !cfg.UseMongo() {
		fixturesPath := getenv("LISTINGS_FIXTURES", defaultListingFixturesPath())
		if err := app.loadListingFixtures(ctx, fixturesPath, logger); err != nil {
			logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	sweeper := &schedule.Sweeper{Bus: app.commands, Interval: cfg.SweepInterval, Logger: logger}
	go sweeper.Run(ctx)

	if app.outboxWorker != nil {
		go func() {
			if err := app.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", storageMode(cfg))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	commands     commands.Bus
	metrics      *obs.Metrics
	outboxWorker *infraoutbox.Worker
	ready        func() error

	listingsFactory uow.UoWFactory
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	metrics := obs.NewMetrics()

	var (
		factory   uow.UoWFactory
		idStore   middleware.IdempotencyStore
		box       appoutbox.Outbox
		worker    *infraoutbox.Worker
		ready     func() error
		sessions  domainauth.SessionStore
		usersRepo domainuser.Repository
	)

	if cfg.UseMongo() {
		client, err := dbmongo.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		mongoFactory := dbmongo.NewFactory(client.DB)
		factory = mongoFactory
		usersRepo = mongoFactory.UsersRepo
		idStore = dbmongo.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		store := infraoutbox.NewStore(client.DB)
		box = store
		ready = func() error { return client.Ping(context.Background()) }

		if cfg.UseKafka() {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("kafka connect: %w", err)
			}
			worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
			}
		} else {
			logger.Warn("kafka brokers not configured, outbox events stay queued")
		}
	} else {
		logger.Info("MONGO_URI not set, using in-memory storage")
		demoFactory := memory.NewDemoFactory()
		factory = demoFactory
		usersRepo = demoFactory.UsersRepo
		idStore = memory.NewIdempotencyStore()
		box = memory.NewOutbox()
		ready = func() error { return nil }
	}

	if cfg.RedisURL != "" {
		client, err := redisstore.ParseURL(cfg.RedisURL)
		if err != nil {
			return application{}, fmt.Errorf("redis connect: %w", err)
		}
		sessions = redisstore.NewSessionStore(client)
	} else {
		logger.Info("REDIS_URL not set, sessions kept in memory")
		sessions = memory.NewSessionStore()
	}

	authService := &authsvc.Service{
		Users:      usersRepo,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	var uploader s3.Uploader
	if s3Client, err := s3.NewClient(s3.Config{
		Endpoint:      cfg.S3Endpoint,
		UseSSL:        cfg.S3UseSSL,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicEndpoint,
		Logger:        logger,
	}); err != nil {
		logger.Warn("photo uploads disabled", "error", err)
	} else {
		uploader = s3Client
	}

	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: factory,
		FeeBps:     cfg.ServiceFeeBps,
		Outbox:     box,
		Encoder:    encoder,
		Metrics:    metrics,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateStatusCommand{}.Key(), &bookingapp.UpdateStatusHandler{
		UoWFactory: factory,
		Outbox:     box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CompleteStaysCommand{}.Key(), &bookingapp.CompleteStaysHandler{
		UoWFactory: factory,
		Outbox:     box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, listingapp.CreateHostListingCommand{}.Key(), &listingapp.CreateHostListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.UpdateHostListingCommand{}.Key(), &listingapp.UpdateHostListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.PublishHostListingCommand{}.Key(), &listingapp.PublishHostListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.UnpublishHostListingCommand{}.Key(), &listingapp.UnpublishHostListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.UploadHostListingPhotoCommand{}.Key(), &listingapp.UploadHostListingPhotoHandler{
		Logger:   logger,
		Uploader: uploader,
	})
	commands.RegisterHandler(commandBus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{UoWFactory: factory, Logger: logger})
	commands.RegisterHandler(commandBus, reviewsapp.UpdateReviewCommand{}.Key(), &reviewsapp.UpdateReviewHandler{UoWFactory: factory, Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.GetOverviewQuery{}.Key(), &listingapp.GetOverviewHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.SearchCatalogQuery{}.Key(), &listingapp.SearchCatalogHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.ListHostListingsQuery{}.Key(), &listingapp.ListHostListingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.GetHostListingQuery{}.Key(), &listingapp.GetHostListingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.QuotePriceQuery{}.Key(), &bookingapp.QuotePriceHandler{UoWFactory: factory, FeeBps: cfg.ServiceFeeBps})
	queries.RegisterHandler(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), &bookingapp.ListHostBookingsHandler{UoWFactory: factory, Logger: logger})
	queries.RegisterHandler(queryBus, meapp.ListGuestBookingsQuery{}.Key(), &meapp.ListGuestBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, reviewsapp.ListListingReviewsQuery{}.Key(), &reviewsapp.ListListingReviewsHandler{UoWFactory: factory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authMiddleware := ginserver.AuthMiddleware{Service: authService, Logger: logger}

	handlers := ginserver.Handlers{
		Booking:        ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		HostBooking:    ginserver.HostBookingHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
		Listing:        ginserver.ListingHandler{Queries: queryBusWithMiddleware},
		HostListing:    ginserver.HostListingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Reviews:        ginserver.ReviewsHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Auth:           &ginserver.AuthHandler{Service: authService, Logger: logger},
		Me:             &ginserver.MeHandler{Queries: queryBusWithMiddleware, Logger: logger},
		AuthMiddleware: authMiddleware.Handle,
		MetricsHandler: metrics.Handler(),
	}

	return application{
		handlers:        handlers,
		commands:        commandBusWithMiddleware,
		metrics:         metrics,
		outboxWorker:    worker,
		ready:           ready,
		listingsFactory: factory,
	}, nil
}

func storageMode(cfg config.Config) string {
	if cfg.UseMongo() {
		return "mongo"
	}
	return "memory"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadListingFixtures seeds demo listings so a fresh in-memory instance has
// something to browse. Fixtures are published immediately.
func (a application) loadListingFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return nil
	}

	unit, err := a.listingsFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer unit.Rollback(ctx)

	now := time.Now()
	imported := 0
	for _, fx := range fixtures {
		rate, err := money.New(fx.NightlyRateCents, defaultString(fx.Currency, "USD"))
		if err != nil {
			logger.Error("fixture rate invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		listing, err := listings.New(listings.CreateParams{
			ID:           listings.ListingID(fx.ID),
			Host:         listings.HostID(fx.Host),
			Title:        fx.Title,
			Description:  fx.Description,
			PropertyType: fx.PropertyType,
			Address: listings.Address{
				Line1:   fx.Address.Line1,
				City:    fx.Address.City,
				Region:  fx.Address.Region,
				Country: fx.Address.Country,
				Lat:     fx.Address.Lat,
				Lon:     fx.Address.Lon,
			},
			Amenities:    append([]string(nil), fx.Amenities...),
			GuestsLimit:  fx.GuestsLimit,
			Bedrooms:     fx.Bedrooms,
			Bathrooms:    fx.Bathrooms,
			MinNights:    fx.MinNights,
			MaxNights:    fx.MaxNights,
			NightlyRate:  rate,
			InstantBook:  fx.InstantBook,
			Featured:     fx.Featured,
			Photos:       append([]string(nil), fx.Photos...),
			ThumbnailURL: fx.ThumbnailURL,
			Now:          now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := listing.Publish(now); err != nil {
			logger.Error("fixture publish failed", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	logger.Info("listing fixtures imported", "count", imported)
	return nil
}

type listingFixture struct {
	ID               string         `json:"id"`
	Host             string         `json:"host"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	PropertyType     string         `json:"property_type"`
	Address          fixtureAddress `json:"address"`
	Amenities        []string       `json:"amenities"`
	GuestsLimit      int            `json:"guests_limit"`
	Bedrooms         int            `json:"bedrooms"`
	Bathrooms        int            `json:"bathrooms"`
	MinNights        int            `json:"min_nights"`
	MaxNights        int            `json:"max_nights"`
	NightlyRateCents int64          `json:"nightly_rate_cents"`
	Currency         string         `json:"currency"`
	InstantBook      bool           `json:"instant_book"`
	Featured         bool           `json:"featured"`
	ThumbnailURL     string         `json:"thumbnail_url"`
	Photos           []string       `json:"photos"`
}

type fixtureAddress struct {
	Line1   string  `json:"line1"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func defaultListingFixturesPath() string {
	return filepath.Join("data", "listings.json")
}
