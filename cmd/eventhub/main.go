package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"eventhub/internal/auth"
	"eventhub/internal/config"
	"eventhub/internal/database/migrations"
	eventdb "eventhub/internal/events/db"
	"eventhub/internal/events/event_api"
	events "eventhub/internal/events/service"
	"eventhub/internal/kafka"
	"eventhub/internal/logger"
	"eventhub/internal/sse"
	ticketdb "eventhub/internal/tickets/db"
	"eventhub/internal/tickets/lock"
	"eventhub/internal/tickets/qr"
	tickets "eventhub/internal/tickets/service"
	"eventhub/internal/tickets/ticket_api"
	userdb "eventhub/internal/users/db"
	users "eventhub/internal/users/service"
	"eventhub/internal/users/user_api"
)

func openDatabase(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open sqlite: %v", err))
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to sqlite: %v", err))
	}
	log.Info("DATABASE", "sqlite connection successful")

	return bun.NewDB(sqldb, sqlitedialect.New())
}

func buildLocker(cfg config.Config, log *logger.Logger) lock.EventLocker {
	if !cfg.Redis.Enabled {
		log.Info("LOCK", "Redis disabled, using in-process event locks")
		return lock.NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("LOCK", fmt.Sprintf("Failed to connect to redis at %s: %v", cfg.Redis.Addr, err))
	}
	log.Info("LOCK", "Redis connection successful")
	return lock.NewRedisLocker(client, cfg.Booking.LockTTL)
}

func buildProducer(cfg config.KafkaConfig, log *logger.Logger) *kafka.Producer {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, running in mock mode")
		return kafka.NewProducer(config.KafkaConfig{Topics: cfg.Topics, MockMode: true})
	}

	topics := []string{cfg.Topics.TicketBooked, cfg.Topics.TicketCancelled, cfg.Topics.TicketUsed}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Failed to ensure topics: %v", err))
	}
	return kafka.NewProducer(cfg)
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()

	bunDB := openDatabase(cfg.Database, log)
	defer bunDB.Close()

	if err := migrations.Run(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}

	locker := buildLocker(*cfg, log)
	producer := buildProducer(cfg.Kafka, log)
	defer producer.Close()
	emitter := sse.NewAttendeeEventEmitter()
	qrGen := qr.NewQRGenerator(cfg.Auth.QRSecretKey)

	eventStore := &eventdb.DB{Bun: bunDB}
	ticketStore := &ticketdb.DB{Bun: bunDB}
	userStore := &userdb.DB{Bun: bunDB}

	eventService := events.NewEventService(eventStore, log)
	userService := users.NewUserService(userStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	ticketService := tickets.NewTicketService(ticketStore, eventStore, userStore,
		locker, emitter, producer, qrGen, log)
	ticketService.LockAttempts = cfg.Booking.LockAttempts

	eventHandler := event_api.NewHandler(eventService, cfg.Upload, log)
	sseHandler := event_api.NewSSEHandler(eventService, emitter, log)
	ticketHandler := ticket_api.NewHandler(ticketService)
	userHandler := user_api.NewHandler(userService, eventService, cfg.Auth.CookieName, cfg.Auth.TokenTTL)

	requireAuth := auth.Middleware(cfg.Auth.JWTSecret, cfg.Auth.CookieName)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/logout", userHandler.Logout)
			r.With(requireAuth).Get("/profile", userHandler.Profile)
			r.With(requireAuth).Get("/events", userHandler.MyEvents)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.With(requireAuth).Post("/", eventHandler.CreateEvent)
			r.Get("/{eventID}", eventHandler.GetEvent)
			r.With(requireAuth).Put("/{eventID}", eventHandler.UpdateEvent)
			r.With(requireAuth).Delete("/{eventID}", eventHandler.DeleteEvent)
			r.Get("/{eventID}/attendees", eventHandler.GetAttendees)
			r.Get("/{eventID}/live", sseHandler.HandleEventUpdates)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", ticketHandler.BookTicket)
			r.Get("/", ticketHandler.ListMyTickets)
			r.Post("/{ticketID}/cancel", ticketHandler.CancelTicket)
			r.Post("/checkin", ticketHandler.CheckIn)
		})
	})

	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		log.Fatal("UPLOAD", fmt.Sprintf("Failed to create upload dir: %v", err))
	}
	uploadServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Upload.Dir)))
	r.Get("/uploads/*", uploadServer.ServeHTTP)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("eventhub listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "eventhub shutdown complete")
}
