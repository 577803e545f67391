package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/config"
	"github.com/jetci/wecare-app-sub000/internal/database"
	"github.com/jetci/wecare-app-sub000/internal/handler"
	"github.com/jetci/wecare-app-sub000/internal/queue"
	"github.com/jetci/wecare-app-sub000/internal/repository"
	"github.com/jetci/wecare-app-sub000/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	tokens := repository.NewRefreshTokenRepo(db)
	patients := repository.NewPatientRepo(db)
	rides := repository.NewRideRepo(db)
	notifications := repository.NewNotificationRepo(db)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	// Background consumer turning ride events into notification rows.
	go queue.StartRideEventConsumer(notifications)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, tokens),
		Patients:      handler.NewPatientHandler(patients),
		Rides:         handler.NewRideHandler(rides, patients),
		Notifications: handler.NewNotificationHandler(notifications),
		Admin:         handler.NewAdminHandler(users, tokens),
		Reports:       handler.NewReportHandler(rides),
	}, rdb)

	// Hourly sweep of expired refresh-token rows.
	go func() {
		for range time.Tick(time.Hour) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if n, err := tokens.DeleteExpired(ctx); err != nil {
				log.Printf("token sweep: %v", err)
			} else if n > 0 {
				log.Printf("token sweep: removed %d expired rows", n)
			}
			cancel()
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
