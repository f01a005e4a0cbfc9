package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/slot-swapper/internal/config"
	"github.com/iliyamo/slot-swapper/internal/database"
	"github.com/iliyamo/slot-swapper/internal/handler"
	"github.com/iliyamo/slot-swapper/internal/middleware"
	"github.com/iliyamo/slot-swapper/internal/queue"
	"github.com/iliyamo/slot-swapper/internal/repository"
	"github.com/iliyamo/slot-swapper/internal/router"
	"github.com/iliyamo/slot-swapper/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if cfg.AutoMigrate {
		if err := database.RunMigrations(dsn); err != nil {
			log.Fatalf("migrations: %v", err)
		}
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is absent; middleware fails open

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	swaps := repository.NewSwapRequestRepo(db)

	var notifier service.Notifier
	if cfg.AMQPUrl != "" {
		notifier = service.NewAMQPNotifier(cfg.AMQPUrl)
		go func() {
			if err := queue.StartNotificationConsumer(cfg.AMQPUrl); err != nil {
				log.Printf("notification consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set, swap notifications disabled")
	}

	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Cfg:     &cfg,
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Events:  handler.NewEventHandler(events),
		Swaps:   handler.NewSwapHandler(users, events, swaps, notifier),
		Metrics: metrics,
		RDB:     rdb,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
