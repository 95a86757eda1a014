package main

import (
	"os"
	"os/signal"
	"syscall"

	"gobet-client/config"
	"gobet-client/database"
	"gobet-client/feed"
	"gobet-client/logger"
	"gobet-client/services"
	"gobet-client/store"
	"gobet-client/web"
)

func main() {
	logger.Println("Starting gobet feed client...")

	cfg := config.Load()

	st := store.New(cfg)

	// Optional raw-frame archive.
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}

		archive := database.NewFrameArchive(db)
		st.SetFrameObserver(func(kind feed.FrameKind, raw string) {
			if err := archive.SaveFrame(kind.String(), raw); err != nil {
				logger.Errorf("Failed to archive frame: %v", err)
			}
		})
		logger.Println("Frame archive enabled")
	}

	// Downstream push hub.
	hub := web.NewHub()
	go hub.Run()

	st.Subscribe(func() {
		hub.Broadcast(&web.Update{
			Type:     "update",
			Football: st.Football(),
			Message:  st.CurrentMessage(),
		})
	})

	// Optional AMQP fan-out bridge.
	if cfg.AMQPURL != "" {
		bridge := services.NewFootballBridge(cfg.AMQPURL, cfg.AMQPExchange)
		if err := bridge.Start(); err != nil {
			logger.Fatalf("Failed to start AMQP bridge: %v", err)
		}
		defer bridge.Close()

		st.Subscribe(func() {
			if err := bridge.PublishGames(st.Football()); err != nil {
				logger.Errorf("Failed to publish live list: %v", err)
			}
		})
		logger.Println("AMQP bridge enabled")
	}

	server := web.NewServer(cfg, st, hub)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatalf("Web server error: %v", err)
		}
	}()
	logger.Printf("Web server started on port %s", cfg.Port)

	st.Start()
	logger.Println("Feed channel starting")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down...")
	st.Close()
	server.Stop()
	logger.Println("Bye")
}
