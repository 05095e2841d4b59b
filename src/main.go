package main

import (
	"context"
	"log"
	"net/http"

	"liburan-server/src/api"
	"liburan-server/src/config"
	"liburan-server/src/db"
	"liburan-server/src/events"
)

func main() {
	cfg := config.Load()

	// Connect to database
	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	db.InitCache()

	// Goal events are optional; the server runs without a broker.
	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			log.Fatalf("AMQP connection failed: %v", err)
		}
		defer publisher.Close()
	}

	// Router
	router := api.NewRouter(pool, publisher, cfg.AllowedOrigins, cfg.IsDemo)

	log.Println("API server running on port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
