package main

import (
	"context"
	"log"

	"voicenote-be/internal/bootstrap"
	"voicenote-be/internal/config"
	"voicenote-be/internal/server"
	"voicenote-be/internal/tracer"
	"voicenote-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Transcription Pipeline...")
		if err := container.PipelineService.Start(); err != nil {
			log.Printf("Background Pipeline Error: %v", err)
		}
	}()
	go func() {
		log.Println("Background: Starting Status Consumer...")
		if err := container.StatusConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Status Consumer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
