package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"legal-intake-be/internal/bootstrap"
	"legal-intake-be/internal/config"
	"legal-intake-be/internal/server"
	"legal-intake-be/internal/tracer"
	"legal-intake-be/pkg/database"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Configuration
	cfg := config.Load()

	// 2. Database (optional)
	var db *gorm.DB
	if cfg.Database.Connection != "" {
		var err error
		db, err = database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
	}

	// 3. Dependencies
	container, err := bootstrap.NewContainer(ctx, db, cfg)
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}
	defer container.Close()

	srv := server.New(cfg, container)
	g, gctx := errgroup.WithContext(ctx)

	// 4. Background services
	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := container.ConsumerService.Consume(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return container.ConsumerService.Wait()
	})
	if container.EventSubscriber != nil {
		g.Go(func() error {
			return container.HandoffService.Listen(gctx, container.EventSubscriber)
		})
	}

	// 5. HTTP
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		container.TurnService.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
