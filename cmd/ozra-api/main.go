// README: Entry point; loads config, wires services, runs the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ozra/internal/config"
	"ozra/internal/geocode"
	httptransport "ozra/internal/http"
	"ozra/internal/infra"
	"ozra/internal/logging"
	"ozra/internal/modules/assignment"
	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/modules/location"
	"ozra/internal/modules/notify"
	"ozra/internal/modules/pricing"
	"ozra/internal/modules/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)
	defer redisClient.Close()

	var resolver geocode.Resolver
	if cfg.Maps.APIKey != "" {
		g, err := geocode.NewGoogleResolver(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		resolver = g
	} else {
		logger.Warn("geocoding disabled, requests must carry coordinates")
	}

	eventStore := notify.NewPGEventStore(dbPool)
	hub := notify.NewHub(eventStore, redisClient, logger)

	entityStore := entity.NewPGStore(dbPool)
	geoIndex := search.NewGeoIndex(redisClient)

	lifecycleSvc := lifecycle.NewService(entityStore, hub, resolver, geoIndex)
	assignmentSvc := assignment.NewService(entityStore, hub)
	searchSvc := search.NewService(entityStore, geoIndex)
	pricingSvc := pricing.NewService(pricing.NewStore(dbPool))
	locationSvc := location.NewService(entityStore, location.NewStore(dbPool, redisClient))

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Lifecycle:       lifecycleSvc,
		Assignment:      assignmentSvc,
		Search:          searchSvc,
		Pricing:         pricingSvc,
		Location:        locationSvc,
		Hub:             hub,
		History:         eventStore,
		JWTSecret:       []byte(cfg.Auth.JWTSecret),
		DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
		Log:             logger,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
