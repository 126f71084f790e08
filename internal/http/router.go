// README: HTTP route registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ozra/internal/http/handlers"
	"ozra/internal/http/middleware"
	"ozra/internal/modules/assignment"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/modules/location"
	"ozra/internal/modules/notify"
	"ozra/internal/modules/pricing"
	"ozra/internal/modules/search"
)

type RouterDeps struct {
	Lifecycle  *lifecycle.Service
	Assignment *assignment.Service
	Search     *search.Service
	Pricing    *pricing.Service
	Location   *location.Service
	Hub        *notify.Hub
	History    handlers.HistoryStore

	JWTSecret       []byte
	DefaultRadiusKm float64
	Log             *slog.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.Logging(d.Log), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Auth(d.JWTSecret))

	rides := handlers.NewRideHandler(d.Lifecycle, d.Assignment, d.Search, d.Pricing, d.History, d.DefaultRadiusKm)
	rg := api.Group("/rides")
	rg.POST("", rides.Create)
	rg.GET("/search", rides.Search)
	rg.GET("/quote", rides.Quote)
	rg.GET("/user/:userId", rides.ListForUser)
	rg.GET("/:id", rides.Get)
	rg.GET("/:id/events", rides.History)
	rg.POST("/:id/book", rides.Assign)
	rg.PUT("/:id/status", rides.Transition)
	rg.POST("/:id/cancel", rides.Cancel)
	rg.PUT("/:id/payment", rides.Payment)

	deliveries := handlers.NewDeliveryHandler(d.Lifecycle, d.Assignment, d.Search, d.Pricing, d.History, d.DefaultRadiusKm)
	dg := api.Group("/deliveries")
	dg.POST("", deliveries.Create)
	dg.GET("/search", deliveries.Search)
	dg.GET("/quote", deliveries.Quote)
	dg.GET("/user/:userId", deliveries.ListForUser)
	dg.GET("/:id", deliveries.Get)
	dg.GET("/:id/events", deliveries.History)
	dg.POST("/:id/accept", deliveries.Assign)
	dg.PUT("/:id/status", deliveries.Transition)
	dg.POST("/:id/cancel", deliveries.Cancel)
	dg.PUT("/:id/payment", deliveries.Payment)

	food := handlers.NewFoodHandler(d.Lifecycle, d.Assignment, d.Search, d.Pricing, d.Location, d.History, d.DefaultRadiusKm)
	fg := api.Group("/restaurants/orders")
	fg.POST("", food.Create)
	fg.GET("/search", food.Search)
	fg.GET("/quote", food.Quote)
	fg.GET("/user/:userId", food.ListForUser)
	fg.GET("/:id", food.Get)
	fg.GET("/:id/events", food.History)
	fg.POST("/:id/accept", food.Assign)
	fg.PUT("/:id/status", food.Transition)
	fg.POST("/:id/cancel", food.Cancel)
	fg.PUT("/:id/payment", food.Payment)
	fg.PUT("/:id/courier_location", food.CourierLocation)

	couriers := handlers.NewCourierHandler(d.Location)
	api.PUT("/couriers/:id/presence", couriers.SetPresence)
	api.DELETE("/couriers/:id/presence", couriers.ClearPresence)

	notifyHandler := handlers.NewNotifyHandler(d.Hub, d.Log)
	api.GET("/notifications/ws", notifyHandler.Stream)

	return r
}
