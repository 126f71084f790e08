// README: Family-generic lifecycle endpoints: read, transition, cancel,
// payment, assignment, search and quotes.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ozra/internal/http/middleware"
	"ozra/internal/modules/assignment"
	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/modules/pricing"
	"ozra/internal/modules/search"
	"ozra/internal/types"
)

// HistoryStore serves the per-entity event trail.
type HistoryStore interface {
	History(ctx context.Context, entityID string) ([]entity.Event, error)
}

// LifecycleHandler covers the operations all three families share. Family
// handlers embed it and add their creation endpoint.
type LifecycleHandler struct {
	family          entity.Family
	lifecycle       *lifecycle.Service
	assign          *assignment.Service
	search          *search.Service
	pricing         *pricing.Service
	history         HistoryStore
	defaultRadiusKm float64
}

func (h *LifecycleHandler) Get(c *gin.Context) {
	e, err := h.fetch(c)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, entityView(e))
}

type transitionReq struct {
	Status string `json:"status"`
}

func (h *LifecycleHandler) Transition(c *gin.Context) {
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	e, err := h.lifecycle.Transition(c.Request.Context(), lifecycle.TransitionCommand{
		EntityID: types.ID(c.Param("id")),
		ActorID:  types.ID(middleware.CallerUID(c)),
		Target:   entity.Status(req.Status),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, entityView(e))
}

func (h *LifecycleHandler) Cancel(c *gin.Context) {
	e, err := h.lifecycle.Cancel(c.Request.Context(),
		types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, entityView(e))
}

type paymentReq struct {
	Status string `json:"status"`
}

func (h *LifecycleHandler) Payment(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	e, err := h.lifecycle.ReportPayment(c.Request.Context(), lifecycle.PaymentCommand{
		EntityID: types.ID(c.Param("id")),
		ActorID:  types.ID(middleware.CallerUID(c)),
		Status:   entity.PaymentStatus(req.Status),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, entityView(e))
}

type assignReq struct {
	Seats int `json:"seats"`
}

// Assign books seats on a ride or exclusively claims a delivery/food order.
// The body is optional; an empty body books one seat.
func (h *LifecycleHandler) Assign(c *gin.Context) {
	var req assignReq
	_ = c.ShouldBindJSON(&req)
	e, err := h.assign.Assign(c.Request.Context(), assignment.AssignCommand{
		EntityID: types.ID(c.Param("id")),
		ActorID:  types.ID(middleware.CallerUID(c)),
		Seats:    req.Seats,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, entityView(e))
}

// ListForUser returns the caller's entities in this family. Users may only
// list their own; ?side=owner|assignee narrows the relationship.
func (h *LifecycleHandler) ListForUser(c *gin.Context) {
	userID := c.Param("userId")
	if userID != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	list, err := h.lifecycle.ListForUser(c.Request.Context(), h.family, types.ID(userID), c.Query("side"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, e := range list {
		out = append(out, entityView(e))
	}
	writeJSON(c, http.StatusOK, gin.H{"items": out})
}

// Search finds open entities, optionally near a point. Query parameters:
// lat, lng, radius_km, status (comma-separated), min_seats, parcel_size,
// max_weight_kg, min_rating, limit.
func (h *LifecycleHandler) Search(c *gin.Context) {
	q := search.Query{Family: h.family}

	if s := c.Query("status"); s != "" {
		for _, st := range strings.Split(s, ",") {
			q.Statuses = append(q.Statuses, entity.Status(strings.TrimSpace(st)))
		}
	} else {
		q.Statuses = []entity.Status{entity.StatusPending}
	}
	if latS, lngS := c.Query("lat"), c.Query("lng"); latS != "" && lngS != "" {
		lat, err1 := strconv.ParseFloat(latS, 64)
		lng, err2 := strconv.ParseFloat(lngS, 64)
		if err1 != nil || err2 != nil {
			writeError(c, http.StatusBadRequest, "invalid coordinates")
			return
		}
		radius := h.defaultRadiusKm
		if rS := c.Query("radius_km"); rS != "" {
			r, err := strconv.ParseFloat(rS, 64)
			if err != nil {
				writeError(c, http.StatusBadRequest, "invalid radius_km")
				return
			}
			radius = r
		}
		q.Near = &search.Near{Point: types.Point{Lat: lat, Lng: lng}, RadiusKm: radius}
	}
	q.MinSeats = intQuery(c, "min_seats")
	q.ParcelSize = c.Query("parcel_size")
	if wS := c.Query("max_weight_kg"); wS != "" {
		if w, err := strconv.ParseFloat(wS, 64); err == nil {
			q.MaxWeightKg = w
		}
	}
	if rS := c.Query("min_rating"); rS != "" {
		if r, err := strconv.ParseFloat(rS, 64); err == nil {
			q.MinRating = r
		}
	}
	q.Limit = intQuery(c, "limit")

	results, err := h.search.Search(c.Request.Context(), q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(results))
	for _, r := range results {
		v := entityView(r.Entity)
		if q.Near != nil {
			v["distance_km"] = r.DistanceKm
		}
		out = append(out, v)
	}
	writeJSON(c, http.StatusOK, gin.H{"items": out})
}

// Quote estimates the fare for a pickup/destination pair before creation.
func (h *LifecycleHandler) Quote(c *gin.Context) {
	pickup, ok1 := pointQuery(c, "pickup_lat", "pickup_lng")
	dest, ok2 := pointQuery(c, "dest_lat", "dest_lng")
	if !ok1 || !ok2 {
		writeError(c, http.StatusBadRequest, "missing coordinates")
		return
	}
	quote, err := h.pricing.Estimate(c.Request.Context(), h.family, pickup, dest)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"price":       moneyView(quote.Price),
		"distance_km": quote.DistanceKm,
	})
}

// History returns the entity's event trail, oldest first. Only parties to
// the entity may read it.
func (h *LifecycleHandler) History(c *gin.Context) {
	if h.history == nil {
		writeError(c, http.StatusNotFound, "history unavailable")
		return
	}
	e, err := h.fetch(c)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !isParty(e, types.ID(middleware.CallerUID(c))) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	events, err := h.history.History(c.Request.Context(), string(e.ID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(events))
	for _, ev := range events {
		out = append(out, eventView(ev))
	}
	writeJSON(c, http.StatusOK, gin.H{"items": out})
}

func (h *LifecycleHandler) fetch(c *gin.Context) (*entity.Entity, error) {
	e, err := h.lifecycle.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		return nil, err
	}
	if e.Family != h.family {
		return nil, lifecycle.ErrNotFound
	}
	return e, nil
}

func isParty(e *entity.Entity, uid types.ID) bool {
	for _, p := range e.Parties() {
		if p == uid {
			return true
		}
	}
	return false
}

func intQuery(c *gin.Context, key string) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func pointQuery(c *gin.Context, latKey, lngKey string) (types.Point, bool) {
	latS, lngS := c.Query(latKey), c.Query(lngKey)
	if latS == "" || lngS == "" {
		return types.Point{}, false
	}
	lat, err1 := strconv.ParseFloat(latS, 64)
	lng, err2 := strconv.ParseFloat(lngS, 64)
	if err1 != nil || err2 != nil {
		return types.Point{}, false
	}
	return types.Point{Lat: lat, Lng: lng}, true
}
