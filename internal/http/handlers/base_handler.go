// README: Shared handler utilities: JSON helpers, error mapping, views.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ozra/internal/geocode"
	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/modules/search"
	"ozra/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Every contention outcome is a 409 so clients retry with fresh state;
// 403 means the edge exists but this caller may not take it.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrBadRequest), errors.Is(err, search.ErrBadQuery):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, lifecycle.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrUnauthorized):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrAlreadyAssigned),
		errors.Is(err, lifecycle.ErrInsufficientCapacity),
		errors.Is(err, lifecycle.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, geocode.ErrResolution):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// locationReq is the wire shape for pickup/destination fields. Either
// coordinates or an address must be present; a missing pair triggers
// geocoding server-side.
type locationReq struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (l locationReq) toLocation() types.Location {
	return types.Location{
		Name:    l.Name,
		Address: l.Address,
		Point:   types.Point{Lat: l.Lat, Lng: l.Lng},
	}
}

func locationView(l types.Location) gin.H {
	return gin.H{
		"name":    l.Name,
		"address": l.Address,
		"lat":     l.Point.Lat,
		"lng":     l.Point.Lng,
	}
}

func moneyView(m types.Money) gin.H {
	return gin.H{"amount": m.Amount, "currency": m.Currency}
}

// entityView renders the lifecycle fields every family shares, plus the
// family payload that is set.
func entityView(e *entity.Entity) gin.H {
	v := gin.H{
		"id":             e.ID,
		"family":         e.Family,
		"owner_id":       e.OwnerID,
		"status":         e.Status,
		"status_version": e.StatusVersion,
		"pickup":         locationView(e.Pickup),
		"destination":    locationView(e.Destination),
		"price":          moneyView(e.Price),
		"payment_status": e.PaymentStatus,
		"owner_rating":   e.OwnerRating,
		"created_at":     e.CreatedAt.Format(time.RFC3339),
		"updated_at":     e.UpdatedAt.Format(time.RFC3339),
	}
	if e.AssigneeID != nil {
		v["assignee_id"] = *e.AssigneeID
	}
	if e.ServiceID != nil {
		v["service_id"] = *e.ServiceID
	}
	if e.Family == entity.FamilyRide {
		v["seats_total"] = e.SeatsTotal
		v["seats_available"] = e.SeatsAvailable
		if e.DepartureTime != nil {
			v["departure_time"] = e.DepartureTime.Format(time.RFC3339)
		}
		bookings := make([]gin.H, 0, len(e.Bookings))
		for _, b := range e.Bookings {
			bookings = append(bookings, gin.H{
				"passenger_id": b.PassengerID,
				"seats":        b.Seats,
				"booked_at":    b.BookedAt.Format(time.RFC3339),
			})
		}
		v["bookings"] = bookings
	}
	if e.Ride != nil {
		v["ride"] = e.Ride
	}
	if e.Parcel != nil {
		v["parcel"] = e.Parcel
	}
	if e.Food != nil {
		v["food"] = e.Food
	}
	return v
}

func eventView(ev entity.Event) gin.H {
	return gin.H{
		"id":          ev.ID,
		"entity_id":   ev.EntityID,
		"family":      ev.Family,
		"kind":        ev.Kind,
		"from_status": ev.FromStatus,
		"to_status":   ev.ToStatus,
		"version":     ev.Version,
		"actor_id":    ev.ActorID,
		"at":          ev.At.Format(time.RFC3339),
	}
}
