// README: Ride endpoints: posting a ride plus the shared lifecycle surface.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ozra/internal/http/middleware"
	"ozra/internal/modules/assignment"
	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/modules/pricing"
	"ozra/internal/modules/search"
	"ozra/internal/types"
)

type RideHandler struct {
	LifecycleHandler
}

func NewRideHandler(
	svc *lifecycle.Service,
	assign *assignment.Service,
	searchSvc *search.Service,
	pricingSvc *pricing.Service,
	history HistoryStore,
	defaultRadiusKm float64,
) *RideHandler {
	return &RideHandler{LifecycleHandler{
		family:          entity.FamilyRide,
		lifecycle:       svc,
		assign:          assign,
		search:          searchSvc,
		pricing:         pricingSvc,
		history:         history,
		defaultRadiusKm: defaultRadiusKm,
	}}
}

type createRideReq struct {
	Pickup        locationReq        `json:"pickup"`
	Destination   locationReq        `json:"destination"`
	PriceAmount   int64              `json:"price_amount"`
	Currency      string             `json:"currency"`
	SeatsTotal    int                `json:"seats_total"`
	DepartureTime string             `json:"departure_time"` // RFC 3339
	Preferences   entity.Preferences `json:"preferences"`
	Description   string             `json:"description"`
	OwnerRating   float64            `json:"owner_rating"`
}

// Create posts a ride offer. The authenticated caller is the driver.
func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	dep, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid departure_time")
		return
	}
	e, err := h.lifecycle.CreateRide(c.Request.Context(), lifecycle.CreateRideCommand{
		DriverID:      types.ID(middleware.CallerUID(c)),
		Pickup:        req.Pickup.toLocation(),
		Destination:   req.Destination.toLocation(),
		Price:         types.Money{Amount: req.PriceAmount, Currency: req.Currency},
		SeatsTotal:    req.SeatsTotal,
		DepartureTime: dep,
		Preferences:   req.Preferences,
		Description:   req.Description,
		OwnerRating:   req.OwnerRating,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, entityView(e))
}
