// README: Delivery endpoints: posting a parcel plus the shared lifecycle surface.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ozra/internal/http/middleware"
	"ozra/internal/modules/assignment"
	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/modules/pricing"
	"ozra/internal/modules/search"
	"ozra/internal/types"
)

type DeliveryHandler struct {
	LifecycleHandler
}

func NewDeliveryHandler(
	svc *lifecycle.Service,
	assign *assignment.Service,
	searchSvc *search.Service,
	pricingSvc *pricing.Service,
	history HistoryStore,
	defaultRadiusKm float64,
) *DeliveryHandler {
	return &DeliveryHandler{LifecycleHandler{
		family:          entity.FamilyDelivery,
		lifecycle:       svc,
		assign:          assign,
		search:          searchSvc,
		pricing:         pricingSvc,
		history:         history,
		defaultRadiusKm: defaultRadiusKm,
	}}
}

type createDeliveryReq struct {
	Pickup          locationReq `json:"pickup"`
	Destination     locationReq `json:"destination"`
	PriceAmount     int64       `json:"price_amount"`
	Currency        string      `json:"currency"`
	ParcelSize      string      `json:"parcel_size"` // small | medium | large
	WeightKg        float64     `json:"weight_kg"`
	Fragile         bool        `json:"fragile"`
	Description     string      `json:"description"`
	InsuranceAmount int64       `json:"insurance_amount"`
	OwnerRating     float64     `json:"owner_rating"`
}

// Create posts a parcel delivery request. The authenticated caller is the
// sender.
func (h *DeliveryHandler) Create(c *gin.Context) {
	var req createDeliveryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := lifecycle.CreateDeliveryCommand{
		SenderID:    types.ID(middleware.CallerUID(c)),
		Pickup:      req.Pickup.toLocation(),
		Destination: req.Destination.toLocation(),
		Price:       types.Money{Amount: req.PriceAmount, Currency: req.Currency},
		ParcelSize:  req.ParcelSize,
		WeightKg:    req.WeightKg,
		Fragile:     req.Fragile,
		Description: req.Description,
		OwnerRating: req.OwnerRating,
	}
	if req.InsuranceAmount > 0 {
		cmd.Insurance = &types.Money{Amount: req.InsuranceAmount, Currency: req.Currency}
	}
	e, err := h.lifecycle.CreateDelivery(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, entityView(e))
}
