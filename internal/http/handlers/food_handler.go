// README: Food order endpoints: ordering, courier tracking, shared lifecycle.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ozra/internal/http/middleware"
	"ozra/internal/modules/assignment"
	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/modules/location"
	"ozra/internal/modules/pricing"
	"ozra/internal/modules/search"
	"ozra/internal/types"
)

type FoodHandler struct {
	LifecycleHandler
	location *location.Service
}

func NewFoodHandler(
	svc *lifecycle.Service,
	assign *assignment.Service,
	searchSvc *search.Service,
	pricingSvc *pricing.Service,
	locationSvc *location.Service,
	history HistoryStore,
	defaultRadiusKm float64,
) *FoodHandler {
	return &FoodHandler{
		LifecycleHandler: LifecycleHandler{
			family:          entity.FamilyFood,
			lifecycle:       svc,
			assign:          assign,
			search:          searchSvc,
			pricing:         pricingSvc,
			history:         history,
			defaultRadiusKm: defaultRadiusKm,
		},
		location: locationSvc,
	}
}

type orderItemReq struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type createFoodOrderReq struct {
	RestaurantID    string         `json:"restaurant_id"`
	Restaurant      locationReq    `json:"restaurant_location"`
	DeliveryAddress locationReq    `json:"delivery_address"`
	Items           []orderItemReq `json:"items"`
	Amount          int64          `json:"amount"`
	Currency        string         `json:"currency"`
	DeliveryFee     int64          `json:"delivery_fee"`
	RewardPoints    int64          `json:"reward_points"`
	PaymentMethod   string         `json:"payment_method"`
	Instructions    string         `json:"instructions"`
	OwnerRating     float64        `json:"owner_rating"`
}

// Create places a food order. The authenticated caller is the customer.
func (h *FoodHandler) Create(c *gin.Context) {
	var req createFoodOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	items := make([]entity.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, entity.OrderItem{
			ItemID:    types.ID(it.ItemID),
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	e, err := h.lifecycle.CreateFoodOrder(c.Request.Context(), lifecycle.CreateFoodOrderCommand{
		CustomerID:      types.ID(middleware.CallerUID(c)),
		RestaurantID:    types.ID(req.RestaurantID),
		Pickup:          req.Restaurant.toLocation(),
		DeliveryAddress: req.DeliveryAddress.toLocation(),
		Items:           items,
		Amount:          types.Money{Amount: req.Amount, Currency: req.Currency},
		DeliveryFee:     req.DeliveryFee,
		RewardPoints:    req.RewardPoints,
		PaymentMethod:   req.PaymentMethod,
		Instructions:    req.Instructions,
		OwnerRating:     req.OwnerRating,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, entityView(e))
}

type courierLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CourierLocation records the assigned courier's position while the order is
// out for delivery.
func (h *FoodHandler) CourierLocation(c *gin.Context) {
	var req courierLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.location.UpdateCourierLocation(c.Request.Context(), location.UpdateCommand{
		EntityID: types.ID(c.Param("id")),
		ActorID:  types.ID(middleware.CallerUID(c)),
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
