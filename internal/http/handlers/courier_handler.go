// README: Courier presence endpoints for dispatch proximity lookups.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ozra/internal/http/middleware"
	"ozra/internal/modules/location"
	"ozra/internal/types"
)

type CourierHandler struct {
	location *location.Service
}

func NewCourierHandler(svc *location.Service) *CourierHandler {
	return &CourierHandler{location: svc}
}

type presenceReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SetPresence advertises the caller as an available courier at a position.
// Couriers may only report for themselves.
func (h *CourierHandler) SetPresence(c *gin.Context) {
	id := c.Param("id")
	if id != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	var req presenceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.location.SetPresence(c.Request.Context(), types.ID(id), types.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// ClearPresence removes the caller from the availability set.
func (h *CourierHandler) ClearPresence(c *gin.Context) {
	id := c.Param("id")
	if id != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	if err := h.location.ClearPresence(c.Request.Context(), types.ID(id)); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
