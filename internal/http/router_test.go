// README: End-to-end handler tests over the in-memory store.
package http_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	httptransport "ozra/internal/http"
	"ozra/internal/http/middleware"
	"ozra/internal/modules/assignment"
	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/modules/location"
	"ozra/internal/modules/notify"
	"ozra/internal/modules/pricing"
	"ozra/internal/modules/search"
)

var testSecret = []byte("test-secret")

func buildRouter() http.Handler {
	gin.SetMode(gin.TestMode)
	store := entity.NewMemStore()
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	hub := notify.NewHub(nil, nil, logger)
	return httptransport.NewRouter(httptransport.RouterDeps{
		Lifecycle:       lifecycle.NewService(store, hub, nil, nil),
		Assignment:      assignment.NewService(store, hub),
		Search:          search.NewService(store, nil),
		Pricing:         pricing.NewService(nil),
		Location:        location.NewService(store, nil),
		Hub:             hub,
		History:         nil,
		JWTSecret:       testSecret,
		DefaultRadiusKm: 10,
		Log:             logger,
	})
}

func token(t *testing.T, uid string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func do(t *testing.T, r http.Handler, method, path, uid string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, uid))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func rideBody() map[string]any {
	return map[string]any{
		"pickup":         map[string]any{"name": "Dam Square", "lat": 52.373, "lng": 4.893},
		"destination":    map[string]any{"name": "Utrecht CS", "lat": 52.089, "lng": 5.110},
		"price_amount":   1500,
		"currency":       "EUR",
		"seats_total":    3,
		"departure_time": time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	}
}

func createRide(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/rides", "driver1", rideBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create ride: %d %s", w.Code, w.Body.String())
	}
	return decode(t, w)["id"].(string)
}

func TestRides_Unauthenticated(t *testing.T) {
	r := buildRouter()
	if w := do(t, r, http.MethodPost, "/api/rides", "", rideBody()); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRides_CreateAndGet(t *testing.T) {
	r := buildRouter()
	id := createRide(t, r)

	w := do(t, r, http.MethodGet, "/api/rides/"+id, "anyone", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "pending" || body["seats_available"].(float64) != 3 {
		t.Errorf("body = %v", body)
	}
}

func TestRides_GetWrongFamily(t *testing.T) {
	r := buildRouter()
	id := createRide(t, r)
	// A ride id under the deliveries prefix is a 404, not a leak.
	if w := do(t, r, http.MethodGet, "/api/deliveries/"+id, "anyone", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRides_BookingFlow(t *testing.T) {
	r := buildRouter()
	id := createRide(t, r)

	w := do(t, r, http.MethodPost, "/api/rides/"+id+"/book", "passenger1", map[string]any{"seats": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("book: %d %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["seats_available"].(float64); got != 1 {
		t.Errorf("seats_available = %v, want 1", got)
	}

	// Driver booking their own ride is forbidden.
	if w := do(t, r, http.MethodPost, "/api/rides/"+id+"/book", "driver1", nil); w.Code != http.StatusForbidden {
		t.Errorf("self-book: %d", w.Code)
	}

	// Overbooking the remaining seat.
	if w := do(t, r, http.MethodPost, "/api/rides/"+id+"/book", "passenger2", map[string]any{"seats": 2}); w.Code != http.StatusConflict {
		t.Errorf("overbook: %d", w.Code)
	}
}

func TestRides_TransitionAuthorization(t *testing.T) {
	r := buildRouter()
	id := createRide(t, r)

	// A stranger cannot drive the ride forward.
	if w := do(t, r, http.MethodPut, "/api/rides/"+id+"/status", "stranger", map[string]any{"status": "accepted"}); w.Code != http.StatusForbidden {
		t.Errorf("stranger transition: %d", w.Code)
	}

	w := do(t, r, http.MethodPut, "/api/rides/"+id+"/status", "driver1", map[string]any{"status": "accepted"})
	if w.Code != http.StatusOK {
		t.Fatalf("driver transition: %d %s", w.Code, w.Body.String())
	}

	// accepted→completed is off the graph.
	if w := do(t, r, http.MethodPut, "/api/rides/"+id+"/status", "driver1", map[string]any{"status": "completed"}); w.Code != http.StatusConflict {
		t.Errorf("off-graph transition: %d", w.Code)
	}
}

func TestRides_CancelAndPayment(t *testing.T) {
	r := buildRouter()
	id := createRide(t, r)

	w := do(t, r, http.MethodPut, "/api/rides/"+id+"/payment", "driver1", map[string]any{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("payment: %d %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["payment_status"]; got != "completed" {
		t.Errorf("payment_status = %v", got)
	}

	if w := do(t, r, http.MethodPost, "/api/rides/"+id+"/cancel", "driver1", nil); w.Code != http.StatusOK {
		t.Fatalf("cancel: %d", w.Code)
	}
	// A second cancel hits a terminal state.
	if w := do(t, r, http.MethodPost, "/api/rides/"+id+"/cancel", "driver1", nil); w.Code != http.StatusConflict {
		t.Errorf("double cancel: %d", w.Code)
	}
}

func TestRides_SearchAndQuote(t *testing.T) {
	r := buildRouter()
	createRide(t, r)

	w := do(t, r, http.MethodGet, "/api/rides/search?lat=52.37&lng=4.89&radius_km=20", "seeker", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w.Code, w.Body.String())
	}
	items := decode(t, w)["items"].([]any)
	if len(items) != 1 {
		t.Errorf("search items = %d, want 1", len(items))
	}

	w = do(t, r, http.MethodGet, "/api/rides/quote?pickup_lat=52.37&pickup_lng=4.89&dest_lat=52.09&dest_lng=5.11", "seeker", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("quote: %d", w.Code)
	}
	if decode(t, w)["distance_km"].(float64) <= 0 {
		t.Error("quote distance missing")
	}

	if w := do(t, r, http.MethodGet, "/api/rides/quote?pickup_lat=52.37", "seeker", nil); w.Code != http.StatusBadRequest {
		t.Errorf("partial quote params: %d", w.Code)
	}
}

func TestRides_ListForUser(t *testing.T) {
	r := buildRouter()
	createRide(t, r)

	w := do(t, r, http.MethodGet, "/api/rides/user/driver1", "driver1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	if items := decode(t, w)["items"].([]any); len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}

	// Listing someone else's rides is forbidden.
	if w := do(t, r, http.MethodGet, "/api/rides/user/driver1", "other", nil); w.Code != http.StatusForbidden {
		t.Errorf("foreign list: %d", w.Code)
	}
}

func TestDeliveries_AcceptFlow(t *testing.T) {
	r := buildRouter()
	w := do(t, r, http.MethodPost, "/api/deliveries", "sender1", map[string]any{
		"pickup":       map[string]any{"name": "Depot", "lat": 52.37, "lng": 4.89},
		"destination":  map[string]any{"name": "Office", "lat": 52.36, "lng": 4.88},
		"price_amount": 900,
		"currency":     "EUR",
		"parcel_size":  "small",
		"weight_kg":    2.5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create delivery: %d %s", w.Code, w.Body.String())
	}
	id := decode(t, w)["id"].(string)

	w = do(t, r, http.MethodPost, "/api/deliveries/"+id+"/accept", "courier1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["status"] != "accepted" || body["assignee_id"] != "courier1" {
		t.Errorf("body = %v", body)
	}

	// Second courier loses.
	if w := do(t, r, http.MethodPost, "/api/deliveries/"+id+"/accept", "courier2", nil); w.Code != http.StatusConflict {
		t.Errorf("second accept: %d", w.Code)
	}
}

func TestFoodOrders_CourierLocationGate(t *testing.T) {
	r := buildRouter()
	w := do(t, r, http.MethodPost, "/api/restaurants/orders", "customer1", map[string]any{
		"restaurant_id":       "restaurant1",
		"restaurant_location": map[string]any{"name": "Pizzeria", "lat": 52.370, "lng": 4.890},
		"delivery_address":    map[string]any{"name": "Home", "lat": 52.360, "lng": 4.880},
		"items":               []map[string]any{{"item_id": "m1", "name": "Margherita", "quantity": 1, "unit_price": 1200}},
		"amount":              1200,
		"currency":            "EUR",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: %d %s", w.Code, w.Body.String())
	}
	id := decode(t, w)["id"].(string)

	w = do(t, r, http.MethodPost, "/api/restaurants/orders/"+id+"/accept", "courier1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: %d %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["status"]; got != "confirmed" {
		t.Errorf("status after accept = %v, want confirmed", got)
	}

	pos := map[string]any{"lat": 52.365, "lng": 4.885}
	// Not picked_up yet: the location write is rejected.
	if w := do(t, r, http.MethodPut, "/api/restaurants/orders/"+id+"/courier_location", "courier1", pos); w.Code != http.StatusConflict {
		t.Errorf("early location write: %d", w.Code)
	}

	for _, step := range []struct{ uid, status string }{
		{"restaurant1", "preparing"},
		{"restaurant1", "ready"},
		{"courier1", "picked_up"},
	} {
		w := do(t, r, http.MethodPut, "/api/restaurants/orders/"+id+"/status", step.uid, map[string]any{"status": step.status})
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", step.status, w.Code, w.Body.String())
		}
	}

	if w := do(t, r, http.MethodPut, "/api/restaurants/orders/"+id+"/courier_location", "courier1", pos); w.Code != http.StatusOK {
		t.Errorf("location write while picked_up: %d", w.Code)
	}
	// Only the assigned courier may report.
	if w := do(t, r, http.MethodPut, "/api/restaurants/orders/"+id+"/courier_location", "impostor", pos); w.Code != http.StatusForbidden {
		t.Errorf("impostor location write: %d", w.Code)
	}
}

func TestCouriers_PresenceOwnership(t *testing.T) {
	r := buildRouter()
	pos := map[string]any{"lat": 52.37, "lng": 4.89}
	if w := do(t, r, http.MethodPut, "/api/couriers/courier1/presence", "courier1", pos); w.Code != http.StatusOK {
		t.Errorf("own presence: %d", w.Code)
	}
	if w := do(t, r, http.MethodPut, "/api/couriers/courier1/presence", "courier2", pos); w.Code != http.StatusForbidden {
		t.Errorf("foreign presence: %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/api/couriers/courier1/presence", "courier1", nil); w.Code != http.StatusOK {
		t.Errorf("clear presence: %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := buildRouter()
	w := do(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health: %d", w.Code)
	}
}
