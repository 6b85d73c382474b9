package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"superstore-map/internal/models"
	"superstore-map/internal/services"
	"superstore-map/internal/store"
)

// noopScheduler keeps timeline tests deterministic; ticks never fire.
type noopScheduler struct{}

func (noopScheduler) Start(time.Duration, func()) {}
func (noopScheduler) Stop()                       {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestSession() *services.Session {
	orders := store.NewOrderStore(testLogger())
	orders.SetOrders([]models.Order{
		{
			OrderID:   "O1",
			OrderDate: time.Date(2013, 3, 10, 0, 0, 0, 0, time.UTC),
			Country:   "United States", City: "New York City",
			ShipMode: "Standard Class", Segment: "Consumer",
			Category: "Technology", OrderPriority: "High",
			Sales: 500, Profit: 80, Quantity: 3, ShippingCost: 25, Discount: 0.1,
		},
		{
			OrderID:   "O2",
			OrderDate: time.Date(2013, 5, 20, 0, 0, 0, 0, time.UTC),
			Country:   "France", City: "Paris",
			ShipMode: "First Class", Segment: "Corporate",
			Category: "Furniture", OrderPriority: "Medium",
			Sales: 120, Profit: 15, Quantity: 1, ShippingCost: 8, Discount: 0,
		},
	})

	cities := store.CityIndex{
		"United States": {"New York City": models.LatLng{Lat: 40.71, Lng: -74.01}},
		"France":        {"Paris": models.LatLng{Lat: 48.86, Lng: 2.35}},
	}

	return services.NewSession(orders, cities, noopScheduler{}, testLogger())
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func postForm(path, form string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNewAPIHandlers(t *testing.T) {
	session := createTestSession()
	handlers := NewAPIHandlers(session, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.session != session {
		t.Error("NewAPIHandlers() should set session field")
	}
}

func TestHandleCircles(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/circles", nil)
	w := httptest.NewRecorder()
	handlers.HandleCircles(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Error("expected success envelope")
	}

	var resp circlesResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Metric != models.CircleOrders {
		t.Errorf("metric = %v, want orders", resp.Metric)
	}
	if len(resp.Circles) != 2 {
		t.Fatalf("circles = %d, want 2", len(resp.Circles))
	}
	for _, c := range resp.Circles {
		if c.Radius <= 0 {
			t.Errorf("circle %s has radius %v, want positive", c.City, c.Radius)
		}
	}
}

func TestHandleCirclesMetricSwitch(t *testing.T) {
	session := createTestSession()
	handlers := NewAPIHandlers(session, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/circles?metric=sales", nil)
	w := httptest.NewRecorder()
	handlers.HandleCircles(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := session.CircleMetric(); got != models.CircleSales {
		t.Errorf("session metric = %v, want sales", got)
	}
}

func TestHandleCirclesBadMetric(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/circles?metric=bogus", nil)
	w := httptest.NewRecorder()
	handlers.HandleCircles(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleHeatmap(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/heatmap", nil)
	w := httptest.NewRecorder()
	handlers.HandleHeatmap(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp heatmapResponse
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Legend.Type != "gradient" {
		t.Errorf("legend type = %q, want gradient", resp.Legend.Type)
	}
	// country keys are the normalized map names
	if _, ok := resp.Fills["USA"]; !ok {
		t.Errorf("fills = %v, want a USA entry", resp.Fills)
	}
}

func TestHandleHeatmapBadMetric(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/heatmap?metric=bogus", nil)
	w := httptest.NewRecorder()
	handlers.HandleHeatmap(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleCompare(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"both countries", "country1=United%20States&country2=France", http.StatusOK},
		{"missing country2", "country1=United%20States", http.StatusBadRequest},
		{"missing both", "", http.StatusBadRequest},
		{"unknown country", "country1=United%20States&country2=Atlantis", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/compare?"+tt.query, nil)
			w := httptest.NewRecorder()
			handlers.HandleCompare(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleCountries(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/countries", nil)
	w := httptest.NewRecorder()
	handlers.HandleCountries(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var countries []string
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &countries); err != nil {
		t.Fatal(err)
	}
	if len(countries) != 2 || countries[0] != "France" || countries[1] != "USA" {
		t.Errorf("countries = %v, want [France USA]", countries)
	}
}

func TestHandleSetWindow(t *testing.T) {
	session := createTestSession()
	handlers := NewAPIHandlers(session, testLogger())

	w := httptest.NewRecorder()
	handlers.HandleSetWindow(w, postForm("/api/window", "start=2013-03-01&end=2013-03-31"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	start, end := session.Window()
	if start != "2013-03-01" || end != "2013-03-31" {
		t.Errorf("window = [%s, %s]", start, end)
	}

	// the narrowed window drops the Paris order
	buckets, _ := session.CityBuckets()
	if got := buckets.TotalOrders(); got != 1 {
		t.Errorf("TotalOrders() = %d, want 1", got)
	}
}

func TestHandleSetWindowValidation(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleSetWindow(w, postForm("/api/window", "start=03%2F01%2F2013"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleGetWindow(t *testing.T) {
	session := createTestSession()
	session.SetWindow("2013-03-01", "2013-03-31")
	handlers := NewAPIHandlers(session, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/window", nil)
	w := httptest.NewRecorder()
	handlers.HandleGetWindow(w, req)

	var resp windowResponse
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Start != "2013-03-01" || resp.End != "2013-03-31" {
		t.Errorf("window = %+v", resp)
	}
	if resp.State != services.AnimationStopped {
		t.Errorf("state = %v, want stopped", resp.State)
	}
}

func TestHandleTimelineControls(t *testing.T) {
	session := createTestSession()
	handlers := NewAPIHandlers(session, testLogger())

	w := httptest.NewRecorder()
	handlers.HandleTimelineStart(w, postForm("/api/timeline/start", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d", w.Code)
	}
	if got := session.Timeline().State(); got != services.AnimationPlaying {
		t.Errorf("state after start = %v, want playing", got)
	}

	w = httptest.NewRecorder()
	handlers.HandleTimelinePause(w, postForm("/api/timeline/pause", ""))
	if got := session.Timeline().State(); got != services.AnimationPaused {
		t.Errorf("state after pause = %v, want paused", got)
	}

	w = httptest.NewRecorder()
	handlers.HandleTimelineStop(w, postForm("/api/timeline/stop", ""))
	if got := session.Timeline().State(); got != services.AnimationStopped {
		t.Errorf("state after stop = %v, want stopped", got)
	}
}

func TestHandleTimelineDelay(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleTimelineDelay(w, postForm("/api/timeline/delay", "ms=250"))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}

	for _, bad := range []string{"ms=0", "ms=-5", "ms=abc", ""} {
		w = httptest.NewRecorder()
		handlers.HandleTimelineDelay(w, postForm("/api/timeline/delay", bad))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status for %q = %d, want %d", bad, w.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleTimelineGranularity(t *testing.T) {
	session := createTestSession()
	handlers := NewAPIHandlers(session, testLogger())

	w := httptest.NewRecorder()
	handlers.HandleTimelineGranularity(w, postForm("/api/timeline/granularity", "value=month"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := session.Timeline().Granularity(); got != services.GranularityMonth {
		t.Errorf("granularity = %v, want month", got)
	}

	w = httptest.NewRecorder()
	handlers.HandleTimelineGranularity(w, postForm("/api/timeline/granularity", "value=decade"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleRotate(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRotate(w, postForm("/api/rotate", "dx=100&dy=0"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp rotateResponse
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Applied {
		t.Error("first rotation should be applied")
	}
	if resp.Rotation.Lambda != 25 {
		t.Errorf("Lambda = %v, want 25", resp.Rotation.Lambda)
	}

	w = httptest.NewRecorder()
	handlers.HandleRotate(w, postForm("/api/rotate", "dx=abc&dy=0"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Error("expected a healthy status in the body")
	}
}

func TestHandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	handlers.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var stats map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats["record_count"] != float64(2) {
		t.Errorf("record_count = %v, want 2", stats["record_count"])
	}
}
