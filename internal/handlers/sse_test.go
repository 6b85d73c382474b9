package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSSEHandlers(t *testing.T) {
	session := createTestSession()
	logger := testLogger()

	handlers := NewSSEHandlers(session, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.session != session {
		t.Error("NewSSEHandlers() should set session field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestHandleTimelineStream(t *testing.T) {
	session := createTestSession()
	handlers := NewSSEHandlers(session, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sse/timeline", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.HandleTimelineStream(w, req)
	}()

	// let the seed frame land, trigger one window change, then hang up
	time.Sleep(50 * time.Millisecond)
	session.SetWindow("2013-03-01", "2013-03-31")
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate on context cancellation")
	}

	body := w.Body.String()
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want an event stream", ct)
	}
	if !strings.Contains(body, "windowStart") {
		t.Error("stream should carry window signals")
	}
	if !strings.Contains(body, "2013-03-01") {
		t.Error("stream should carry the window change")
	}
	if !strings.Contains(body, "window-label") {
		t.Error("stream should patch the window label element")
	}
}

func TestHandleComparePanel(t *testing.T) {
	handlers := NewSSEHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/compare?country1=United%20States&country2=France", nil)
	w := httptest.NewRecorder()
	handlers.HandleComparePanel(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "USA vs France") {
		t.Errorf("panel should name both countries, got %q", body)
	}
	if !strings.Contains(body, "modern-table") {
		t.Error("panel should contain the stats table")
	}
	if !strings.Contains(body, "compare-narrative") {
		t.Error("panel should contain the narrative list")
	}
}

func TestHandleComparePanelMissingParams(t *testing.T) {
	handlers := NewSSEHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/compare", nil)
	w := httptest.NewRecorder()
	handlers.HandleComparePanel(w, req)

	if !strings.Contains(w.Body.String(), "Select two countries") {
		t.Error("expected the selection prompt")
	}
}

func TestHandleComparePanelUnknownCountry(t *testing.T) {
	handlers := NewSSEHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/compare?country1=United%20States&country2=Atlantis", nil)
	w := httptest.NewRecorder()
	handlers.HandleComparePanel(w, req)

	if !strings.Contains(w.Body.String(), "No order data") {
		t.Error("expected the no-data message")
	}
}

func TestHandleMapRefresh(t *testing.T) {
	handlers := NewSSEHandlers(createTestSession(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/map-refresh", nil)
	w := httptest.NewRecorder()
	handlers.HandleMapRefresh(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "circlesData") {
		t.Error("refresh should carry circle signals")
	}
	if !strings.Contains(body, "heatmapFills") {
		t.Error("refresh should carry heatmap fills")
	}
	if !strings.Contains(body, "USA") {
		t.Error("fills should use normalized country names")
	}
}
