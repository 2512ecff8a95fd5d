package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("HX-Trigger set without triggers")
	}
}

func TestHTMXResponseBuilder_SaleTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerSaleCreated(1700000000000, "2024-03-05").
		TriggerFormReset().
		TriggerDashboardRefresh().
		TriggerNotification(NotificationSuccess, "Transaction added successfully!", 2000).
		Write(w)

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, name := range []string{"sale:created", "form:reset", "dashboard:refresh", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("HX-Trigger missing %q", name)
		}
	}

	var created struct {
		ID   int64  `json:"id"`
		Date string `json:"date"`
	}
	if err := json.Unmarshal(triggers["sale:created"], &created); err != nil {
		t.Fatalf("sale:created payload: %v", err)
	}
	if created.ID != 1700000000000 || created.Date != "2024-03-05" {
		t.Errorf("sale:created = %+v", created)
	}

	var notice struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(triggers["show-notification"], &notice); err != nil {
		t.Fatalf("show-notification payload: %v", err)
	}
	if notice.Type != "success" || notice.Duration != 2000 {
		t.Errorf("show-notification = %+v", notice)
	}
}

func TestHTMXResponseBuilder_SaleDeleted(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().TriggerSaleDeleted(42).Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"sale:deleted":{"id":42}`) {
		t.Errorf("HX-Trigger = %s", trigger)
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("Custom header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{"bad request", BadRequestError("Invalid id"), http.StatusBadRequest, `<div class="error">Invalid id</div>`},
		{"unprocessable", ErrorResponse(http.StatusUnprocessableEntity, "quantity: bad"), http.StatusUnprocessableEntity, `<div class="error">quantity: bad</div>`},
		{"unavailable", ErrorResponse(http.StatusServiceUnavailable, "down"), http.StatusServiceUnavailable, `<div class="error">down</div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, POST" {
		t.Errorf("Allow header = %q, want %q", w.Header().Get("Allow"), "GET, POST")
	}
}
