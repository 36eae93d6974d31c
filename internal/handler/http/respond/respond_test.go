package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"market-glance/internal/domain/entity"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name           string
		code           int
		data           any
		expectedCode   int
		expectedBody   string
		expectedHeader string
	}{
		{
			name:           "success with map",
			code:           http.StatusOK,
			data:           map[string]string{"message": "success"},
			expectedCode:   http.StatusOK,
			expectedBody:   `{"message":"success"}`,
			expectedHeader: "application/json",
		},
		{
			name:           "success with struct",
			code:           http.StatusCreated,
			data:           struct{ ID int }{ID: 123},
			expectedCode:   http.StatusCreated,
			expectedBody:   `{"ID":123}`,
			expectedHeader: "application/json",
		},
		{
			name:           "success with nil",
			code:           http.StatusNoContent,
			data:           nil,
			expectedCode:   http.StatusNoContent,
			expectedBody:   "",
			expectedHeader: "application/json",
		},
		{
			name:           "error status",
			code:           http.StatusBadRequest,
			data:           map[string]string{"error": "bad request"},
			expectedCode:   http.StatusBadRequest,
			expectedBody:   `{"error":"bad request"}`,
			expectedHeader: "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			if w.Code != tt.expectedCode {
				t.Errorf("Code = %v, want %v", w.Code, tt.expectedCode)
			}

			if ct := w.Header().Get("Content-Type"); ct != tt.expectedHeader {
				t.Errorf("Content-Type = %v, want %v", ct, tt.expectedHeader)
			}

			body := strings.TrimSpace(w.Body.String())
			if tt.expectedBody != "" && body != tt.expectedBody {
				t.Errorf("Body = %v, want %v", body, tt.expectedBody)
			}
		})
	}
}

func TestJSON_EncodingError(t *testing.T) {
	// Create a value that cannot be JSON-encoded
	invalidData := make(chan int)

	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, invalidData)

	// Should still set headers and status code
	if w.Code != http.StatusOK {
		t.Errorf("Code = %v, want %v", w.Code, http.StatusOK)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %v, want %v", ct, "application/json")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		err          error
		expectedCode int
		expectedBody map[string]string
	}{
		{
			name:         "not found error",
			code:         http.StatusNotFound,
			err:          errors.New("symbol not found"),
			expectedCode: http.StatusNotFound,
			expectedBody: map[string]string{"error": "symbol not found"},
		},
		{
			name:         "bad request error",
			code:         http.StatusBadRequest,
			err:          errors.New("invalid input"),
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]string{"error": "invalid input"},
		},
		{
			name:         "bad gateway",
			code:         http.StatusBadGateway,
			err:          errors.New("upstream unavailable"),
			expectedCode: http.StatusBadGateway,
			expectedBody: map[string]string{"error": "upstream unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, tt.code, tt.err)

			if w.Code != tt.expectedCode {
				t.Errorf("Code = %v, want %v", w.Code, tt.expectedCode)
			}

			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if body["error"] != tt.expectedBody["error"] {
				t.Errorf("Error message = %v, want %v", body["error"], tt.expectedBody["error"])
			}
		})
	}
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		err         error
		wantMessage string
		wantKind    entity.ErrorKind
	}{
		{
			name:        "failure message is user facing",
			code:        http.StatusBadRequest,
			err:         entity.NewFailure(entity.KindInvalidSymbol, "Invalid stock symbol. Use e.g. AAPL.", nil),
			wantMessage: "Invalid stock symbol. Use e.g. AAPL.",
			wantKind:    entity.KindInvalidSymbol,
		},
		{
			name:        "wrapped failure",
			code:        http.StatusNotFound,
			err:         fmt.Errorf("lookup: %w", entity.NewFailure(entity.KindNotFound, "Stock not found: x", nil)),
			wantMessage: "Stock not found: x",
			wantKind:    entity.KindNotFound,
		},
		{
			name:        "plain error is hidden",
			code:        http.StatusBadRequest,
			err:         errors.New("dial tcp 10.0.0.1:443: apikey=SECRET"),
			wantMessage: "internal server error",
		},
		{
			name:        "5xx failure is hidden",
			code:        http.StatusInternalServerError,
			err:         entity.NewFailure(entity.KindNotFound, "Stock not found: x", nil),
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SafeError(w, tt.code, tt.err)

			if w.Code != tt.code {
				t.Errorf("Code = %v, want %v", w.Code, tt.code)
			}
			body := decodeErrorBody(t, w)
			if body.Error != tt.wantMessage {
				t.Errorf("Error = %q, want %q", body.Error, tt.wantMessage)
			}
			if body.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", body.Kind, tt.wantKind)
			}
		})
	}
}

func TestSafeError_NilWritesNothing(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusBadRequest, nil)

	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[entity.ErrorKind]int{
		entity.KindInvalidSymbol:  http.StatusBadRequest,
		entity.KindInvalidRequest: http.StatusBadRequest,
		entity.KindNotFound:       http.StatusNotFound,
		entity.KindNoResults:      http.StatusNotFound,
		entity.KindRateLimited:    http.StatusTooManyRequests,
		entity.KindTransport:      http.StatusBadGateway,
		entity.ErrorKind("other"): http.StatusInternalServerError,
	}

	for kind, want := range tests {
		if got := StatusFor(kind); got != want {
			t.Errorf("StatusFor(%q) = %d, want %d", kind, got, want)
		}
	}
}

func TestFailure(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		w := httptest.NewRecorder()
		Failure(w, entity.NewFailure(entity.KindRateLimited, "API rate limit exceeded. Wait a moment and try again.", nil))

		if w.Code != http.StatusTooManyRequests {
			t.Errorf("Code = %v, want 429", w.Code)
		}
		body := decodeErrorBody(t, w)
		if body.Kind != entity.KindRateLimited {
			t.Errorf("Kind = %q", body.Kind)
		}
		if body.State != "failure" {
			t.Errorf("State = %q, want failure", body.State)
		}
	})

	t.Run("transport message is sanitized", func(t *testing.T) {
		w := httptest.NewRecorder()
		cause := errors.New("GET https://x/query?apikey=TOPSECRET: EOF")
		Failure(w, entity.TransportFailure(cause))

		if w.Code != http.StatusBadGateway {
			t.Errorf("Code = %v, want 502", w.Code)
		}
		body := decodeErrorBody(t, w)
		if strings.Contains(body.Error, "TOPSECRET") {
			t.Errorf("response leaks key: %q", body.Error)
		}
		if !strings.HasPrefix(body.Error, "Could not reach the data provider: ") {
			t.Errorf("unexpected message %q", body.Error)
		}
	})

	t.Run("non failure is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		Failure(w, errors.New("boom"))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Code = %v, want 500", w.Code)
		}
	})
}
