package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phishlens/internal/backend"
	"github.com/phishlens/internal/config"
	"github.com/phishlens/internal/consistency"
	"github.com/phishlens/internal/domain"
	"github.com/phishlens/internal/normalize"
	"github.com/phishlens/internal/service"
	"github.com/phishlens/pkg/sanitizer"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelopeJSON struct {
	Success bool            `json:"success"`
	Mode    string          `json:"mode"`
	Result  json.RawMessage `json:"result"`
	View    *struct {
		Gauge struct {
			Fraction float64 `json:"fraction"`
			Level    string  `json:"level"`
		} `json:"gauge"`
		Banner struct {
			State string `json:"state"`
		} `json:"banner"`
	} `json:"view"`
	Status *struct {
		Busy      bool   `json:"busy"`
		Mode      string `json:"mode"`
		HasResult bool   `json:"has_result"`
	} `json:"status"`
	Stale     bool   `json:"stale"`
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func newTestRouter(t *testing.T, backendURL string, rps float64) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", RateLimitRPS: rps, RateLimitBurst: 1},
		Backend:   config.BackendConfig{BaseURL: backendURL},
		Dashboard: config.DashboardConfig{DefaultMode: domain.ModeFullEmail},
	}
	client := backend.NewHTTPClient(&cfg.Backend, logger)
	n := normalize.New(consistency.NewEngine(consistency.DefaultRules(), logger), logger)
	d := service.NewDashboard(client, n, sanitizer.New(100), service.DashboardConfig{DefaultMode: cfg.Dashboard.DefaultMode}, logger)
	return NewRouter(cfg, d, logger)
}

func fakeBackend(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelopeJSON) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelopeJSON
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func TestAnalyzeEndpoints(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		body          string
		backendStatus int
		backendBody   string
		wantStatus    int
		wantLevel     string
		wantFraction  float64
		wantError     string
	}{
		{
			name:          "phishing email",
			path:          "/api/v1/analyze/full-email",
			body:          `{"email_body":"verify your account"}`,
			backendStatus: http.StatusOK,
			backendBody:   `{"prediction":"phishing","confidence":0.82,"mode":"full_email"}`,
			wantStatus:    http.StatusOK,
			wantLevel:     "High",
			wantFraction:  0.82,
		},
		{
			name:          "legitimate url",
			path:          "/api/v1/analyze/url-only",
			body:          `{"url":"https://example.com"}`,
			backendStatus: http.StatusOK,
			backendBody:   `{"prediction":"legitimate","confidence":0.95,"mode":"url_only"}`,
			wantStatus:    http.StatusOK,
			wantLevel:     "Low",
			wantFraction:  0.05,
		},
		{
			name:       "empty url",
			path:       "/api/v1/analyze/url-only",
			body:       `{"url":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Please enter a URL or email address to analyze.",
		},
		{
			name:       "malformed body",
			path:       "/api/v1/analyze/full-email",
			body:       `{"email_body":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body.",
		},
		{
			name:          "backend 500",
			path:          "/api/v1/analyze/url-only",
			body:          `{"url":"http://bit.ly/x"}`,
			backendStatus: http.StatusInternalServerError,
			backendBody:   `{"detail":"boom"}`,
			wantStatus:    http.StatusBadGateway,
			wantError:     "Failed to analyze. Please ensure the prediction backend is running.",
		},
		{
			name:          "unusable response",
			path:          "/api/v1/analyze/full-email",
			body:          `{"email_body":"x"}`,
			backendStatus: http.StatusOK,
			backendBody:   `{"confidence":0.5}`,
			wantStatus:    http.StatusBadGateway,
			wantError:     "The prediction backend returned an unexpected response.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.backendStatus)
				_, _ = io.WriteString(w, tt.backendBody)
			}))
			defer server.Close()

			router := newTestRouter(t, server.URL, 0)
			w, env := do(t, router, http.MethodPost, tt.path, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if env.RequestID == "" || w.Header().Get("X-Request-ID") != env.RequestID {
				t.Errorf("request id missing or mismatched: %q / %q", env.RequestID, w.Header().Get("X-Request-ID"))
			}

			if tt.wantError != "" {
				if env.Success || env.Error != tt.wantError {
					t.Errorf("envelope = success %v error %q, want error %q", env.Success, env.Error, tt.wantError)
				}
				if len(env.Result) != 0 || env.View != nil {
					t.Error("an error envelope must not carry a result")
				}
				if tt.backendStatus == 0 && calls.Load() != 0 {
					t.Errorf("backend called %d times for invalid input", calls.Load())
				}
				return
			}

			if !env.Success || env.View == nil {
				t.Fatalf("envelope = %s", w.Body.String())
			}
			if env.View.Gauge.Level != tt.wantLevel || env.View.Gauge.Fraction != tt.wantFraction {
				t.Errorf("gauge = %+v, want level %s fraction %v", env.View.Gauge, tt.wantLevel, tt.wantFraction)
			}
			if calls.Load() != 1 {
				t.Errorf("backend called %d times, want 1", calls.Load())
			}
		})
	}
}

func TestResultAndModeEndpoints(t *testing.T) {
	server := fakeBackend(t, http.StatusOK, `{"prediction":"phishing","confidence":0.9}`)
	router := newTestRouter(t, server.URL, 0)

	w, _ := do(t, router, http.MethodGet, "/api/v1/result", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("GET /result before analysis = %d, want 404", w.Code)
	}

	if w, _ := do(t, router, http.MethodPost, "/api/v1/analyze/full-email", `{"email_body":"x"}`); w.Code != http.StatusOK {
		t.Fatalf("analyze = %d", w.Code)
	}

	w, env := do(t, router, http.MethodGet, "/api/v1/result", "")
	if w.Code != http.StatusOK || env.View == nil || env.View.Banner.State != "phishing" {
		t.Errorf("GET /result = %d %s", w.Code, w.Body.String())
	}

	w, env = do(t, router, http.MethodPut, "/api/v1/mode", `{"mode":"url-only"}`)
	if w.Code != http.StatusOK || env.Status == nil || env.Status.Mode != "url-only" || env.Status.HasResult {
		t.Errorf("PUT /mode = %d %s", w.Code, w.Body.String())
	}

	if w, _ := do(t, router, http.MethodGet, "/api/v1/result", ""); w.Code != http.StatusNotFound {
		t.Errorf("mode switch should clear the result, GET /result = %d", w.Code)
	}

	if w, _ := do(t, router, http.MethodPut, "/api/v1/mode", `{"mode":"sms"}`); w.Code != http.StatusBadRequest {
		t.Errorf("PUT /mode sms = %d, want 400", w.Code)
	}

	w, env = do(t, router, http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK || env.Status == nil || env.Status.Busy {
		t.Errorf("GET /status = %d %s", w.Code, w.Body.String())
	}
}

func TestAnalyze_SurvivesCallerCancellation(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"prediction":"phishing","confidence":0.82}`)
	}))
	t.Cleanup(server.Close)
	router := newTestRouter(t, server.URL, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/full-email", bytes.NewBufferString(`{"email_body":"verify now"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s, want 200", w.Code, w.Body.String())
	}
	if calls.Load() != 1 {
		t.Errorf("backend called %d times, want 1", calls.Load())
	}
}

func TestAnalyze_ModeSwitchMarksResultStale(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = io.WriteString(w, `{"prediction":"phishing","confidence":0.82}`)
	}))
	t.Cleanup(server.Close)
	router := newTestRouter(t, server.URL, 0)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/full-email", bytes.NewBufferString(`{"email_body":"verify now"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		done <- w
	}()

	<-entered
	if w, _ := do(t, router, http.MethodPut, "/api/v1/mode", `{"mode":"url-only"}`); w.Code != http.StatusOK {
		t.Errorf("PUT /mode = %d", w.Code)
	}
	close(release)
	w := <-done

	var env envelopeJSON
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	if w.Code != http.StatusOK || !env.Success || !env.Stale {
		t.Errorf("analyze = %d %s, want 200 with stale", w.Code, w.Body.String())
	}
	if w, _ := do(t, router, http.MethodGet, "/api/v1/result", ""); w.Code != http.StatusNotFound {
		t.Errorf("stale result should not be current, GET /result = %d", w.Code)
	}
}

func TestReadyEndpoint(t *testing.T) {
	up := fakeBackend(t, http.StatusOK, `{"message":"ok"}`)
	if w, _ := do(t, newTestRouter(t, up.URL, 0), http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Errorf("ready with backend up = %d", w.Code)
	}

	down := fakeBackend(t, http.StatusServiceUnavailable, ``)
	if w, _ := do(t, newTestRouter(t, down.URL, 0), http.MethodGet, "/ready", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with backend down = %d", w.Code)
	}

	if w, _ := do(t, newTestRouter(t, down.URL, 0), http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	server := fakeBackend(t, http.StatusOK, `{"prediction":"legitimate","confidence":0.9}`)
	router := newTestRouter(t, server.URL, 0.001)

	if w, _ := do(t, router, http.MethodPost, "/api/v1/analyze/url-only", `{"url":"a"}`); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	w, env := do(t, router, http.MethodPost, "/api/v1/analyze/url-only", `{"url":"a"}`)
	if w.Code != http.StatusTooManyRequests || env.Success {
		t.Errorf("second request = %d, want 429", w.Code)
	}

	if w, _ := do(t, router, http.MethodGet, "/api/v1/status", ""); w.Code != http.StatusOK {
		t.Errorf("status endpoint should not be rate limited, got %d", w.Code)
	}
}

func TestRequestIDMiddleware_KeepsCallerID(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1", 0)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.ValidationError{Field: "url"}, http.StatusBadRequest},
		{domain.ErrBusy, http.StatusConflict},
		{domain.WrapTransport("http_request", 0, context.DeadlineExceeded), http.StatusBadGateway},
		{&domain.NormalizationError{Field: "confidence"}, http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
