package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/viralburst/pastebin/cfg"
	"github.com/viralburst/pastebin/svc/analytics"
	"github.com/viralburst/pastebin/svc/id"
	"github.com/viralburst/pastebin/svc/lim"
	"github.com/viralburst/pastebin/svc/store"
	"github.com/viralburst/pastebin/svc/svc"
	"github.com/viralburst/pastebin/svc/validate"
)

func testCfg() *cfg.Cfg {
	return &cfg.Cfg{
		Port:             "8080",
		Environment:      "test",
		BaseURL:          "http://localhost:8080",
		MaxContentSize:   1024 * 1024,
		MaxTitleLength:   200,
		IDLength:         12,
		IDMaxAttempts:    10,
		DefaultExpiryKey: "1d",
		MinExpiry:        time.Minute,
		MaxExpiry:        30 * 24 * time.Hour,
		StrictValidation: true,
		PatternDetection: true,
		ClientHashKey:    cfg.NewSecret("0123456789abcdef"),
		RateLimit: cfg.RateLimitCfg{
			RPM:               60000,
			Burst:             10000,
			ConservativeLimit: 1000,
			ClientCacheSize:   100,
		},
		ContextTimeout: 5 * time.Second,
		PreviewLength:  500,
	}
}

func newTestServer(t *testing.T, c *cfg.Cfg) *Server {
	t.Helper()
	st := store.NewMemory(id.NewGenerator(c.IDLength, c.IDMaxAttempts))
	tracker := analytics.NewMemory()
	v := validate.New(c.MaxContentSize, c.MaxTitleLength, c.MinExpiry, c.MaxExpiry, c.StrictValidation, c.PatternDetection)
	creator := svc.NewCreator(st, v, tracker, c)
	retriever := svc.NewRetriever(st, tracker, c.PreviewLength)
	l := lim.New(c.RateLimit.RPM, c.RateLimit.Burst, c.RateLimit.ConservativeLimit, c.RateLimit.ClientCacheSize, c.TrustedProxies)
	t.Cleanup(l.Stop)
	return NewServer(c, creator, retriever, tracker, l, st)
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func createPaste(t *testing.T, srv *Server, body map[string]interface{}) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/pastes", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	var desc struct {
		ID       string `json:"id"`
		ShareURL string `json:"share_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &desc); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if desc.ID == "" {
		t.Fatal("create response missing id")
	}
	return desc.ID
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response %q: %v", rec.Body.String(), err)
	}
	return resp.Error.Code
}

func TestCreateGetRoundTrip(t *testing.T) {
	srv := newTestServer(t, testCfg())

	pasteID := createPaste(t, srv, map[string]interface{}{
		"title":         "roundtrip",
		"content":       "hello over http",
		"one_time_view": false,
	})

	rec := doJSON(t, srv, http.MethodGet, "/pastes/"+pasteID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if got.ID != pasteID || got.Title != "roundtrip" || got.Content != "hello over http" {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	// multi-view pastes survive repeated reads
	rec = doJSON(t, srv, http.MethodGet, "/pastes/"+pasteID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("second get = %d", rec.Code)
	}
}

func TestOneTimeViewIsDefault(t *testing.T) {
	srv := newTestServer(t, testCfg())

	pasteID := createPaste(t, srv, map[string]interface{}{
		"content": "read me once",
	})

	rec := doJSON(t, srv, http.MethodGet, "/pastes/"+pasteID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first get = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/pastes/"+pasteID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second get = %d, want 404", rec.Code)
	}
	if code := errCode(t, rec); code != "PASTE_NOT_FOUND" {
		t.Errorf("error code = %q", code)
	}
}

func TestCreateRequiresJSONContentType(t *testing.T) {
	srv := newTestServer(t, testCfg())

	req := httptest.NewRequest(http.MethodPost, "/pastes", strings.NewReader(`{"content":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, testCfg())

	for name, body := range map[string]string{
		"truncated":     `{"content": "oops`,
		"empty":         ``,
		"unknown field": `{"content":"x","paste_color":"red"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/pastes", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestCreateEmptyContentRejected(t *testing.T) {
	srv := newTestServer(t, testCfg())

	rec := doJSON(t, srv, http.MethodPost, "/pastes", map[string]interface{}{"content": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errCode(t, rec); code != "EMPTY_CONTENT" {
		t.Errorf("error code = %q, want EMPTY_CONTENT", code)
	}
}

func TestGetUnknownIDIs404(t *testing.T) {
	srv := newTestServer(t, testCfg())

	for _, path := range []string{
		"/pastes/AAAAbbbb1234", // valid shape, absent
		"/pastes/short",        // invalid shape
	} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestMetaDoesNotSpendOneTimeView(t *testing.T) {
	srv := newTestServer(t, testCfg())
	pasteID := createPaste(t, srv, map[string]interface{}{"content": "precious"})

	rec := doJSON(t, srv, http.MethodGet, "/pastes/"+pasteID+"/meta", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("meta = %d: %s", rec.Code, rec.Body.String())
	}
	var meta struct {
		OneTimeView bool   `json:"one_time_view"`
		ExpiresAt   string `json:"expires_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if !meta.OneTimeView || meta.ExpiresAt == "" {
		t.Errorf("meta = %+v", meta)
	}
	if strings.Contains(rec.Body.String(), "precious") {
		t.Error("meta must not include content")
	}

	rec = doJSON(t, srv, http.MethodGet, "/pastes/"+pasteID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get after meta = %d, want 200", rec.Code)
	}
}

func TestDeleteThenGone(t *testing.T) {
	srv := newTestServer(t, testCfg())
	pasteID := createPaste(t, srv, map[string]interface{}{"content": "delete me", "one_time_view": false})

	rec := doJSON(t, srv, http.MethodDelete, "/pastes/"+pasteID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/pastes/"+pasteID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
	// repeat delete still succeeds
	rec = doJSON(t, srv, http.MethodDelete, "/pastes/"+pasteID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("repeat delete = %d, want 200", rec.Code)
	}
}

func TestExpiryOptionsEndpoint(t *testing.T) {
	srv := newTestServer(t, testCfg())

	rec := doJSON(t, srv, http.MethodGet, "/config/expiry-options", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, key := range []string{"5m", "1h", "6h", "1d", "1w", "1m"} {
		if !strings.Contains(body, fmt.Sprintf("%q", key)) {
			t.Errorf("expiry options missing %q: %s", key, body)
		}
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, testCfg())
	createPaste(t, srv, map[string]interface{}{"content": "print('hi')"})

	rec := doJSON(t, srv, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats struct {
		Created    int64            `json:"created"`
		ByLanguage map[string]int64 `json:"by_language"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Created != 1 || stats.ByLanguage["python"] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestQREndpointReturnsPNG(t *testing.T) {
	srv := newTestServer(t, testCfg())
	pasteID := createPaste(t, srv, map[string]interface{}{"content": "qr me", "one_time_view": false})

	rec := doJSON(t, srv, http.MethodGet, "/pastes/"+pasteID+"/qr", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestSecurityAndRequestIDHeaders(t *testing.T) {
	srv := newTestServer(t, testCfg())

	rec := doJSON(t, srv, http.MethodGet, "/config/expiry-options", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	// the same id must land in error bodies for correlation
	rec = doJSON(t, srv, http.MethodGet, "/pastes/AAAAbbbb1234", nil)
	var body struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.RequestID == "" || body.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("body request_id %q != header %q", body.RequestID, rec.Header().Get("X-Request-ID"))
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing frame-options header")
	}
}

func TestRateLimitReturns429(t *testing.T) {
	c := testCfg()
	c.RateLimit.RPM = 60
	c.RateLimit.Burst = 2
	srv := newTestServer(t, c)

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = doJSON(t, srv, http.MethodGet, "/config/expiry-options", nil)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status after burst = %d, want 429", last.Code)
	}
	if code := errCode(t, last); code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("error code = %q", code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, testCfg())

	for _, path := range []string{"/health", "/ready"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
