package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestGuard_IssueVerify verifies an issued token verifies and carries the cookie attributes.
func TestGuard_IssueVerify(t *testing.T) {
	g := NewGuard("s3cret", false)
	now := time.UnixMilli(1704067200000)

	c := g.Issue(now)
	if c.Name != SessionCookieName || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("cookie = %+v", c)
	}
	if c.MaxAge != 7*24*60*60 {
		t.Errorf("MaxAge = %d, want one week", c.MaxAge)
	}
	if c.Secure {
		t.Error("Secure should be off outside production")
	}
	decoded, err := base64.StdEncoding.DecodeString(c.Value)
	if err != nil {
		t.Fatalf("token is not base64: %v", err)
	}
	if string(decoded) != "1704067200000-s3cret" {
		t.Errorf("decoded = %q", decoded)
	}
	if !g.Verify(c.Value) {
		t.Error("issued token did not verify")
	}
}

// TestGuard_VerifyRejects covers tokens that must not verify.
func TestGuard_VerifyRejects(t *testing.T) {
	g := NewGuard("s3cret", true)
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"other secret", base64.StdEncoding.EncodeToString([]byte("123-other"))},
		{"plain secret", "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if g.Verify(tt.token) {
				t.Errorf("Verify(%q) = true", tt.token)
			}
		})
	}
	if NewGuard("", false).Verify(base64.StdEncoding.EncodeToString([]byte("1-"))) {
		t.Error("guard without secret verified a token")
	}
}

// TestRequireSession verifies 401 without a cookie and pass-through with one.
func TestRequireSession(t *testing.T) {
	g := NewGuard("s3cret", false)
	h := Auth(g)(RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/analytics/summary", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error":"Unauthorized"`) {
		t.Errorf("body = %s", rr.Body.String())
	}

	req := httptest.NewRequest("GET", "/analytics/summary", nil)
	req.AddCookie(g.Issue(time.Now()))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}

// TestRateLimit verifies the bucket empties and answers 429.
func TestRateLimit(t *testing.T) {
	ctx := t.Context()
	h := RateLimit(NewRateLimiter(ctx, 2, time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/drafts", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}

// TestCSRF_JSONExempt verifies JSON posts bypass the token check while form posts need one.
func TestCSRF_JSONExempt(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	h := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/attendance", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Errorf("json status = %d, want 201", rr.Code)
	}

	req = httptest.NewRequest("POST", "/drafts/import", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form status = %d, want 403", rr.Code)
	}
}

// TestSecurityHeaders verifies the headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("%s not set", h)
		}
	}
}
