package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sokosnap/internal/config"
	handlershared "github.com/sokosnap/internal/http/handlers/shared"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestCORSPreflightExposesCartToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://shop.example"}, AllowCredentials: true}))
	r.POST("/cart/items", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/cart/items", nil)
	req.Header.Set("Origin", "https://shop.example")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://shop.example" {
		t.Fatalf("unexpected allow origin: %s", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-Cart-Token") {
		t.Fatalf("cart token header should be allowed: %s", w.Header().Get("Access-Control-Allow-Headers"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "X-Cart-Token") {
		t.Fatalf("cart token header should be exposed: %s", w.Header().Get("Access-Control-Expose-Headers"))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func decodeStatusCode(t *testing.T, body []byte) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func identityEchoRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/whoami", func(c *gin.Context) {
		identity := handlershared.CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "user_id": identity.UserID, "role": identity.Role})
	})
	return r
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := identityEchoRouter(JWTAuthMiddleware(service.NewAuthService(config.JWTConfig{}), false))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer anything")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestJWTAuthMiddlewareOptionalAndRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authService := service.NewAuthService(config.JWTConfig{SecretKey: "router-test-secret"})

	optional := identityEchoRouter(JWTAuthMiddleware(authService, false))
	w := httptest.NewRecorder()
	optional.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	var guest map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &guest); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if guest["user_id"] != "guest" || guest["role"] != "buyer" {
		t.Fatalf("anonymous request should be a guest buyer, got %v", guest)
	}

	required := identityEchoRouter(JWTAuthMiddleware(authService, true))
	w = httptest.NewRecorder()
	required.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("required auth without token want 401 got %d", code)
	}

	token, _, err := authService.GenerateJWT(service.Identity{UserID: "r1", Role: "rider"})
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	required.ServeHTTP(w, req)
	var rider map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &rider); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if rider["user_id"] != "r1" || rider["role"] != "rider" {
		t.Fatalf("token identity not propagated: %v", rider)
	}

	for _, header := range []string{"Token " + token, "Bearer not-a-jwt"} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		optional.ServeHTTP(w, req)
		if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
			t.Fatalf("invalid header %q should be rejected even on optional routes, got %d", header, code)
		}
	}
}
