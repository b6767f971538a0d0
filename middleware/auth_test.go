package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-api/auth"

	"github.com/gin-gonic/gin"
)

func setupAuthTest(t *testing.T, mgr *auth.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(mgr))
	router.GET("/protected", func(c *gin.Context) {
		actor := ActorID(c)
		if actor == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no actor"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": *actor})
	})
	return router
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := setupAuthTest(t, auth.NewManager("test-secret", time.Hour))

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	router := setupAuthTest(t, auth.NewManager("test-secret", time.Hour))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status %d, got %d", http.StatusForbidden, w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["error"] != "INVALID_TOKEN" {
		t.Errorf("Expected error INVALID_TOKEN, got %v", resp["error"])
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	mgr := auth.NewManager("test-secret", -time.Minute)
	router := setupAuthTest(t, mgr)

	token, err := mgr.Issue(auth.Claims{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["error"] != "TOKEN_EXPIRED" {
		t.Errorf("Expected error TOKEN_EXPIRED, got %v", resp["error"])
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	mgr := auth.NewManager("test-secret", time.Hour)
	router := setupAuthTest(t, mgr)

	token, err := mgr.Issue(auth.Claims{UserID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["user_id"] != float64(42) {
		t.Errorf("Expected user_id 42, got %v", resp["user_id"])
	}
}

func TestRequireRole(t *testing.T) {
	mgr := auth.NewManager("test-secret", time.Hour)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(mgr), RequireRole(2))
	router.GET("/admin", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token, err := mgr.Issue(auth.Claims{UserID: 1, Username: "alice", RoleID: 1})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			c.Request.Header.Set("Authorization", tc.header)
		}
		if got := BearerToken(c); got != tc.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
