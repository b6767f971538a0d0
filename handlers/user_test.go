package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-api/auth"
	"shop-api/models"
	"shop-api/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func userTestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "name", "username", "password", "status",
		"created_by", "updated_by", "deleted_by", "deleted_at",
		"created_at", "updated_at",
	})
}

func setupUserTest(t *testing.T) (sqlmock.Sqlmock, *auth.Manager, *gin.Engine, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	tokens := auth.NewManager("test-secret", time.Hour)
	handler := NewUserHandler(store.NewUserStore(db), tokens, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/user/create", handler.Create)
	router.POST("/api/user/login", handler.Login)
	router.POST("/api/user/validate-token", handler.ValidateToken)
	router.POST("/api/user/logout", handler.Logout)
	router.PUT("/api/user/update/:id", handler.Update)
	router.DELETE("/api/user/delete/:id", handler.Delete)
	router.GET("/api/user/getbyid/:id", handler.GetByID)
	router.GET("/api/user/getall", handler.GetAll)

	return mock, tokens, router, func() { db.Close() }
}

func TestUserHandler_Create_Success(t *testing.T) {
	mock, _, router, closer := setupUserTest(t)
	defer closer()

	// Mock: Uniqueness pre-check finds nothing
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1 AND deleted_at IS NULL").
		WithArgs("alice").
		WillReturnError(sql.ErrNoRows)

	// Mock: Insert user
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Alice", "alice", sqlmock.AnyArg(), true, nil).
		WillReturnRows(userTestRows().
			AddRow(1, "Alice", "alice", "hashed", true, nil, nil, nil, nil, time.Now(), time.Now()))

	body, _ := json.Marshal(models.CreateUserRequest{
		Name:     "Alice",
		Username: "alice",
		Password: "password123",
	})
	req := httptest.NewRequest("POST", "/api/user/create", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("hashed")) {
		t.Error("Expected password hash to be excluded from the response")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestUserHandler_Create_DuplicateUsername(t *testing.T) {
	mock, _, router, closer := setupUserTest(t)
	defer closer()

	// Mock: Pre-check finds an existing user
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1 AND deleted_at IS NULL").
		WithArgs("alice").
		WillReturnRows(userTestRows().
			AddRow(1, "Alice", "alice", "hashed", true, nil, nil, nil, nil, time.Now(), time.Now()))

	body, _ := json.Marshal(models.CreateUserRequest{
		Name:     "Alice Again",
		Username: "alice",
		Password: "password123",
	})
	req := httptest.NewRequest("POST", "/api/user/create", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Message != "Username already exists" {
		t.Errorf("Expected duplicate message, got %q", resp.Message)
	}
}

func TestUserHandler_Create_MissingFields(t *testing.T) {
	_, _, router, closer := setupUserTest(t)
	defer closer()

	req := httptest.NewRequest("POST", "/api/user/create", bytes.NewBufferString(`{"name":"Alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestUserHandler_Login_Success(t *testing.T) {
	mock, _, router, closer := setupUserTest(t)
	defer closer()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1 AND deleted_at IS NULL").
		WithArgs("alice").
		WillReturnRows(userTestRows().
			AddRow(1, "Alice", "alice", string(hashed), true, nil, nil, nil, nil, time.Now(), time.Now()))

	body, _ := json.Marshal(models.LoginRequest{Username: "alice", Password: "password123"})
	req := httptest.NewRequest("POST", "/api/user/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Token == "" {
		t.Error("Expected a token in the login response")
	}
}

func TestUserHandler_Login_WrongPassword(t *testing.T) {
	mock, _, router, closer := setupUserTest(t)
	defer closer()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1 AND deleted_at IS NULL").
		WithArgs("alice").
		WillReturnRows(userTestRows().
			AddRow(1, "Alice", "alice", string(hashed), true, nil, nil, nil, nil, time.Now(), time.Now()))

	body, _ := json.Marshal(models.LoginRequest{Username: "alice", Password: "wrong"})
	req := httptest.NewRequest("POST", "/api/user/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestUserHandler_Login_UnknownUser(t *testing.T) {
	mock, _, router, closer := setupUserTest(t)
	defer closer()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1 AND deleted_at IS NULL").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	body, _ := json.Marshal(models.LoginRequest{Username: "ghost", Password: "password123"})
	req := httptest.NewRequest("POST", "/api/user/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestUserHandler_Update_NotFound(t *testing.T) {
	mock, _, router, closer := setupUserTest(t)
	defer closer()

	mock.ExpectQuery("UPDATE users SET").
		WillReturnRows(userTestRows())

	req := httptest.NewRequest("PUT", "/api/user/update/999", bytes.NewBufferString(`{"name":"Ghost"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestUserHandler_Update_InvalidID(t *testing.T) {
	_, _, router, closer := setupUserTest(t)
	defer closer()

	req := httptest.NewRequest("PUT", "/api/user/update/abc", bytes.NewBufferString(`{"name":"X"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestUserHandler_Delete_Success(t *testing.T) {
	mock, _, router, closer := setupUserTest(t)
	defer closer()

	now := time.Now()
	mock.ExpectQuery("UPDATE users SET status = FALSE").
		WillReturnRows(userTestRows().
			AddRow(1, "Alice", "alice", "hashed", false, nil, nil, nil, now, now, now))

	req := httptest.NewRequest("DELETE", "/api/user/delete/1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestUserHandler_GetAll_Success(t *testing.T) {
	mock, _, router, closer := setupUserTest(t)
	defer closer()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE deleted_at IS NULL ORDER BY user_id").
		WillReturnRows(userTestRows().
			AddRow(1, "Alice", "alice", "h1", true, nil, nil, nil, nil, time.Now(), time.Now()).
			AddRow(2, "Bob", "bob", "h2", true, nil, nil, nil, nil, time.Now(), time.Now()))

	req := httptest.NewRequest("GET", "/api/user/getall", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestUserHandler_ValidateToken_Valid(t *testing.T) {
	_, tokens, router, closer := setupUserTest(t)
	defer closer()

	token, err := tokens.Issue(auth.Claims{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/user/validate-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Valid   bool `json:"valid"`
			Expired bool `json:"expired"`
			User    struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Data.Valid || resp.Data.Expired {
		t.Errorf("Expected valid token, got %+v", resp.Data)
	}
	if resp.Data.User.Username != "alice" {
		t.Errorf("Expected decoded username alice, got %q", resp.Data.User.Username)
	}
}

func TestUserHandler_ValidateToken_Expired(t *testing.T) {
	_, _, router, closer := setupUserTest(t)
	defer closer()

	expired := auth.NewManager("test-secret", -time.Minute)
	token, err := expired.Issue(auth.Claims{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/user/validate-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	var resp struct {
		Data struct {
			Valid   bool `json:"valid"`
			Expired bool `json:"expired"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Data.Valid || !resp.Data.Expired {
		t.Errorf("Expected expired token status, got %+v", resp.Data)
	}
}

func TestUserHandler_ValidateToken_Missing(t *testing.T) {
	_, _, router, closer := setupUserTest(t)
	defer closer()

	req := httptest.NewRequest("POST", "/api/user/validate-token", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestUserHandler_Logout(t *testing.T) {
	_, _, router, closer := setupUserTest(t)
	defer closer()

	req := httptest.NewRequest("POST", "/api/user/logout", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}
