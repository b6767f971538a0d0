package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-api/models"
	"shop-api/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func productTestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"product_id", "name", "price", "description", "status",
		"created_by", "updated_by", "deleted_by", "deleted_at",
		"created_at", "updated_at",
	})
}

func setupProductTest(t *testing.T) (sqlmock.Sqlmock, *gin.Engine, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	handler := NewProductHandler(store.NewProductStore(db), nil, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/product/create", handler.Create)
	router.PUT("/api/product/update/:id", handler.Update)
	router.DELETE("/api/product/delete/:id", handler.Delete)
	router.GET("/api/product/getbyid/:id", handler.GetByID)
	router.GET("/api/product/getall", handler.GetAll)

	return mock, router, func() { db.Close() }
}

func TestProductHandler_Create_Success(t *testing.T) {
	mock, router, closer := setupProductTest(t)
	defer closer()

	// Mock: Draw the next product id, then insert
	mock.ExpectQuery("INSERT INTO counters").
		WithArgs(store.ProductSequence).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO products").
		WithArgs(1, "Widget", 19.99, "A widget", true, nil).
		WillReturnRows(productTestRows().
			AddRow(1, "Widget", 19.99, "A widget", true, nil, nil, nil, nil, time.Now(), time.Now()))

	price := 19.99
	body, _ := json.Marshal(models.CreateProductRequest{
		Name:        "Widget",
		Price:       &price,
		Description: "A widget",
	})
	req := httptest.NewRequest("POST", "/api/product/create", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_Create_MissingPrice(t *testing.T) {
	_, router, closer := setupProductTest(t)
	defer closer()

	req := httptest.NewRequest("POST", "/api/product/create", bytes.NewBufferString(`{"name":"Widget"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestProductHandler_Create_NegativePrice(t *testing.T) {
	_, router, closer := setupProductTest(t)
	defer closer()

	req := httptest.NewRequest("POST", "/api/product/create", bytes.NewBufferString(`{"name":"Widget","price":-1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestProductHandler_GetByID_Success(t *testing.T) {
	mock, router, closer := setupProductTest(t)
	defer closer()

	mock.ExpectQuery("SELECT (.+) FROM products WHERE product_id = \\$1 AND deleted_at IS NULL").
		WithArgs(1).
		WillReturnRows(productTestRows().
			AddRow(1, "Widget", 19.99, "A widget", true, nil, nil, nil, nil, time.Now(), time.Now()))

	req := httptest.NewRequest("GET", "/api/product/getbyid/1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_GetByID_NotFound(t *testing.T) {
	mock, router, closer := setupProductTest(t)
	defer closer()

	mock.ExpectQuery("SELECT (.+) FROM products WHERE product_id = \\$1 AND deleted_at IS NULL").
		WithArgs(999).
		WillReturnRows(productTestRows())

	req := httptest.NewRequest("GET", "/api/product/getbyid/999", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestProductHandler_Update_Success(t *testing.T) {
	mock, router, closer := setupProductTest(t)
	defer closer()

	mock.ExpectQuery("UPDATE products SET").
		WithArgs(24.99, 1).
		WillReturnRows(productTestRows().
			AddRow(1, "Widget", 24.99, "A widget", true, nil, nil, nil, nil, time.Now(), time.Now()))

	req := httptest.NewRequest("PUT", "/api/product/update/1", bytes.NewBufferString(`{"price":24.99}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_Update_NotFound(t *testing.T) {
	mock, router, closer := setupProductTest(t)
	defer closer()

	mock.ExpectQuery("UPDATE products SET").
		WillReturnRows(productTestRows())

	req := httptest.NewRequest("PUT", "/api/product/update/999", bytes.NewBufferString(`{"price":24.99}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestProductHandler_Delete_Success(t *testing.T) {
	mock, router, closer := setupProductTest(t)
	defer closer()

	now := time.Now()
	mock.ExpectQuery("UPDATE products SET status = FALSE").
		WithArgs(1, nil).
		WillReturnRows(productTestRows().
			AddRow(1, "Widget", 19.99, "", false, nil, nil, nil, now, now, now))

	req := httptest.NewRequest("DELETE", "/api/product/delete/1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestProductHandler_GetAll_Success(t *testing.T) {
	mock, router, closer := setupProductTest(t)
	defer closer()

	mock.ExpectQuery("SELECT (.+) FROM products WHERE deleted_at IS NULL ORDER BY product_id").
		WillReturnRows(productTestRows().
			AddRow(1, "Widget", 19.99, "", true, nil, nil, nil, nil, time.Now(), time.Now()).
			AddRow(2, "Gadget", 5.00, "", true, nil, nil, nil, nil, time.Now(), time.Now()))

	req := httptest.NewRequest("GET", "/api/product/getall", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
