package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	v1Http "github.com/iheb-heni/product-management/internal/delivery/v1/http"
	"github.com/iheb-heni/product-management/internal/usecase"
	"github.com/iheb-heni/product-management/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

type MockProductUC struct {
	mock.Mock
}

func (m *MockProductUC) CreateProduct(ctx context.Context, req *usecase.ProductReq) (*usecase.ProductRes, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProductRes), args.Error(1)
}

func (m *MockProductUC) GetProductByID(ctx context.Context, id int64) (*usecase.ProductRes, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProductRes), args.Error(1)
}

func (m *MockProductUC) GetAllProducts(ctx context.Context) ([]usecase.ProductRes, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.ProductRes), args.Error(1)
}

func (m *MockProductUC) UpdateProduct(ctx context.Context, id int64, req *usecase.ProductReq) (*usecase.ProductRes, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProductRes), args.Error(1)
}

func (m *MockProductUC) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductUC) GetProductsByCategory(ctx context.Context, category string) ([]usecase.ProductRes, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.ProductRes), args.Error(1)
}

func (m *MockProductUC) GetLowStockProducts(ctx context.Context, threshold int) ([]usecase.ProductRes, error) {
	args := m.Called(ctx, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.ProductRes), args.Error(1)
}

func (m *MockProductUC) SearchProducts(ctx context.Context, keyword string) ([]usecase.ProductRes, error) {
	args := m.Called(ctx, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.ProductRes), args.Error(1)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestRouter(uc usecase.ProductUC) *chi.Mux {
	r := chi.NewRouter()
	router := v1Http.NewRouter(r, nopLogger{})
	router.Init(uc)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, target string, body any) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code == http.StatusNoContent {
		return rec, nil
	}

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, &env
}

func validBody() map[string]any {
	return map[string]any{
		"name":        "Laptop Pro 15",
		"description": "Powerful laptop for professional use",
		"price":       "1299.99",
		"quantity":    25,
		"category":    "Electronics",
	}
}

func TestCreateProduct(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	res := &usecase.ProductRes{ID: 1, Name: "Laptop Pro 15", Price: decimal.RequireFromString("1299.99")}
	uc.On("CreateProduct", mock.Anything, mock.AnythingOfType("*usecase.ProductReq")).Return(res, nil).Once()

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/products", validBody())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Product created successfully", env.Message)
	assert.Contains(t, string(env.Data), `"price":"1299.99"`)
	uc.AssertExpectations(t)
}

func TestCreateProduct_NameConflict(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("CreateProduct", mock.Anything, mock.Anything).
		Return(nil, &e.NameConflictError{Name: "Laptop Pro 15"}).Once()

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/products", validBody())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Product with name 'Laptop Pro 15' already exists", env.Message)
}

func TestCreateProduct_MalformedJSON(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Validation failed", env.Message)
	uc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestCreateProduct_ValidationBoundaries(t *testing.T) {
	longString := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'a'
		}
		return string(b)
	}

	tests := []struct {
		name     string
		mutate   func(body map[string]any)
		wantCode int
	}{
		{"price at lower bound", func(b map[string]any) { b["price"] = "0.01" }, http.StatusCreated},
		{"price below lower bound", func(b map[string]any) { b["price"] = "0.00" }, http.StatusBadRequest},
		{"price at upper bound", func(b map[string]any) { b["price"] = "1000000.00" }, http.StatusCreated},
		{"price above upper bound", func(b map[string]any) { b["price"] = "1000000.01" }, http.StatusBadRequest},
		{"price with three decimals", func(b map[string]any) { b["price"] = "10.999" }, http.StatusBadRequest},
		{"quantity zero", func(b map[string]any) { b["quantity"] = 0 }, http.StatusCreated},
		{"quantity negative", func(b map[string]any) { b["quantity"] = -1 }, http.StatusBadRequest},
		{"quantity at max", func(b map[string]any) { b["quantity"] = 10000 }, http.StatusCreated},
		{"quantity above max", func(b map[string]any) { b["quantity"] = 10001 }, http.StatusBadRequest},
		{"quantity missing", func(b map[string]any) { delete(b, "quantity") }, http.StatusBadRequest},
		{"name at min length", func(b map[string]any) { b["name"] = "abc" }, http.StatusCreated},
		{"name too short", func(b map[string]any) { b["name"] = "ab" }, http.StatusBadRequest},
		{"name at max length", func(b map[string]any) { b["name"] = longString(100) }, http.StatusCreated},
		{"name too long", func(b map[string]any) { b["name"] = longString(101) }, http.StatusBadRequest},
		{"name blank", func(b map[string]any) { b["name"] = "   " }, http.StatusBadRequest},
		{"description at min length", func(b map[string]any) { b["description"] = longString(10) }, http.StatusCreated},
		{"description too short", func(b map[string]any) { b["description"] = longString(9) }, http.StatusBadRequest},
		{"description at max length", func(b map[string]any) { b["description"] = longString(500) }, http.StatusCreated},
		{"description too long", func(b map[string]any) { b["description"] = longString(501) }, http.StatusBadRequest},
		{"category blank", func(b map[string]any) { b["category"] = "  " }, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(MockProductUC)
			router := newTestRouter(uc)

			if tt.wantCode == http.StatusCreated {
				uc.On("CreateProduct", mock.Anything, mock.Anything).
					Return(&usecase.ProductRes{ID: 1}, nil).Once()
			}

			body := validBody()
			tt.mutate(body)

			rec, env := doRequest(t, router, http.MethodPost, "/api/v1/products", body)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusBadRequest {
				assert.False(t, env.Success)
				assert.Equal(t, "Validation failed", env.Message)
				uc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGetProduct(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	res := &usecase.ProductRes{ID: 42, Name: "Laptop Pro 15"}
	uc.On("GetProductByID", mock.Anything, int64(42)).Return(res, nil).Once()

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/42", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Product retrieved successfully", env.Message)
}

func TestGetProduct_NotFound(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("GetProductByID", mock.Anything, int64(99)).
		Return(nil, &e.ProductNotFoundError{ID: 99}).Once()

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/99", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Product not found with id: 99", env.Message)
}

func TestGetProduct_InvalidID(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request parameters", env.Message)
	uc.AssertNotCalled(t, "GetProductByID", mock.Anything, mock.Anything)
}

func TestGetProduct_InternalError(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("GetProductByID", mock.Anything, int64(1)).
		Return(nil, fmt.Errorf("pq: connection refused")).Once()

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/1", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error. Please try again later.", env.Message)
	assert.NotContains(t, env.Message, "pq:")
}

func TestGetAllProducts(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("GetAllProducts", mock.Anything).Return([]usecase.ProductRes{
		{ID: 1}, {ID: 2},
	}, nil).Once()

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Products retrieved successfully", env.Message)
}

func TestGetAllProducts_EmptyList(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("GetAllProducts", mock.Anything).Return([]usecase.ProductRes{}, nil).Once()

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "[]", string(env.Data))
}

func TestUpdateProduct(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	res := &usecase.ProductRes{ID: 5, Name: "Laptop Pro 15"}
	uc.On("UpdateProduct", mock.Anything, int64(5), mock.AnythingOfType("*usecase.ProductReq")).
		Return(res, nil).Once()

	rec, env := doRequest(t, router, http.MethodPut, "/api/v1/products/5", validBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product updated successfully", env.Message)
	uc.AssertExpectations(t)
}

func TestDeleteProduct(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("DeleteProduct", mock.Anything, int64(5)).Return(nil).Once()

	rec, _ := doRequest(t, router, http.MethodDelete, "/api/v1/products/5", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	uc.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("DeleteProduct", mock.Anything, int64(99)).
		Return(&e.ProductNotFoundError{ID: 99}).Once()

	rec, env := doRequest(t, router, http.MethodDelete, "/api/v1/products/99", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found with id: 99", env.Message)
}

func TestGetProductsByCategory(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("GetProductsByCategory", mock.Anything, "Electronics").
		Return([]usecase.ProductRes{{ID: 1, Category: "Electronics"}}, nil).Once()

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/category/Electronics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Products retrieved successfully", env.Message)
	uc.AssertExpectations(t)
}

func TestGetLowStockProducts_DefaultThreshold(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("GetLowStockProducts", mock.Anything, 10).
		Return([]usecase.ProductRes{}, nil).Once()

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/low-stock", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Low stock products retrieved successfully", env.Message)
	uc.AssertExpectations(t)
}

func TestGetLowStockProducts_CustomThreshold(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("GetLowStockProducts", mock.Anything, 3).
		Return([]usecase.ProductRes{{ID: 1, Quantity: 2}}, nil).Once()

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/products/low-stock?threshold=3", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestGetLowStockProducts_BadThreshold(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/low-stock?threshold=abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request parameters", env.Message)
	uc.AssertNotCalled(t, "GetLowStockProducts", mock.Anything, mock.Anything)
}

func TestSearchProducts(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	uc.On("SearchProducts", mock.Anything, "laptop").
		Return([]usecase.ProductRes{{ID: 1, Name: "Laptop Pro 15"}}, nil).Once()

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/search?keyword=laptop", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Search results retrieved successfully", env.Message)
	uc.AssertExpectations(t)
}

func TestSearchProducts_MissingKeyword(t *testing.T) {
	uc := new(MockProductUC)
	router := newTestRouter(uc)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/products/search", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request parameters", env.Message)
	uc.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything)
}
