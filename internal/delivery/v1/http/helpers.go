package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iheb-heni/product-management/internal/usecase"
	"github.com/iheb-heni/product-management/pkg/e"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ApiResponse — единый конверт всех ответов API.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func NewSuccessResponse(data any, message string) *ApiResponse {
	return &ApiResponse{Success: true, Data: data, Message: message}
}

func NewErrorResponse(message string) *ApiResponse {
	return &ApiResponse{Success: false, Data: nil, Message: message}
}

// ToHTTPResponse переводит доменную или инфраструктурную ошибку в статус и
// сообщение конверта. Строки хранилища и фреймворков наружу не выходят:
// все нераспознанные ошибки схлопываются в 500 с общим сообщением.
func ToHTTPResponse(err error) (int, string) {
	var (
		notFound *e.ProductNotFoundError
		conflict *e.NameConflictError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error()
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Error()
	case errors.Is(err, e.ErrValidationFailed):
		return http.StatusBadRequest, e.ErrValidationFailed.Error()
	case errors.Is(err, e.ErrInvalidParams):
		return http.StatusBadRequest, e.ErrInvalidParams.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func WriteSuccess(w http.ResponseWriter, status int, data any, message string) {
	WriteJSON(w, status, NewSuccessResponse(data, message))
}

var validate = validator.New()

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.RequireFromString("1000000.00")
)

// validateProductReq — единственная точка структурной валидации входной
// проекции; выполняется до обращения к usecase. Возвращаемая ошибка
// оборачивает e.ErrValidationFailed, детали по полям остаются в обертке
// для серверного лога и не попадают в тело ответа.
func validateProductReq(req *usecase.ProductReq) error {
	if err := validate.Struct(req); err != nil {
		return e.Wrap(err.Error(), e.ErrValidationFailed)
	}

	if strings.TrimSpace(req.Name) == "" {
		return e.Wrap("name is blank", e.ErrValidationFailed)
	}
	if strings.TrimSpace(req.Description) == "" {
		return e.Wrap("description is blank", e.ErrValidationFailed)
	}
	if strings.TrimSpace(req.Category) == "" {
		return e.Wrap("category is blank", e.ErrValidationFailed)
	}

	// Границы цены: 0.01 <= price <= 1000000.00, не больше двух знаков дробной части
	if req.Price.LessThan(minPrice) {
		return e.Wrap("price must be greater than 0", e.ErrValidationFailed)
	}
	if req.Price.GreaterThan(maxPrice) {
		return e.Wrap("price must be less than 1,000,000", e.ErrValidationFailed)
	}
	if req.Price.Exponent() < -2 {
		return e.Wrap("price must have at most 2 decimal places", e.ErrValidationFailed)
	}

	return nil
}
