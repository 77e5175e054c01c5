package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/iheb-heni/product-management/internal/usecase"
	"github.com/iheb-heni/product-management/pkg/e"
	"github.com/iheb-heni/product-management/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const defaultLowStockThreshold = 10

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// writeError логирует причину и пишет конверт ошибки.
// 5xx логируются с полной ошибкой, 4xx — предупреждением.
func (p *ProductHandler) writeError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		p.logger.Errorf(err, "request failed")
	} else {
		p.logger.Warnf("%d %s: %v", code, msg, err)
	}
	WriteJSON(w, code, NewErrorResponse(msg))
}

// createProduct
//
//	@Summary	Создание нового товара
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	ApiResponse
//	@Failure	400	{object}	ApiResponse	"Ошибка валидации"
//	@Failure	409	{object}	ApiResponse	"Имя товара занято"
//	@Router		/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req usecase.ProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.writeError(w, e.Wrap(err.Error(), e.ErrValidationFailed))
		return
	}

	if err := validateProductReq(&req); err != nil {
		p.writeError(w, err)
		return
	}

	res, err := p.productUsecase.CreateProduct(r.Context(), &req)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, res, "Product created successfully")
}

// getProduct
//
//	@Summary	Получение товара по ID
//	@Produce	json
//	@Success	200	{object}	ApiResponse
//	@Failure	404	{object}	ApiResponse	"Товар не найден"
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.writeError(w, err)
		return
	}

	res, err := p.productUsecase.GetProductByID(r.Context(), id)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res, "Product retrieved successfully")
}

// getAllProducts
//
//	@Summary	Список всех товаров
//	@Produce	json
//	@Success	200	{object}	ApiResponse
//	@Router		/products [get]
func (p *ProductHandler) getAllProducts(w http.ResponseWriter, r *http.Request) {
	res, err := p.productUsecase.GetAllProducts(r.Context())
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res, "Products retrieved successfully")
}

// updateProduct
//
//	@Summary	Обновление товара
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	ApiResponse
//	@Failure	400	{object}	ApiResponse	"Ошибка валидации"
//	@Failure	404	{object}	ApiResponse	"Товар не найден"
//	@Failure	409	{object}	ApiResponse	"Имя товара занято"
//	@Router		/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.writeError(w, err)
		return
	}

	var req usecase.ProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.writeError(w, e.Wrap(err.Error(), e.ErrValidationFailed))
		return
	}

	if err := validateProductReq(&req); err != nil {
		p.writeError(w, err)
		return
	}

	res, err := p.productUsecase.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res, "Product updated successfully")
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Success	204	"Товар удален"
//	@Failure	404	{object}	ApiResponse	"Товар не найден"
//	@Router		/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.writeError(w, err)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getProductsByCategory
//
//	@Summary	Товары категории
//	@Produce	json
//	@Success	200	{object}	ApiResponse
//	@Router		/products/category/{category} [get]
func (p *ProductHandler) getProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	res, err := p.productUsecase.GetProductsByCategory(r.Context(), category)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res, "Products retrieved successfully")
}

// getLowStockProducts
//
//	@Summary	Товары с низким остатком
//	@Param		threshold	query		int	false	"Порог остатка"	default(10)
//	@Produce	json
//	@Success	200	{object}	ApiResponse
//	@Failure	400	{object}	ApiResponse	"Некорректный порог"
//	@Router		/products/low-stock [get]
func (p *ProductHandler) getLowStockProducts(w http.ResponseWriter, r *http.Request) {
	threshold := defaultLowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			p.writeError(w, e.Wrap("threshold: "+raw, e.ErrInvalidParams))
			return
		}
		threshold = parsed
	}

	res, err := p.productUsecase.GetLowStockProducts(r.Context(), threshold)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res, "Low stock products retrieved successfully")
}

// searchProducts
//
//	@Summary	Поиск товаров по ключевому слову
//	@Param		keyword	query		string	true	"Ключевое слово"
//	@Produce	json
//	@Success	200	{object}	ApiResponse
//	@Failure	400	{object}	ApiResponse	"Отсутствует ключевое слово"
//	@Router		/products/search [get]
func (p *ProductHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		p.writeError(w, e.Wrap("keyword is required", e.ErrInvalidParams))
		return
	}

	res, err := p.productUsecase.SearchProducts(r.Context(), keyword)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res, "Search results retrieved successfully")
}

// parseID извлекает числовой ID товара из пути.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, e.Wrap("id: "+raw, e.ErrInvalidParams)
	}
	return id, nil
}
