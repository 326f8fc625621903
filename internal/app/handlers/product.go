package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/campuskart/internal/domain/models"
	"github.com/linemk/campuskart/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/campuskart/internal/service"
)

// запас сверх картинки на текстовые поля формы
const formOverhead = 1 << 20

type ProductCreatedResponse struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

// CreateProductHandler обрабатывает POST /api/products (multipart/form-data).
// Владелец берётся из JWT, а не из формы.
func CreateProductHandler(log *slog.Logger, productService service.ProductServiceInterface, maxImageSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeMessage(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+formOverhead)
		if err := r.ParseMultipartForm(formOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeMessage(w, logger, http.StatusRequestEntityTooLarge, "image is too large")
				return
			}
			logger.Error("invalid request: multipart parse error", slog.Any("error", err))
			writeMessage(w, logger, http.StatusBadRequest, "invalid form data")
			return
		}
		defer r.MultipartForm.RemoveAll()

		var price float64
		if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsInf(p, 0) || math.IsNaN(p) {
				writeMessage(w, logger, http.StatusBadRequest, "price must be a number")
				return
			}
			price = p
		}

		in := service.CreateProductInput{
			UserID:      userID,
			Title:       r.FormValue("title"),
			Price:       price,
			Location:    r.FormValue("location"),
			Description: r.FormValue("description"),
		}

		var image *service.Image
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			image = &service.Image{Name: header.Filename, Body: file}
		case errors.Is(err, http.ErrMissingFile):
		default:
			logger.Error("failed to read image", slog.Any("error", err))
			writeMessage(w, logger, http.StatusBadRequest, "invalid image")
			return
		}

		product, err := productService.CreateProduct(r.Context(), in, image)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, ProductCreatedResponse{
			Message: "Product Added Successfully",
			Product: product,
		})
	}
}

// ListProductsHandler обрабатывает GET /api/products
func ListProductsHandler(log *slog.Logger, productService service.ProductServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := productService.ListProducts(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if products == nil {
			products = []*models.Product{}
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// UserProductsHandler обрабатывает GET /api/products/users/{userId}
func UserProductsHandler(log *slog.Logger, productService service.ProductServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UserProductsHandler"
		logger := log.With(slog.String("op", op))

		userID := chi.URLParam(r, "userId")
		products, err := productService.ListUserProducts(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if products == nil {
			products = []*models.Product{}
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// GetProductHandler обрабатывает GET /api/products/{id}
func GetProductHandler(log *slog.Logger, productService service.ProductServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		product, err := productService.GetProduct(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// DeleteProductHandler обрабатывает DELETE /api/products/{id}, удалить может только владелец
func DeleteProductHandler(log *slog.Logger, productService service.ProductServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeMessage(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := productService.DeleteProduct(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
			if errors.Is(err, service.ErrConflict) {
				logger.Warn("product has orders", slog.Any("error", err))
				writeMessage(w, logger, http.StatusConflict, "product has orders and cannot be deleted")
				return
			}
			writeError(w, logger, err)
			return
		}
		writeMessage(w, logger, http.StatusOK, "Product deleted successfully")
	}
}
