package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/linemk/campuskart/internal/domain/models"
	"github.com/linemk/campuskart/internal/storage"
	"github.com/linemk/campuskart/internal/upload"
)

type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, in CreateProductInput, image *Image) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListUserProducts(ctx context.Context, userID string) ([]*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID, requesterID string) error
}

// ImageSaver сохраняет картинку, возвращает её публичный URL и умеет её удалить
type ImageSaver interface {
	Save(name string, r io.Reader) (string, error)
	Remove(url string) error
}

var _ ImageSaver = (*upload.Store)(nil)

type CreateProductInput struct {
	UserID      string  `json:"user" validate:"required"`
	Title       string  `json:"title" validate:"required,max=200"`
	Price       float64 `json:"price" validate:"required,price"`
	Location    string  `json:"location" validate:"max=200"`
	Description string  `json:"description" validate:"max=5000"`
}

// Image хранит загруженный файл объявления, он необязателен
type Image struct {
	Name string
	Body io.Reader
}

type ProductService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	images      ImageSaver
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage, images ImageSaver) *ProductService {
	return &ProductService{
		log:         log,
		productRepo: productRepo,
		images:      images,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput, image *Image) (*models.Product, error) {
	const op = "service.ProductService.CreateProduct"
	in.Title = strings.TrimSpace(in.Title)
	logger := s.log.With(
		slog.String("op", op),
		slog.String("userID", in.UserID),
	)

	if err := validateInput(op, in); err != nil {
		logger.Warn("invalid product input", slog.Any("error", err))
		return nil, err
	}

	var imageURL string
	if image != nil && image.Body != nil {
		url, err := s.images.Save(image.Name, image.Body)
		if err != nil {
			if errors.Is(err, upload.ErrTooLarge) || errors.Is(err, upload.ErrUnsupportedType) || errors.Is(err, upload.ErrEmpty) {
				logger.Warn("image rejected", slog.Any("error", err))
				return nil, &ValidationError{Op: op, Fields: []string{"image"}, Err: err}
			}
			logger.Error("failed to save image", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to save image: %w", op, err)
		}
		imageURL = url
	}

	product, err := s.productRepo.CreateProduct(ctx, &models.Product{
		UserID:      in.UserID,
		Title:       in.Title,
		Price:       in.Price,
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    imageURL,
	})
	if err != nil {
		if imageURL != "" {
			// объявление не записалось, картинка без владельца не нужна
			if rmErr := s.images.Remove(imageURL); rmErr != nil {
				logger.Warn("failed to remove orphaned image", slog.String("image", imageURL), slog.Any("error", rmErr))
			}
		}
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, &NotFoundError{Op: op, Entity: "user", ID: in.UserID, Err: err}
		}
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, &PersistenceError{Op: op, Err: err}
	}

	logger.Info("product created", slog.String("productID", product.ID))
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "service.ProductService.ListProducts"

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return products, nil
}

func (s *ProductService) ListUserProducts(ctx context.Context, userID string) ([]*models.Product, error) {
	const op = "service.ProductService.ListUserProducts"

	if userID == "" {
		return nil, &ValidationError{Op: op, Fields: []string{"userId"}}
	}
	products, err := s.productRepo.ListProductsByUser(ctx, userID)
	if err != nil {
		s.log.Error("failed to list user products", slog.String("op", op), slog.String("userID", userID), slog.Any("error", err))
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "service.ProductService.GetProduct"

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, &NotFoundError{Op: op, Entity: "product", ID: id, Err: err}
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.String("productID", id), slog.Any("error", err))
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return product, nil
}

// DeleteProduct удаляет объявление. Удалять может только владелец;
// объявление, по которому уже есть заказы, удалить нельзя.
func (s *ProductService) DeleteProduct(ctx context.Context, productID, requesterID string) error {
	const op = "service.ProductService.DeleteProduct"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("productID", productID),
		slog.String("requesterID", requesterID),
	)

	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.UserID != requesterID {
		logger.Warn("requester is not the owner")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.productRepo.DeleteProduct(ctx, productID); err != nil {
		switch {
		case errors.Is(err, storage.ErrProductNotFound):
			return &NotFoundError{Op: op, Entity: "product", ID: productID, Err: err}
		case errors.Is(err, storage.ErrProductInUse):
			logger.Warn("product has orders")
			return fmt.Errorf("%s: product has orders: %w", op, ErrConflict)
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return &PersistenceError{Op: op, Err: err}
	}

	logger.Info("product deleted")
	return nil
}
