package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linemk/campuskart/internal/domain/models"
)

// ProductStorage описывает методы для работы с объявлениями.
type ProductStorage interface {
	// CreateProduct сохраняет объявление, идентификатор генерируется здесь.
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	// GetProductByID возвращает объявление или ErrProductNotFound.
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	// ListProducts возвращает все объявления, новые первыми.
	ListProducts(ctx context.Context) ([]*models.Product, error)
	// ListProductsByUser возвращает объявления пользователя, новые первыми.
	ListProductsByUser(ctx context.Context, userID string) ([]*models.Product, error)
	// DeleteProduct удаляет объявление. Если по нему есть заказы, вернёт ErrProductInUse.
	DeleteProduct(ctx context.Context, id string) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт новый репозиторий объявлений.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, user_id, title, price, location, description, image_url, created_at, updated_at"

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	id := uuid.NewString()
	query := `INSERT INTO products (id, user_id, title, price, location, description, image_url)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING price, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		id, product.UserID, product.Title, product.Price, product.Location, product.Description, product.ImageURL,
	).Scan(&product.Price, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = id
	return product, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return r.list(ctx, "SELECT "+productColumns+" FROM products ORDER BY created_at DESC")
}

func (r *productRepository) ListProductsByUser(ctx context.Context, userID string) ([]*models.Product, error) {
	return r.list(ctx, "SELECT "+productColumns+" FROM products WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (r *productRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) list(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// rowScanner покрывает и *sql.Row, и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Price, &p.Location, &p.Description, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}
