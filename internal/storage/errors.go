package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInUse      = errors.New("product has orders")
	ErrOrderNotFound     = errors.New("order not found")
	ErrReferenceNotFound = errors.New("referenced user or product not found")
)

// коды ошибок postgres, см. https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqForeignKeyViolation pq.ErrorCode = "23503"
	pqUniqueViolation     pq.ErrorCode = "23505"
)

func hasPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
