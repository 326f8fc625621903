package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
)

// ValidationError означает, что входные данные не прошли проверку
type ValidationError struct {
	Op     string
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: missing or invalid fields: %s", e.Op, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError означает, что сущность не найдена
type NotFoundError struct {
	Op     string
	Entity string
	ID     string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %q not found", e.Op, e.Entity, e.ID)
	}
	return fmt.Sprintf("%s: %s not found", e.Op, e.Entity)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// PersistenceError оборачивает ошибку базы данных. Автоматических повторов нет,
// повторять запрос должен клиент.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: persistence failure: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// MaxPrice соответствует колонке NUMERIC(12, 2)
const MaxPrice = 9999999999.99

var validate = newValidator()

// newValidator называет поля по json-тегам, чтобы в ошибках были имена из API
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// тег price: конечное число в (0, MaxPrice] не больше чем с двумя знаками после точки
	if err := v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return ValidPrice(fl.Field().Float())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidPrice сообщает, поместится ли цена в колонку без округления.
func ValidPrice(p float64) bool {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 || p > MaxPrice {
		return false
	}
	cents := p * 100
	return math.Abs(cents-math.Round(cents)) < 1e-3
}

// validateInput прогоняет структуру через validator и заворачивает результат в ValidationError
func validateInput(op string, in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := lo.Uniq(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
			return fe.Field()
		}))
		return &ValidationError{Op: op, Fields: fields, Err: err}
	}
	return &ValidationError{Op: op, Err: err}
}
