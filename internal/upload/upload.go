package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// под URLPrefix картинки отдаются статикой
const URLPrefix = "/uploads"

var (
	ErrTooLarge        = errors.New("image is too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrEmpty           = errors.New("image is empty")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store сохраняет картинки объявлений на диск.
type Store struct {
	dir     string
	maxSize int64
	now     func() time.Time
}

func NewStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize, now: time.Now}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save проверяет тип по содержимому (а не по расширению) и пишет файл
// с именем "<unix-millis>-<original>". Возвращает публичный URL.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	filename := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitize(name, mt.Extension()))
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return URLPrefix + "/" + filename, nil
}

// Remove удаляет файл по URL, который вернул Save. Отсутствие файла ошибкой не считается.
func (s *Store) Remove(url string) error {
	name, ok := strings.CutPrefix(url, URLPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return fmt.Errorf("not an upload url: %q", url)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func sanitize(name, ext string) string {
	base := unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	if base == "" || base == "." || base == "_" {
		base = "image" + ext
	}
	return base
}
