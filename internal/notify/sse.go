package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var ErrChannelClosed = errors.New("channel closed")

var keepaliveFrame = []byte(": ping\n\n")

// EncodeEvent сериализует payload в кадр SSE вида "data: <JSON>\n\n".
func EncodeEvent(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + 8)
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// SSEChannel реализует канал поверх http.ResponseWriter одного запроса.
// Запись защищена мьютексом: Dispatcher пишет из горутин других запросов.
type SSEChannel struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	rc     *http.ResponseController
	closed bool
}

func NewSSEChannel(w http.ResponseWriter) *SSEChannel {
	return &SSEChannel{w: w, rc: http.NewResponseController(w)}
}

// Open переводит ответ в режим потока: заголовки event-stream, пустая строка
// для сброса заголовков клиенту и снятие write deadline сервера.
func (c *SSEChannel) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.w.WriteHeader(http.StatusOK)

	// у сервера стоит WriteTimeout, для долгого соединения он не нужен
	if err := c.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("reset write deadline: %w", err)
	}
	return c.write([]byte("\n"))
}

// Send пишет готовый кадр и сразу сбрасывает его клиенту.
func (c *SSEChannel) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	return c.write(frame)
}

// Ping отправляет комментарий SSE, чтобы прокси не рвали простаивающее соединение.
func (c *SSEChannel) Ping() error {
	return c.Send(keepaliveFrame)
}

// Close запрещает дальнейшие записи. Вызывается до выхода из хендлера,
// после этого ResponseWriter трогать нельзя.
func (c *SSEChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
}

func (c *SSEChannel) write(p []byte) error {
	if _, err := c.w.Write(p); err != nil {
		return err
	}
	if err := c.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
