package notify_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linemk/campuskart/internal/notify"
	"github.com/stretchr/testify/assert"
)

func TestEncodeEvent(t *testing.T) {
	frame, err := notify.EncodeEvent(map[string]bool{"clear": true})
	assert.NoError(t, err)
	assert.Equal(t, "data: {\"clear\":true}\n\n", string(frame))
}

func TestSSEChannel_OpenWritesHeadersAndBlankLine(t *testing.T) {
	rr := httptest.NewRecorder()
	ch := notify.NewSSEChannel(rr)

	err := ch.Open()

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rr.Header().Get("Connection"))
	assert.Equal(t, "\n", rr.Body.String())
	assert.True(t, rr.Flushed)
}

func TestSSEChannel_SendAndPing(t *testing.T) {
	rr := httptest.NewRecorder()
	ch := notify.NewSSEChannel(rr)
	assert.NoError(t, ch.Open())

	assert.NoError(t, ch.Send([]byte("data: {}\n\n")))
	assert.NoError(t, ch.Ping())

	assert.Equal(t, "\ndata: {}\n\n: ping\n\n", rr.Body.String())
}

func TestSSEChannel_SendAfterClose(t *testing.T) {
	rr := httptest.NewRecorder()
	ch := notify.NewSSEChannel(rr)
	assert.NoError(t, ch.Open())

	ch.Close()
	err := ch.Send([]byte("data: {}\n\n"))

	assert.ErrorIs(t, err, notify.ErrChannelClosed)
	assert.Equal(t, "\n", rr.Body.String())
}
