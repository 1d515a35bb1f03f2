package orderservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensavor/internal/domain"
	"gensavor/internal/menu"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid order", ErrInvalidOrder, http.StatusBadRequest},
		{"wrapped invalid order", fmt.Errorf("%w: no items", ErrInvalidOrder), http.StatusBadRequest},
		{"unknown menu item", menu.ErrUnknownItem, http.StatusBadRequest},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("order lookup: %w", domain.ErrNotFound), http.StatusNotFound},
		{"illegal transition", &domain.InvalidTransitionError{From: domain.StatusReady, To: domain.StatusPending}, http.StatusConflict},
		{"storage down", domain.ErrUnavailable, http.StatusServiceUnavailable},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonError(rec, http.StatusConflict, &domain.InvalidTransitionError{From: domain.StatusReady, To: domain.StatusPending})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "ready")
	assert.Contains(t, body.Error, "pending")
}

func TestSSESend(t *testing.T) {
	rec := httptest.NewRecorder()
	flusher, ok := sseStream(rec)
	require.True(t, ok)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	sseSend(rec, flusher, "queue", map[string]string{"hello": "world"})
	assert.Equal(t, "event: queue\ndata: {\"hello\":\"world\"}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
