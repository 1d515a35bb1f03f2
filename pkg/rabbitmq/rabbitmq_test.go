package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensavor/pkg/config"
	"gensavor/pkg/logger"
)

func TestReconnectSecondCallerWaits(t *testing.T) {
	r := &RabbitMQ{
		cfg: &config.RabbitMQConfig{Host: "127.0.0.1", Port: 1, User: "guest", Password: "guest"},
		log: logger.New("rabbitmq-test"),
	}

	ownerCtx, cancelOwner := context.WithCancel(context.Background())
	defer cancelOwner()

	ownerErr := make(chan error, 1)
	go func() { ownerErr <- r.Reconnect(ownerCtx) }()

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.reconnectDone != nil
	}, time.Second, 10*time.Millisecond)

	// A second caller must wait for the in-flight attempt, not report
	// success while the connection is still down.
	waiterCtx, cancelWaiter := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelWaiter()
	assert.ErrorIs(t, r.Reconnect(waiterCtx), context.DeadlineExceeded)

	cancelOwner()
	assert.ErrorIs(t, <-ownerErr, context.Canceled)
}
