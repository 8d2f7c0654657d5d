package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Shutdown calls Close and cancels the root context back to back; both
// paths must be able to race without double-closing the inbox.
func TestProducerCloseThenCancel(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:9092"}, "orders", 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	p.Close()
	cancel()
	p.WaitClosed()

	assert.NotPanics(t, func() { p.Close() })
}

func TestProducerCancelThenClose(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:9092"}, "orders", 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	cancel()
	p.WaitClosed()

	assert.NotPanics(t, func() { p.Close() })
}
