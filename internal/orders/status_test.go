package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProcessing))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusProcessing, StatusShipped))
	assert.True(t, CanTransition(StatusProcessing, StatusCancelled))
	assert.True(t, CanTransition(StatusShipped, StatusDelivered))

	assert.False(t, CanTransition(StatusPending, StatusShipped))
	assert.False(t, CanTransition(StatusShipped, StatusCancelled))
	assert.False(t, CanTransition(StatusDelivered, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusProcessing))
	assert.False(t, CanTransition(StatusDelivered, StatusDelivered))
}
