package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		CartID string `json:"cart_id"`
		Qty    int    `json:"qty"`
	}

	raw := MustMarshal(payload{CartID: "c1", Qty: 3})
	got, err := UnwrapPayload[payload](json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, "c1", got.CartID)
	assert.Equal(t, 3, got.Qty)
}

func TestUnwrapPayloadBadJSON(t *testing.T) {
	_, err := UnwrapPayload[map[string]string](json.RawMessage(`{oops`))
	assert.Error(t, err)
}
