package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishQueues(t *testing.T) {
	h := NewHub()

	err := h.Publish("carAlert/car-1", map[string]interface{}{"severity": "High"})

	assert.NoError(t, err)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_PublishDropsWhenQueueFull(t *testing.T) {
	h := NewHub()

	// Fill the queue without a running delivery loop.
	for i := 0; i < cap(h.broadcast); i++ {
		assert.NoError(t, h.Publish("carAlert/all", map[string]interface{}{"n": i}))
	}

	err := h.Publish("carAlert/all", map[string]interface{}{"n": "overflow"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}

func TestHub_PublishRejectsUnmarshalablePayload(t *testing.T) {
	h := NewHub()

	err := h.Publish("carAlert/all", map[string]interface{}{"bad": make(chan int)})

	assert.Error(t, err)
}
