package mqttbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCarIDFromTopic(t *testing.T) {
	assert.Equal(t, "car-42", carIDFromTopic("carAlert/car-42/detection"))
	assert.Equal(t, "abc", carIDFromTopic("carAlert/abc/detection"))
	assert.Equal(t, "", carIDFromTopic("carAlert/all"))
	assert.Equal(t, "", carIDFromTopic(""))
}
