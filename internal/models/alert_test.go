package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAlertType_Aliases(t *testing.T) {
	assert.Equal(t, AlertCollision, NormalizeAlertType("car_crash"))
	assert.Equal(t, AlertCollision, NormalizeAlertType("collision"))
	assert.Equal(t, AlertHorn, NormalizeAlertType("car horn"))
	assert.Equal(t, AlertScream, NormalizeAlertType("human scream"))
	assert.Equal(t, AlertGlassBreak, NormalizeAlertType("glass breaking"))
	assert.Equal(t, AlertTireSkid, NormalizeAlertType("skidding"))
}

func TestNormalizeAlertType_UnknownMapsToOther(t *testing.T) {
	assert.Equal(t, AlertOther, NormalizeAlertType("dog barking"))
	assert.Equal(t, AlertOther, NormalizeAlertType(""))
	assert.Equal(t, AlertOther, NormalizeAlertType("unknown"))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusActive.CanTransition(StatusAcknowledged))
	assert.True(t, StatusActive.CanTransition(StatusResolved))
	assert.True(t, StatusActive.CanTransition(StatusFalsePositive))
	assert.True(t, StatusAcknowledged.CanTransition(StatusResolved))

	assert.False(t, StatusAcknowledged.CanTransition(StatusFalsePositive))
	assert.False(t, StatusResolved.CanTransition(StatusActive))
	assert.False(t, StatusFalsePositive.CanTransition(StatusAcknowledged))
	assert.False(t, StatusResolved.CanTransition(StatusResolved))
}
