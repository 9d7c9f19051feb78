package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		errMsg string
	}{
		{
			name: "missing http port",
			config: Config{
				MongoURI:           "mongodb://localhost:27017",
				MongoDatabase:      "smartcar",
				BroadcastTopicBase: "carAlert",
			},
			errMsg: "HTTP_PORT",
		},
		{
			name: "missing mongo uri",
			config: Config{
				HTTPPort:           "8080",
				MongoDatabase:      "smartcar",
				BroadcastTopicBase: "carAlert",
			},
			errMsg: "MONGO_URI",
		},
		{
			name: "missing mongo database",
			config: Config{
				HTTPPort:           "8080",
				MongoURI:           "mongodb://localhost:27017",
				BroadcastTopicBase: "carAlert",
			},
			errMsg: "MONGO_DATABASE",
		},
		{
			name: "negative throttle window",
			config: Config{
				HTTPPort:              "8080",
				MongoURI:              "mongodb://localhost:27017",
				MongoDatabase:         "smartcar",
				BroadcastTopicBase:    "carAlert",
				NotifyThrottleSeconds: -1,
			},
			errMsg: "NOTIFY_THROTTLE_SECONDS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_Load_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("MONGO_URI", "")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "carAlert/+/detection", cfg.DetectionTopic)
	assert.Equal(t, "carAlert/all", cfg.GlobalAlertTopic)
	assert.Equal(t, 300, cfg.NotifyThrottleSeconds)
	assert.True(t, cfg.EnableNotifications)
}

func TestConfig_Load_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("NOTIFY_THROTTLE_SECONDS", "60")
	t.Setenv("ENABLE_NOTIFICATIONS", "false")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 60, cfg.NotifyThrottleSeconds)
	assert.False(t, cfg.EnableNotifications)
}
