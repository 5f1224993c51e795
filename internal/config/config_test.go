package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lifeline_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, SenderConsole, cfg.AlertSender)
	assert.Equal(t, DeliveryBestEffort, cfg.AlertDelivery)
	assert.False(t, cfg.GuaranteedDelivery())
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownSenderProfile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lifeline_test")
	t.Setenv("ALERT_SENDER", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_SENDER")
}

func TestLoadRejectsUnknownDeliveryProfile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lifeline_test")
	t.Setenv("ALERT_DELIVERY", "sometimes")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_DELIVERY")
}

func TestGuaranteedDelivery(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lifeline_test")
	t.Setenv("ALERT_SENDER", SenderBroker)
	t.Setenv("ALERT_DELIVERY", DeliveryGuaranteed)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SenderBroker, cfg.AlertSender)
	assert.True(t, cfg.GuaranteedDelivery())
}
