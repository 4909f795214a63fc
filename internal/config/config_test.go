package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidateClampsNonPositiveDurations(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := &Config{JWTSecret: "s", AdminEmails: []string{"ops@example.com"}}

	cfg.Validate(zap.New(core))

	assert.Equal(t, 7*24*time.Hour, cfg.DefaultDibsDuration)
	assert.Equal(t, DefaultPaymentRetryMaxElapsed, cfg.PaymentRetryMaxElapsed)
	assert.Equal(t, time.Minute, cfg.ExpirySweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 1, logs.FilterMessageSnippet("PAYMENT_RETRY_MAX_ELAPSED_MS").Len())
}

func TestValidateKeepsExplicitSettings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := &Config{
		JWTSecret:              "s",
		AdminEmails:            []string{"ops@example.com"},
		DefaultDibsDuration:    time.Hour,
		PaymentRetryMaxElapsed: 300 * time.Millisecond,
		ExpirySweepInterval:    time.Second,
		ReconcileInterval:      time.Second,
	}

	cfg.Validate(zap.New(core))

	assert.Equal(t, 300*time.Millisecond, cfg.PaymentRetryMaxElapsed)
	assert.Equal(t, time.Hour, cfg.DefaultDibsDuration)
	assert.Zero(t, logs.Len())
}

func TestPaymentRetryBudget(t *testing.T) {
	assert.Equal(t, DefaultPaymentRetryMaxElapsed, (&Config{}).PaymentRetryBudget())
	assert.Equal(t, DefaultPaymentRetryMaxElapsed, (&Config{PaymentRetryMaxElapsed: -time.Second}).PaymentRetryBudget())
	assert.Equal(t, time.Second, (&Config{PaymentRetryMaxElapsed: time.Second}).PaymentRetryBudget())
}
