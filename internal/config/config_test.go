package config

import (
	"testing"
	"time"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "https://api.moyasar.com/v1", cfg.Moyasar.BaseURL)
	assert.Equal(t, "SAR", cfg.Moyasar.DefaultCurrency)
	assert.Equal(t, 15*time.Second, cfg.Moyasar.ConnectTimeout)
	assert.Equal(t, []string{"mada", "visa", "mastercard"}, cfg.Moyasar.SupportedNetworks)
	assert.Equal(t, []string{"creditcard", "stcpay", "redirect"}, cfg.Moyasar.EnabledMethods)
	assert.True(t, cfg.Subscription.MonthlyPrice.Equal(decimal.NewFromInt(99)))
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestNewConfig_FromEnvironment(t *testing.T) {
	t.Setenv("FUNDUQ_MOYASAR_SECRET_KEY", "sk_test_123")
	t.Setenv("FUNDUQ_MOYASAR_WEBHOOK_SECRET", "whsec")
	t.Setenv("FUNDUQ_MOYASAR_SUPPORTED_NETWORKS", " Visa , mada,,mastercard ")
	t.Setenv("FUNDUQ_MOYASAR_CONNECT_TIMEOUT", "3s")
	t.Setenv("FUNDUQ_MOYASAR_BASE_URL", "https://sandbox.example.com/v1/")
	t.Setenv("FUNDUQ_SUBSCRIPTION_YEARLY_PRICE", "1099.50")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "sk_test_123", cfg.Moyasar.SecretKey)
	assert.Equal(t, "whsec", cfg.Moyasar.WebhookSecret)
	assert.Equal(t, []string{"visa", "mada", "mastercard"}, cfg.Moyasar.SupportedNetworks)
	assert.Equal(t, 3*time.Second, cfg.Moyasar.ConnectTimeout)
	assert.Equal(t, "https://sandbox.example.com/v1", cfg.Moyasar.BaseURL)
	assert.True(t, cfg.Subscription.YearlyPrice.Equal(decimal.RequireFromString("1099.50")))
}

func TestNewConfig_MissingSecretKey(t *testing.T) {
	t.Setenv("FUNDUQ_MOYASAR_SECRET_KEY", "")

	cfg, err := NewConfig()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, ierr.IsConfiguration(err))
}

func TestValidate_KafkaWithoutBrokers(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Moyasar.SecretKey = "sk_test"
	cfg.Kafka.Enabled = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsConfiguration(err))
}

func TestMethodEnabled(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.True(t, cfg.Moyasar.MethodEnabled("creditcard"))
	assert.False(t, cfg.Moyasar.MethodEnabled("applepay"))
}
