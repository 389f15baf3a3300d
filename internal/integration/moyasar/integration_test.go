//go:build integration

package moyasar

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: go test -tags=integration -v ./internal/integration/moyasar/... -run Integration
var (
	testSecretKey   = os.Getenv("MOYASAR_TEST_SECRET_KEY")
	testBaseURL     = getEnvOrDefault("MOYASAR_TEST_BASE_URL", "https://api.moyasar.com/v1")
	testCallbackURL = getEnvOrDefault("MOYASAR_TEST_CALLBACK_URL", "https://example.com/payments/callback")

	// Moyasar test cards
	testVisaCardApproved = "4111111111111111"
	testCardName         = "Test Cardholder"
	testCardMonth        = "12"
	testCardYear         = "30"
	testCardCVC          = "123"
)

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func newIntegrationClient(t *testing.T) *HTTPClient {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if testSecretKey == "" {
		t.Skip("Skipping integration test: MOYASAR_TEST_SECRET_KEY not set")
	}

	cfg := config.GetDefaultConfig()
	cfg.Moyasar.SecretKey = testSecretKey
	cfg.Moyasar.BaseURL = testBaseURL
	cfg.Moyasar.ConnectTimeout = 30 * time.Second

	client, err := NewClient(cfg, logger.GetLogger())
	require.NoError(t, err)
	return client
}

func TestIntegration_CreateAndFetchCardPayment(t *testing.T) {
	client := newIntegrationClient(t)
	ctx := context.Background()

	// Amount for SAR must end with 0 in halalas
	payment, err := client.CreatePayment(ctx, &PaymentIntent{
		Amount:      decimal.NewFromInt(100),
		Currency:    "SAR",
		Description: "Funduq integration test payment",
		CallbackURL: testCallbackURL,
		Source: CreditCardSource{
			Number:      testVisaCardApproved,
			CVC:         testCardCVC,
			ExpiryMonth: testCardMonth,
			ExpiryYear:  testCardYear,
			HolderName:  testCardName,
		},
		Metadata: map[string]string{types.MetadataKeyBookingID: "bk_integration"},
		GivenID:  types.GenerateGivenID(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, payment.ID)
	assert.Equal(t, int64(10000), payment.Amount)
	assert.NotEmpty(t, payment.RedirectURL())

	fetched, err := client.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, fetched.ID)
	assert.Equal(t, "bk_integration", fetched.Metadata[types.MetadataKeyBookingID])
}

func TestIntegration_ListPayments(t *testing.T) {
	client := newIntegrationClient(t)

	page, err := client.ListPayments(context.Background(), &ListFilter{PerPage: 5})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.Items), 5)
}

func TestIntegration_BadCredentials(t *testing.T) {
	client := newIntegrationClient(t)
	client.cfg.SecretKey = "sk_test_invalid"

	_, err := client.GetPayment(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
}
