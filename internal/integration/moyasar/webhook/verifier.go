package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/funduq/funduq/internal/config"
	ierr "github.com/funduq/funduq/internal/errors"
)

// SignaturePrefix is the optional prefix some deliveries put on the signature
const SignaturePrefix = "sha256="

// Sign returns the hex HMAC-SHA256 of rawBody followed by timestamp
func Sign(rawBody []byte, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature authenticates rawBody and timestamp. The
// signature may carry the sha256= prefix and is compared case-insensitively
// with or without it. An empty secret is a configuration
// error and never verifies.
func Verify(rawBody []byte, signature, timestamp, secret string) (bool, error) {
	if secret == "" {
		return false, ierr.NewError("webhook secret is not configured").
			WithHint("Set FUNDUQ_MOYASAR_WEBHOOK_SECRET").
			Mark(ierr.ErrConfiguration)
	}

	signature = strings.ToLower(strings.TrimSpace(signature))
	signature = strings.TrimPrefix(signature, SignaturePrefix)
	if signature == "" {
		return false, nil
	}

	expected := []byte(Sign(rawBody, timestamp, secret))
	return hmac.Equal(expected, []byte(signature)), nil
}

// Verifier binds Verify to the configured webhook secret
type Verifier struct {
	secret string
}

func NewVerifier(cfg *config.Configuration) *Verifier {
	return &Verifier{secret: cfg.Moyasar.WebhookSecret}
}

// Check returns nil for an authentic delivery, an authentication error for a
// mismatch and a configuration error when no secret is set.
func (v *Verifier) Check(rawBody []byte, signature, timestamp string) error {
	ok, err := Verify(rawBody, signature, timestamp, v.secret)
	if err != nil {
		return err
	}
	if !ok {
		return ierr.NewError("webhook signature mismatch").
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrAuthentication)
	}
	return nil
}
